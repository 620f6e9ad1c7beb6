package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"fundfolio/internal/auth"

	"github.com/golang-jwt/jwt/v5"
)

const baseURL = "http://localhost:8080"

var bearer string

// Smoke-tests a locally running server end to end. Needs JWT_SECRET (same
// value the server was started with) and a seeded user with id 1.
func main() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is required to mint a test token")
	}
	bearer = mintToken(secret, 1, "demo@example.com")

	// Wait for server to start
	time.Sleep(2 * time.Second)

	// 1. Health Check
	checkEndpoint("GET", "/health", nil, 200)

	// 2. Public leaderboard
	checkEndpoint("GET", "/api/leaderboard?type=total", nil, 200)

	// 3. Add a holding
	holdingID := addHolding()
	fmt.Printf("Created Holding ID: %v\n", holdingID)

	// 4. List holdings (also refreshes the rollup)
	checkEndpoint("GET", "/api/holdings", nil, 200)

	// 5. Update the holding
	checkEndpoint("PUT", fmt.Sprintf("/api/update/%v", holdingID), map[string]interface{}{
		"fund_code": "161725",
		"cost":      "1.2000",
		"shares":    "1500",
	}, 200)

	// 6. Delete the holding
	checkEndpoint("DELETE", fmt.Sprintf("/api/delete/%v", holdingID), nil, 200)

	// 7. Verify the list is consistent afterwards
	checkEndpoint("GET", "/api/holdings", nil, 200)

	fmt.Println("ALL TESTS PASSED")
}

func mintToken(secret string, userID int64, email string) string {
	claims := auth.Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		log.Fatalf("sign token: %v", err)
	}
	return token
}

func checkEndpoint(method, path string, body interface{}, expectedStatus int) {
	fmt.Printf("Testing %s %s...\n", method, path)
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, _ := http.NewRequest(method, baseURL+path, bodyReader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != expectedStatus {
		log.Fatalf("Expected status %d, got %d. Body: %s", expectedStatus, resp.StatusCode, string(respBody))
	}
	fmt.Printf("Response: %s\n", string(respBody))
}

func addHolding() json.Number {
	fmt.Println("Adding holding...")
	reqBody := map[string]interface{}{
		"fund_code": "161725",
		"cost":      "1.1000",
		"shares":    "1000",
	}
	jsonBody, _ := json.Marshal(reqBody)
	req, _ := http.NewRequest("POST", baseURL+"/api/add", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("Add holding failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 201 {
		body, _ := io.ReadAll(resp.Body)
		log.Fatalf("Add holding failed with status %d: %s", resp.StatusCode, string(body))
	}

	var res struct {
		ID json.Number `json:"id"`
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	dec.Decode(&res)
	return res.ID
}
