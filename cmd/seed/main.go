package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// Seeds a handful of demo users and holdings so the leaderboard and holdings
// endpoints have data to show on a fresh database.
func main() {
	godotenv.Load()
	dbURL := os.Getenv("POSTGRES_URL")
	if dbURL == "" {
		log.Fatal("POSTGRES_URL is required")
	}

	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	users := []struct {
		email    string
		nickname string
	}{
		{"demo@example.com", "demo"},
		{"alice@example.com", "alice"},
		{"bob@example.com", "bob"},
	}
	for _, u := range users {
		_, err := db.ExecContext(ctx, `INSERT INTO users (email, nickname, total_profit, day_profit) VALUES ($1, $2, 0, 0) ON CONFLICT (email) DO NOTHING`, u.email, u.nickname)
		if err != nil {
			fmt.Printf("Warning: could not insert user %s: %v\n", u.email, err)
		}
	}

	holdings := []struct {
		email    string
		fundCode string
		fundName string
		cost     string
		shares   string
	}{
		{"demo@example.com", "161725", "unknown fund", "1.1000", "1000"},
		{"demo@example.com", "110011", "unknown fund", "4.8500", "250"},
		{"alice@example.com", "005827", "unknown fund", "2.3100", "500"},
	}
	for _, h := range holdings {
		_, err := db.ExecContext(ctx, `
			INSERT INTO holdings (user_id, fund_code, fund_name, avg_cost, hold_share, created_at)
			SELECT id, $2, $3, $4::numeric, $5::numeric, now() FROM users WHERE email = $1`,
			h.email, h.fundCode, h.fundName, h.cost, h.shares)
		if err != nil {
			fmt.Printf("Warning: could not insert holding %s for %s: %v\n", h.fundCode, h.email, err)
		}
	}

	fmt.Println("Successfully seeded demo data!")
	fmt.Println("Now list holdings: GET /api/holdings with a demo user token")
}
