package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func mint(t *testing.T, key []byte, userID int64, ttl time.Duration) string {
	t.Helper()
	claims := Claims{
		UserID: userID,
		Email:  "user@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", Middleware(secret), func(c *gin.Context) {
		id, ok := UserID(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no identity"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	})
	return r
}

func do(r *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMiddleware_ValidToken(t *testing.T) {
	r := newRouter()
	w := do(r, "Bearer "+mint(t, secret, 7, time.Hour))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":7}`, w.Body.String())
}

func TestMiddleware_MissingCredentials(t *testing.T) {
	r := newRouter()
	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer ").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Basic dXNlcjpwYXNz").Code)
}

func TestMiddleware_InvalidToken(t *testing.T) {
	r := newRouter()
	assert.Equal(t, http.StatusForbidden, do(r, "Bearer not-a-jwt").Code)
}

func TestMiddleware_WrongKey(t *testing.T) {
	r := newRouter()
	w := do(r, "Bearer "+mint(t, []byte("other-secret"), 7, time.Hour))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMiddleware_ExpiredToken(t *testing.T) {
	r := newRouter()
	w := do(r, "Bearer "+mint(t, secret, 7, -time.Minute))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMiddleware_TokenWithoutUserID(t *testing.T) {
	r := newRouter()
	w := do(r, "Bearer "+mint(t, secret, 0, time.Hour))
	assert.Equal(t, http.StatusForbidden, w.Code)
}
