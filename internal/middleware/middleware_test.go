package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authServer(apiKey, hashFile string) *echo.Echo {
	e := echo.New()
	g := e.Group("/api/payments", APIAuth(apiKey, hashFile))
	g.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "pong")
	})
	return e
}

func get(e *echo.Echo, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/payments/ping", nil)
	if token != "" {
		req.Header.Set("Token", token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAPIAuth(t *testing.T) {
	dir := t.TempDir()
	sum := sha256.Sum256([]byte("hashed-token"))
	hashed := filepath.Join(dir, "hash.txt")
	require.NoError(t, os.WriteFile(hashed, []byte(hex.EncodeToString(sum[:])+"\n"), 0o600))
	plain := filepath.Join(dir, "plain.txt")
	require.NoError(t, os.WriteFile(plain, []byte("plain-token"), 0o600))

	tests := []struct {
		name     string
		apiKey   string
		hashFile string
		token    string
		status   int
		body     string
	}{
		{"missing", "key", "", "", http.StatusUnauthorized, "Authentication credentials were not provided."},
		{"api key", "key", "", "key", http.StatusOK, "pong"},
		{"wrong key", "key", "", "nope", http.StatusUnauthorized, "Invalid token."},
		{"sha256 file", "", hashed, "hashed-token", http.StatusOK, "pong"},
		{"plain file", "", plain, "plain-token", http.StatusOK, "pong"},
		{"missing file", "", filepath.Join(dir, "absent.txt"), "plain-token", http.StatusUnauthorized, "Invalid token."},
		{"empty key never matches", "", "", "anything", http.StatusUnauthorized, "Invalid token."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(authServer(tt.apiKey, tt.hashFile), tt.token)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	e := echo.New()
	e.Use(CORS())
	e.POST("/x", func(c echo.Context) error { return c.NoContent(http.StatusCreated) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Token")
}
