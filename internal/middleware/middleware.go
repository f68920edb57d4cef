package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"os"
	"strings"

	"github.com/labstack/echo/v4"

	"paygateway/internal/models"
)

const detailField = "detail"

// errorEnvelope writes a single non-field error in the API envelope.
func errorEnvelope(c echo.Context, status int, msg string, items ...any) error {
	return c.JSON(status, models.NewEnvelope([]models.ErrorItem{{Field: detailField, Message: msg}}, items...))
}

// APIAuth validates the Token header against the API key or the hash file.
// The hash file holds either the token itself or its hex sha256.
func APIAuth(apiKey string, hashFilePath string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := c.Request().Header.Get("Token")
			if token == "" {
				return errorEnvelope(c, http.StatusUnauthorized, "Authentication credentials were not provided.")
			}

			if apiKey != "" && token == apiKey {
				return next(c)
			}

			if hashFilePath != "" {
				hashData, err := os.ReadFile(hashFilePath)
				if err == nil {
					hash := strings.TrimSpace(string(hashData))
					if hash != "" && token == hash {
						return next(c)
					}
					h := sha256.Sum256([]byte(token))
					if hex.EncodeToString(h[:]) == hash {
						return next(c)
					}
				}
			}

			return errorEnvelope(c, http.StatusUnauthorized, "Invalid token.")
		}
	}
}

// CORS configures CORS headers.
func CORS() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("Access-Control-Allow-Origin", "*")
			c.Response().Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Response().Header().Set("Access-Control-Allow-Headers", "Content-Type, Token, Authorization")
			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusOK)
			}
			return next(c)
		}
	}
}
