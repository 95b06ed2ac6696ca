package middleware

import (
	"crypto/subtle"
	"log"
	"net/http"

	"med_voice_app_go/config"

	"github.com/labstack/echo/v4"
)

// RequireAPIKey gates the CRUD endpoints behind a bearer key. When no key is
// configured the endpoints are open and every request logs a warning, so an
// unprotected deployment is at least visible in the logs.
func RequireAPIKey(cfg *config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.APIKey == "" {
				log.Println("[WARNING] API key not configured, skipping authentication")
				return next(c)
			}

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				log.Println("Missing authorization header")
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "Unauthorized",
				})
			}

			expected := "Bearer " + cfg.APIKey
			if subtle.ConstantTimeCompare([]byte(authHeader), []byte(expected)) != 1 {
				log.Println("Invalid API key")
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "Unauthorized",
				})
			}

			return next(c)
		}
	}
}
