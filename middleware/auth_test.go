package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"med_voice_app_go/config"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestRequireAPIKey(t *testing.T) {
	e := echo.New()

	okHandler := func(c echo.Context) error {
		return c.String(http.StatusOK, "success")
	}

	run := func(cfg *config.Config, authHeader string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/bots", nil)
		if authHeader != "" {
			req.Header.Set(echo.HeaderAuthorization, authHeader)
		}
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		assert.NoError(t, RequireAPIKey(cfg)(okHandler)(c))
		return rec
	}

	t.Run("NoKeyConfiguredOpen", func(t *testing.T) {
		rec := run(&config.Config{}, "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("ValidKey", func(t *testing.T) {
		rec := run(&config.Config{APIKey: "secret-key"}, "Bearer secret-key")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("MissingHeader", func(t *testing.T) {
		rec := run(&config.Config{APIKey: "secret-key"}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("WrongKey", func(t *testing.T) {
		rec := run(&config.Config{APIKey: "secret-key"}, "Bearer wrong-key")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("MissingBearerPrefix", func(t *testing.T) {
		rec := run(&config.Config{APIKey: "secret-key"}, "secret-key")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
