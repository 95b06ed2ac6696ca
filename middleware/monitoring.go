package middleware

import (
	"fmt"
	"net/http"

	"med_voice_app_go/services"

	"github.com/labstack/echo/v4"
)

// WithMonitoring wraps a handler so every failed request is recorded against
// the endpoint's metrics. Handlers answer their own 4xx/5xx JSON bodies and
// return nil, so the written status code is inspected as well; errors that
// escape the handler are recorded and converted to a generic internal-error
// response.
func WithMonitoring(monitor *services.MonitoringService, endpoint string, handler echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := handler(c)

		req := c.Request()
		requestContext := map[string]interface{}{
			"method":     req.Method,
			"url":        req.URL.String(),
			"user_agent": req.UserAgent(),
		}

		if err == nil {
			if status := c.Response().Status; status >= http.StatusBadRequest {
				monitor.LogError(endpoint, fmt.Errorf("request failed with status %d %s", status, http.StatusText(status)), requestContext)
				return nil
			}
			monitor.LogSuccess(endpoint)
			return nil
		}

		monitor.LogError(endpoint, err, requestContext)

		// Echo errors carry their own status; everything else becomes a 500
		if httpErr, ok := err.(*echo.HTTPError); ok {
			return httpErr
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Internal server error",
		})
	}
}
