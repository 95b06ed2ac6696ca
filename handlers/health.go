package handlers

import (
	"net/http"

	"med_voice_app_go/db"
	"med_voice_app_go/models"
	"med_voice_app_go/services"

	"github.com/labstack/echo/v4"
)

// Health reports database connectivity and basic state
func Health(c echo.Context) error {
	var botCount int64
	if err := db.DB.Model(&models.Bot{}).Count(&botCount).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status": "error",
			"error":  "Database unreachable",
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":     "success",
		"connection": "OK",
		"bot_count":  botCount,
	})
}

// Metrics exposes the monitoring service's per-endpoint error counters
func Metrics(monitor *services.MonitoringService) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, monitor.Metrics())
	}
}
