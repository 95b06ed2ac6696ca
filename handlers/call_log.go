package handlers

import (
	"net/http"
	"strconv"

	"med_voice_app_go/db"
	"med_voice_app_go/models"

	"github.com/labstack/echo/v4"
)

// MaxCallLogPageSize caps the limit query parameter
const MaxCallLogPageSize = 200

// GetCallLogs returns call logs, newest first, optionally filtered by bot
func GetCallLogs(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "Invalid limit",
			})
		}
		limit = parsed
	}
	if limit > MaxCallLogPageSize {
		limit = MaxCallLogPageSize
	}

	query := db.DB.
		Preload("Bot").
		Preload("Patient").
		Order("created_at DESC").
		Limit(limit)

	if botID := c.QueryParam("bot_id"); botID != "" {
		query = query.Where("bot_id = ?", botID)
	}

	var logs []models.CallLog
	if err := query.Find(&logs).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to fetch call logs",
		})
	}

	return c.JSON(http.StatusOK, logs)
}
