package handlers

import (
	"net/http"

	"med_voice_app_go/db"
	"med_voice_app_go/models"

	"github.com/labstack/echo/v4"
)

// GetBots returns all bots, newest first
func GetBots(c echo.Context) error {
	var bots []models.Bot

	if err := db.DB.Order("created_at DESC").Find(&bots).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to fetch bots",
		})
	}

	return c.JSON(http.StatusOK, bots)
}

// GetBot returns a single bot by ID
func GetBot(c echo.Context) error {
	id := c.Param("id")
	var bot models.Bot

	if err := db.DB.First(&bot, "id = ?", id).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "Bot not found",
		})
	}

	return c.JSON(http.StatusOK, bot)
}

// CreateBot registers a new bot
func CreateBot(c echo.Context) error {
	bot := new(models.Bot)

	if err := c.Bind(bot); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
	}

	// Validate required fields
	if bot.UID == "" || bot.Name == "" || bot.Prompt == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "UID, name, and prompt are required",
		})
	}

	if bot.Domain == "" {
		bot.Domain = "medical"
	}
	bot.IsActive = true

	if err := db.DB.Create(bot).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to create bot",
		})
	}

	return c.JSON(http.StatusCreated, bot)
}

// UpdateBot updates an existing bot
func UpdateBot(c echo.Context) error {
	id := c.Param("id")
	var bot models.Bot

	if err := db.DB.First(&bot, "id = ?", id).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "Bot not found",
		})
	}

	var input struct {
		UID      *string `json:"uid"`
		Name     *string `json:"name"`
		Prompt   *string `json:"prompt"`
		Domain   *string `json:"domain"`
		IsActive *bool   `json:"is_active"`
	}
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
	}

	if input.UID != nil {
		bot.UID = *input.UID
	}
	if input.Name != nil {
		bot.Name = *input.Name
	}
	if input.Prompt != nil {
		bot.Prompt = *input.Prompt
	}
	if input.Domain != nil {
		bot.Domain = *input.Domain
	}
	if input.IsActive != nil {
		bot.IsActive = *input.IsActive
	}

	if err := db.DB.Save(&bot).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to update bot",
		})
	}

	return c.JSON(http.StatusOK, bot)
}

// DeleteBot removes a bot
func DeleteBot(c echo.Context) error {
	id := c.Param("id")

	result := db.DB.Delete(&models.Bot{}, "id = ?", id)
	if result.Error != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to delete bot",
		})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "Bot not found",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Bot deleted successfully",
	})
}
