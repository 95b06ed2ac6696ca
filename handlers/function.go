package handlers

import (
	"net/http"
	"strings"

	"med_voice_app_go/db"
	"med_voice_app_go/models"
	"med_voice_app_go/services"

	"github.com/labstack/echo/v4"
)

// FetchPatient is the function endpoint the voice assistant calls mid-call
// when a caller states their medical ID. The response is formatted for
// direct injection into the assistant's context.
func FetchPatient(c echo.Context) error {
	var input struct {
		MedicalID string `json:"medical_id"`
	}
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
	}

	if input.MedicalID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Medical ID is required",
		})
	}

	medicalID := strings.ToUpper(services.SanitizeString(input.MedicalID))

	var patient models.Patient
	if err := db.DB.First(&patient, "medical_id = ?", medicalID).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]interface{}{
			"error":      "Patient not found",
			"medical_id": medicalID,
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"patient_found": true,
		"patient_info": map[string]interface{}{
			"name":                patient.Name,
			"medical_id":          patient.MedicalID,
			"allergies":           withDefault(patient.Allergies, "None reported"),
			"current_medications": withDefault(patient.CurrentMedications, "None"),
			"medical_history":     withDefault(patient.MedicalHistory, "No significant history"),
			"last_call_summary":   withDefault(patient.LastCallSummary, "No previous calls"),
		},
	})
}

func withDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
