package handlers

import (
	"net/http"
	"strings"

	"med_voice_app_go/db"
	"med_voice_app_go/models"
	"med_voice_app_go/services"

	"github.com/labstack/echo/v4"
)

// GetPatients returns all patients, newest first
func GetPatients(c echo.Context) error {
	var patients []models.Patient

	if err := db.DB.Order("created_at DESC").Find(&patients).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to fetch patients",
		})
	}

	return c.JSON(http.StatusOK, patients)
}

// GetPatient returns a single patient by ID
func GetPatient(c echo.Context) error {
	id := c.Param("id")
	var patient models.Patient

	if err := db.DB.First(&patient, "id = ?", id).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "Patient not found",
		})
	}

	return c.JSON(http.StatusOK, patient)
}

// CreatePatient registers a new patient record
func CreatePatient(c echo.Context) error {
	patient := new(models.Patient)

	if err := c.Bind(patient); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
	}

	if patient.MedicalID == "" || patient.Name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Medical ID and name are required",
		})
	}

	patient.MedicalID = strings.ToUpper(services.SanitizeString(patient.MedicalID))
	if !services.IsValidMedicalID(patient.MedicalID) {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid medical ID format",
		})
	}
	if patient.Phone != "" && !services.IsValidPhone(patient.Phone) {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid phone number format",
		})
	}

	if err := db.DB.Create(patient).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to create patient",
		})
	}

	return c.JSON(http.StatusCreated, patient)
}
