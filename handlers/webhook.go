package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"med_voice_app_go/config"
	"med_voice_app_go/models"
	"med_voice_app_go/services"

	"github.com/labstack/echo/v4"
)

// Webhooks handles the voice platform's pre-call and post-call callbacks.
// All collaborators are injected so the pipeline can be tested without
// process-wide state.
type Webhooks struct {
	Config   *config.Config
	Store    *services.Store
	Bots     *services.BotResolver
	Patients *services.PatientResolver
}

func NewWebhooks(cfg *config.Config, store *services.Store) *Webhooks {
	return &Webhooks{
		Config:   cfg,
		Store:    store,
		Bots:     services.NewBotResolver(store),
		Patients: services.NewPatientResolver(store),
	}
}

// readValidatedPayload verifies the signature over the raw body, parses the
// JSON and runs payload validation. Returns nil after writing the response
// when any stage rejects the request.
func (h *Webhooks) readValidatedPayload(c echo.Context) (map[string]interface{}, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Failed to read request body",
		})
	}

	signature := c.Request().Header.Get(services.SignatureHeader)
	if !services.VerifyWebhookSignature(body, signature, h.Config.WebhookSecret, h.Config.AllowUnsignedWebhooks) {
		return nil, c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Invalid webhook signature",
		})
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid JSON payload",
		})
	}

	validation := services.ValidateWebhookPayload(raw)
	if !validation.IsValid {
		return nil, c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "Validation failed",
			"details": validation.Errors,
		})
	}

	return validation.Sanitized, nil
}

// PreCall resolves the caller to a patient context before the call starts.
// Resolution failure is never fatal here; the platform always gets a
// context string it can inject.
func (h *Webhooks) PreCall(c echo.Context) error {
	payload, err := h.readValidatedPayload(c)
	if payload == nil {
		return err
	}

	from := getString(payload, "from")
	to := getString(payload, "to")
	callID := getString(payload, "call_id")
	botID := getString(payload, "bot_id")
	medicalID := getString(payload, "medical_id")
	if medicalID == "" {
		medicalID = getString(payload, "patient_id")
	}

	lookup, lookupErr := h.Patients.Lookup(from, medicalID)
	if lookupErr != nil {
		log.Printf("Pre-call webhook error: %v", lookupErr)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error":   "Internal server error",
			"context": "System error occurred. Please proceed with the call and gather patient information manually.",
		})
	}

	// Platforms sending the structured call wrapper expect the
	// dynamic-variables response shape
	if wrapper, ok := payload["call"].(map[string]interface{}); ok {
		variables := map[string]interface{}{
			"patient_context": lookup.Context,
		}
		if lookup.Patient != nil {
			variables["patient_name"] = lookup.Patient.Name
			variables["medical_id"] = lookup.Patient.MedicalID
		}
		if name, ok := wrapper["customer_name"].(string); ok && name != "" {
			variables["customer_name"] = services.SanitizeString(name)
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"call": map[string]interface{}{
				"dynamic_variables": variables,
			},
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"patient_data": lookup.Patient,
		"context":      lookup.Context,
		"call_details": map[string]string{
			"from":    from,
			"to":      to,
			"call_id": callID,
			"bot_id":  botID,
		},
	})
}

// PostCall resolves the finished call to a bot and patient and records the
// event. Resolution degrades to null references where possible; only missing
// identification is fatal.
func (h *Webhooks) PostCall(c echo.Context) error {
	payload, err := h.readValidatedPayload(c)
	if payload == nil {
		return err
	}

	callID := getString(payload, "call_id")
	botUID := getString(payload, "bot_id")
	botName := getString(payload, "bot_name")
	transcript := getString(payload, "transcript")
	summary := getString(payload, "summary")
	status := getString(payload, "status")
	customerName := getString(payload, "customer_name")
	medicalID := getString(payload, "medical_id")
	if medicalID == "" {
		medicalID = getString(payload, "patient_id")
	}

	// The structured call wrapper may carry name hints too
	if wrapper, ok := payload["call"].(map[string]interface{}); ok {
		if customerName == "" {
			if name, ok := wrapper["customer_name"].(string); ok {
				customerName = services.SanitizeString(name)
			}
		}
		if botName == "" {
			if name, ok := wrapper["bot_name"].(string); ok {
				botName = services.SanitizeString(name)
			}
		}
	}

	functionCalls, _ := payload["function_calls"].([]interface{})

	botRef, resolveErr := h.Bots.Resolve(botUID, botName, summary)
	if resolveErr != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to resolve bot",
		})
	}
	if !botRef.Resolved() && botUID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Bot identification missing: provide bot_id or bot_name",
		})
	}

	resolution, resolveErr := h.Patients.ResolvePostCall(medicalID, transcript, summary, customerName, functionCalls)
	if resolveErr != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to resolve patient",
		})
	}
	if !resolution.Identified() {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Patient identification missing: provide patient_id, medical_id or customer_name",
		})
	}

	callLog := &models.CallLog{
		CallSID:    callID,
		Transcript: transcript,
		Summary:    summary,
		Status:     models.CallStatusCompleted,
		Duration:   h.Config.DefaultCallDuration,
	}
	if status != "" {
		callLog.Status = status
	}
	if duration, ok := payload["duration"].(int); ok {
		callLog.Duration = duration
	}
	if resolution.Patient != nil {
		callLog.PatientID = &resolution.Patient.ID
	}

	switch {
	case botRef.Bot != nil:
		callLog.BotID = &botRef.Bot.ID
	case botRef.Placeholder:
		placeholder, phErr := h.Store.EnsurePlaceholderBot(botRef.Name)
		if phErr != nil {
			// Degrade to a null bot reference; the event still gets logged
			log.Printf("Failed to ensure placeholder bot: %v", phErr)
		} else {
			callLog.BotID = &placeholder.ID
		}
	}

	if metadata, ok := payload["metadata"]; ok {
		callLog.Metadata = encodeJSON(metadata)
	}
	if functionCalls != nil {
		callLog.FunctionCalls = encodeJSON(functionCalls)
	}

	if err := h.Store.InsertCallLog(callLog); err != nil {
		log.Printf("Error logging call: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to log call",
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Call logged successfully",
	})
}

func getString(payload map[string]interface{}, key string) string {
	value, _ := payload[key].(string)
	return value
}

func encodeJSON(value interface{}) string {
	encoded, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return string(encoded)
}
