package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// Strict policy strips all HTML so transcripts/summaries are safe to
	// render later (XSS protection)
	sanitizePolicy = bluemonday.StrictPolicy()

	phoneRegex     = regexp.MustCompile(`^\+?[0-9\s\-()]{10,}$`)
	medicalIDRegex = regexp.MustCompile(`(?i)^MED\d{3}$`)
)

// SanitizeString trims and strips any HTML/script content from input.
// Idempotent: sanitizing an already sanitized string is a no-op.
func SanitizeString(input string) string {
	return strings.TrimSpace(sanitizePolicy.Sanitize(strings.TrimSpace(input)))
}

// IsValidPhone checks the loose phone number format accepted from the
// call platform: optional +, then at least 10 digits/spaces/dashes/parens
func IsValidPhone(phone string) bool {
	return phoneRegex.MatchString(phone)
}

// IsValidMedicalID checks the canonical MED### format, case-insensitive
func IsValidMedicalID(id string) bool {
	return medicalIDRegex.MatchString(id)
}

// ValidationResult is the outcome of webhook payload validation
type ValidationResult struct {
	IsValid   bool
	Sanitized map[string]interface{}
	Errors    []string
}

// stringFields are the recognized free-form string fields, sanitized but not
// format-checked. Fields with format rules (from, patient_id, medical_id,
// duration) are handled separately.
var stringFields = []string{"call_id", "bot_id", "bot_name", "to", "summary", "status", "customer_name"}

// ValidateWebhookPayload sanitizes and type-checks a parsed webhook body.
// Unrecognized or absent optional fields pass through without error; any
// format violation makes the whole payload invalid.
func ValidateWebhookPayload(body map[string]interface{}) ValidationResult {
	errors := []string{}
	sanitized := map[string]interface{}{}

	for _, field := range stringFields {
		if value, ok := body[field].(string); ok && value != "" {
			sanitized[field] = SanitizeString(value)
		}
	}

	if from, ok := body["from"].(string); ok && from != "" {
		cleaned := SanitizeString(from)
		sanitized["from"] = cleaned
		if !IsValidPhone(cleaned) {
			errors = append(errors, "Invalid phone number format")
		}
	}

	// Transcript arrives either as plain text or as [speaker, message] pairs
	if raw, ok := body["transcript"]; ok && raw != nil {
		if transcript := NormalizeTranscript(raw); transcript != "" {
			sanitized["transcript"] = SanitizeString(transcript)
		}
	}

	if raw, ok := body["duration"]; ok && raw != nil {
		duration, err := toNonNegativeNumber(raw)
		if err != nil {
			errors = append(errors, "Invalid duration")
		} else {
			sanitized["duration"] = duration
		}
	}

	for _, field := range []string{"patient_id", "medical_id"} {
		if value, ok := body[field].(string); ok && value != "" {
			cleaned := strings.ToUpper(SanitizeString(value))
			sanitized[field] = cleaned
			if !IsValidMedicalID(cleaned) {
				errors = append(errors, "Invalid medical ID format")
			}
		}
	}

	// Structured objects are passed through untouched
	for _, field := range []string{"metadata", "function_calls", "call"} {
		if value, ok := body[field]; ok && value != nil {
			sanitized[field] = value
		}
	}

	return ValidationResult{
		IsValid:   len(errors) == 0,
		Sanitized: sanitized,
		Errors:    errors,
	}
}

// NormalizeTranscript flattens the platform's transcript shapes into plain
// text. A list of [speaker, message] pairs becomes one "speaker: message"
// line per turn.
func NormalizeTranscript(raw interface{}) string {
	switch v := raw.(type) {
	case string:
		return v
	case []interface{}:
		lines := make([]string, 0, len(v))
		for _, turn := range v {
			pair, ok := turn.([]interface{})
			if !ok || len(pair) < 2 {
				continue
			}
			speaker, _ := pair[0].(string)
			message, _ := pair[1].(string)
			if message == "" {
				continue
			}
			if speaker != "" {
				lines = append(lines, speaker+": "+message)
			} else {
				lines = append(lines, message)
			}
		}
		return strings.Join(lines, "\n")
	default:
		return ""
	}
}

func toNonNegativeNumber(raw interface{}) (int, error) {
	var duration float64
	switch v := raw.(type) {
	case float64:
		duration = v
	case int:
		duration = float64(v)
	case string:
		if _, err := fmt.Sscanf(strings.TrimSpace(v), "%f", &duration); err != nil {
			return 0, fmt.Errorf("not a number: %q", v)
		}
	default:
		return 0, fmt.Errorf("unsupported duration type %T", raw)
	}
	if duration < 0 {
		return 0, fmt.Errorf("negative duration")
	}
	return int(duration), nil
}
