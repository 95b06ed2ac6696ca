package services

import (
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"med_voice_app_go/models"
)

// NoPatientContext is injected into calls when no record could be matched
const NoPatientContext = "No patient data available. Please have the caller provide their medical ID during the conversation."

var (
	medicalIDAnywhereRegex = regexp.MustCompile(`(?i)MED\d{3}`)

	// patientNameExtractors recover a patient name from call summaries,
	// e.g. "...registered the patient as Maria Lopez."
	patientNameExtractors = []NameExtractor{
		regexExtractor(`(?i)patient as ([A-Za-z][\w']*(?: [A-Za-z][\w']*)?)\.`),
		regexExtractor(`(?i)caller name is ([A-Za-z][\w']*(?: [A-Za-z][\w']*)?)`),
	}
)

// ExtractPatientName runs the patient name extractor chain over free text
func ExtractPatientName(text string) (string, bool) {
	for _, extract := range patientNameExtractors {
		if name, ok := extract(text); ok {
			return name, true
		}
	}
	return "", false
}

// ExtractMedicalID recovers a medical ID from structured function-call
// records (a fetch_patient invocation or any call carrying a medical_id
// argument), falling back to a transcript scan. Returns "" when nothing
// id-like is found.
func ExtractMedicalID(functionCalls []interface{}, transcript string) string {
	for _, raw := range functionCalls {
		call, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}

		name, _ := call["function"].(string)
		if name == "" {
			name, _ = call["name"].(string)
		}
		args, _ := call["arguments"].(map[string]interface{})

		hasIDArg := false
		if args != nil {
			_, hasIDArg = args["medical_id"]
		}
		if name != "fetch_patient" && !hasIDArg {
			continue
		}
		if args == nil {
			continue
		}

		if id, ok := args["medical_id"].(string); ok && id != "" {
			return strings.ToUpper(SanitizeString(id))
		}
		if id, ok := args["id"].(string); ok && id != "" {
			return strings.ToUpper(SanitizeString(id))
		}
	}

	if transcript != "" {
		if match := medicalIDAnywhereRegex.FindString(transcript); match != "" {
			return strings.ToUpper(match)
		}
	}

	return ""
}

// PatientContext builds the descriptive string injected into a live call,
// substituting explicit defaults for missing optional fields
func PatientContext(p *models.Patient) string {
	return fmt.Sprintf(
		"Patient Information: Name: %s, Medical ID: %s, Allergies: %s, Current Medications: %s, Medical History: %s, Last Call Summary: %s",
		p.Name,
		p.MedicalID,
		orDefault(p.Allergies, "None reported"),
		orDefault(p.CurrentMedications, "None"),
		orDefault(p.MedicalHistory, "No significant history"),
		orDefault(p.LastCallSummary, "No previous calls"),
	)
}

func demoPatientContext(p *models.Patient) string {
	return fmt.Sprintf(
		"Example Patient Data (for demo): Name: %s, Medical ID: %s. In a real scenario, verify patient identity during the call.",
		p.Name, p.MedicalID,
	)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// PatientLookup is the outcome of a pre-call lookup
type PatientLookup struct {
	Patient *models.Patient
	Context string
	// Demo marks the permissive no-caller-ID fallback, not a real match
	Demo bool
}

// PostCallResolution is the outcome of post-call patient resolution.
// MedicalID and NameHint report what identification was derivable even
// when no patient could be matched or created.
type PostCallResolution struct {
	Patient   *models.Patient
	Created   bool
	MedicalID string
	NameHint  string
}

// Identified reports whether any patient identification was derivable
func (r PostCallResolution) Identified() bool {
	return r.MedicalID != "" || r.NameHint != ""
}

// PatientResolver maps call identification data to patient records
type PatientResolver struct {
	store *Store
	now   func() time.Time
}

func NewPatientResolver(store *Store) *PatientResolver {
	return &PatientResolver{store: store, now: time.Now}
}

// Lookup resolves a pre-call request to a patient context. Medical ID wins
// over phone; with no identification at all an arbitrary existing record is
// returned with a context explicitly marked as demo data. Never fatal.
func (r *PatientResolver) Lookup(from, medicalID string) (PatientLookup, error) {
	if medicalID != "" && IsValidMedicalID(medicalID) {
		patient, err := r.store.FindPatientByMedicalID(strings.ToUpper(medicalID))
		if err != nil {
			return PatientLookup{}, err
		}
		if patient != nil {
			return PatientLookup{Patient: patient, Context: PatientContext(patient)}, nil
		}
	}

	if from != "" {
		patient, err := r.store.FindPatientByPhone(SanitizeString(from))
		if err != nil {
			return PatientLookup{}, err
		}
		if patient != nil {
			return PatientLookup{Patient: patient, Context: PatientContext(patient)}, nil
		}
	}

	patient, err := r.store.FirstPatient()
	if err != nil {
		return PatientLookup{}, err
	}
	if patient != nil {
		return PatientLookup{Patient: patient, Context: demoPatientContext(patient), Demo: true}, nil
	}

	return PatientLookup{Context: NoPatientContext}, nil
}

// ResolvePostCall resolves a post-call payload to a patient record.
// Identification is derived in precedence order: explicit medical ID,
// function-call records, transcript scan. A match updates the patient's
// last-call fields as a side effect. An unmatched ID with a name hint
// (customer_name or summary extraction) creates a new patient under a
// synthesized medical ID.
func (r *PatientResolver) ResolvePostCall(medicalID, transcript, summary, customerName string, functionCalls []interface{}) (PostCallResolution, error) {
	resolution := PostCallResolution{MedicalID: strings.ToUpper(medicalID)}

	if resolution.MedicalID == "" {
		resolution.MedicalID = ExtractMedicalID(functionCalls, transcript)
	}

	if resolution.MedicalID != "" {
		patient, err := r.store.FindPatientByMedicalID(resolution.MedicalID)
		if err != nil {
			return resolution, err
		}
		if patient != nil {
			resolution.Patient = patient
			if err := r.recordCallOutcome(patient, summary, transcript); err != nil {
				// The match stands; losing the summary update is tolerable
				log.Printf("Failed to update last call info for patient %s: %v", patient.ID, err)
			}
			return resolution, nil
		}
		log.Printf("Patient not found for medical ID %s", resolution.MedicalID)
	}

	resolution.NameHint = customerName
	if resolution.NameHint == "" && summary != "" {
		if name, ok := ExtractPatientName(summary); ok {
			resolution.NameHint = name
		}
	}

	if resolution.NameHint == "" {
		return resolution, nil
	}

	newID, err := r.generateMedicalID()
	if err != nil {
		return resolution, err
	}
	patient := &models.Patient{
		MedicalID:       newID,
		Name:            resolution.NameHint,
		LastCallSummary: callSummary(summary, transcript),
	}
	now := r.now()
	patient.LastCallDate = &now
	if err := r.store.CreatePatient(patient); err != nil {
		return resolution, err
	}
	log.Printf("Created patient %s (%s) from call data", patient.MedicalID, patient.Name)

	resolution.Patient = patient
	resolution.Created = true
	return resolution, nil
}

func (r *PatientResolver) recordCallOutcome(patient *models.Patient, summary, transcript string) error {
	return r.store.UpdatePatientCallInfo(patient.ID, callSummary(summary, transcript), r.now())
}

// callSummary prefers the explicit summary, else the leading 500 bytes of
// the transcript, trimmed back to a rune boundary
func callSummary(summary, transcript string) string {
	if summary != "" {
		return summary
	}
	if len(transcript) <= 500 {
		return transcript
	}
	cut := 500
	for cut > 0 && !utf8.RuneStart(transcript[cut]) {
		cut--
	}
	return transcript[:cut]
}

// generateMedicalID synthesizes an unused MED### id. The suffix is derived
// from the current time and probed against the store, so freshly created
// patients always satisfy the canonical format.
func (r *PatientResolver) generateMedicalID() (string, error) {
	base := int(r.now().Unix() % 1000)
	for offset := 0; offset < 1000; offset++ {
		candidate := fmt.Sprintf("MED%03d", (base+offset)%1000)
		existing, err := r.store.FindPatientByMedicalID(candidate)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("medical ID space exhausted")
}
