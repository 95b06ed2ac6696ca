package services

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"med_voice_app_go/models"

	"github.com/stretchr/testify/assert"
)

func TestPatientResolverLookup(t *testing.T) {
	store := setupTestStore(t)
	resolver := NewPatientResolver(store)

	t.Run("NoPatientsAtAll", func(t *testing.T) {
		lookup, err := resolver.Lookup("", "")
		assert.NoError(t, err)
		assert.Nil(t, lookup.Patient)
		assert.Equal(t, NoPatientContext, lookup.Context)
	})

	alice := createTestPatient(t, store, "MED001", "Alice Rivera", "+15551234567")
	bob := createTestPatient(t, store, "MED002", "Bob Chen", "+15559876543")

	t.Run("PhoneMatch", func(t *testing.T) {
		lookup, err := resolver.Lookup("+15551234567", "")
		assert.NoError(t, err)
		assert.NotNil(t, lookup.Patient)
		assert.Equal(t, alice.ID, lookup.Patient.ID)
		assert.False(t, lookup.Demo)
		assert.Contains(t, lookup.Context, "Alice Rivera")
		assert.Contains(t, lookup.Context, "MED001")
		assert.Contains(t, lookup.Context, "Allergies: None reported")
		assert.Contains(t, lookup.Context, "Last Call Summary: No previous calls")
	})

	t.Run("MedicalIDWinsOverPhone", func(t *testing.T) {
		// Bob's medical ID with Alice's phone: the ID match must win
		lookup, err := resolver.Lookup("+15551234567", "MED002")
		assert.NoError(t, err)
		assert.NotNil(t, lookup.Patient)
		assert.Equal(t, bob.ID, lookup.Patient.ID)
	})

	t.Run("LowercaseMedicalID", func(t *testing.T) {
		lookup, err := resolver.Lookup("", "med002")
		assert.NoError(t, err)
		assert.NotNil(t, lookup.Patient)
		assert.Equal(t, bob.ID, lookup.Patient.ID)
	})

	t.Run("DemoFallback", func(t *testing.T) {
		lookup, err := resolver.Lookup("", "")
		assert.NoError(t, err)
		assert.NotNil(t, lookup.Patient)
		assert.True(t, lookup.Demo)
		assert.Contains(t, lookup.Context, "Example Patient Data (for demo)")
	})

	t.Run("UnknownPhoneFallsToDemo", func(t *testing.T) {
		lookup, err := resolver.Lookup("+15550000000", "")
		assert.NoError(t, err)
		assert.True(t, lookup.Demo)
	})
}

func TestExtractMedicalID(t *testing.T) {
	t.Run("FetchPatientFunctionCall", func(t *testing.T) {
		calls := []interface{}{
			map[string]interface{}{
				"function":  "fetch_patient",
				"arguments": map[string]interface{}{"medical_id": "med007"},
			},
		}
		assert.Equal(t, "MED007", ExtractMedicalID(calls, ""))
	})

	t.Run("NamedCallWithIDArgument", func(t *testing.T) {
		calls := []interface{}{
			map[string]interface{}{
				"name":      "fetch_patient",
				"arguments": map[string]interface{}{"id": "med011"},
			},
		}
		assert.Equal(t, "MED011", ExtractMedicalID(calls, ""))
	})

	t.Run("MedicalIDArgumentOnOtherCall", func(t *testing.T) {
		calls := []interface{}{
			map[string]interface{}{
				"function":  "schedule_followup",
				"arguments": map[string]interface{}{"medical_id": "MED015"},
			},
		}
		assert.Equal(t, "MED015", ExtractMedicalID(calls, ""))
	})

	t.Run("TranscriptFallback", func(t *testing.T) {
		assert.Equal(t, "MED042", ExtractMedicalID(nil, "...med042 confirmed by the caller..."))
	})

	t.Run("FunctionCallsWinOverTranscript", func(t *testing.T) {
		calls := []interface{}{
			map[string]interface{}{
				"function":  "fetch_patient",
				"arguments": map[string]interface{}{"medical_id": "MED100"},
			},
		}
		assert.Equal(t, "MED100", ExtractMedicalID(calls, "transcript mentions MED999"))
	})

	t.Run("NothingFound", func(t *testing.T) {
		assert.Equal(t, "", ExtractMedicalID(nil, "no identifiers here"))
	})
}

func TestExtractPatientName(t *testing.T) {
	name, ok := ExtractPatientName("Registered the patient as Maria Lopez. Follow-up scheduled.")
	assert.True(t, ok)
	assert.Equal(t, "Maria Lopez", name)

	_, ok = ExtractPatientName("Nothing to extract")
	assert.False(t, ok)
}

func TestPatientResolverResolvePostCall(t *testing.T) {
	t.Run("MatchByExplicitMedicalID", func(t *testing.T) {
		store := setupTestStore(t)
		resolver := NewPatientResolver(store)
		alice := createTestPatient(t, store, "MED001", "Alice Rivera", "+15551234567")

		resolution, err := resolver.ResolvePostCall("MED001", "long transcript", "Discussed refills", "", nil)
		assert.NoError(t, err)
		assert.NotNil(t, resolution.Patient)
		assert.Equal(t, alice.ID, resolution.Patient.ID)
		assert.False(t, resolution.Created)

		// Side effect: last call info updated
		updated, err := store.FindPatientByMedicalID("MED001")
		assert.NoError(t, err)
		assert.Equal(t, "Discussed refills", updated.LastCallSummary)
		assert.NotNil(t, updated.LastCallDate)
	})

	t.Run("SummaryFallsBackToTranscriptPrefix", func(t *testing.T) {
		store := setupTestStore(t)
		resolver := NewPatientResolver(store)
		createTestPatient(t, store, "MED001", "Alice Rivera", "")

		transcript := strings.Repeat("x", 600)
		_, err := resolver.ResolvePostCall("MED001", transcript, "", "", nil)
		assert.NoError(t, err)

		updated, err := store.FindPatientByMedicalID("MED001")
		assert.NoError(t, err)
		assert.Len(t, updated.LastCallSummary, 500)
	})

	t.Run("TranscriptTruncationKeepsValidUTF8", func(t *testing.T) {
		store := setupTestStore(t)
		resolver := NewPatientResolver(store)
		createTestPatient(t, store, "MED001", "Alice Rivera", "")

		// 3-byte runes, 600 bytes total, so 500 lands mid-rune
		transcript := strings.Repeat("日", 200)
		_, err := resolver.ResolvePostCall("MED001", transcript, "", "", nil)
		assert.NoError(t, err)

		updated, err := store.FindPatientByMedicalID("MED001")
		assert.NoError(t, err)
		assert.True(t, utf8.ValidString(updated.LastCallSummary))
		assert.LessOrEqual(t, len(updated.LastCallSummary), 500)
		assert.NotEmpty(t, updated.LastCallSummary)
	})

	t.Run("MatchViaTranscript", func(t *testing.T) {
		store := setupTestStore(t)
		resolver := NewPatientResolver(store)
		alice := createTestPatient(t, store, "MED042", "Alice Rivera", "")

		resolution, err := resolver.ResolvePostCall("", "...MED042 confirmed...", "", "", nil)
		assert.NoError(t, err)
		assert.NotNil(t, resolution.Patient)
		assert.Equal(t, alice.ID, resolution.Patient.ID)
		assert.Equal(t, "MED042", resolution.MedicalID)
	})

	t.Run("CreateFromCustomerName", func(t *testing.T) {
		store := setupTestStore(t)
		resolver := NewPatientResolver(store)

		resolution, err := resolver.ResolvePostCall("", "", "New caller intake", "Maria Lopez", nil)
		assert.NoError(t, err)
		assert.NotNil(t, resolution.Patient)
		assert.True(t, resolution.Created)
		assert.Equal(t, "Maria Lopez", resolution.Patient.Name)
		assert.True(t, IsValidMedicalID(resolution.Patient.MedicalID))

		stored, err := store.FindPatientByMedicalID(resolution.Patient.MedicalID)
		assert.NoError(t, err)
		assert.NotNil(t, stored)
	})

	t.Run("CreateFromSummaryName", func(t *testing.T) {
		store := setupTestStore(t)
		resolver := NewPatientResolver(store)

		resolution, err := resolver.ResolvePostCall("", "", "Registered the patient as John Doe. Callback requested.", "", nil)
		assert.NoError(t, err)
		assert.NotNil(t, resolution.Patient)
		assert.True(t, resolution.Created)
		assert.Equal(t, "John Doe", resolution.Patient.Name)
	})

	t.Run("UnmatchedIDWithoutNameDegrades", func(t *testing.T) {
		store := setupTestStore(t)
		resolver := NewPatientResolver(store)

		resolution, err := resolver.ResolvePostCall("MED500", "", "Routine call", "", nil)
		assert.NoError(t, err)
		assert.Nil(t, resolution.Patient)
		assert.True(t, resolution.Identified()) // id was derivable, record proceeds with null patient
	})

	t.Run("NoIdentificationAtAll", func(t *testing.T) {
		store := setupTestStore(t)
		resolver := NewPatientResolver(store)

		resolution, err := resolver.ResolvePostCall("", "no ids here", "plain summary", "", nil)
		assert.NoError(t, err)
		assert.Nil(t, resolution.Patient)
		assert.False(t, resolution.Identified())
	})

	t.Run("GeneratedIDSkipsCollisions", func(t *testing.T) {
		store := setupTestStore(t)
		resolver := NewPatientResolver(store)
		fixed := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
		resolver.now = func() time.Time { return fixed }

		taken := "MED" + padded(int(fixed.Unix()%1000))
		createTestPatient(t, store, taken, "Existing", "")

		resolution, err := resolver.ResolvePostCall("", "", "", "New Person", nil)
		assert.NoError(t, err)
		assert.True(t, resolution.Created)
		assert.NotEqual(t, taken, resolution.Patient.MedicalID)
		assert.True(t, IsValidMedicalID(resolution.Patient.MedicalID))
	})
}

func padded(n int) string {
	digits := []byte{'0', '0', '0'}
	for i := 2; i >= 0 && n > 0; i-- {
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	return string(digits)
}

func TestPatientContextDefaults(t *testing.T) {
	patient := &models.Patient{
		Name:      "Alice Rivera",
		MedicalID: "MED001",
		Allergies: "Penicillin",
	}
	context := PatientContext(patient)
	assert.Contains(t, context, "Allergies: Penicillin")
	assert.Contains(t, context, "Current Medications: None")
	assert.Contains(t, context, "Medical History: No significant history")
	assert.Contains(t, context, "Last Call Summary: No previous calls")
}
