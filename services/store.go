package services

import (
	"errors"
	"time"

	"med_voice_app_go/models"

	"gorm.io/gorm"
)

// Store is the data-access collaborator used by the webhook pipeline.
// Lookup methods return (nil, nil) when no record matches; an error means
// the query itself failed.
type Store struct {
	db *gorm.DB
}

func NewStore(database *gorm.DB) *Store {
	return &Store{db: database}
}

// FindBotByUID looks up a bot by its platform-assigned UID
func (s *Store) FindBotByUID(uid string) (*models.Bot, error) {
	var bot models.Bot
	err := s.db.First(&bot, "uid = ?", uid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bot, nil
}

// FindBotsByNameLike returns bots whose name contains the pattern,
// case-insensitive, in natural (creation) order
func (s *Store) FindBotsByNameLike(pattern string) ([]models.Bot, error) {
	var bots []models.Bot
	err := s.db.Where("LOWER(name) LIKE LOWER(?)", "%"+pattern+"%").
		Order("created_at ASC").
		Find(&bots).Error
	if err != nil {
		return nil, err
	}
	return bots, nil
}

// EnsurePlaceholderBot returns the well-known placeholder bot, creating it
// on first use so degraded call logs still carry a bot reference
func (s *Store) EnsurePlaceholderBot(name string) (*models.Bot, error) {
	var bot models.Bot
	err := s.db.First(&bot, "uid = ?", models.PlaceholderBotUID).Error
	if err == nil {
		return &bot, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if name == "" {
		name = "Unknown Bot"
	}
	bot = models.Bot{
		UID:      models.PlaceholderBotUID,
		Name:     name,
		Prompt:   "Placeholder for calls whose bot could not be resolved.",
		IsActive: false,
	}
	if err := s.db.Create(&bot).Error; err != nil {
		return nil, err
	}
	return &bot, nil
}

// FindPatientByMedicalID looks up a patient by exact medical ID (stored uppercase)
func (s *Store) FindPatientByMedicalID(medicalID string) (*models.Patient, error) {
	var patient models.Patient
	err := s.db.First(&patient, "medical_id = ?", medicalID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &patient, nil
}

// FindPatientByPhone looks up a patient by exact phone match
func (s *Store) FindPatientByPhone(phone string) (*models.Patient, error) {
	var patient models.Patient
	err := s.db.First(&patient, "phone = ?", phone).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &patient, nil
}

// FirstPatient returns the most recently created patient, if any. Used only
// by the pre-call demo fallback when the caller carries no identification.
func (s *Store) FirstPatient() (*models.Patient, error) {
	var patient models.Patient
	err := s.db.Order("created_at DESC").First(&patient).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &patient, nil
}

// CreatePatient persists a new patient record
func (s *Store) CreatePatient(patient *models.Patient) error {
	return s.db.Create(patient).Error
}

// UpdatePatientCallInfo records the outcome of a resolved call on the patient
func (s *Store) UpdatePatientCallInfo(patientID, summary string, when time.Time) error {
	return s.db.Model(&models.Patient{}).
		Where("id = ?", patientID).
		Updates(map[string]interface{}{
			"last_call_summary": summary,
			"last_call_date":    when,
		}).Error
}

// InsertCallLog persists one immutable call event
func (s *Store) InsertCallLog(callLog *models.CallLog) error {
	return s.db.Create(callLog).Error
}
