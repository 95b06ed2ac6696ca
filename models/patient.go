package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Patient represents a patient reachable through the voice assistant.
// MedicalID is always stored uppercase in the canonical MED### format.
type Patient struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	MedicalID string `gorm:"size:20;uniqueIndex;not null" json:"medical_id"`
	Name      string `gorm:"size:200;not null" json:"name"`
	Phone     string `gorm:"size:20;index" json:"phone"`

	Allergies          string `gorm:"type:text" json:"allergies"`
	CurrentMedications string `gorm:"type:text" json:"current_medications"`
	MedicalHistory     string `gorm:"type:text" json:"medical_history"`

	// Updated after every resolved post-call webhook
	LastCallSummary string     `gorm:"type:text" json:"last_call_summary"`
	LastCallDate    *time.Time `json:"last_call_date,omitempty"`
}

// BeforeCreate hook to generate UUID
func (p *Patient) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Patient model
func (Patient) TableName() string {
	return "patients"
}
