package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Call status constants
const (
	CallStatusCompleted = "completed"
	CallStatusFailed    = "failed"
	CallStatusNoAnswer  = "no_answer"
)

// CallLog is an immutable record of a single webhook-reported call.
// BotID and PatientID stay null when resolution failed; the call is
// still logged.
type CallLog struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index:idx_call_logs_created_at" json:"created_at"`

	BotID *string `gorm:"type:uuid;index" json:"bot_id,omitempty"`
	Bot   *Bot    `gorm:"foreignKey:BotID" json:"bot,omitempty"`

	PatientID *string  `gorm:"type:uuid;index" json:"patient_id,omitempty"`
	Patient   *Patient `gorm:"foreignKey:PatientID" json:"patient,omitempty"`

	// CallSID is the platform-assigned call/session identifier
	CallSID    string `gorm:"size:100;index" json:"call_sid"`
	Transcript string `gorm:"type:text" json:"transcript"`
	Summary    string `gorm:"type:text" json:"summary"`
	Duration   int    `gorm:"not null" json:"duration"` // seconds
	Status     string `gorm:"size:20;default:'completed'" json:"status"`

	// Raw platform payload fragments, JSON encoded
	Metadata      string `gorm:"type:text" json:"metadata,omitempty"`
	FunctionCalls string `gorm:"type:text" json:"function_calls,omitempty"`
}

// BeforeCreate generates UUID
func (l *CallLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	return nil
}

// BeforeUpdate prevents modification of call logs (immutability)
func (l *CallLog) BeforeUpdate(tx *gorm.DB) error {
	return gorm.ErrRecordNotFound // Prevent any updates
}

// BeforeDelete prevents deletion of call logs (immutability)
func (l *CallLog) BeforeDelete(tx *gorm.DB) error {
	return gorm.ErrRecordNotFound // Prevent any deletes
}

// TableName specifies the table name
func (CallLog) TableName() string {
	return "call_logs"
}
