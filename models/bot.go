package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlaceholderBotUID is the well-known UID of the synthetic bot that call logs
// are attributed to when the real bot cannot be located. Events linked to it
// may be misattributed; the UID makes that degraded state queryable.
const PlaceholderBotUID = "UNKNOWN-BOT"

// Bot represents a voice assistant registered with the call platform
type Bot struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// UID is the identifier assigned by the voice platform
	UID    string `gorm:"size:100;uniqueIndex;not null" json:"uid"`
	Name   string `gorm:"size:200;not null" json:"name"`
	Prompt string `gorm:"type:text;not null" json:"prompt"`
	Domain string `gorm:"size:50;default:'medical'" json:"domain"`

	IsActive bool `gorm:"default:true" json:"is_active"`
}

// BeforeCreate hook to generate UUID
func (b *Bot) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Bot model
func (Bot) TableName() string {
	return "bots"
}
