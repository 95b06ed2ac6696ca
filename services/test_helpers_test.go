package services

import (
	"testing"

	"med_voice_app_go/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestStore(t *testing.T) *Store {
	// Unique shared memory name to isolate tests
	dbName := "mem_" + uuid.New().String()
	testDB, err := gorm.Open(sqlite.Open("file:"+dbName+"?mode=memory&cache=shared&_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	assert.NoError(t, err)

	err = testDB.AutoMigrate(&models.Bot{}, &models.Patient{}, &models.CallLog{})
	assert.NoError(t, err)

	return NewStore(testDB)
}

func createTestBot(t *testing.T, store *Store, uid, name string) *models.Bot {
	bot := &models.Bot{
		UID:    uid,
		Name:   name,
		Prompt: "You are a helpful medical assistant.",
	}
	assert.NoError(t, store.db.Create(bot).Error)
	return bot
}

func createTestPatient(t *testing.T, store *Store, medicalID, name, phone string) *models.Patient {
	patient := &models.Patient{
		MedicalID: medicalID,
		Name:      name,
		Phone:     phone,
	}
	assert.NoError(t, store.CreatePatient(patient))
	return patient
}
