package handlers

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"med_voice_app_go/config"
	"med_voice_app_go/db"
	"med_voice_app_go/models"
	"med_voice_app_go/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	// Unique shared memory name to isolate tests
	dbName := "mem_" + uuid.New().String()
	testDB, err := gorm.Open(sqlite.Open("file:"+dbName+"?mode=memory&cache=shared&_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	assert.NoError(t, err)

	err = testDB.AutoMigrate(&models.Bot{}, &models.Patient{}, &models.CallLog{})
	assert.NoError(t, err)

	// Set global DB
	db.DB = testDB

	return testDB
}

func setupEcho(method, path string, body io.Reader) (*echo.Echo, echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	return e, c, rec
}

func jsonBody(t *testing.T, payload map[string]interface{}) io.Reader {
	encoded, err := json.Marshal(payload)
	assert.NoError(t, err)
	return strings.NewReader(string(encoded))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func newTestWebhooks(testDB *gorm.DB, cfg *config.Config) *Webhooks {
	if cfg == nil {
		cfg = &config.Config{DefaultCallDuration: 30}
	}
	return NewWebhooks(cfg, services.NewStore(testDB))
}

func createBot(t *testing.T, testDB *gorm.DB, uid, name string) *models.Bot {
	bot := &models.Bot{UID: uid, Name: name, Prompt: "Assist callers politely."}
	assert.NoError(t, testDB.Create(bot).Error)
	return bot
}

func createPatient(t *testing.T, testDB *gorm.DB, medicalID, name, phone string) *models.Patient {
	patient := &models.Patient{MedicalID: medicalID, Name: name, Phone: phone}
	assert.NoError(t, testDB.Create(patient).Error)
	return patient
}

func lastCallLog(t *testing.T, testDB *gorm.DB) *models.CallLog {
	var log models.CallLog
	assert.NoError(t, testDB.Order("created_at DESC").First(&log).Error)
	return &log
}
