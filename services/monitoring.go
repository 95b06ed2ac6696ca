package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"med_voice_app_go/config"

	"github.com/resend/resend-go/v2"
)

// EndpointMetric tracks consecutive failures for one endpoint
type EndpointMetric struct {
	Count         int        `json:"count"`
	LastError     string     `json:"last_error,omitempty"`
	LastErrorTime *time.Time `json:"last_error_time,omitempty"`
}

// MonitoringService aggregates per-endpoint error metrics and pushes alerts
// to an optional webhook and an optional email recipient. Constructed once
// and injected into the handlers; the metrics map is the only state shared
// across requests besides the rate limiter.
type MonitoringService struct {
	mu      sync.Mutex
	metrics map[string]*EndpointMetric

	alertWebhookURL string
	alertEmail      string
	emailFrom       string
	emailFromName   string
	emailTestMode   bool

	httpClient *http.Client
	resend     *resend.Client
}

func NewMonitoring(cfg *config.Config) *MonitoringService {
	m := &MonitoringService{
		metrics:         make(map[string]*EndpointMetric),
		alertWebhookURL: cfg.AlertWebhookURL,
		alertEmail:      cfg.AlertEmail,
		emailFrom:       cfg.EmailFrom,
		emailFromName:   cfg.EmailFromName,
		emailTestMode:   cfg.EmailTestMode,
		httpClient:      &http.Client{Timeout: 10 * time.Second},
	}
	if cfg.ResendAPIKey != "" {
		m.resend = resend.NewClient(cfg.ResendAPIKey)
	}
	return m
}

// LogError records a failure on the endpoint and fires the configured alert
// channels. Alert delivery is best effort and never blocks the request.
func (m *MonitoringService) LogError(endpoint string, err error, context map[string]interface{}) {
	log.Printf("[%s] Error: %v %v", endpoint, err, context)

	m.mu.Lock()
	metric, exists := m.metrics[endpoint]
	if !exists {
		metric = &EndpointMetric{}
		m.metrics[endpoint] = metric
	}
	metric.Count++
	metric.LastError = err.Error()
	now := time.Now()
	metric.LastErrorTime = &now
	m.mu.Unlock()

	if m.alertWebhookURL != "" {
		go m.sendWebhookAlert(endpoint, err, context)
	}
	if m.alertEmail != "" {
		go m.sendEmailAlert(endpoint, err)
	}
}

// LogSuccess resets the failure counter for the endpoint
func (m *MonitoringService) LogSuccess(endpoint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if metric, exists := m.metrics[endpoint]; exists {
		metric.Count = 0
	}
}

// Metrics returns a snapshot of all endpoint metrics
func (m *MonitoringService) Metrics() map[string]EndpointMetric {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := make(map[string]EndpointMetric, len(m.metrics))
	for endpoint, metric := range m.metrics {
		snapshot[endpoint] = *metric
	}
	return snapshot
}

func (m *MonitoringService) sendWebhookAlert(endpoint string, alertErr error, context map[string]interface{}) {
	payload, err := json.Marshal(map[string]interface{}{
		"alert":     "API Error",
		"endpoint":  endpoint,
		"error":     alertErr.Error(),
		"context":   context,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"metrics":   m.Metrics(),
	})
	if err != nil {
		log.Printf("Failed to encode alert payload: %v", err)
		return
	}

	resp, err := m.httpClient.Post(m.alertWebhookURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		log.Printf("Failed to send alert: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("Alert webhook returned status %d", resp.StatusCode)
	}
}

func (m *MonitoringService) sendEmailAlert(endpoint string, alertErr error) {
	subject := fmt.Sprintf("[ALERT] %s endpoint failing", endpoint)
	body := fmt.Sprintf("Endpoint %s reported an error at %s:\n\n%v",
		endpoint, time.Now().UTC().Format(time.RFC3339), alertErr)

	if m.emailTestMode || m.resend == nil {
		log.Printf("[EMAIL TEST MODE] To: %s, Subject: %s, Body: %s", m.alertEmail, subject, body)
		return
	}

	_, err := m.resend.Emails.Send(&resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", m.emailFromName, m.emailFrom),
		To:      []string{m.alertEmail},
		Subject: subject,
		Text:    body,
	})
	if err != nil {
		log.Printf("Failed to send alert email: %v", err)
	}
}
