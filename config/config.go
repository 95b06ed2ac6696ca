package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  string
	DBPath      string
	Environment string
	// Webhook security
	WebhookSecret string // When empty, signature verification is skipped entirely
	// AllowUnsignedWebhooks controls what happens when a secret is configured but
	// the caller omits the signature header: false rejects the request, true
	// accepts it and logs a warning.
	AllowUnsignedWebhooks bool
	// API authentication
	APIKey string // When empty, CRUD endpoints are open
	// Alerting
	AlertWebhookURL string
	AlertEmail      string
	ResendAPIKey    string
	EmailFrom       string
	EmailFromName   string
	EmailTestMode   bool // When true, alert emails are logged to console instead of sent
	// Other
	AllowedOrigins      []string
	DefaultCallDuration int // Fallback duration (seconds) for post-call payloads without timing
}

func Load() *Config {
	// Load .env file (ignore error if not present - use system env vars)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	environment := getEnv("ENVIRONMENT", "development")

	webhookSecret := getEnv("WEBHOOK_SECRET", "")
	if webhookSecret == "" {
		log.Println("[WARNING] WEBHOOK_SECRET not set, webhook signature verification is disabled")
	}
	apiKey := getEnv("API_KEY", "")
	if apiKey == "" {
		log.Println("[WARNING] API_KEY not set, CRUD endpoints are unauthenticated")
	}

	return &Config{
		ServerPort:            getEnv("SERVER_PORT", "8080"),
		DBPath:                getEnv("DB_PATH", "db/app.db"),
		Environment:           environment,
		WebhookSecret:         webhookSecret,
		AllowUnsignedWebhooks: getEnvBool("WEBHOOK_ALLOW_UNSIGNED", false),
		APIKey:                apiKey,
		AlertWebhookURL:       getEnv("ALERT_WEBHOOK_URL", ""),
		AlertEmail:            getEnv("ALERT_EMAIL", ""),
		ResendAPIKey:          getEnv("RESEND_API_KEY", ""),
		EmailFrom:             getEnv("EMAIL_FROM", "alerts@medvoice.app"),
		EmailFromName:         getEnv("EMAIL_FROM_NAME", "MedVoice Monitoring"),
		EmailTestMode:         getEnvBool("EMAIL_TEST_MODE", true), // Default true for safety
		AllowedOrigins:        strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		DefaultCallDuration:   getEnvInt("DEFAULT_CALL_DURATION", 30),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Printf("Using default value for %s: %s", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Accept common boolean representations
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("[WARNING] Invalid integer for %s: %q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
