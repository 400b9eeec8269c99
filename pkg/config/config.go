package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every option the sender and receiver recognize. It is built
// once at process start and treated as read-only afterwards.
type Config struct {
	Port string

	// Google Cloud project and Pub/Sub topic for update events
	ProjectID string
	TopicID   string

	// Secret Manager secret holding the service account key file
	SecretName string

	// Optional credentials file for the Pub/Sub client; application
	// default credentials are used when empty
	GoogleCredentials string

	// Workspace domain whose directory is enumerated
	DirectoryDomain string

	// Service account used for domain-wide delegation
	ServiceAccountEmail string

	// Drive documents holding the signature templates, and the org unit
	// whose accounts get the technical template
	TemplateFileID          string
	TechnicalTemplateFileID string
	TechnicalOrgUnit        string

	// Shared drive location for archived signatures
	SharedDriveID       string
	SharedDriveFolderID string

	// Eligibility configuration
	ExcludedOrgUnits []string
	ServiceAccounts  []string

	// Company constants substituted into every signature
	CompanyName    string
	CompanyWebsite string

	// Dispatch tuning
	PublishMaxAttempts int
	DispatchWorkers    int

	// Optional Postgres DSN for run reports; run logging is disabled when empty
	RunlogDSN string

	// Timeout applied to each outbound sink call
	SinkTimeout time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:                    getEnv("PORT", "8080"),
		ProjectID:               getEnv("PROJECT_ID", ""),
		TopicID:                 getEnv("TOPIC_ID", "gmail-signature-updates"),
		SecretName:              getEnv("SECRET_NAME", ""),
		GoogleCredentials:       getEnv("GOOGLE_CREDENTIALS", ""),
		DirectoryDomain:         getEnv("DIRECTORY_DOMAIN", ""),
		ServiceAccountEmail:     getEnv("SERVICE_ACCOUNT_EMAIL", ""),
		TemplateFileID:          getEnv("HTML_TEMPLATE_FILE_ID", ""),
		TechnicalTemplateFileID: getEnv("HTML_TEMPLATE_FILE_ID_TECHNICAL_USER", ""),
		TechnicalOrgUnit:        getEnv("TECHNICAL_ORG_UNIT", "/Orga Accounts"),
		SharedDriveID:           getEnv("SHARED_DRIVE_ID", ""),
		SharedDriveFolderID:     getEnv("SHARED_DRIVE_FOLDER_ID", ""),
		ExcludedOrgUnits:        getEnvList("EXCLUDED_ORG_UNITS", "/Deactivated,/Cloud Identities,/Xternal/No drive,/"),
		ServiceAccounts:         getEnvList("SERVICE_ACCOUNTS", ""),
		CompanyName:             getEnv("COMPANY_NAME", ""),
		CompanyWebsite:          getEnv("COMPANY_WEBSITE", ""),
		PublishMaxAttempts:      getEnvInt("PUBLISH_MAX_ATTEMPTS", 3),
		DispatchWorkers:         getEnvInt("DISPATCH_WORKERS", 1),
		RunlogDSN:               getEnv("RUNLOG_DSN", ""),
		SinkTimeout:             getEnvDuration("SINK_TIMEOUT", 30*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvList(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
