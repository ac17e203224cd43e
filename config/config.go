package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Provider names accepted in PROVIDER.
const (
	ProviderZoom  = "zoom"
	ProviderTeams = "teams"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Provider  ProviderConfig
	AWS       AWSConfig
	Recording RecordingConfig
	Email     EmailConfig
	Telemetry TelemetryConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/liveclass?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings. Empty Addr disables the shared token cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds organizer token settings. Empty Secret disables auth on the API.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// ProviderConfig selects the conferencing provider and holds its credentials.
type ProviderConfig struct {
	Name        string
	HTTPTimeout time.Duration
	Zoom        ZoomConfig
	Teams       TeamsConfig
}

// ZoomConfig holds Zoom server-to-server OAuth credentials.
type ZoomConfig struct {
	ClientID     string
	ClientSecret string
	AccountID    string
	UserID       string // user the meetings are scheduled under
	APIBase      string
	TokenURL     string
}

// TeamsConfig holds Microsoft Graph app credentials.
type TeamsConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	UserID       string // organizer object id or UPN
	GraphBase    string
	TokenURL     string // empty = derived from TenantID
}

// AWSConfig holds credentials and the recordings bucket.
type AWSConfig struct {
	Region           string
	AccessKeyID      string
	SecretAccessKey  string
	RecordingsBucket string
	Endpoint         string // optional S3-compatible endpoint
	ForcePathStyle   bool
}

// RecordingConfig holds local recording download settings.
type RecordingConfig struct {
	LocalDir string
}

// EmailConfig for SMTP delivery of invitations.
type EmailConfig struct {
	FromAddress string
	FromName    string
	SMTPHost    string
	SMTPPort    int
	SMTPUser    string
	SMTPPass    string
}

// TelemetryConfig holds OpenTelemetry export settings. Empty endpoint disables tracing.
type TelemetryConfig struct {
	OTLPEndpoint string
	ServiceName  string
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// TokenEndpoint returns the Graph token endpoint for the tenant.
func (c TeamsConfig) TokenEndpoint() string {
	if c.TokenURL != "" {
		return c.TokenURL
	}
	return fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", c.TenantID)
}

// Load reads configuration from environment, with optional .env file, and validates it.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config from the current environment without validation.
func FromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8000"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 0),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", ""),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "liveclass"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", ""),
			ExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),
		},
		Provider: ProviderConfig{
			Name:        strings.ToLower(getEnv("PROVIDER", ProviderZoom)),
			HTTPTimeout: time.Duration(getEnvInt("PROVIDER_HTTP_TIMEOUT_SEC", 0)) * time.Second,
			Zoom: ZoomConfig{
				ClientID:     getEnv("ZOOM_CLIENT_ID", os.Getenv("client_id_Zoom")),
				ClientSecret: getEnv("ZOOM_CLIENT_SECRET", os.Getenv("secret_zoom")),
				AccountID:    getEnv("ZOOM_ACCOUNT_ID", ""),
				UserID:       getEnv("ZOOM_USER_ID", ""),
				APIBase:      getEnv("ZOOM_API_BASE", "https://api.zoom.us/v2"),
				TokenURL:     getEnv("ZOOM_TOKEN_URL", "https://zoom.us/oauth/token"),
			},
			Teams: TeamsConfig{
				TenantID:     getEnv("TEAMS_TENANT_ID", os.Getenv("TENANT_ID")),
				ClientID:     getEnv("TEAMS_CLIENT_ID", os.Getenv("CLIENT_ID")),
				ClientSecret: getEnv("TEAMS_CLIENT_SECRET", os.Getenv("BACKEND_APP_SECRET")),
				UserID:       getEnv("TEAMS_USER_ID", ""),
				GraphBase:    getEnv("GRAPH_API_BASE", "https://graph.microsoft.com/v1.0"),
				TokenURL:     getEnv("TEAMS_TOKEN_URL", ""),
			},
		},
		AWS: AWSConfig{
			Region:           getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
			RecordingsBucket: getEnv("AWS_S3_RECORDINGS_BUCKET", "recordings"),
			Endpoint:         getEnv("S3_ENDPOINT", ""),
			ForcePathStyle:   getEnvBool("S3_FORCE_PATH_STYLE", false),
		},
		Recording: RecordingConfig{
			LocalDir: getEnv("RECORDINGS_DIR", "recordings"),
		},
		Email: EmailConfig{
			FromAddress: getEnv("EMAIL_FROM", "noreply@example.com"),
			FromName:    getEnv("EMAIL_FROM_NAME", "Live Classes"),
			SMTPHost:    getEnv("SMTP_HOST", ""),
			SMTPPort:    getEnvInt("SMTP_PORT", 587),
			SMTPUser:    getEnv("SMTP_USER", ""),
			SMTPPass:    getEnv("SMTP_PASS", ""),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "liveclass-api"),
		},
	}
}

// Validate reports missing values the process cannot start without.
func (c *Config) Validate() error {
	var missing []string
	switch c.Provider.Name {
	case ProviderZoom:
		z := c.Provider.Zoom
		missing = appendMissing(missing, "ZOOM_CLIENT_ID", z.ClientID)
		missing = appendMissing(missing, "ZOOM_CLIENT_SECRET", z.ClientSecret)
		missing = appendMissing(missing, "ZOOM_ACCOUNT_ID", z.AccountID)
		missing = appendMissing(missing, "ZOOM_USER_ID", z.UserID)
	case ProviderTeams:
		t := c.Provider.Teams
		missing = appendMissing(missing, "TEAMS_TENANT_ID", t.TenantID)
		missing = appendMissing(missing, "TEAMS_CLIENT_ID", t.ClientID)
		missing = appendMissing(missing, "TEAMS_CLIENT_SECRET", t.ClientSecret)
		missing = appendMissing(missing, "TEAMS_USER_ID", t.UserID)
	default:
		return fmt.Errorf("unsupported PROVIDER %q (want %s or %s)", c.Provider.Name, ProviderZoom, ProviderTeams)
	}
	if c.Database.URL == "" && c.Database.Host == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if len(missing) > 0 {
		return errors.New("missing required configuration: " + strings.Join(missing, ", "))
	}
	return nil
}

func appendMissing(list []string, key, val string) []string {
	if strings.TrimSpace(val) == "" {
		return append(list, key)
	}
	return list
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
