package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App        AppConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Logger     LoggerConfig
	Auth       AuthConfig
	Webhook    WebhookConfig
	ClickUp    ClickUpConfig
	Escalation EscalationConfig
	Validation ValidationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values for the submission archive.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values for ticket state tracking.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines admin token parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	AdminKeyHash          string
}

// WebhookConfig points at the primary intake webhook.
type WebhookConfig struct {
	BaseURL        string
	URL            string
	TimeoutSeconds int
}

// ClickUpConfig holds the ticketing API credentials and list routing.
type ClickUpConfig struct {
	APIURL            string
	APIKey            string
	TeamID            string
	SpaceID           string
	ListsByDepartment map[string]string
	DefaultListID     string
}

// EscalationConfig configures the escalation sweep and channels.
type EscalationConfig struct {
	SweepIntervalMinutes int
	SlackWebhookURL      string
	SlackChannel         string
	EmailFrom            string
	SMSAPIKey            string
	DashboardURL         string
}

// ValidationConfig holds tunable validation inputs.
type ValidationConfig struct {
	AllowedEmailDomains []string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "buzon-intake-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			AdminKeyHash:          os.Getenv("AUTH_ADMIN_KEY_HASH"),
		},
		Webhook: WebhookConfig{
			BaseURL:        getEnv("API_BASE_URL", "https://inmobiliaria-ecomac.app.n8n.cloud"),
			URL:            getEnv("WEBHOOK_URL", ""),
			TimeoutSeconds: getEnvAsInt("API_TIMEOUT_SECONDS", 10),
		},
		ClickUp: ClickUpConfig{
			APIURL:            getEnv("CLICKUP_API_URL", "https://api.clickup.com/api/v2"),
			APIKey:            os.Getenv("CLICKUP_API_KEY"),
			TeamID:            os.Getenv("CLICKUP_TEAM_ID"),
			SpaceID:           os.Getenv("CLICKUP_SPACE_ID"),
			ListsByDepartment: clickupLists(),
			DefaultListID:     getEnv("CLICKUP_DEFAULT_LIST", "901200123464"),
		},
		Escalation: EscalationConfig{
			SweepIntervalMinutes: getEnvAsInt("ESCALATION_SWEEP_INTERVAL_MINUTES", 15),
			SlackWebhookURL:      os.Getenv("SLACK_WEBHOOK_URL"),
			SlackChannel:         getEnv("SLACK_CHANNEL", "#alerts"),
			EmailFrom:            getEnv("NOTIFY_EMAIL_FROM", "noreply@ecomac.cl"),
			SMSAPIKey:            os.Getenv("SMS_API_KEY"),
			DashboardURL:         getEnv("DASHBOARD_URL", ""),
		},
		Validation: ValidationConfig{
			AllowedEmailDomains: splitList(getEnv("ALLOWED_EMAIL_DOMAINS", "ecomac.cl")),
		},
	}

	return cfg, nil
}

func clickupLists() map[string]string {
	return map[string]string{
		"it":             getEnv("CLICKUP_LIST_IT", "901200123456"),
		"rrhh":           getEnv("CLICKUP_LIST_HR", "901200123457"),
		"ventas":         getEnv("CLICKUP_LIST_SALES", "901200123458"),
		"operaciones":    getEnv("CLICKUP_LIST_OPS", "901200123459"),
		"marketing":      getEnv("CLICKUP_LIST_MKT", "901200123460"),
		"finanzas":       getEnv("CLICKUP_LIST_FIN", "901200123461"),
		"administracion": getEnv("CLICKUP_LIST_ADMIN", "901200123462"),
		"gerencia":       getEnv("CLICKUP_LIST_MGMT", "901200123463"),
	}
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the webhook call deadline.
func (w WebhookConfig) Timeout() time.Duration {
	if w.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(w.TimeoutSeconds) * time.Second
}

// SweepInterval returns the escalation sweep cadence.
func (e EscalationConfig) SweepInterval() time.Duration {
	if e.SweepIntervalMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(e.SweepIntervalMinutes) * time.Minute
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, strings.ToLower(trimmed))
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
