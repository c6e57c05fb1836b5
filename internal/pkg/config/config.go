package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection,
//   gateway secrets, etc.)
// - default: Values common across all environments (timeouts, windows, etc.)
// -----------------------------------------------------------------------------

type Config struct {
	Server   ServerConfig
	DB       DBConfig
	CORS     CORSConfig
	Log      LogConfig
	JWT      JWTConfig
	Gateway  GatewayConfig
	Mail     MailConfig
	Reminder ReminderConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level      string `envconfig:"LOG_LEVEL" default:"info"`
	TimeFormat string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
}

type JWTConfig struct {
	Secret   string `envconfig:"JWT_SECRET" required:"true"`
	Duration string `envconfig:"JWT_DURATION" default:"24h"`
}

// GatewayConfig configures the hosted payment session provider.
type GatewayConfig struct {
	SecretKey     string `envconfig:"GATEWAY_SECRET_KEY" required:"true"`
	WebhookSecret string `envconfig:"GATEWAY_WEBHOOK_SECRET" required:"true"`
	BaseURL       string `envconfig:"GATEWAY_BASE_URL" default:"https://api.stripe.com"`
	SuccessURL    string `envconfig:"GATEWAY_SUCCESS_URL" required:"true"`
	CancelURL     string `envconfig:"GATEWAY_CANCEL_URL" required:"true"`
}

type MailConfig struct {
	SendGridAPIKey string `envconfig:"SENDGRID_API_KEY" default:""`
	FromEmail      string `envconfig:"MAIL_FROM_EMAIL" default:"no-reply@example.com"`
	FromName       string `envconfig:"MAIL_FROM_NAME" default:"Sessions"`
}

type ReminderConfig struct {
	SweepInterval time.Duration `envconfig:"REMINDER_SWEEP_INTERVAL" default:"1m"`
	OutboxPoll    time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"5s"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889",
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433",
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
		},
		Log: LogConfig{
			Level:      "error",
			TimeFormat: "2006-01-02 15:04:05.000",
		},
		JWT: JWTConfig{
			Secret:   "test-secret",
			Duration: "24h",
		},
		Gateway: GatewayConfig{
			SecretKey:     "sk_test",
			WebhookSecret: "whsec_test",
			BaseURL:       "https://api.stripe.com",
			SuccessURL:    "http://localhost:3000/checkout/success",
			CancelURL:     "http://localhost:3000/checkout/cancel",
		},
		Reminder: ReminderConfig{
			SweepInterval: time.Minute,
			OutboxPoll:    5 * time.Second,
		},
	}
}
