package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	API       APIConfig
	Storage   StorageConfig
	Mail      MailConfig
	Server    ServerConfig
	Reporting ReportingConfig
}

// APIConfig holds credentials and options for the product catalog REST API.
type APIConfig struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
}

// StorageConfig holds settings for the local snapshot database.
type StorageConfig struct {
	DBFile string
}

// MailConfig contains the SMTP transport and addressing options for the
// snapshot report email. From may be a bare address or any of the
// "Name <addr>" forms accepted by mail.SplitAddress.
type MailConfig struct {
	From     string
	To       string
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
}

// ServerConfig holds HTTP status server related options.
type ServerConfig struct {
	Port string
}

// ReportingConfig holds scheduler-related settings for daemon mode.
type ReportingConfig struct {
	CronSchedule string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance. The env-file path is supplied by the entry
// point; no component reads ambient process state directly.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	timeoutSeconds, err := getenvInt("HTTP_TIMEOUT_SECONDS", 15)
	if err != nil {
		return nil, err
	}
	smtpPort, err := getenvInt("SMTP_PORT", 25)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL:  os.Getenv("API_BASE"),
			Username: os.Getenv("API_USER"),
			Password: os.Getenv("API_PASS"),
			Timeout:  time.Duration(timeoutSeconds) * time.Second,
		},
		Storage: StorageConfig{
			DBFile: os.Getenv("DB_FILE"),
		},
		Mail: MailConfig{
			From:     os.Getenv("MAIL_FROM"),
			To:       os.Getenv("MAIL_TO"),
			SMTPHost: getenvWithDefault("SMTP_HOST", "localhost"),
			SMTPPort: smtpPort,
			SMTPUser: os.Getenv("SMTP_USER"),
			SMTPPass: os.Getenv("SMTP_PASS"),
		},
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "0 7 * * *"),
		},
	}

	if cfg.Mail.To == "" {
		cfg.Mail.To = cfg.Mail.From
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	switch {
	case c.API.BaseURL == "":
		return errors.New("API_BASE must be provided")
	case c.API.Username == "":
		return errors.New("API_USER must be provided")
	case c.API.Password == "":
		return errors.New("API_PASS must be provided")
	}

	if c.Storage.DBFile == "" {
		return errors.New("DB_FILE must be provided")
	}

	if c.Mail.From == "" {
		return errors.New("MAIL_FROM must be provided")
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must not be empty")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return parsed, nil
}
