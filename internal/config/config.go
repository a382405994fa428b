// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
}

type AuthConfig struct {
	AccessTTLMinutes int    `yaml:"access_ttl_minutes"`
	RefreshTTLHours  int    `yaml:"refresh_ttl_hours"`
	JWTSecret        string `yaml:"-"` // Loaded from environment
}

type EmailConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Region          string `yaml:"region"`
	Sender          string `yaml:"sender"`
	AccessKeyID     string `yaml:"-"` // Loaded from environment
	SecretAccessKey string `yaml:"-"` // Loaded from environment
}

type BookingConfig struct {
	PendingTTLMinutes int    `yaml:"pending_ttl_minutes"`
	ExpiryCron        string `yaml:"expiry_cron"`
	ReminderCron      string `yaml:"reminder_cron"`
}

type Config struct {
	App struct {
		Name        string `yaml:"name"`
		Environment string `yaml:"environment"`
		Port        int    `yaml:"port"`
		BaseURL     string `yaml:"base_url"`
	} `yaml:"app"`

	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Email    EmailConfig    `yaml:"email"`
	Booking  BookingConfig  `yaml:"booking"`
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Load sensitive values from environment
	cfg.Auth.JWTSecret = os.Getenv("AUTH_JWT_SECRET")
	cfg.Email.AccessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
	cfg.Email.SecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Auth.AccessTTLMinutes == 0 {
		c.Auth.AccessTTLMinutes = 15
	}
	if c.Auth.RefreshTTLHours == 0 {
		c.Auth.RefreshTTLHours = 24 * 7
	}
	if c.Booking.PendingTTLMinutes == 0 {
		c.Booking.PendingTTLMinutes = 60
	}
	if c.Booking.ExpiryCron == "" {
		c.Booking.ExpiryCron = "*/5 * * * *"
	}
	if c.Booking.ReminderCron == "" {
		c.Booking.ReminderCron = "*/15 * * * *"
	}
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}
	if c.Database.Driver != "sqlite" {
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Database.Filename == "" {
		return fmt.Errorf("database filename is required for sqlite")
	}
	if c.Auth.JWTSecret == "" && c.App.Environment != "development" {
		return fmt.Errorf("AUTH_JWT_SECRET is required outside development")
	}

	if c.Email.Enabled {
		if c.Email.Region == "" || c.Email.Sender == "" {
			return fmt.Errorf("email region and sender are required when email is enabled")
		}
		if c.Email.AccessKeyID == "" || c.Email.SecretAccessKey == "" {
			return fmt.Errorf("AWS credentials are required when email is enabled")
		}
	}

	for _, expr := range []string{c.Booking.ExpiryCron, c.Booking.ReminderCron} {
		if _, err := cron.ParseStandard(expr); err != nil {
			return fmt.Errorf("invalid cron expression %q: %w", expr, err)
		}
	}

	return nil
}
