package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
app:
  name: courtbook
  environment: development
  port: 8080
database:
  driver: sqlite
  filename: data/courtbook.db
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Auth.AccessTTLMinutes != 15 {
		t.Errorf("AccessTTLMinutes = %d, want 15", cfg.Auth.AccessTTLMinutes)
	}
	if cfg.Auth.RefreshTTLHours != 168 {
		t.Errorf("RefreshTTLHours = %d, want 168", cfg.Auth.RefreshTTLHours)
	}
	if cfg.Booking.PendingTTLMinutes != 60 {
		t.Errorf("PendingTTLMinutes = %d, want 60", cfg.Booking.PendingTTLMinutes)
	}
	if cfg.Booking.ExpiryCron != "*/5 * * * *" {
		t.Errorf("ExpiryCron = %q, want */5 * * * *", cfg.Booking.ExpiryCron)
	}
	if cfg.Booking.ReminderCron != "*/15 * * * *" {
		t.Errorf("ReminderCron = %q, want */15 * * * *", cfg.Booking.ReminderCron)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{
			"missing app name",
			`
app:
  environment: development
  port: 8080
database:
  driver: sqlite
  filename: data/courtbook.db
`,
		},
		{
			"missing port",
			`
app:
  name: courtbook
  environment: development
database:
  driver: sqlite
  filename: data/courtbook.db
`,
		},
		{
			"unsupported driver",
			`
app:
  name: courtbook
  environment: development
  port: 8080
database:
  driver: postgres
  filename: data/courtbook.db
`,
		},
		{
			"bad cron expression",
			`
app:
  name: courtbook
  environment: development
  port: 8080
database:
  driver: sqlite
  filename: data/courtbook.db
booking:
  expiry_cron: "every five minutes"
`,
		},
		{
			"email enabled without sender",
			`
app:
  name: courtbook
  environment: development
  port: 8080
database:
  driver: sqlite
  filename: data/courtbook.db
email:
  enabled: true
  region: us-east-1
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.contents)); err == nil {
				t.Error("Load() should have failed")
			}
		})
	}
}

func TestJWTSecretRequiredOutsideDevelopment(t *testing.T) {
	contents := `
app:
  name: courtbook
  environment: production
  port: 8080
database:
  driver: sqlite
  filename: data/courtbook.db
`
	t.Setenv("AUTH_JWT_SECRET", "")
	if _, err := Load(writeConfig(t, contents)); err == nil {
		t.Error("Load() should require AUTH_JWT_SECRET in production")
	}

	t.Setenv("AUTH_JWT_SECRET", "super-secret")
	cfg, err := Load(writeConfig(t, contents))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Auth.JWTSecret != "super-secret" {
		t.Errorf("JWTSecret = %q, want super-secret", cfg.Auth.JWTSecret)
	}
}
