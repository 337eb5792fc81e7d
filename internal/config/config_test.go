package config

import (
	"os"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	os.Setenv("DATABASE_URL", "postgres://localhost:5432/carebook_test")
	t.Cleanup(func() { os.Unsetenv("DATABASE_URL") })
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("Port = %q, want 8000", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want development", cfg.Env)
	}
	if cfg.DBMaxConns != 20 {
		t.Errorf("DBMaxConns = %d, want 20", cfg.DBMaxConns)
	}
	if cfg.ReminderInterval != 24*time.Hour {
		t.Errorf("ReminderInterval = %s, want 24h", cfg.ReminderInterval)
	}
	if cfg.WhatsAppMaxRetries != 3 {
		t.Errorf("WhatsAppMaxRetries = %d, want 3", cfg.WhatsAppMaxRetries)
	}
}

func TestLoadMissingDatabaseURL(t *testing.T) {
	os.Unsetenv("DATABASE_URL")
	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail without DATABASE_URL")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	os.Setenv("PORT", "9090")
	os.Setenv("REMINDER_INTERVAL", "1h")
	t.Cleanup(func() {
		os.Unsetenv("PORT")
		os.Unsetenv("REMINDER_INTERVAL")
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.ReminderInterval != time.Hour {
		t.Errorf("ReminderInterval = %s, want 1h", cfg.ReminderInterval)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "dev without issuer",
			cfg: Config{
				Env:                 "development",
				WhatsAppSendTimeout: 30 * time.Second,
				ReminderInterval:    24 * time.Hour,
			},
			wantErr: false,
		},
		{
			name: "production without issuer",
			cfg: Config{
				Env:                 "production",
				WhatsAppSendTimeout: 30 * time.Second,
				ReminderInterval:    24 * time.Hour,
			},
			wantErr: true,
		},
		{
			name: "production with issuer",
			cfg: Config{
				Env:                 "production",
				AuthIssuer:          "https://auth.example.com/realms/carebook",
				WhatsAppSendTimeout: 30 * time.Second,
				ReminderInterval:    24 * time.Hour,
			},
			wantErr: false,
		},
		{
			name: "zero send timeout",
			cfg: Config{
				Env:              "development",
				ReminderInterval: 24 * time.Hour,
			},
			wantErr: true,
		},
		{
			name: "negative retries",
			cfg: Config{
				Env:                 "development",
				WhatsAppSendTimeout: time.Second,
				WhatsAppMaxRetries:  -1,
				ReminderInterval:    24 * time.Hour,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
