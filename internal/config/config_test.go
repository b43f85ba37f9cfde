package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATABASE_URL", "file::memory:")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, "gemini-1.5-flash", cfg.AI.GeminiModel)
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileFallsBackToEnv(t *testing.T) {
	t.Setenv("PORT", "4100")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "4100", cfg.Port)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("port: \"5000\"\ndatabase:\n  driver: mysql\n  dsn: user:pass@tcp(localhost:3306)/eventease\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     AppConfig
		wantErr bool
	}{
		{"missing secret", AppConfig{Database: DatabaseConfig{Driver: "postgres", DSN: "x"}}, true},
		{"missing dsn", AppConfig{JWTSecret: "s", Database: DatabaseConfig{Driver: "postgres"}}, true},
		{"bad driver", AppConfig{JWTSecret: "s", Database: DatabaseConfig{Driver: "oracle", DSN: "x"}}, true},
		{"ok", AppConfig{JWTSecret: "s", Database: DatabaseConfig{Driver: "postgres", DSN: "x"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			assert.Equal(t, tt.wantErr, err != nil)
		})
	}
}

func TestMailSender(t *testing.T) {
	assert.Equal(t, "me@example.com", MailConfig{Username: "me@example.com"}.Sender())
	assert.Equal(t, "noreply@example.com", MailConfig{Username: "me@example.com", DefaultSender: "noreply@example.com"}.Sender())
}
