package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwt_secret: "secreto-de-prueba"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "data/rendiciones.db", cfg.Database.Path)
	assert.Equal(t, "migrations", cfg.Database.MigrationsDir)
	assert.Equal(t, 3, cfg.Ledger.CriticalDays)
	assert.Equal(t, 10, cfg.Ledger.WarningDays)
	assert.Equal(t, 8*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
auth:
  jwt_secret: "secreto-de-prueba"
  token_ttl: 1h
ledger:
  critical_days: 5
  warning_days: 15
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 5, cfg.Ledger.CriticalDays)
	assert.Equal(t, 15, cfg.Ledger.WarningDays)
}

func TestLoadMissingSecret(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateThresholds(t *testing.T) {
	cfg := &Config{
		Auth:   AuthConfig{JWTSecret: "x"},
		Ledger: LedgerConfig{CriticalDays: 10, WarningDays: 3},
	}
	assert.Error(t, cfg.Validate())

	cfg.Ledger = LedgerConfig{CriticalDays: 3, WarningDays: 10}
	assert.NoError(t, cfg.Validate())
}
