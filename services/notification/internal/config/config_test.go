package config_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivam7053/raga-vachika/services/notification/internal/config"
)

func TestLoadConfigFrom_Example(t *testing.T) {
	t.Setenv("APP_ENV", "missing-env")
	t.Setenv("CONFIG_PATH", "")

	cfg, err := config.LoadConfigFrom(filepath.Join("..", "..", "configs"))
	require.NoError(t, err)

	assert.Equal(t, "notification", cfg.Service.Name)
	assert.Equal(t, "mail.outbound", cfg.Worker.Channel)
	assert.Equal(t, 700*time.Millisecond, cfg.Worker.Pacing)
	assert.Equal(t, "0.0.0.0:8081", cfg.HTTP.Address())
}

func TestLoadConfigFrom_EnvOverride(t *testing.T) {
	t.Setenv("APP_ENV", "missing-env")
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("NOTIFICATION_WORKER_CHANNEL", "mail.staging")

	cfg, err := config.LoadConfigFrom(filepath.Join("..", "..", "configs"))
	require.NoError(t, err)
	assert.Equal(t, "mail.staging", cfg.Worker.Channel)
}

func TestValidate(t *testing.T) {
	cfg := config.Default()
	assert.Error(t, cfg.Validate())

	cfg.Email.Host = "smtp.example.test"
	cfg.Email.From = "noreply@example.test"
	assert.NoError(t, cfg.Validate())

	cfg.Worker.Channel = ""
	assert.Error(t, cfg.Validate())
}
