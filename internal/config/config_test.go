package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 9, cfg.Notify.Hour)
	assert.Equal(t, 0, cfg.Notify.Minute)
	assert.Equal(t, 3, cfg.Notify.Workers)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.False(t, cfg.SMTP.Configured(), "smtp should be unconfigured by default")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TODO_SERVER_PORT", "9090")
	t.Setenv("TODO_NOTIFY_HOUR", "21")
	t.Setenv("TODO_SMTP_HOST", "smtp.example.com")
	t.Setenv("TODO_SMTP_FROM", "noreply@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 21, cfg.Notify.Hour)
	assert.True(t, cfg.SMTP.Configured())
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "hour out of range", key: "TODO_NOTIFY_HOUR", value: "24"},
		{name: "minute out of range", key: "TODO_NOTIFY_MINUTE", value: "60"},
		{name: "zero workers", key: "TODO_NOTIFY_WORKERS", value: "0"},
		{name: "bad from address", key: "TODO_SMTP_FROM", value: "not-an-email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
