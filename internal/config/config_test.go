package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("UPLOAD_MAX_SIZE", "")
	t.Setenv("UPLOAD_ALLOWED_MIME_TYPES", "")
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("AUTH_REQUIRED", "")

	cfg := Load()

	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.AuthRequired)
	assert.Equal(t, int64(10<<20), cfg.UploadMaxSize)
	assert.Equal(t, DefaultAllowedMimeTypes, cfg.UploadAllowedMimeTypes)
	assert.Equal(t, "local", cfg.StorageDriver)
	assert.Equal(t, "attachments", cfg.StoragePrefix)
	assert.Equal(t, 60, cfg.UploadRateLimit)
	assert.Equal(t, time.Minute, cfg.UploadRateWindow)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("UPLOAD_MAX_SIZE", "2048")
	t.Setenv("UPLOAD_ALLOWED_MIME_TYPES", " application/PDF, ,text/csv")
	t.Setenv("AUTH_REQUIRED", "true")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")

	cfg := Load()

	assert.Equal(t, int64(2048), cfg.UploadMaxSize)
	assert.Equal(t, []string{"application/pdf", "text/csv"}, cfg.UploadAllowedMimeTypes)
	assert.True(t, cfg.AuthRequired)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
}

func TestEnvHelpersFallBackOnGarbage(t *testing.T) {
	t.Setenv("X_INT", "many")
	t.Setenv("X_BOOL", "perhaps")
	t.Setenv("X_DURATION", "soon")

	assert.Equal(t, 7, envInt("X_INT", 7))
	assert.True(t, envBool("X_BOOL", true))
	assert.Equal(t, time.Minute, envDuration("X_DURATION", time.Minute))
}
