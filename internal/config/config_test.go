package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval)
	assert.Equal(t, []string{"por", "eng"}, cfg.TesseractLanguages)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("NATURADOCS_DOWNLOAD_DIR", t.TempDir())
	t.Setenv("NATURADOCS_POLL_INTERVAL_MS", "250")
	t.Setenv("NATURADOCS_DOWNLOAD_TIMEOUT_S", "8")
	t.Setenv("NATURADOCS_SLOW_DOWNLOAD_TIMEOUT_S", "90")
	t.Setenv("NATURADOCS_TESSERACT_LANGS", "por, spa")
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 8*time.Second, cfg.DownloadTimeout)
	assert.Equal(t, 90*time.Second, cfg.SlowDownloadTimeout)
	assert.Equal(t, []string{"por", "spa"}, cfg.TesseractLanguages)
	assert.Equal(t, "test-key", cfg.GeminiAPIKey)
}

func TestLoadRejectsMalformedNumbers(t *testing.T) {
	t.Setenv("NATURADOCS_POLL_INTERVAL_MS", "fast")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidateConstraints(t *testing.T) {
	cfg := Default()
	cfg.DownloadDir = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.SlowDownloadTimeout = cfg.DownloadTimeout - time.Second
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.TesseractLanguages = nil
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.RulesOverlayPath = "/nonexistent/overlay.json"
	assert.Error(t, cfg.Validate())
}

func TestIsSoftPass(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.IsSoftPass("documento de viagem internacional"))
	assert.True(t, cfg.IsSoftPass("Comprovante de tempo de residência"))
	assert.False(t, cfg.IsSoftPass("Comprovante da situação cadastral do CPF"))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a , b ,, "))
}
