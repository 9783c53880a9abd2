package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, int64(10*1024*1024), cfg.Server.MaxFileSize)
	assert.Equal(t, []string{"tesseract", "paddleocr"}, cfg.OCR.Engines)
	assert.Equal(t, 30*time.Second, cfg.OCR.EngineTimeout)
	assert.Equal(t, 0.7, cfg.OCR.ConfidenceThreshold)
	assert.Equal(t, 50, cfg.Extraction.ContextWindow)
	assert.Empty(t, cfg.Extraction.Denylist)
	assert.Equal(t, 10_000_000.0, cfg.Validation.MagnitudeCap)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxocr.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9090"
ocr:
  engines: [tesseract, azure, barcode]
  engine_timeout: 5s
  azure_endpoint: https://example.cognitiveservices.azure.com
extraction:
  context_window: 80
  denylist: [26059, 55420]
validation:
  magnitude_cap: 5000000
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"tesseract", "azure", "barcode"}, cfg.OCR.Engines)
	assert.Equal(t, 5*time.Second, cfg.OCR.EngineTimeout)
	assert.Equal(t, "https://example.cognitiveservices.azure.com", cfg.OCR.AzureEndpoint)
	assert.Equal(t, 80, cfg.Extraction.ContextWindow)
	assert.Equal(t, []float64{26059, 55420}, cfg.Extraction.Denylist)
	assert.Equal(t, 5_000_000.0, cfg.Validation.MagnitudeCap)
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("TAXOCR_OCR_WORKERS", "8")
	t.Setenv("TAXOCR_OCR_ENGINES", "tesseract, Azure")
	t.Setenv("PADDLEOCR_API_URL", "http://localhost:8866/predict/ocr_system")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, 8, cfg.OCR.Workers)
	assert.Equal(t, []string{"tesseract", "azure"}, cfg.OCR.Engines)
	assert.Equal(t, "http://localhost:8866/predict/ocr_system", cfg.OCR.PaddleURL)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
