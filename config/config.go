package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	OCR        OCRConfig        `mapstructure:"ocr"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	Validation ValidationConfig `mapstructure:"validation"`
}

type ServerConfig struct {
	Port        string `mapstructure:"port"`
	MaxFileSize int64  `mapstructure:"max_file_size"`
}

type OCRConfig struct {
	// Engines lists enabled engines in order: tesseract, paddleocr, azure, barcode.
	Engines             []string      `mapstructure:"engines"`
	EngineTimeout       time.Duration `mapstructure:"engine_timeout"`
	Workers             int           `mapstructure:"workers"`
	ConfidenceThreshold float64       `mapstructure:"confidence_threshold"`
	TessdataPrefix      string        `mapstructure:"tessdata_prefix"`
	Languages           []string      `mapstructure:"languages"`
	PaddleURL           string        `mapstructure:"paddle_url"`
	AzureEndpoint       string        `mapstructure:"azure_endpoint"`
	AzureKey            string        `mapstructure:"azure_key"`
}

type ExtractionConfig struct {
	ContextWindow int       `mapstructure:"context_window"`
	PatternsFile  string    `mapstructure:"patterns_file"`
	Denylist      []float64 `mapstructure:"denylist"`
}

type ValidationConfig struct {
	MagnitudeCap float64 `mapstructure:"magnitude_cap"`
}

// legacyEnv keeps the unprefixed variable names the service has always read.
var legacyEnv = map[string]string{
	"server.port":              "SERVER_PORT",
	"server.max_file_size":     "MAX_FILE_SIZE",
	"ocr.tessdata_prefix":      "TESSDATA_PREFIX",
	"ocr.paddle_url":           "PADDLEOCR_API_URL",
	"ocr.azure_endpoint":       "AZURE_VISION_ENDPOINT",
	"ocr.azure_key":            "AZURE_VISION_KEY",
	"extraction.patterns_file": "PATTERNS_FILE",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.max_file_size", 10*1024*1024) // 10 MB
	v.SetDefault("ocr.engines", []string{"tesseract", "paddleocr"})
	v.SetDefault("ocr.engine_timeout", 30*time.Second)
	v.SetDefault("ocr.workers", 4)
	v.SetDefault("ocr.confidence_threshold", 0.7)
	v.SetDefault("ocr.tessdata_prefix", "/usr/share/tesseract-ocr/5/tessdata/")
	v.SetDefault("ocr.languages", []string{"eng"})
	v.SetDefault("ocr.paddle_url", "http://paddleocr:8866/predict/ocr_system")
	v.SetDefault("extraction.context_window", 50)
	v.SetDefault("validation.magnitude_cap", 10_000_000)
}

// LoadConfig reads defaults, then the optional YAML file at path, then the
// environment (TAXOCR_SERVER_PORT and friends, plus the legacy names).
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TAXOCR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, "TAXOCR_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	normalizeEngines(&cfg.OCR)
	return &cfg, nil
}

// normalizeEngines accepts comma separated env values and drops blanks.
func normalizeEngines(o *OCRConfig) {
	var out []string
	for _, e := range o.Engines {
		for _, part := range strings.Split(e, ",") {
			if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
				out = append(out, p)
			}
		}
	}
	o.Engines = out
}
