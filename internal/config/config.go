// Package config provides configuration loading and validation for the
// document pipeline.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Defaults used when the environment does not override them.
const (
	DefaultPollInterval        = 500 * time.Millisecond
	DefaultDownloadTimeout     = 5 * time.Second
	DefaultSlowDownloadTimeout = 60 * time.Second
	DefaultOCRTimeout          = 90 * time.Second
	DefaultGeminiModel         = "gemini-1.5-flash"
)

// Config holds everything the pipeline needs from the environment.
// The browser session itself is assumed to be authenticated and positioned on
// the case form before the pipeline runs; session bootstrap is out of scope.
type Config struct {
	// DownloadDir is the shared browser download directory the watcher polls.
	DownloadDir string `validate:"required"`

	// PollInterval is the watcher poll period; also the spacing between the
	// two size reads of the completion check.
	PollInterval time.Duration `validate:"gt=0"`

	// DownloadTimeout bounds the wait for a new file after a click.
	DownloadTimeout time.Duration `validate:"gt=0"`

	// SlowDownloadTimeout is used for portal flows known to be slow.
	SlowDownloadTimeout time.Duration `validate:"gtefield=DownloadTimeout"`

	// GeminiAPIKey authenticates the primary vision-OCR calls.
	GeminiAPIKey string
	// GeminiModel is the vision model used for OCR.
	GeminiModel string `validate:"required"`
	// OCRTimeout is the hard wall-clock bound on one vision-OCR call.
	OCRTimeout time.Duration `validate:"gt=0"`

	// TesseractLanguages are the language hints for the local OCR fallback.
	TesseractLanguages []string `validate:"min=1"`

	// SoftPassDocuments lists logical names for which an unreadable but
	// successfully downloaded attachment counts as valid. Some scanned
	// forms for these types are pictorial and OCR legitimately comes back
	// empty.
	SoftPassDocuments []string

	// RulesOverlayPath optionally points at a JSON file with replacement
	// or additional validation rule tables.
	RulesOverlayPath string

	LogLevel  string
	LogFormat string
}

// Default returns a Config with all defaults filled in. DownloadDir defaults
// to the user's Downloads directory, matching the browser profile used by the
// automation session.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DownloadDir:         filepath.Join(home, "Downloads"),
		PollInterval:        DefaultPollInterval,
		DownloadTimeout:     DefaultDownloadTimeout,
		SlowDownloadTimeout: DefaultSlowDownloadTimeout,
		GeminiModel:         DefaultGeminiModel,
		OCRTimeout:          DefaultOCRTimeout,
		TesseractLanguages:  []string{"por", "eng"},
		SoftPassDocuments: []string{
			"Documento de viagem internacional",
			"Comprovante de tempo de residência",
		},
		LogLevel:  "info",
		LogFormat: "json",
	}
}

// Load reads configuration from the environment, applying defaults for unset
// values. A .env file in the working directory is honored when present.
func Load() (Config, error) {
	// Best effort; a missing .env just means plain environment variables.
	_ = godotenv.Load()

	cfg := Default()

	if v := os.Getenv("NATURADOCS_DOWNLOAD_DIR"); v != "" {
		cfg.DownloadDir = v
	}
	if v := os.Getenv("NATURADOCS_POLL_INTERVAL_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse NATURADOCS_POLL_INTERVAL_MS: %w", err)
		}
		cfg.PollInterval = time.Duration(ms) * time.Millisecond
	}
	if v := os.Getenv("NATURADOCS_DOWNLOAD_TIMEOUT_S"); v != "" {
		s, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse NATURADOCS_DOWNLOAD_TIMEOUT_S: %w", err)
		}
		cfg.DownloadTimeout = time.Duration(s) * time.Second
	}
	if v := os.Getenv("NATURADOCS_SLOW_DOWNLOAD_TIMEOUT_S"); v != "" {
		s, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse NATURADOCS_SLOW_DOWNLOAD_TIMEOUT_S: %w", err)
		}
		cfg.SlowDownloadTimeout = time.Duration(s) * time.Second
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.GeminiAPIKey = v
	}
	if v := os.Getenv("NATURADOCS_GEMINI_MODEL"); v != "" {
		cfg.GeminiModel = v
	}
	if v := os.Getenv("NATURADOCS_OCR_TIMEOUT_S"); v != "" {
		s, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse NATURADOCS_OCR_TIMEOUT_S: %w", err)
		}
		cfg.OCRTimeout = time.Duration(s) * time.Second
	}
	if v := os.Getenv("NATURADOCS_TESSERACT_LANGS"); v != "" {
		cfg.TesseractLanguages = splitList(v)
	}
	if v := os.Getenv("NATURADOCS_SOFT_PASS_DOCS"); v != "" {
		cfg.SoftPassDocuments = splitList(v)
	}
	if v := os.Getenv("NATURADOCS_RULES_OVERLAY"); v != "" {
		cfg.RulesOverlayPath = v
	}
	if v := os.Getenv("NATURADOCS_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("NATURADOCS_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks structural constraints on the configuration.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	if c.RulesOverlayPath != "" {
		if _, err := os.Stat(c.RulesOverlayPath); err != nil {
			return fmt.Errorf("config error: rules overlay not found: %s", c.RulesOverlayPath)
		}
	}
	return nil
}

// IsSoftPass reports whether logicalName tolerates empty OCR output after a
// successful download.
func (c Config) IsSoftPass(logicalName string) bool {
	for _, name := range c.SoftPassDocuments {
		if strings.EqualFold(name, logicalName) {
			return true
		}
	}
	return false
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
