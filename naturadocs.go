// Package naturadocs acquires and validates supporting documents from a
// case-management portal: it locates attachments in the live form, downloads
// them through the browser session, extracts their text through tiered OCR
// and judges the text against per-document-type rules. The browser session
// must already be authenticated and positioned on the case form; session
// bootstrap, navigation and result persistence are the caller's concern.
package naturadocs

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lfmartins/naturadocs/internal/config"
	"github.com/lfmartins/naturadocs/internal/downloads"
	"github.com/lfmartins/naturadocs/internal/locator"
	"github.com/lfmartins/naturadocs/internal/observability"
	"github.com/lfmartins/naturadocs/internal/ocr"
	"github.com/lfmartins/naturadocs/internal/pipeline"
	"github.com/lfmartins/naturadocs/internal/types"
	"github.com/lfmartins/naturadocs/internal/uiquery"
	"github.com/lfmartins/naturadocs/internal/validation"
)

// Re-exported so callers do not import internal packages.
type (
	Config          = config.Config
	DocumentRequest = types.DocumentRequest
	Outcome         = types.Outcome
	Adapter         = uiquery.Adapter
)

// LoadConfig reads configuration from the environment.
func LoadConfig() (Config, error) { return config.Load() }

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config { return config.Default() }

// Pipeline is a fully wired document pipeline bound to one browser session
// and one download directory.
type Pipeline struct {
	orch   *pipeline.Orchestrator
	vision *ocr.VisionOCR
	log    *zap.Logger
}

// New wires the pipeline from configuration. ui is the live automation
// session. When cfg.GeminiAPIKey is empty the vision tier is skipped and
// scanned pages go straight to local OCR.
func New(ctx context.Context, cfg Config, ui Adapter) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := observability.NewLogger(observability.LogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	if err != nil {
		return nil, err
	}

	var vision *ocr.VisionOCR
	var visionEngine ocr.ImageEngine
	if cfg.GeminiAPIKey != "" {
		vision, err = ocr.NewVisionOCR(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.OCRTimeout, log)
		if err != nil {
			return nil, fmt.Errorf("wire vision ocr: %w", err)
		}
		visionEngine = vision
	} else {
		log.Warn("no vision API key configured, relying on local ocr only")
	}

	rules := validation.DefaultRuleset()
	if cfg.RulesOverlayPath != "" {
		if err := rules.ApplyOverlay(cfg.RulesOverlayPath); err != nil {
			return nil, err
		}
	}

	extractor := ocr.NewPipeline(
		visionEngine,
		ocr.NewLocalOCR(cfg.TesseractLanguages),
		ocr.NewPreprocessor(ocr.DefaultPreprocessOptions(), log),
		log,
	)

	orch := pipeline.New(
		ui,
		locator.New(ui, log),
		downloads.NewWatcher(cfg.DownloadDir, cfg.PollInterval, log),
		extractor,
		rules,
		pipeline.NewTextCache(),
		cfg,
		log,
	)

	return &Pipeline{orch: orch, vision: vision, log: log}, nil
}

// AcquireAndValidate runs the full flow for one document.
func (p *Pipeline) AcquireAndValidate(ctx context.Context, req DocumentRequest) Outcome {
	return p.orch.AcquireAndValidate(ctx, req)
}

// Run processes the requests strictly sequentially, one outcome per logical
// name.
func (p *Pipeline) Run(ctx context.Context, reqs []DocumentRequest) map[string]Outcome {
	return p.orch.Run(ctx, reqs)
}

// Close releases the vision client, if any.
func (p *Pipeline) Close() error {
	if p.vision != nil {
		return p.vision.Close()
	}
	return nil
}

// NewBrowserAdapter wraps an existing chromedp context as the Adapter the
// pipeline drives.
func NewBrowserAdapter(ctx context.Context) Adapter {
	return uiquery.NewBrowser(ctx)
}
