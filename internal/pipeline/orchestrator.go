// Package pipeline composes locating, downloading, text extraction and
// validation into one state machine per requested document. Documents are
// processed strictly one at a time; a failure on one document never aborts
// the rest of the case file.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lfmartins/naturadocs/internal/config"
	"github.com/lfmartins/naturadocs/internal/downloads"
	"github.com/lfmartins/naturadocs/internal/types"
	"github.com/lfmartins/naturadocs/internal/uiquery"
)

// Locator finds the clickable attachment for a logical document name.
type Locator interface {
	Locate(ctx context.Context, logicalName string) (types.SearchResult, error)
	LocateInTable(ctx context.Context, logicalName string) (types.SearchResult, error)
}

// Downloader watches the shared download directory.
type Downloader interface {
	Snapshot() (map[string]int64, error)
	Await(ctx context.Context, before map[string]int64, candidateName string, timeout time.Duration) (types.DownloadedFile, error)
}

// Extractor turns a downloaded file into text.
type Extractor interface {
	Extract(ctx context.Context, path string, req types.DocumentRequest) (types.OCRResult, error)
}

// Validator judges extracted text for a document type.
type Validator interface {
	Validate(logicalName, text string) types.ValidationResult
}

// Orchestrator drives one document at a time through search, download,
// extraction and validation.
type Orchestrator struct {
	ui        uiquery.Adapter
	locator   Locator
	watcher   Downloader
	extractor Extractor
	validator Validator
	cache     *TextCache
	cfg       config.Config
	log       *zap.Logger
}

// New assembles an orchestrator. cache may be nil to disable text reuse.
func New(ui uiquery.Adapter, loc Locator, watcher Downloader, ex Extractor, val Validator, cache *TextCache, cfg config.Config, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		ui:        ui,
		locator:   loc,
		watcher:   watcher,
		extractor: ex,
		validator: val,
		cache:     cache,
		cfg:       cfg,
		log:       log,
	}
}

// Run processes the requests sequentially and returns one outcome per
// logical name.
func (o *Orchestrator) Run(ctx context.Context, reqs []types.DocumentRequest) map[string]types.Outcome {
	outcomes := make(map[string]types.Outcome, len(reqs))
	for _, req := range reqs {
		outcomes[req.LogicalName] = o.AcquireAndValidate(ctx, req)
	}
	return outcomes
}

// AcquireAndValidate runs the full state machine for one document. It never
// panics: an unexpected fault is reported as a Missing outcome.
func (o *Orchestrator) AcquireAndValidate(ctx context.Context, req types.DocumentRequest) (outcome types.Outcome) {
	attemptID := uuid.NewString()
	log := o.log.With(
		zap.String("attempt_id", attemptID),
		zap.String("document", req.LogicalName))

	defer func() {
		if r := recover(); r != nil {
			log.Error("document attempt panicked", zap.Any("panic", r))
			outcome = types.Outcome{
				Status: types.StatusMissing,
				Diagnostics: types.Diagnostics{
					AttemptID: attemptID,
					Reason:    fmt.Sprintf("internal fault: %v", r),
				},
			}
		}
	}()

	if o.cache != nil {
		if text, ok := o.cache.Get(req.LogicalName); ok {
			log.Debug("using cached text")
			return o.validate(req, text, types.Diagnostics{AttemptID: attemptID})
		}
	}

	outcome = o.attempt(ctx, log, req, attemptID, false)

	// A dedicated-field hit can point at a stale or wrong attachment. When
	// the attempt fails downstream, one table-only retry often finds the
	// real document.
	if outcome.Status != types.StatusValid &&
		outcome.Diagnostics.SourceStrategy == types.StrategyDedicatedField {
		log.Info("dedicated field attempt failed, retrying via attachment table",
			zap.String("reason", outcome.Diagnostics.Reason))
		retry := o.attempt(ctx, log, req, attemptID, true)
		if retry.Status == types.StatusValid || outcome.Status == types.StatusMissing && retry.Status != types.StatusMissing {
			return retry
		}
	}
	return outcome
}

// attempt runs one pass of the state machine.
func (o *Orchestrator) attempt(ctx context.Context, log *zap.Logger, req types.DocumentRequest, attemptID string, tableOnly bool) types.Outcome {
	diag := types.Diagnostics{AttemptID: attemptID}

	// Searching.
	var search types.SearchResult
	var err error
	if tableOnly {
		search, err = o.locator.LocateInTable(ctx, req.LogicalName)
	} else {
		search, err = o.locator.Locate(ctx, req.LogicalName)
	}
	if err != nil {
		diag.Reason = fmt.Sprintf("search failed: %v", err)
		return types.Outcome{Status: types.StatusMissing, Diagnostics: diag}
	}
	if !search.Found {
		diag.Reason = search.Reason
		if diag.Reason == "" {
			diag.Reason = "not attached"
		}
		return types.Outcome{Status: types.StatusMissing, Diagnostics: diag}
	}
	diag.SourceStrategy = search.Strategy
	log.Info("attachment located",
		zap.String("strategy", string(search.Strategy)),
		zap.String("candidate", search.CandidateFilename))

	// Downloading.
	file, err := o.download(ctx, search)
	if err != nil {
		if errors.Is(err, downloads.ErrTimeout) {
			diag.Reason = err.Error()
		} else {
			diag.Reason = fmt.Sprintf("download failed: %v", err)
		}
		return types.Outcome{Status: types.StatusMissing, Diagnostics: diag}
	}
	log.Info("attachment downloaded",
		zap.String("file", file.Path),
		zap.String("matched_by", string(file.MatchedBy)))

	// Extracting.
	res, err := o.extractor.Extract(ctx, file.Path, req)
	if err != nil {
		diag.Reason = fmt.Sprintf("extraction failed: %v", err)
		return types.Outcome{Status: types.StatusMissing, Diagnostics: diag}
	}
	diag.EngineUsed = res.EngineUsed

	minChars := req.ExpectedMinChars
	if minChars == 0 {
		minChars = 1
	}
	if res.CharCount < minChars {
		if o.cfg.IsSoftPass(req.LogicalName) {
			diag.Reason = "attached but unreadable"
			log.Info("unreadable attachment accepted for soft-pass type")
			return types.Outcome{Status: types.StatusValid, Text: res.Text, Diagnostics: diag}
		}
		diag.Reason = "attached but unreadable"
		return types.Outcome{Status: types.StatusInvalid, Text: res.Text, Diagnostics: diag}
	}

	if o.cache != nil {
		o.cache.Put(req.LogicalName, res.Text)
	}

	// Validating.
	return o.validate(req, res.Text, diag)
}

func (o *Orchestrator) validate(req types.DocumentRequest, text string, diag types.Diagnostics) types.Outcome {
	verdict := o.validator.Validate(req.LogicalName, text)
	diag.MatchedTerms = verdict.MatchedTerms
	diag.MissingTerms = verdict.MissingTerms

	if !verdict.Valid {
		diag.Reason = "content validation failed"
		return types.Outcome{Status: types.StatusInvalid, Text: text, Diagnostics: diag}
	}
	return types.Outcome{Status: types.StatusValid, Text: text, Diagnostics: diag}
}

// download snapshots the directory, clicks the located element and waits for
// the file. The quick timeout covers the common case; slow portal flows get
// one extended wait before giving up.
func (o *Orchestrator) download(ctx context.Context, search types.SearchResult) (types.DownloadedFile, error) {
	el, ok := search.Element.(*uiquery.Element)
	if !ok || el == nil {
		return types.DownloadedFile{}, fmt.Errorf("search result carries no clickable element")
	}

	before, err := o.watcher.Snapshot()
	if err != nil {
		return types.DownloadedFile{}, err
	}

	// Best effort; some portal layouts keep the control off screen.
	_ = o.ui.ScrollIntoView(ctx, el)
	if err := o.ui.Click(ctx, el); err != nil {
		return types.DownloadedFile{}, err
	}

	file, err := o.watcher.Await(ctx, before, search.CandidateFilename, o.cfg.DownloadTimeout)
	if errors.Is(err, downloads.ErrTimeout) {
		o.log.Debug("quick download window elapsed, extending wait")
		file, err = o.watcher.Await(ctx, before, search.CandidateFilename, o.cfg.SlowDownloadTimeout)
	}
	return file, err
}
