// Package types defines the shared data model for the document acquisition
// and validation pipeline.
package types

import "time"

// SearchStrategy identifies which locator strategy produced a SearchResult.
type SearchStrategy string

const (
	StrategyDedicatedField       SearchStrategy = "dedicated_field"
	StrategyAttachmentTableExact SearchStrategy = "table_exact"
	StrategyAttachmentTableFuzzy SearchStrategy = "table_fuzzy"
	StrategySpecialCase          SearchStrategy = "special_case"
)

// MatchMethod records how a downloaded file was matched to a request.
type MatchMethod string

const (
	MatchExactName  MatchMethod = "exact_name"
	MatchFuzzyName  MatchMethod = "fuzzy_name"
	MatchMostRecent MatchMethod = "most_recent"
)

// Engine identifies which text-extraction engine produced an OCRResult.
type Engine string

const (
	EngineNativeExtraction Engine = "native_extraction"
	EngineVisionOCR        Engine = "vision_ocr"
	EngineLocalOCR         Engine = "local_ocr"
	EngineNone             Engine = "none"
)

// Status is the terminal outcome of a document acquisition attempt.
type Status string

const (
	StatusValid   Status = "valid"
	StatusInvalid Status = "invalid"
	StatusMissing Status = "missing"
)

// DocumentRequest describes one required document to acquire and validate.
// Created by the eligibility engine; immutable; consumed once per attempt.
type DocumentRequest struct {
	// LogicalName is the stable identifier for the document type,
	// independent of how the portal labels the attachment
	// (e.g. "Comprovante de tempo de residência").
	LogicalName string `json:"logical_name"`

	// ExpectedMinChars is the minimum extracted-text length below which
	// OCR output is treated as empty for this document.
	ExpectedMinChars int `json:"expected_min_chars"`

	// PageCap limits how many pages are OCRed; 0 means no cap, in which
	// case the per-type default table applies.
	PageCap int `json:"page_cap,omitempty"`
}

// SearchResult is produced by the locator. Ownership transfers to the
// orchestrator for the download step; never mutated after creation.
type SearchResult struct {
	Found             bool           `json:"found"`
	Element           ElementRef     `json:"-"`
	Strategy          SearchStrategy `json:"source_strategy,omitempty"`
	CandidateFilename string         `json:"candidate_filename,omitempty"`
	TypeLabel         string         `json:"type_label,omitempty"`
	Reason            string         `json:"reason,omitempty"`
}

// ElementRef is an opaque handle to a clickable UI element. The concrete
// value is owned by the UI adapter that produced it.
type ElementRef interface{}

// DownloadedFile is produced by the download watcher once a new file in the
// shared download directory has a stable, nonzero size.
type DownloadedFile struct {
	Path       string      `json:"path"`
	DetectedAt time.Time   `json:"detected_at"`
	SizeStable bool        `json:"size_stable"`
	MatchedBy  MatchMethod `json:"matched_by"`
}

// OCRResult is the aggregate text extracted from a downloaded file.
type OCRResult struct {
	Text           string `json:"text"`
	CharCount      int    `json:"char_count"`
	EngineUsed     Engine `json:"engine_used"`
	PagesProcessed int    `json:"pages_processed"`
}

// ValidationResult is the verdict of the content validator for one document.
// Derived purely from the extracted text and the static rule table; the same
// text always yields the same result.
type ValidationResult struct {
	Valid        bool     `json:"valid"`
	MatchedTerms []string `json:"matched_terms"`
	MissingTerms []string `json:"missing_terms"`
	// Confidence is the normalized rule score in [0,1].
	Confidence float64 `json:"confidence"`
}

// Diagnostics carries the per-attempt context surfaced to the eligibility
// engine alongside the terminal status.
type Diagnostics struct {
	AttemptID      string         `json:"attempt_id"`
	SourceStrategy SearchStrategy `json:"source_strategy,omitempty"`
	EngineUsed     Engine         `json:"engine_used,omitempty"`
	MatchedTerms   []string       `json:"matched_terms,omitempty"`
	MissingTerms   []string       `json:"missing_terms,omitempty"`
	Reason         string         `json:"reason,omitempty"`
}

// Outcome is the result of AcquireAndValidate for one DocumentRequest.
// A Missing or Invalid outcome is a normal business result, not an error:
// a single document failure never aborts the rest of the case file.
type Outcome struct {
	Status      Status      `json:"status"`
	Text        string      `json:"text,omitempty"`
	Diagnostics Diagnostics `json:"diagnostics"`
}
