package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/lfmartins/naturadocs/internal/types"
)

// LocalOCR is the offline fallback engine backed by tesseract. A fresh client
// is created per call; gosseract clients are not safe for reuse across
// images with different settings.
type LocalOCR struct {
	languages []string
}

// NewLocalOCR builds the tesseract engine with the given language hints.
func NewLocalOCR(languages []string) *LocalOCR {
	if len(languages) == 0 {
		languages = []string{"por", "eng"}
	}
	return &LocalOCR{languages: languages}
}

// Name identifies the engine in diagnostics.
func (l *LocalOCR) Name() types.Engine { return types.EngineLocalOCR }

// ExtractImage OCRs one image. The format hint is unused; tesseract sniffs
// the encoding from the bytes.
func (l *LocalOCR) ExtractImage(ctx context.Context, img []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(l.languages...); err != nil {
		return "", fmt.Errorf("local ocr: set languages %v: %w", l.languages, err)
	}
	if err := client.SetImageFromBytes(img); err != nil {
		return "", fmt.Errorf("local ocr: load image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("local ocr: %w", err)
	}
	return strings.TrimSpace(text), nil
}
