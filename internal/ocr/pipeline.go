// Package ocr extracts text from downloaded documents through a tiered
// strategy: the PDF's native text layer when present, then cloud vision OCR
// on page images, then local tesseract as the offline fallback.
package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/lfmartins/naturadocs/internal/types"
)

// ImageEngine turns one document image into text.
type ImageEngine interface {
	ExtractImage(ctx context.Context, img []byte, format string) (string, error)
	Name() types.Engine
}

// onePageFragments lists logical-name fragments whose documents only need the
// first page read. Residence and travel documents routinely arrive as long
// scans where everything relevant sits on page one.
var onePageFragments = []string{
	"tempo de residência",
	"tempo de residencia",
	"viagem internacional",
	"viagens internacionais",
	"comprovante de residência",
	"comprovante de residencia",
}

// Pipeline runs the tiered extraction. Either engine may be nil; tiers
// without an engine are skipped.
type Pipeline struct {
	vision ImageEngine
	local  ImageEngine
	pre    *Preprocessor
	log    *zap.Logger
}

// NewPipeline assembles the extraction pipeline.
func NewPipeline(vision, local ImageEngine, pre *Preprocessor, log *zap.Logger) *Pipeline {
	if pre == nil {
		pre = NewPreprocessor(PreprocessOptions{}, nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{vision: vision, local: local, pre: pre, log: log}
}

// Extract pulls text out of the downloaded file. Engine failures degrade to
// the next tier; only I/O level problems surface as errors. An unreadable
// document yields an empty result with EngineNone.
func (p *Pipeline) Extract(ctx context.Context, path string, req types.DocumentRequest) (types.OCRResult, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return p.extractPDF(ctx, path, req)
	case ".jpg", ".jpeg", ".png":
		return p.extractImageFile(ctx, path)
	default:
		return types.OCRResult{}, fmt.Errorf("unsupported file type: %s", path)
	}
}

func (p *Pipeline) extractImageFile(ctx context.Context, path string) (types.OCRResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.OCRResult{}, fmt.Errorf("read image %s: %w", path, err)
	}

	text, engine := p.ocrImage(ctx, data)
	return newResult(text, engine, 1), nil
}

func (p *Pipeline) extractPDF(ctx context.Context, path string, req types.DocumentRequest) (types.OCRResult, error) {
	nativeTexts, err := nativePageTexts(path)
	if err != nil {
		// Malformed text layer; the pages may still carry scanned images.
		p.log.Warn("native text extraction failed", zap.String("file", path), zap.Error(err))
		nativeTexts = nil
	}

	total := len(nativeTexts)
	if total == 0 {
		if total, err = pdfPageCount(path); err != nil {
			return types.OCRResult{}, err
		}
	}
	limit := pageLimit(req, total)

	var pages []string
	engine := types.EngineNone
	for i := 0; i < limit; i++ {
		if i < len(nativeTexts) && significantChars(nativeTexts[i]) > nativeTextThreshold {
			pages = append(pages, nativeTexts[i])
			if engine == types.EngineNone {
				engine = types.EngineNativeExtraction
			}
			continue
		}

		text, used := p.ocrPDFPage(ctx, path, i+1)
		if text != "" {
			pages = append(pages, text)
			// One OCRed page makes the whole result an OCR result.
			if used != types.EngineNone {
				engine = used
			}
		}
	}

	return newResult(strings.Join(pages, "\n\n"), engine, limit), nil
}

// ocrPDFPage extracts the page's embedded images and OCRs them in order.
func (p *Pipeline) ocrPDFPage(ctx context.Context, path string, page int) (string, types.Engine) {
	images, err := extractPageImages(path, page)
	if err != nil {
		p.log.Warn("page image extraction failed",
			zap.String("file", path), zap.Int("page", page), zap.Error(err))
		return "", types.EngineNone
	}

	var parts []string
	engine := types.EngineNone
	for _, img := range images {
		text, used := p.ocrImage(ctx, img)
		if text != "" {
			parts = append(parts, text)
			engine = used
		}
	}
	return strings.Join(parts, "\n"), engine
}

// ocrImage runs one image through preprocessing and the engine tiers.
func (p *Pipeline) ocrImage(ctx context.Context, img []byte) (string, types.Engine) {
	prepared, err := p.pre.Prepare(img)
	if err != nil {
		// Undecodable inputs go to the engines as-is; tesseract in
		// particular handles formats image.Decode does not.
		p.log.Debug("preprocessing skipped", zap.Error(err))
		prepared = img
	}

	for _, engine := range []ImageEngine{p.vision, p.local} {
		if engine == nil {
			continue
		}
		text, err := engine.ExtractImage(ctx, prepared, "png")
		if err != nil {
			p.log.Warn("ocr engine failed",
				zap.String("engine", string(engine.Name())), zap.Error(err))
			continue
		}
		if text != "" {
			return text, engine.Name()
		}
	}
	return "", types.EngineNone
}

// pageLimit resolves the per-request cap against the per-type defaults.
func pageLimit(req types.DocumentRequest, total int) int {
	limit := req.PageCap
	if limit == 0 {
		nameLower := strings.ToLower(req.LogicalName)
		for _, fragment := range onePageFragments {
			if strings.Contains(nameLower, fragment) {
				limit = 1
				break
			}
		}
	}
	if limit == 0 || limit > total {
		limit = total
	}
	return limit
}

func newResult(text string, engine types.Engine, pages int) types.OCRResult {
	text = strings.TrimSpace(text)
	if text == "" {
		engine = types.EngineNone
	}
	return types.OCRResult{
		Text:           text,
		CharCount:      len([]rune(text)),
		EngineUsed:     engine,
		PagesProcessed: pages,
	}
}
