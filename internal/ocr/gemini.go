package ocr

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"google.golang.org/api/option"

	"github.com/lfmartins/naturadocs/internal/types"
)

// visionPrompt is the fixed extraction instruction. Temperature is pinned to
// zero so identical images yield identical text.
const visionPrompt = "Extraia todo o texto visível desta imagem de documento. " +
	"Preserve a ordem de leitura. Responda somente com o texto extraído, " +
	"sem comentários nem formatação adicional."

// VisionOCR extracts text from document images with the Gemini vision API.
// At most one request is in flight at a time and every call carries a hard
// wall-clock deadline; a late response is abandoned, never blocked on.
type VisionOCR struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	sem     *semaphore.Weighted
	log     *zap.Logger
}

// NewVisionOCR builds the vision engine.
func NewVisionOCR(ctx context.Context, apiKey, model string, timeout time.Duration, log *zap.Logger) (*VisionOCR, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("vision ocr: API key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create vision client: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &VisionOCR{
		client:  client,
		model:   model,
		timeout: timeout,
		sem:     semaphore.NewWeighted(1),
		log:     log,
	}, nil
}

// Name identifies the engine in diagnostics.
func (v *VisionOCR) Name() types.Engine { return types.EngineVisionOCR }

// ExtractImage OCRs one image. The image bytes must be PNG or JPEG.
func (v *VisionOCR) ExtractImage(ctx context.Context, img []byte, format string) (string, error) {
	if err := v.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("vision ocr: %w", err)
	}
	defer v.sem.Release(1)

	callCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	type reply struct {
		text string
		err  error
	}
	done := make(chan reply, 1)
	go func() {
		text, err := v.call(callCtx, img, format)
		done <- reply{text, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return "", r.err
		}
		return r.text, nil
	case <-callCtx.Done():
		// The goroutine delivers into a buffered channel and exits on its
		// own; the late result is dropped.
		v.log.Warn("vision ocr call abandoned", zap.Duration("timeout", v.timeout))
		return "", fmt.Errorf("vision ocr: %w", callCtx.Err())
	}
}

func (v *VisionOCR) call(ctx context.Context, img []byte, format string) (string, error) {
	model := v.client.GenerativeModel(v.model)
	model.SetTemperature(0)

	resp, err := model.GenerateContent(ctx,
		genai.ImageData(format, img),
		genai.Text(visionPrompt),
	)
	if err != nil {
		return "", fmt.Errorf("vision ocr request: %w", err)
	}
	return textFromResponse(resp)
}

// Close releases the API client.
func (v *VisionOCR) Close() error {
	return v.client.Close()
}

func textFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("vision ocr: no candidates in response")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("vision ocr: no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("vision ocr: no text parts in response")
	}
	return strings.TrimSpace(strings.Join(parts, "")), nil
}
