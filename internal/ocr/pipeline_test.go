package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lfmartins/naturadocs/internal/types"
)

type stubEngine struct {
	name  types.Engine
	text  string
	err   error
	calls int
}

func (s *stubEngine) ExtractImage(context.Context, []byte, string) (string, error) {
	s.calls++
	return s.text, s.err
}

func (s *stubEngine) Name() types.Engine { return s.name }

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 40, 40))
	for i := range img.Pix {
		img.Pix[i] = uint8(i % 251)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestOCRImageVisionWins(t *testing.T) {
	vision := &stubEngine{name: types.EngineVisionOCR, text: "texto extraído"}
	local := &stubEngine{name: types.EngineLocalOCR, text: "nunca usado"}
	p := NewPipeline(vision, local, nil, nil)

	text, engine := p.ocrImage(context.Background(), testPNG(t))
	assert.Equal(t, "texto extraído", text)
	assert.Equal(t, types.EngineVisionOCR, engine)
	assert.Zero(t, local.calls)
}

func TestOCRImageFallsBackToLocal(t *testing.T) {
	vision := &stubEngine{name: types.EngineVisionOCR, err: errors.New("quota exceeded")}
	local := &stubEngine{name: types.EngineLocalOCR, text: "texto local"}
	p := NewPipeline(vision, local, nil, nil)

	text, engine := p.ocrImage(context.Background(), testPNG(t))
	assert.Equal(t, "texto local", text)
	assert.Equal(t, types.EngineLocalOCR, engine)
	assert.Equal(t, 1, vision.calls)
}

func TestOCRImageAllEnginesFail(t *testing.T) {
	vision := &stubEngine{name: types.EngineVisionOCR, err: errors.New("unavailable")}
	local := &stubEngine{name: types.EngineLocalOCR, err: errors.New("no tessdata")}
	p := NewPipeline(vision, local, nil, nil)

	text, engine := p.ocrImage(context.Background(), testPNG(t))
	assert.Empty(t, text)
	assert.Equal(t, types.EngineNone, engine)
}

func TestExtractImageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comprovante.png")
	require.NoError(t, os.WriteFile(path, testPNG(t), 0o644))

	vision := &stubEngine{name: types.EngineVisionOCR, text: "Comprovante de residência"}
	p := NewPipeline(vision, nil, nil, nil)

	res, err := p.Extract(context.Background(), path, types.DocumentRequest{LogicalName: "Comprovante de tempo de residência"})
	require.NoError(t, err)
	assert.Equal(t, types.EngineVisionOCR, res.EngineUsed)
	assert.Equal(t, 1, res.PagesProcessed)
	assert.Equal(t, "Comprovante de residência", res.Text)
	assert.Equal(t, len([]rune(res.Text)), res.CharCount)
}

func TestExtractRejectsUnknownExtension(t *testing.T) {
	p := NewPipeline(nil, nil, nil, nil)
	_, err := p.Extract(context.Background(), "/tmp/nota.docx", types.DocumentRequest{})
	assert.Error(t, err)
}

func TestPageLimit(t *testing.T) {
	tests := []struct {
		name  string
		req   types.DocumentRequest
		total int
		want  int
	}{
		{
			name:  "explicit cap",
			req:   types.DocumentRequest{LogicalName: "Qualquer", PageCap: 2},
			total: 10,
			want:  2,
		},
		{
			name:  "residence proof defaults to first page",
			req:   types.DocumentRequest{LogicalName: "Comprovante de tempo de residência"},
			total: 30,
			want:  1,
		},
		{
			name:  "travel document defaults to first page",
			req:   types.DocumentRequest{LogicalName: "Documento de viagem internacional"},
			total: 8,
			want:  1,
		},
		{
			name:  "other types read everything",
			req:   types.DocumentRequest{LogicalName: "Certidão de antecedentes criminais (Brasil)"},
			total: 4,
			want:  4,
		},
		{
			name:  "cap larger than document",
			req:   types.DocumentRequest{LogicalName: "Qualquer", PageCap: 9},
			total: 3,
			want:  3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pageLimit(tt.req, tt.total))
		})
	}
}

func TestSignificantChars(t *testing.T) {
	assert.Equal(t, 0, significantChars("  \n\t "))
	assert.Equal(t, 10, significantChars("ab cd ef\ngh ij"))
}

func TestNewResultEmptyTextMeansNoEngine(t *testing.T) {
	res := newResult("   \n ", types.EngineVisionOCR, 3)
	assert.Equal(t, types.EngineNone, res.EngineUsed)
	assert.Zero(t, res.CharCount)
}
