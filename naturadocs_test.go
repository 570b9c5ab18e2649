package naturadocs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lfmartins/naturadocs/internal/types"
	"github.com/lfmartins/naturadocs/internal/uiquery"
)

// emptyPage is an adapter over a form with no attachments at all.
type emptyPage struct{}

func (emptyPage) Find(context.Context, uiquery.Query) (*uiquery.Element, bool, error) {
	return nil, false, nil
}
func (emptyPage) Click(context.Context, *uiquery.Element) error { return nil }
func (emptyPage) ReadAttribute(context.Context, *uiquery.Element, string) (string, bool, error) {
	return "", false, nil
}
func (emptyPage) ScrollIntoView(context.Context, *uiquery.Element) error { return nil }
func (emptyPage) OuterHTML(context.Context, uiquery.Query) (string, bool, error) {
	return "", false, nil
}
func (emptyPage) Text(context.Context, *uiquery.Element) (string, error) { return "", nil }

func testPipeline(t *testing.T) *Pipeline {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DownloadDir = t.TempDir()

	p, err := New(context.Background(), cfg, emptyPage{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestPipelineReportsMissingOnEmptyForm(t *testing.T) {
	p := testPipeline(t)

	out := p.AcquireAndValidate(context.Background(), DocumentRequest{
		LogicalName: "Documento de viagem internacional",
	})
	assert.Equal(t, types.StatusMissing, out.Status)
	assert.NotEmpty(t, out.Diagnostics.Reason)
	assert.NotEmpty(t, out.Diagnostics.AttemptID)
}

func TestPipelineRunCoversAllRequests(t *testing.T) {
	p := testPipeline(t)

	reqs := []DocumentRequest{
		{LogicalName: "Carteira de Registro Nacional Migratório"},
		{LogicalName: "Comprovante da situação cadastral do CPF"},
	}
	outcomes := p.Run(context.Background(), reqs)
	require.Len(t, outcomes, 2)
	for name, out := range outcomes {
		assert.Equal(t, types.StatusMissing, out.Status, name)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DownloadDir = ""
	_, err := New(context.Background(), cfg, emptyPage{})
	assert.Error(t, err)
}
