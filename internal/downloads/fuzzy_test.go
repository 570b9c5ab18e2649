package downloads

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilenamesMatchDiacriticsAndCase(t *testing.T) {
	assert.True(t, FilenamesMatch("Certidão de Nascimento.pdf", "certidao de nascimento.pdf"))
}

func TestFilenamesMatchSeparators(t *testing.T) {
	assert.True(t, FilenamesMatch("certidao_de_nascimento.pdf", "Certidão de Nascimento.PDF"))
}

func TestFilenamesMatchDifferentDocuments(t *testing.T) {
	assert.False(t, FilenamesMatch("Certidão de Nascimento.pdf", "Passaporte.pdf"))
}

func TestFilenamesMatchTokenOverlap(t *testing.T) {
	// 3 of 4 distinct tokens shared clears the 70% bar.
	assert.True(t, FilenamesMatch(
		"atestado antecedentes criminais origem.pdf",
		"atestado antecedentes criminais traduzido origem.pdf"))
	// 1 of 3 does not.
	assert.False(t, FilenamesMatch("comprovante de residencia.pdf", "comprovante bancario extrato.pdf"))
}

func TestFilenamesMatchSymmetric(t *testing.T) {
	a, b := "certidao nascimento filho.pdf", "Certidão de Nascimento do Filho Brasileiro.pdf"
	assert.Equal(t, FilenamesMatch(a, b), FilenamesMatch(b, a))
}

func TestNormalizeFilenameIdempotent(t *testing.T) {
	once := normalizeFilename("Certidão_de_Nascimento (2ª via).PDF")
	assert.Equal(t, once, normalizeFilename(once))
}

func TestFilenamesMatchEmpty(t *testing.T) {
	assert.False(t, FilenamesMatch("", "certidao.pdf"))
	assert.False(t, FilenamesMatch(".pdf", "certidao.pdf"))
}
