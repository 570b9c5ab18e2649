package locator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRowMatches(t *testing.T) {
	tests := []struct {
		name        string
		logicalName string
		typeLabel   string
		otherLabel  string
		want        bool
	}{
		{
			name:        "crnm by acronym",
			logicalName: "Carteira de Registro Nacional Migratório",
			typeLabel:   "CRNM",
			want:        true,
		},
		{
			name:        "crnm legacy rne label",
			logicalName: "Carteira de Registro Nacional Migratório",
			typeLabel:   "Outros",
			otherLabel:  "RNE antigo",
			want:        true,
		},
		{
			name:        "cpf via receita federal",
			logicalName: "Comprovante da situação cadastral do CPF",
			typeLabel:   "Outros",
			otherLabel:  "Comprovante Receita Federal",
			want:        true,
		},
		{
			name:        "origin record rejects brazilian court",
			logicalName: "Atestado antecedentes criminais (país de origem)",
			typeLabel:   "Outros",
			otherLabel:  "Certidão Justiça Federal",
			want:        false,
		},
		{
			name:        "origin record accepts translated attestation",
			logicalName: "Atestado antecedentes criminais (país de origem)",
			typeLabel:   "Outros",
			otherLabel:  "Atestado de antecedentes traduzido pelo consulado",
			want:        true,
		},
		{
			name:        "passport by type label",
			logicalName: "Documento de viagem internacional",
			typeLabel:   "Passaporte",
			want:        true,
		},
		{
			name:        "unrelated row",
			logicalName: "Documento de viagem internacional",
			typeLabel:   "Comprovante de residência",
			want:        false,
		},
		{
			name:        "unknown type falls back to substring",
			logicalName: "laudo médico",
			typeLabel:   "Laudo Médico Pericial",
			want:        true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rowMatches(tt.logicalName, tt.typeLabel, tt.otherLabel))
		})
	}
}

func TestSearchTermsKnownType(t *testing.T) {
	terms := searchTerms("Comprovante da situação cadastral do CPF")
	assert.Contains(t, terms, "cpf")
}

func TestSearchTermsKeywordFallback(t *testing.T) {
	// Unknown names derive at most three keywords, skipping short words and
	// stopwords.
	terms := searchTerms("Declaração de hipossuficiência econômica para fins judiciais")
	assert.LessOrEqual(t, len(terms), 3)
	assert.NotContains(t, terms, "de")
	assert.NotContains(t, terms, "para")
	assert.Contains(t, terms, "declaração")
}
