package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const crnmText = `REPÚBLICA FEDERATIVA DO BRASIL
MINISTÉRIO DA JUSTIÇA E SEGURANÇA PÚBLICA
POLÍCIA FEDERAL
CARTEIRA DE REGISTRO NACIONAL MIGRATÓRIO (CRNM)
RNM: F123456-7  Validade: 10/05/2030
Nacionalidade: ARGENTINA  Filiação: MARIA PEREZ`

const antecedentesText = `PODER JUDICIÁRIO - JUSTIÇA FEDERAL
CERTIDÃO DE ANTECEDENTES CRIMINAIS
Certifica-se que NADA CONSTA na distribuição de ações criminais
em nome do requerente até a presente data.`

func TestValidateCRNM(t *testing.T) {
	rs := DefaultRuleset()
	res := rs.Validate("Carteira de Registro Nacional Migratório", crnmText)
	assert.True(t, res.Valid)
	assert.Contains(t, res.MatchedTerms, "crnm")
	assert.Greater(t, res.Confidence, 0.5)
}

func TestValidateIsDeterministic(t *testing.T) {
	rs := DefaultRuleset()
	first := rs.Validate("Carteira de Registro Nacional Migratório", crnmText)
	second := rs.Validate("Carteira de Registro Nacional Migratório", crnmText)
	assert.Equal(t, first, second)
}

func TestValidateSurvivesAccentLoss(t *testing.T) {
	// OCR frequently drops diacritics; matching must not care.
	rs := DefaultRuleset()
	stripped := strings.NewReplacer("Ó", "O", "Í", "I", "Ç", "C", "Ú", "U", "É", "E", "Ã", "A").Replace(crnmText)
	res := rs.Validate("Carteira de Registro Nacional Migratório", stripped)
	assert.True(t, res.Valid)
}

func TestValidateNegationClausePasses(t *testing.T) {
	rs := DefaultRuleset()
	res := rs.Validate("Certidão de antecedentes criminais (Brasil)", antecedentesText)
	assert.True(t, res.Valid)
	assert.Contains(t, res.MatchedTerms, "nada consta")
}

func TestValidateWrongDocumentFails(t *testing.T) {
	rs := DefaultRuleset()
	// A water bill has none of the CRNM vocabulary.
	bill := strings.Repeat("Conta de água referente ao mês de julho. Valor total a pagar. ", 3)
	res := rs.Validate("Carteira de Registro Nacional Migratório", bill)
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.MissingTerms)
}

func TestValidateBonusTermsDoNotFormQuorum(t *testing.T) {
	// A clearance clause plus detail words, but nothing identifying the
	// certificate itself, must not validate.
	rs := DefaultRuleset()
	text := "Nada consta na distribuição de processos em nome do requerente até a presente data."
	res := rs.Validate("Certidão de antecedentes criminais (Brasil)", text)
	assert.False(t, res.Valid)
	assert.Contains(t, res.MatchedTerms, "nada consta")
}

func TestValidateNegationLowersQuorum(t *testing.T) {
	rs := DefaultRuleset()
	// Three required hits is below the minimum of four, but enough once the
	// clearance clause is present.
	base := "Certidão do Tribunal de Justiça e da Justiça Federal emitida em nome do requerente."
	res := rs.Validate("Certidão de antecedentes criminais (Brasil)", base+" Nada consta.")
	assert.True(t, res.Valid)

	res = rs.Validate("Certidão de antecedentes criminais (Brasil)", base)
	assert.False(t, res.Valid)
}

func TestValidateRegexNegationDetected(t *testing.T) {
	rs := DefaultRuleset()
	// Inflected negation that no plain substring term covers.
	text := "Não há registros em nome do requerente até a presente data desta pesquisa."
	res := rs.Validate("Certidão de antecedentes criminais (Brasil)", text)
	assert.Contains(t, res.MatchedTerms, "nao ha registros")
}

func TestValidateTranslatorBonusRaisesConfidence(t *testing.T) {
	rs := DefaultRuleset()
	name := "Atestado antecedentes criminais (país de origem)"
	base := "Atestado de antecedentes emitido pelo consulado. Sin antecedentes penales del solicitante."

	plain := rs.Validate(name, base)
	stamped := rs.Validate(name, base+" Tradutora juramentada responsável pela versão.")
	assert.Greater(t, stamped.Confidence, plain.Confidence)
	assert.Contains(t, stamped.MatchedTerms, "tradutora juramentada")
}

func TestValidateMissingTermsIncludeSpecificAndAreCapped(t *testing.T) {
	rs := DefaultRuleset()
	bill := strings.Repeat("Conta de água referente ao mês de julho. Valor total a pagar. ", 3)
	res := rs.Validate("Carteira de Registro Nacional Migratório", bill)
	assert.Contains(t, res.MissingTerms, "rnm")
	assert.LessOrEqual(t, len(res.MissingTerms), 10)
}

func TestValidateTinyTextAlwaysInvalid(t *testing.T) {
	rs := DefaultRuleset()
	for _, name := range []string{
		"Carteira de Registro Nacional Migratório",
		"Documento de viagem internacional",
	} {
		res := rs.Validate(name, "abc123")
		assert.False(t, res.Valid, name)
	}
}

func TestValidateTermTypeNeedsSubstantialText(t *testing.T) {
	rs := DefaultRuleset()
	// Readable but under the 50-char floor for term types.
	res := rs.Validate("Comprovante de comunicação em português", "certificado celpe-bras aprovado")
	assert.False(t, res.Valid)
}

func TestValidateCharCountType(t *testing.T) {
	rs := DefaultRuleset()

	long := strings.Repeat("passaporte pagina carimbo entrada saida 2019 ", 5)
	res := rs.Validate("Documento de viagem internacional", long)
	assert.True(t, res.Valid)
	assert.Equal(t, 1.0, res.Confidence)

	short := "passaporte pagina um"
	res = rs.Validate("Documento de viagem internacional", short)
	assert.False(t, res.Valid)
	assert.Greater(t, res.Confidence, 0.0)
	assert.Less(t, res.Confidence, 1.0)
}

func TestValidateUnknownTypeFallsBackToReadability(t *testing.T) {
	rs := DefaultRuleset()
	long := strings.Repeat("laudo pericial assinado pelo medico responsavel ", 4)
	res := rs.Validate("Laudo médico", long)
	assert.True(t, res.Valid)
}

func TestValidateQuorum(t *testing.T) {
	// The child birth certificate rule needs any 2 hits.
	rs := DefaultRuleset()
	name := "Certidão de nascimento do filho brasileiro"
	pad := " documento emitido em duas vias para os devidos fins."

	one := rs.Validate(name, "Apresentado registro civil do interessado."+pad)
	assert.False(t, one.Valid)

	two := rs.Validate(name, "Certidão de nascimento lavrada em cartório."+pad)
	assert.True(t, two.Valid)

	none := rs.Validate(name, "Comprovante bancário de pagamento da taxa."+pad)
	assert.False(t, none.Valid)
	assert.NotEmpty(t, none.MissingTerms)
}

func TestConfidenceBounded(t *testing.T) {
	rs := DefaultRuleset()
	res := rs.Validate("Certidão de antecedentes criminais (Brasil)", antecedentesText)
	require.GreaterOrEqual(t, res.Confidence, 0.0)
	require.LessOrEqual(t, res.Confidence, 1.0)
}
