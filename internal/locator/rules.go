package locator

import "strings"

// dedicatedField maps a logical document name fragment to the form field the
// portal renders for it. The field input carries no real filename, so results
// found this way get a synthesized candidate name.
type dedicatedField struct {
	key     string // lowercase fragment of the logical name
	fieldID string
}

// Order matters: first fragment contained in the logical name wins.
var dedicatedFields = []dedicatedField{
	{"comprovante de redução de prazo", "DOC_REDUCAO"},
	{"comprovante de comunicação em português", "DOC_PTBR"},
	{"certidão de antecedentes criminais (brasil)", "DOC_CERTCRIME"},
	{"atestado antecedentes criminais (país de origem)", "DOC_ANTCRIME"},
	{"carteira de registro nacional migratório", "DOC_RNM"},
	{"comprovante da situação cadastral do cpf", "DOC_CPF"},
	{"comprovante de tempo de residência", "DOC_RESIDENCIA"},
	{"documento de viagem internacional", "DOC_VIAGEM"},
}

// rowRule decides whether an attachment-table row belongs to a document type.
// A row matches when any of anyTerms appears in its type or free-text label
// and none of notTerms does.
type rowRule struct {
	nameKeys []string
	anyTerms []string
	notTerms []string
}

var rowRules = []rowRule{
	{
		nameKeys: []string{"carteira de registro nacional migratório", "crnm"},
		anyTerms: []string{"carteira de registro", "crnm", "rnm", "rne", "registro migratório", "registro migratorio"},
	},
	{
		nameKeys: []string{"comprovante da situação cadastral do cpf", "cpf"},
		anyTerms: []string{"cpf", "cadastro de pessoa", "cadastro de pessoas", "receita federal"},
	},
	{
		nameKeys: []string{"comprovante de comunicação em português"},
		anyTerms: []string{"portugu", "comunicação", "comunicacao", "certificado", "histórico escolar", "historico escolar", "celpe"},
	},
	{
		nameKeys: []string{"comprovante de tempo de residência"},
		anyTerms: []string{"tempo de residência", "tempo de residencia", "comprovante de residência", "comprovante residencia"},
	},
	{
		nameKeys: []string{"documento de viagem internacional", "passaporte"},
		anyTerms: []string{"passaporte", "viagem internacional"},
	},
	{
		nameKeys: []string{"certidão de antecedentes criminais (brasil)", "antecedentes criminais (brasil)"},
		anyTerms: []string{
			"antecedentes criminais", "justiça federal", "justica federal", "estadual",
			"tj", "tribunal", "poder judiciário", "poder judiciario",
			"certidão criminal", "certidao criminal",
		},
	},
	{
		// Origin-country records must not be confused with Brazilian court
		// certificates attached under a free-text label.
		nameKeys: []string{"atestado antecedentes criminais (país de origem)", "país de origem"},
		anyTerms: []string{
			"atestado de antecedentes", "pais de origem", "país de origem",
			"legalizado", "traduzido", "tradução", "traducao", "consulado",
		},
		notTerms: []string{
			"justiça federal", "justica federal", "tribunal de justiça",
			"poder judiciário", "estado do", "tj",
		},
	},
}

// rowMatches applies the per-type predicate for logicalName against a row's
// type label and optional "type: other" free text. Falls back to a plain
// substring check for types without a dedicated rule.
func rowMatches(logicalName, typeLabel, otherLabel string) bool {
	nameLower := strings.ToLower(logicalName)
	typeLower := strings.ToLower(typeLabel)
	otherLower := strings.ToLower(otherLabel)

	contains := func(terms []string) bool {
		for _, t := range terms {
			if strings.Contains(typeLower, t) || strings.Contains(otherLower, t) {
				return true
			}
		}
		return false
	}

	for _, rule := range rowRules {
		for _, key := range rule.nameKeys {
			if strings.Contains(nameLower, key) {
				if len(rule.notTerms) > 0 && contains(rule.notTerms) {
					return false
				}
				return contains(rule.anyTerms)
			}
		}
	}

	return strings.Contains(typeLower, nameLower) || strings.Contains(otherLower, nameLower)
}

// broadTerms maps logical names to the looser vocabulary used when an exact
// table scan finds nothing.
var broadTerms = map[string][]string{
	"comprovante da situação cadastral do cpf":         {"cpf", "situação cadastral", "receita federal"},
	"carteira de registro nacional migratório":         {"crnm", "rnm", "rne", "registro nacional"},
	"certidão de antecedentes criminais (brasil)":      {"antecedentes", "criminais", "certidão", "brasil"},
	"atestado antecedentes criminais (país de origem)": {"antecedentes", "criminais", "atestado", "origem"},
	"comprovante de comunicação em português":          {"português", "comunicação", "proficiência", "celpe"},
	"documento de viagem internacional":                {"passaporte", "viagem", "internacional"},
	"comprovante de tempo de residência":               {"residência", "tempo", "permanência"},
	"comprovante de redução de prazo":                  {"redução", "prazo", "nascimento", "filho"},
}

// originBroadTerms is the looser vocabulary for origin-country criminal
// records, which are scanned table-first.
var originBroadTerms = []string{
	"atestado de antecedentes criminais",
	"antecedentes criminais",
	"tradução juramentada",
	"certificacion de antecedentes",
	"país de origem",
}

// birthCertBroadTerms supports the birth-certificate substitution for the
// residency-reduction proof.
var birthCertBroadTerms = []string{"nascimento", "filho brasileiro", "filha", "certidão de nascimento"}

var stopwords = map[string]bool{
	"de": true, "da": true, "do": true, "em": true, "para": true,
	"com": true, "por": true, "a": true, "o": true, "e": true,
}

// searchTerms returns the broad-term list for a logical name, deriving
// keywords from the name itself when no mapping exists.
func searchTerms(logicalName string) []string {
	nameLower := strings.ToLower(logicalName)
	for key, terms := range broadTerms {
		if strings.Contains(nameLower, key) {
			return terms
		}
	}

	var keywords []string
	for _, word := range strings.Fields(nameLower) {
		if len([]rune(word)) > 3 && !stopwords[word] {
			keywords = append(keywords, word)
		}
		if len(keywords) == 3 {
			break
		}
	}
	return keywords
}
