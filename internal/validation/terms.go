package validation

// TermSet is the weighted vocabulary for one document type. High terms are
// near-proof of the document's identity, medium terms are strong context,
// specific terms are supporting detail. Negation terms mark "nada consta"
// style clearances on criminal record certificates; the pattern lists are
// regexes run against the normalized text for wordings plain substrings
// cannot catch (inflected negations, sworn-translator stamps).
type TermSet struct {
	High     []string `json:"high,omitempty"`
	Medium   []string `json:"medium,omitempty"`
	Specific []string `json:"specific,omitempty"`
	Negation []string `json:"negation,omitempty"`
	// NegationPatterns detect clearance clauses by regex. Written lowercase
	// and accentless, matching the normalized text.
	NegationPatterns []string `json:"negation_patterns,omitempty"`
	// TranslatorPatterns detect sworn-translation markings, worth a score
	// bonus on foreign certificates.
	TranslatorPatterns []string `json:"translator_patterns,omitempty"`
}

// Default rule tables, keyed by stable rule name. Terms are compared after
// lowercasing and diacritic stripping, so accents here are cosmetic.
var defaultRules = []Rule{
	{
		Name:     "crnm",
		NameKeys: []string{"carteira de registro nacional migratório", "crnm"},
		Kind:     RuleTerms,
		MinHits:  5,
		Terms: TermSet{
			High: []string{
				"carteira de registro nacional migratório",
				"registro nacional migratório",
				"crnm",
			},
			Medium: []string{
				"república federativa do brasil",
				"ministério da justiça",
				"polícia federal",
				"amparo legal",
				"residente",
			},
			Specific: []string{
				"rnm", "validade", "nacionalidade", "filiação",
				"data de nascimento", "classificação",
			},
		},
	},
	{
		Name:     "cpf",
		NameKeys: []string{"situação cadastral do cpf", "cpf"},
		Kind:     RuleTerms,
		MinHits:  3,
		Terms: TermSet{
			High: []string{
				"cadastro de pessoas físicas",
				"comprovante de situação cadastral",
				"cpf",
			},
			Medium: []string{
				"receita federal",
				"situação cadastral",
				"ministério da fazenda",
			},
			Specific: []string{
				"regular", "número", "data de inscrição", "data da consulta",
			},
		},
	},
	{
		Name:     "antecedentes_brasil",
		NameKeys: []string{"certidão de antecedentes criminais (brasil)", "antecedentes criminais (brasil)"},
		Kind:     RuleTerms,
		MinHits:  4,
		Terms: TermSet{
			High: []string{
				"certidão de antecedentes criminais",
				"antecedentes criminais",
			},
			Medium: []string{
				"polícia federal", "justiça federal", "tribunal de justiça",
				"poder judiciário", "certidão",
			},
			Specific: []string{
				"distribuição", "criminal", "ações criminais", "processos",
			},
			Negation: []string{
				"nada consta", "não consta", "não constam",
			},
			NegationPatterns: []string{
				`nao\s+(ha|existem?)\s+(registros?|antecedentes|apontamentos)`,
				`nada\s+consta\s+(em|contra|referente)`,
			},
		},
	},
	{
		Name:     "comunicacao_portugues",
		NameKeys: []string{"comunicação em português"},
		Kind:     RuleTerms,
		MinHits:  4,
		Terms: TermSet{
			High: []string{
				"celpe-bras",
				"certificado de proficiência em língua portuguesa",
				"proficiência em língua portuguesa",
			},
			Medium: []string{
				"língua portuguesa", "português", "histórico escolar",
				"certificado de conclusão",
			},
			Specific: []string{
				"curso", "aprovado", "carga horária", "nível", "intermediário",
			},
		},
	},
	{
		Name:     "antecedentes_origem",
		NameKeys: []string{"atestado antecedentes criminais (país de origem)", "país de origem"},
		Kind:     RuleTerms,
		MinHits:  5,
		Terms: TermSet{
			High: []string{
				"atestado de antecedentes",
				"certificado de antecedentes",
				"certificado de antecedentes penales",
			},
			Medium: []string{
				"tradução juramentada", "tradutor público", "consulado",
				"apostila", "legalização",
			},
			Specific: []string{
				"antecedentes", "criminais", "penales", "police", "record",
			},
			Negation: []string{
				"nada consta", "não constam", "sin antecedentes", "no criminal record",
			},
			NegationPatterns: []string{
				`nao\s+(ha|existem?|possui)\s+(registros?|antecedentes)`,
				`sin\s+antecedentes\s+(penales|criminales)`,
				`no\s+(criminal\s+)?records?\s+found`,
			},
			TranslatorPatterns: []string{
				`tradutor[a]?\s+(publico[a]?\s+)?juramentad[oa]`,
				`traducao\s+(publica\s+)?juramentada`,
				`matricula(do)?\s+na\s+junta\s+comercial`,
			},
		},
	},
	{
		Name:     "reducao_prazo",
		NameKeys: []string{"comprovante de redução de prazo"},
		Kind:     RuleTerms,
		MinHits:  3,
		Terms: TermSet{
			High: []string{
				"certidão de nascimento",
				"redução de prazo",
			},
			Medium: []string{
				"registro civil", "cartório", "nascimento",
			},
			Specific: []string{
				"filho", "filha", "brasileiro", "brasileira", "matrícula",
			},
		},
	},
	{
		// Accepted in place of the residency-reduction proof; bar kept low
		// because these certificates are short.
		Name:     "certidao_nascimento_filho",
		NameKeys: []string{"certidão de nascimento do filho brasileiro", "certidão de nascimento"},
		Kind:     RuleTerms,
		MinHits:  2,
		Terms: TermSet{
			High: []string{
				"certidão de nascimento",
			},
			Medium: []string{
				"registro civil", "cartório",
			},
			Specific: []string{
				"filho", "filha", "matrícula", "nascimento",
			},
		},
	},
	{
		// Travel documents vary too much across countries for a term quorum;
		// any substantial readable text passes.
		Name:     "documento_viagem",
		NameKeys: []string{"documento de viagem internacional", "passaporte"},
		Kind:     RuleCharCount,
		MinChars: 100,
	},
	{
		Name:     "tempo_residencia",
		NameKeys: []string{"comprovante de tempo de residência"},
		Kind:     RuleCharCount,
		MinChars: 100,
	},
}
