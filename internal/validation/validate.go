package validation

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/lfmartins/naturadocs/internal/types"
)

// Floors below which text is treated as unreadable.
const (
	// minReadableChars applies to every document type.
	minReadableChars = 10
	// minTermTextChars applies to term-quorum types, which need enough text
	// for the vocabulary to plausibly appear.
	minTermTextChars = 50
)

// Term weights. Specific terms are capped so boilerplate-heavy documents
// cannot pass on detail words alone; a matched negation clause ("nada
// consta") is close to proof on its own.
const (
	highWeight     = 10
	mediumWeight   = 5
	specificWeight = 2
	specificCap    = 20
	negationBonus  = 30
	// translatorBonus rewards sworn-translator markings on foreign
	// certificates.
	translatorBonus = 15
	// negationQuorum is the reduced required-hit count when a negation
	// clause matched.
	negationQuorum = 3
	// missingTermsCap bounds the diagnostics list.
	missingTermsCap = 10
)

// Validate judges extracted text against the rule for logicalName.
func (rs *Ruleset) Validate(logicalName, text string) types.ValidationResult {
	rule := rs.ruleFor(logicalName)

	if countAlphanumeric(text) < minReadableChars {
		return types.ValidationResult{Valid: false, MissingTerms: rule.Terms.High}
	}

	switch rule.Kind {
	case RuleCharCount:
		return validateCharCount(rule, text)
	default:
		return validateTerms(rule, text)
	}
}

func validateCharCount(rule Rule, text string) types.ValidationResult {
	count := countAlphanumeric(text)
	if count >= rule.MinChars {
		return types.ValidationResult{Valid: true, Confidence: 1.0}
	}
	return types.ValidationResult{
		Valid:      false,
		Confidence: float64(count) / float64(rule.MinChars),
	}
}

func validateTerms(rule Rule, text string) types.ValidationResult {
	if len([]rune(strings.TrimSpace(text))) < minTermTextChars {
		return types.ValidationResult{Valid: false, MissingTerms: rule.Terms.High}
	}

	normalized := normalizeText(text)

	matchAll := func(terms []string) (matched, missing []string) {
		for _, term := range terms {
			if strings.Contains(normalized, normalizeText(term)) {
				matched = append(matched, term)
			} else {
				missing = append(missing, term)
			}
		}
		return matched, missing
	}

	high, missingHigh := matchAll(rule.Terms.High)
	medium, missingMedium := matchAll(rule.Terms.Medium)
	specific, missingSpecific := matchAll(rule.Terms.Specific)
	negation, _ := matchAll(rule.Terms.Negation)
	negationRegex := matchPatterns(rule.Terms.NegationPatterns, normalized)
	translator := matchPatterns(rule.Terms.TranslatorPatterns, normalized)

	negationFound := len(negation) > 0 || len(negationRegex) > 0

	score := highWeight*len(high) + mediumWeight*len(medium)
	specificScore := specificWeight * len(specific)
	if specificScore > specificCap {
		specificScore = specificCap
	}
	score += specificScore
	if negationFound {
		score += negationBonus
	}
	if len(translator) > 0 {
		score += translatorBonus
	}

	// Only high and medium hits count toward the quorum; specific terms and
	// the negation clause are score bonuses, not identity evidence.
	required := len(high) + len(medium)
	valid := required >= rule.MinHits || (negationFound && required >= negationQuorum)

	matched := make([]string, 0, required+len(specific)+len(negation))
	matched = append(matched, high...)
	matched = append(matched, medium...)
	matched = append(matched, specific...)
	matched = append(matched, negation...)
	matched = append(matched, negationRegex...)
	matched = append(matched, translator...)

	missing := append(missingHigh, missingMedium...)
	missing = append(missing, missingSpecific...)
	if len(missing) > missingTermsCap {
		missing = missing[:missingTermsCap]
	}

	return types.ValidationResult{
		Valid:        valid,
		MatchedTerms: matched,
		MissingTerms: missing,
		Confidence:   confidence(rule, score),
	}
}

// matchPatterns returns the text matched by each pattern that applies.
// Patterns run against the normalized text, so they are written accentless
// and lowercase. Invalid patterns are skipped rather than failing the whole
// validation.
func matchPatterns(patterns []string, normalized string) []string {
	var found []string
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			continue
		}
		if m := re.FindString(normalized); m != "" {
			found = append(found, m)
		}
	}
	return found
}

// confidence normalizes the raw score against the rule's maximum achievable
// score.
func confidence(rule Rule, score int) float64 {
	max := highWeight*len(rule.Terms.High) + mediumWeight*len(rule.Terms.Medium)
	if s := specificWeight * len(rule.Terms.Specific); s > specificCap {
		max += specificCap
	} else {
		max += s
	}
	if len(rule.Terms.Negation) > 0 || len(rule.Terms.NegationPatterns) > 0 {
		max += negationBonus
	}
	if len(rule.Terms.TranslatorPatterns) > 0 {
		max += translatorBonus
	}
	if max == 0 {
		return 0
	}
	c := float64(score) / float64(max)
	if c > 1 {
		c = 1
	}
	return c
}

// normalizeText lowercases and strips diacritics so term matching survives
// OCR accent loss.
func normalizeText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(t, s); err == nil {
		s = stripped
	}
	return strings.ToLower(s)
}

func countAlphanumeric(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
