// Package downloads detects files arriving in the shared browser download
// directory by polling directory snapshots, matches them to the expected
// attachment name, and waits for their size to stabilize.
package downloads

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// matchThreshold is the minimum token-overlap ratio for a fuzzy name match.
const matchThreshold = 0.7

// glyphReplacer folds separators and ordinal glyphs the portal and browsers
// disagree on when writing filenames.
var glyphReplacer = strings.NewReplacer(
	"_", " ",
	"-", " ",
	"º", "o",
	"ª", "a",
	"'", "",
	"’", "",
)

// normalizeFilename reduces a filename to a canonical comparison form:
// extension dropped, diacritics stripped, lowercased, separators folded to
// single spaces. Normalizing twice yields the same string.
func normalizeFilename(name string) string {
	name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(t, name); err == nil {
		name = stripped
	}

	name = strings.ToLower(name)
	name = glyphReplacer.Replace(name)
	return strings.Join(strings.Fields(name), " ")
}

// FilenamesMatch reports whether two filenames refer to the same document.
// Names match when their normalized forms are equal or when their token sets
// overlap by at least 70%. The relation is symmetric.
func FilenamesMatch(a, b string) bool {
	na, nb := normalizeFilename(a), normalizeFilename(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	return tokenOverlap(na, nb) >= matchThreshold
}

// tokenOverlap is the share of tokens the two normalized names have in
// common, measured against the larger token set so the result does not depend
// on argument order.
func tokenOverlap(a, b string) float64 {
	tokensA := strings.Fields(a)
	tokensB := strings.Fields(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	setA := make(map[string]bool, len(tokensA))
	for _, tok := range tokensA {
		setA[tok] = true
	}
	common := 0
	seen := make(map[string]bool, len(tokensB))
	for _, tok := range tokensB {
		if setA[tok] && !seen[tok] {
			common++
			seen[tok] = true
		}
	}

	larger := len(setA)
	if distinct := len(distinctTokens(tokensB)); distinct > larger {
		larger = distinct
	}
	return float64(common) / float64(larger)
}

func distinctTokens(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		set[tok] = true
	}
	return set
}
