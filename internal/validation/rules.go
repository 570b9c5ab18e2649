// Package validation decides whether extracted document text is plausibly
// the requested document, using static per-type rule tables. Validation is
// pure: the same text always yields the same verdict.
package validation

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// RuleKind selects how a rule judges text.
type RuleKind string

const (
	// RuleTerms requires a quorum of weighted vocabulary hits.
	RuleTerms RuleKind = "terms"
	// RuleCharCount requires a minimum amount of readable alphanumeric text.
	RuleCharCount RuleKind = "char_count"
)

// Rule is the validation table entry for one document type.
type Rule struct {
	// Name is the stable rule identifier, used by overlays to replace an
	// entry.
	Name string `json:"name"`
	// NameKeys are lowercase logical-name fragments selecting this rule.
	// First rule whose fragment matches wins.
	NameKeys []string `json:"name_keys"`
	Kind     RuleKind `json:"kind"`
	// MinHits is the term quorum for RuleTerms.
	MinHits int `json:"min_hits,omitempty"`
	// MinChars is the alphanumeric floor for RuleCharCount.
	MinChars int     `json:"min_chars,omitempty"`
	Terms    TermSet `json:"terms,omitempty"`
}

//go:embed rules_overlay.schema.json
var overlaySchema string

// Ruleset is an ordered rule table. The zero value is unusable; construct
// with DefaultRuleset.
type Ruleset struct {
	rules []Rule
}

// DefaultRuleset returns the built-in rule tables.
func DefaultRuleset() *Ruleset {
	rules := make([]Rule, len(defaultRules))
	copy(rules, defaultRules)
	return &Ruleset{rules: rules}
}

// overlayFile is the on-disk overlay format.
type overlayFile struct {
	Rules []Rule `json:"rules"`
}

// ApplyOverlay merges a JSON overlay file into the ruleset. Entries sharing a
// name with a built-in rule replace it; new names are appended. The file is
// validated against the embedded schema before anything is merged.
func (rs *Ruleset) ApplyOverlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read rules overlay: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(overlaySchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("validate rules overlay: %w", err)
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return fmt.Errorf("rules overlay %s is invalid: %s", path, strings.Join(problems, "; "))
	}

	var overlay overlayFile
	if err := json.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parse rules overlay: %w", err)
	}

	for _, rule := range overlay.Rules {
		replaced := false
		for i := range rs.rules {
			if rs.rules[i].Name == rule.Name {
				rs.rules[i] = rule
				replaced = true
				break
			}
		}
		if !replaced {
			rs.rules = append(rs.rules, rule)
		}
	}
	return nil
}

// ruleFor resolves the rule for a logical document name. Unknown types fall
// back to a plain readability check.
func (rs *Ruleset) ruleFor(logicalName string) Rule {
	nameLower := strings.ToLower(logicalName)
	for _, rule := range rs.rules {
		for _, key := range rule.NameKeys {
			if strings.Contains(nameLower, key) {
				return rule
			}
		}
	}
	return Rule{Name: "fallback", Kind: RuleCharCount, MinChars: 100}
}
