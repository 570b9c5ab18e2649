// Package uiquery is a thin capability interface over the browser automation
// session: query elements, click, read attributes, scroll. It executes one
// query at a time and reports "not found" instead of erroring when a query
// matches nothing; choosing and ordering query strategies is the caller's
// responsibility.
package uiquery

import (
	"context"
	"fmt"
	"strings"
)

// Strategy selects how a Query selector is interpreted.
type Strategy string

const (
	// ByCSS interprets the selector as a CSS selector.
	ByCSS Strategy = "css"
	// ByXPath interprets the selector as an XPath expression, used for
	// structural-ancestor lookups CSS cannot express.
	ByXPath Strategy = "xpath"
)

// Query is a single element lookup.
type Query struct {
	Strategy Strategy
	Selector string
}

func (q Query) String() string {
	return fmt.Sprintf("%s(%s)", q.Strategy, q.Selector)
}

// CSS builds a CSS query.
func CSS(selector string) Query {
	return Query{Strategy: ByCSS, Selector: selector}
}

// XPath builds an XPath query.
func XPath(expr string) Query {
	return Query{Strategy: ByXPath, Selector: expr}
}

// TextContains builds a text-contains query for elements of the given tag
// whose visible text includes text. Matching is case-insensitive.
func TextContains(tag, text string) Query {
	lower := strings.ToLower(text)
	return XPath(fmt.Sprintf(
		`//%s[contains(translate(normalize-space(.), 'ABCDEFGHIJKLMNOPQRSTUVWXYZ', 'abcdefghijklmnopqrstuvwxyz'), %s)]`,
		tag, xpathLiteral(lower)))
}

// Element is an opaque handle to a located element. It stays valid only as
// long as the page it was found on.
type Element struct {
	Query Query
}

// Adapter is the capability set the pipeline needs from the automation
// controller. A click may trigger a download or in-page navigation; the
// adapter neither waits for nor observes that effect.
type Adapter interface {
	// Find executes one query. found=false is a normal outcome, not an error.
	Find(ctx context.Context, q Query) (el *Element, found bool, err error)
	// Click clicks a previously found element.
	Click(ctx context.Context, el *Element) error
	// ReadAttribute reads one attribute; ok=false when the attribute is absent.
	ReadAttribute(ctx context.Context, el *Element, name string) (value string, ok bool, err error)
	// ScrollIntoView scrolls the element into the viewport.
	ScrollIntoView(ctx context.Context, el *Element) error
	// OuterHTML returns the serialized HTML of the first element matching q.
	OuterHTML(ctx context.Context, q Query) (html string, found bool, err error)
	// Text returns the visible text of a previously found element.
	Text(ctx context.Context, el *Element) (string, error)
}

// xpathLiteral quotes s for embedding in an XPath expression. XPath 1.0 has
// no escape syntax, so strings containing both quote kinds need concat().
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		quoted = append(quoted, "'"+p+"'")
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
