// Package locator maps a logical document name to a clickable attachment in
// the case form, trying a fixed sequence of search strategies: dedicated form
// field, exact attachment-table match, broad-term table match, and document
// specific special cases.
package locator

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/lfmartins/naturadocs/internal/types"
	"github.com/lfmartins/naturadocs/internal/uiquery"
)

// birthCertName is the attachment that legally substitutes for the
// residency-reduction proof.
const birthCertName = "Certidão de nascimento do filho brasileiro"

// Locator resolves document requests against the live form. It keeps no state
// between calls: for a fixed page snapshot the same logical name always
// resolves to the same result.
type Locator struct {
	ui  uiquery.Adapter
	log *zap.Logger
}

// New builds a Locator over the given adapter.
func New(ui uiquery.Adapter, log *zap.Logger) *Locator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Locator{ui: ui, log: log}
}

// Locate finds the attachment for logicalName, stopping at the first strategy
// that succeeds. A not-found result is a normal business outcome (the
// applicant did not attach the document), not an error.
func (l *Locator) Locate(ctx context.Context, logicalName string) (types.SearchResult, error) {
	nameLower := strings.ToLower(logicalName)

	var res types.SearchResult
	var err error

	// Origin-country criminal records are scanned table-first: the dedicated
	// field for them frequently holds a Brazilian certificate instead.
	if strings.Contains(nameLower, "país de origem") || strings.Contains(nameLower, "atestado antecedentes criminais") {
		res, err = l.scanTableExact(ctx, logicalName)
		if err == nil && !res.Found {
			res, err = l.scanTableTerms(ctx, originBroadTerms)
		}
		if err == nil && !res.Found {
			res, err = l.findDedicatedField(ctx, logicalName)
		}
	} else {
		res, err = l.findDedicatedField(ctx, logicalName)
		if err == nil && !res.Found {
			l.log.Debug("dedicated field missed, scanning attachment table",
				zap.String("document", logicalName))
			res, err = l.LocateInTable(ctx, logicalName)
		}
	}
	if err != nil {
		return types.SearchResult{}, err
	}

	// A missing residency-reduction proof can be satisfied by the Brazilian
	// child's birth certificate.
	if !res.Found && strings.Contains(nameLower, "comprovante de redução de prazo") {
		sub, err := l.scanTableExact(ctx, birthCertName)
		if err != nil {
			return types.SearchResult{}, err
		}
		if !sub.Found {
			sub, err = l.scanTableTerms(ctx, birthCertBroadTerms)
			if err != nil {
				return types.SearchResult{}, err
			}
		}
		if sub.Found {
			sub.Strategy = types.StrategySpecialCase
			return sub, nil
		}
	}

	if !res.Found {
		res.Reason = "not attached"
	}
	return res, nil
}

// LocateInTable searches only the attachment table (exact match, then broad
// terms). The orchestrator uses it to retry after a dedicated-field download
// or validation failure.
func (l *Locator) LocateInTable(ctx context.Context, logicalName string) (types.SearchResult, error) {
	res, err := l.scanTableExact(ctx, logicalName)
	if err != nil || res.Found {
		return res, err
	}
	res, err = l.scanTableTerms(ctx, searchTerms(logicalName))
	if err != nil {
		return types.SearchResult{}, err
	}
	if !res.Found {
		res.Reason = "not attached"
	}
	return res, nil
}

// scanTableExact scans attachment rows with the per-type predicate.
func (l *Locator) scanTableExact(ctx context.Context, logicalName string) (types.SearchResult, error) {
	return l.scanTable(ctx, types.StrategyAttachmentTableExact, func(typeLabel, otherLabel string) bool {
		return rowMatches(logicalName, typeLabel, otherLabel)
	})
}

// scanTableTerms scans attachment rows accepting any row whose combined
// labels contain one of the given terms.
func (l *Locator) scanTableTerms(ctx context.Context, terms []string) (types.SearchResult, error) {
	lowered := make([]string, len(terms))
	for i, t := range terms {
		lowered[i] = strings.ToLower(t)
	}
	return l.scanTable(ctx, types.StrategyAttachmentTableFuzzy, func(typeLabel, otherLabel string) bool {
		combined := strings.ToLower(typeLabel + " " + otherLabel)
		for _, t := range lowered {
			if strings.Contains(combined, t) {
				return true
			}
		}
		return false
	})
}

// scanTable parses one snapshot of the page and returns the first row the
// predicate accepts, in document order. First match wins; rows are never
// ranked.
func (l *Locator) scanTable(ctx context.Context, strategy types.SearchStrategy, match func(typeLabel, otherLabel string) bool) (types.SearchResult, error) {
	html, found, err := l.ui.OuterHTML(ctx, uiquery.CSS("body"))
	if err != nil {
		return types.SearchResult{}, fmt.Errorf("snapshot page: %w", err)
	}
	if !found {
		return types.SearchResult{Found: false, Reason: "page has no body"}, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return types.SearchResult{}, fmt.Errorf("parse page snapshot: %w", err)
	}

	rows := doc.Find("tbody tr.table-row")
	l.log.Debug("scanning attachment table", zap.Int("rows", rows.Length()))

	var result types.SearchResult
	var scanErr error
	rows.EachWithBreak(func(i int, row *goquery.Selection) bool {
		typeLabel := strings.TrimSpace(row.Find(".table-cell--DOCS_TIPO span").First().Text())
		if typeLabel == "" {
			return true
		}
		otherLabel := strings.TrimSpace(row.Find(".table-cell--DOCS_TIPO_OUTRO span").First().Text())

		if !match(typeLabel, otherLabel) {
			return true
		}

		link, filename := findRowLink(row)
		if link == "" {
			return true
		}

		el, found, err := l.ui.Find(ctx, uiquery.XPath(liveRowLink(i, link)))
		if err != nil {
			scanErr = err
			return false
		}
		if !found {
			// Snapshot raced a page update; keep scanning.
			return true
		}

		result = types.SearchResult{
			Found:             true,
			Element:           el,
			Strategy:          strategy,
			CandidateFilename: filename,
			TypeLabel:         strings.TrimSpace(typeLabel + " " + otherLabel),
		}
		return false
	})
	if scanErr != nil {
		return types.SearchResult{}, scanErr
	}
	if !result.Found {
		return types.SearchResult{Found: false, Reason: "not attached"}, nil
	}
	return result, nil
}

// rowLinkKinds are the download affordances a row may carry, in preference
// order. snapshot is a goquery selector; live builds the XPath tail used to
// resolve the clickable element on the page.
var rowLinkKinds = []struct {
	snapshot string
	live     string
}{
	{".table-cell--DOCS_ANEXO a", "//*[contains(@class,'table-cell--DOCS_ANEXO')]//a"},
	{".table-cell--VIEWER a", "//*[contains(@class,'table-cell--VIEWER')]//a"},
	{".table-cell--VIEWER button", "//*[contains(@class,'table-cell--VIEWER')]//button"},
	{"", "//a[contains(@href,'download') or .//i[@type='cloud_download']]"},
}

// findRowLink returns the live XPath tail for the row's download link plus
// the visible filename, or "" when the row has no usable link.
func findRowLink(row *goquery.Selection) (liveTail, filename string) {
	for _, kind := range rowLinkKinds {
		if kind.snapshot != "" {
			link := row.Find(kind.snapshot).First()
			if link.Length() > 0 {
				return kind.live, strings.TrimSpace(link.Text())
			}
			continue
		}
		// Generic fallback: any anchor with a download href or cloud icon.
		var name string
		found := false
		row.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			if strings.Contains(href, "download") || a.Find("i[type='cloud_download']").Length() > 0 {
				name = strings.TrimSpace(a.Text())
				found = true
				return false
			}
			return true
		})
		if found {
			return kind.live, name
		}
	}
	return "", ""
}

// liveRowLink addresses the i-th attachment row globally, so the index from
// the snapshot scan stays valid even with multiple tables on the page.
func liveRowLink(rowIdx int, tail string) string {
	return fmt.Sprintf("(//tbody/tr[contains(@class,'table-row')])[%d]%s", rowIdx+1, tail)
}

// findDedicatedField checks the static field mapping: the field must exist
// and carry a download affordance next to it. The input holds no filename, so
// the candidate name is synthesized.
func (l *Locator) findDedicatedField(ctx context.Context, logicalName string) (types.SearchResult, error) {
	nameLower := strings.ToLower(logicalName)

	for _, field := range dedicatedFields {
		if !strings.Contains(nameLower, field.key) {
			continue
		}

		_, exists, err := l.ui.Find(ctx, uiquery.CSS("#"+field.fieldID))
		if err != nil {
			return types.SearchResult{}, err
		}
		if !exists {
			continue
		}

		hasIcon, err := l.anyFound(ctx, iconQueries(field.fieldID))
		if err != nil {
			return types.SearchResult{}, err
		}
		if !hasIcon {
			l.log.Debug("field present but no download affordance",
				zap.String("field", field.fieldID))
			continue
		}

		button, err := l.firstFound(ctx, buttonQueries(field.fieldID))
		if err != nil {
			return types.SearchResult{}, err
		}
		if button == nil {
			// Last resort: click the field itself.
			button, _, err = l.ui.Find(ctx, uiquery.CSS("#"+field.fieldID))
			if err != nil {
				return types.SearchResult{}, err
			}
		}

		return types.SearchResult{
			Found:             true,
			Element:           button,
			Strategy:          types.StrategyDedicatedField,
			CandidateFilename: field.key + " (campo específico)",
		}, nil
	}

	return types.SearchResult{Found: false, Reason: "no dedicated field"}, nil
}

// iconQueries are the XPath variants under which the portal renders the
// cloud_download icon for a field. The markup is inconsistent across form
// versions, hence the fallbacks.
func iconQueries(fieldID string) []uiquery.Query {
	queries := []uiquery.Query{
		uiquery.XPath(fmt.Sprintf(`//input[@id='%s']/ancestor::div[contains(@class,'document-field')]//i[@type='cloud_download']`, fieldID)),
		uiquery.XPath(fmt.Sprintf(`//div[@id='input__%s']//i[@type='cloud_download']`, fieldID)),
	}
	switch fieldID {
	case "DOC_REDUCAO":
		queries = append(queries,
			uiquery.XPath(`//input[@id='DOC_REDUCAO']/following-sibling::*//i[@type='cloud_download']`),
			uiquery.XPath(`//i[@type='cloud_download' and contains(@data-reactid,'DOC_REDUCAO')]`),
		)
	case "DOC_VIAGEM":
		queries = append(queries,
			uiquery.XPath(`//i[@type='cloud_download' and @aria-label='Download']`),
		)
	}
	return queries
}

// buttonQueries locate the clickable download control for a field.
func buttonQueries(fieldID string) []uiquery.Query {
	queries := []uiquery.Query{
		uiquery.XPath(fmt.Sprintf(`//div[@id='input__%s']//a[contains(@class,'button') and .//i[@type='cloud_download']]`, fieldID)),
		uiquery.XPath(fmt.Sprintf(`//input[@id='%s']/ancestor::div[contains(@class,'document-field')]//a[contains(@class,'button') and .//i[@type='cloud_download']]`, fieldID)),
	}
	return append(queries, iconQueries(fieldID)...)
}

func (l *Locator) anyFound(ctx context.Context, queries []uiquery.Query) (bool, error) {
	for _, q := range queries {
		_, found, err := l.ui.Find(ctx, q)
		if err != nil {
			return false, err
		}
		if found {
			return true, nil
		}
	}
	return false, nil
}

func (l *Locator) firstFound(ctx context.Context, queries []uiquery.Query) (*uiquery.Element, error) {
	for _, q := range queries {
		el, found, err := l.ui.Find(ctx, q)
		if err != nil {
			return nil, err
		}
		if found {
			return el, nil
		}
	}
	return nil, nil
}
