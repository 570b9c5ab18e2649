package uiquery

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

// opTimeout bounds any single devtools round trip so a wedged renderer cannot
// stall the pipeline.
const opTimeout = 15 * time.Second

// Browser implements Adapter on top of a live chromedp context. The context
// must belong to an already authenticated session positioned on the case
// form; this package never navigates.
type Browser struct {
	ctx context.Context
}

// NewBrowser wraps an existing chromedp browser context.
func NewBrowser(ctx context.Context) *Browser {
	return &Browser{ctx: ctx}
}

// NewHeadless allocates a fresh headless browser and returns the adapter plus
// a cancel function releasing it. Intended for integration runs where no
// session is handed in.
func NewHeadless(parent context.Context) (*Browser, context.CancelFunc) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	browserCtx, cancelCtx := chromedp.NewContext(allocCtx)
	cancel := func() {
		cancelCtx()
		cancelAlloc()
	}
	return &Browser{ctx: browserCtx}, cancel
}

func (b *Browser) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(b.ctx, opTimeout)
	defer cancel()
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-runCtx.Done():
		}
	}()
	return chromedp.Run(runCtx, actions...)
}

func queryOption(q Query) chromedp.QueryOption {
	if q.Strategy == ByXPath {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

// Find executes one query and returns the first match, if any.
func (b *Browser) Find(ctx context.Context, q Query) (*Element, bool, error) {
	var nodes []*cdp.Node
	err := b.run(ctx, chromedp.Nodes(q.Selector, &nodes, queryOption(q), chromedp.AtLeast(0)))
	if err != nil {
		return nil, false, fmt.Errorf("query %s: %w", q, err)
	}
	if len(nodes) == 0 {
		return nil, false, nil
	}
	return &Element{Query: q}, true, nil
}

// Click clicks the element, falling back to a synthetic JavaScript click when
// the direct click is intercepted by an overlay.
func (b *Browser) Click(ctx context.Context, el *Element) error {
	err := b.run(ctx, chromedp.Click(el.Query.Selector, queryOption(el.Query), chromedp.NodeVisible))
	if err == nil {
		return nil
	}
	if jsErr := b.run(ctx, chromedp.Evaluate(clickScript(el.Query), nil)); jsErr == nil {
		return nil
	}
	return fmt.Errorf("click %s: %w", el.Query, err)
}

// clickScript builds the synthetic click expression for either selector
// strategy. XPath selectors go through document.evaluate since querySelector
// cannot resolve them.
func clickScript(q Query) string {
	if q.Strategy == ByXPath {
		return fmt.Sprintf(
			`document.evaluate(%q, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue.click()`,
			q.Selector)
	}
	return fmt.Sprintf(`document.querySelector(%q).click()`, q.Selector)
}

// ReadAttribute reads a single attribute of the element.
func (b *Browser) ReadAttribute(ctx context.Context, el *Element, name string) (string, bool, error) {
	var value string
	var ok bool
	err := b.run(ctx, chromedp.AttributeValue(el.Query.Selector, name, &value, &ok, queryOption(el.Query)))
	if err != nil {
		return "", false, fmt.Errorf("read attribute %q of %s: %w", name, el.Query, err)
	}
	return value, ok, nil
}

// ScrollIntoView scrolls the element into the viewport before a click.
func (b *Browser) ScrollIntoView(ctx context.Context, el *Element) error {
	if err := b.run(ctx, chromedp.ScrollIntoView(el.Query.Selector, queryOption(el.Query))); err != nil {
		return fmt.Errorf("scroll to %s: %w", el.Query, err)
	}
	return nil
}

// OuterHTML serializes the first element matching q.
func (b *Browser) OuterHTML(ctx context.Context, q Query) (string, bool, error) {
	el, found, err := b.Find(ctx, q)
	if err != nil || !found {
		return "", false, err
	}
	var html string
	if err := b.run(ctx, chromedp.OuterHTML(el.Query.Selector, &html, queryOption(el.Query))); err != nil {
		return "", false, fmt.Errorf("outer html of %s: %w", q, err)
	}
	return html, true, nil
}

// Text returns the visible text content of the element.
func (b *Browser) Text(ctx context.Context, el *Element) (string, error) {
	var text string
	if err := b.run(ctx, chromedp.Text(el.Query.Selector, &text, queryOption(el.Query))); err != nil {
		return "", fmt.Errorf("text of %s: %w", el.Query, err)
	}
	return text, nil
}
