package pipeline

import "sync"

// TextCache holds extracted text per logical document name so a table-only
// retry or a repeated run over the same case does not re-download and re-OCR
// a document already read. The cache lives for one case; callers create a
// fresh one per case file.
type TextCache struct {
	mu    sync.RWMutex
	texts map[string]string
}

// NewTextCache builds an empty cache.
func NewTextCache() *TextCache {
	return &TextCache{texts: make(map[string]string)}
}

// Get returns the cached text for a logical name, if any.
func (c *TextCache) Get(logicalName string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	text, ok := c.texts[logicalName]
	return text, ok
}

// Put stores extracted text. Empty text is not cached; an unreadable
// download should be re-attempted next time, not remembered.
func (c *TextCache) Put(logicalName, text string) {
	if text == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texts[logicalName] = text
}

// Len reports how many documents have cached text.
func (c *TextCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.texts)
}
