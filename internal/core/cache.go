package core

import (
	"sync"
	"time"
)

// LastResult is the most recent successful clean or convert output, kept
// so it can be downloaded again. It holds no guarantee beyond being the
// latest write.
type LastResult struct {
	Operation    string    `json:"operation"`
	Format       string    `json:"format,omitempty"`
	FileName     string    `json:"fileName"`
	DownloadName string    `json:"downloadName"`
	Rows         int       `json:"rows"`
	Columns      int       `json:"columns"`
	Data         string    `json:"data"`
	CreatedAt    time.Time `json:"createdAt"`
}

type lastResultCache struct {
	mu   sync.RWMutex
	last *LastResult
}

func (c *lastResultCache) store(r LastResult) {
	c.mu.Lock()
	c.last = &r
	c.mu.Unlock()
}

func (c *lastResultCache) load() (LastResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.last == nil {
		return LastResult{}, false
	}
	return *c.last, true
}
