package hathi

import "sync"

// Cache maps HathiTrust catalog record URLs to resolved scan identifiers.
// Entries live as long as the Cache; there is no expiry, bound or persistence.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{entries: make(map[string]string)}
}

// Get returns the scan identifier stored for catalogURL
func (c *Cache) Get(catalogURL string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.entries[catalogURL]
	return id, ok
}

// Put stores a resolved scan identifier
func (c *Cache) Put(catalogURL, scanID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[catalogURL] = scanID
}

// Len reports the number of cached entries
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
