package bucket

import (
	"sort"
	"sync"
)

// Cache maps bucket names to their connected handles.
type Cache struct {
	mu      sync.RWMutex
	handles map[string]*Handle
}

func NewCache() *Cache {
	return &Cache{handles: map[string]*Handle{}}
}

func (c *Cache) Load(bucketName string) (*Handle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.handles[bucketName]
	return h, ok
}

// Store puts h under its bucket name, replacing any previous handle.
func (c *Cache) Store(h *Handle) {
	c.mu.Lock()
	c.handles[h.Name()] = h
	c.mu.Unlock()
}

func (c *Cache) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.handles))
	for name := range c.handles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
