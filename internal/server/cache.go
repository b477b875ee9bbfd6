package server

import (
	"sync"

	"github.com/willfong/portfolio-generator/internal/models"
)

// cacheSize is the number of generated portfolios kept between requests
const cacheSize = 4

type cacheKey struct {
	seed      int64
	customers int
	now       string
}

// portfolioCache keeps the most recently used portfolios so paging through
// one table does not regenerate it on every request.
type portfolioCache struct {
	mu      sync.Mutex
	size    int
	order   []cacheKey // least recently used first
	entries map[cacheKey]*models.Portfolio
}

func newPortfolioCache(size int) *portfolioCache {
	return &portfolioCache{size: size, entries: make(map[cacheKey]*models.Portfolio)}
}

func (c *portfolioCache) get(k cacheKey) (*models.Portfolio, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.entries[k]
	if ok {
		c.touch(k)
	}
	return p, ok
}

func (c *portfolioCache) put(k cacheKey, p *models.Portfolio) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[k]; !ok && len(c.order) == c.size {
		delete(c.entries, c.order[0])
		c.order = c.order[1:]
	}
	c.entries[k] = p
	c.touch(k)
}

func (c *portfolioCache) touch(k cacheKey) {
	for i, o := range c.order {
		if o == k {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.order = append(c.order, k)
}
