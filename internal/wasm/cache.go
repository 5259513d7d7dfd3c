package wasm

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/golang/groupcache/lru"
)

const (
	// DefaultRegexCacheSize is the number of compiled plugin regexes kept.
	DefaultRegexCacheSize = 100

	// MaxPatternLength bounds the regexes a plugin may pass to the host.
	MaxPatternLength = 512
)

// regexCache keeps the regexes plugins compile through host calls, so that
// a pattern used on every line is compiled once per plugin.
type regexCache struct {
	mu  sync.Mutex
	lru *lru.Cache
}

func newRegexCache(size int) *regexCache {
	return &regexCache{lru: lru.New(size)}
}

// Get returns the compiled pattern, compiling and caching it on a miss.
func (c *regexCache) Get(pattern string) (*regexp.Regexp, error) {
	if len(pattern) > MaxPatternLength {
		return nil, fmt.Errorf("pattern too long: %d bytes (max %d)", len(pattern), MaxPatternLength)
	}

	c.mu.Lock()
	v, ok := c.lru.Get(pattern)
	c.mu.Unlock()
	if ok {
		return v.(*regexp.Regexp), nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.lru.Add(pattern, re)
	c.mu.Unlock()
	return re, nil
}

func (c *regexCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
