// Package memcache is the size- and TTL-bounded in-process tier that sits in
// front of the persistent cache.
package memcache

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Item is a cached value together with the owner it belongs to and the
// instant the underlying data was produced (not when it entered memory).
type Item[T any] struct {
	Value     T
	OwnerID   string
	CreatedAt time.Time
}

// Cache is safe for concurrent use; the LRU guards itself with a mutex.
type Cache[T any] struct {
	lru *expirable.LRU[string, Item[T]]
}

// New creates a cache holding at most size items, each for at most ttl.
// A zero ttl keeps items until evicted by size.
func New[T any](size int, ttl time.Duration) *Cache[T] {
	if size <= 0 {
		size = 1
	}
	return &Cache[T]{lru: expirable.NewLRU[string, Item[T]](size, nil, ttl)}
}

func (c *Cache[T]) Get(key string) (Item[T], bool) {
	return c.lru.Get(key)
}

func (c *Cache[T]) Set(key string, it Item[T]) {
	c.lru.Add(key, it)
}

func (c *Cache[T]) Delete(key string) {
	c.lru.Remove(key)
}

// DeleteOwner drops every item of ownerID and returns how many were removed.
func (c *Cache[T]) DeleteOwner(ownerID string) int {
	n := 0
	for _, k := range c.lru.Keys() {
		if it, ok := c.lru.Peek(k); ok && it.OwnerID == ownerID {
			if c.lru.Remove(k) {
				n++
			}
		}
	}
	return n
}

// DeletePrefix drops every item whose key starts with prefix.
func (c *Cache[T]) DeletePrefix(prefix string) int {
	n := 0
	for _, k := range c.lru.Keys() {
		if strings.HasPrefix(k, prefix) && c.lru.Remove(k) {
			n++
		}
	}
	return n
}

func (c *Cache[T]) Purge()   { c.lru.Purge() }
func (c *Cache[T]) Len() int { return c.lru.Len() }
