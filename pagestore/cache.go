// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package pagestore

import (
	"container/list"
	"sync/atomic"
)

// Cache is a Store decorator which keeps copies of the most recently
// used pages in memory, saving a read from the underlying Store on a
// hit. Writes go straight through to the underlying Store.
type Cache struct {
	Store
	capacity int
	// lru holds *cacheEntry values, most recently used at the front.
	lru     *list.List
	entries map[PageID]*list.Element
	hits    atomic.Uint64
	misses  atomic.Uint64
}

type cacheEntry struct {
	id   PageID
	data []byte
}

// NewCache wraps s in an LRU read cache holding at most capacity
// pages. Panics if capacity is less than 1.
func NewCache(s Store, capacity int) *Cache {
	if s == nil {
		panic(packageName + "nil store")
	} else if capacity < 1 {
		panic(packageName + "cache capacity must be at least 1")
	}
	return &Cache{
		Store:    s,
		capacity: capacity,
		lru:      list.New(),
		entries:  make(map[PageID]*list.Element, capacity),
	}
}

func (c *Cache) Read(id PageID) ([]byte, error) {
	if elem, ok := c.entries[id]; ok {
		c.hits.Add(1)
		c.lru.MoveToFront(elem)
		return append([]byte(nil), elem.Value.(*cacheEntry).data...), nil
	}
	c.misses.Add(1)
	p, err := c.Store.Read(id)
	if err != nil {
		return nil, err
	}
	c.put(id, p)
	return p, nil
}

func (c *Cache) Write(id PageID, p []byte) error {
	if err := c.Store.Write(id, p); err != nil {
		c.evict(id)
		return err
	}
	c.put(id, p)
	return nil
}

func (c *Cache) Free(id PageID) error {
	c.evict(id)
	return c.Store.Free(id)
}

func (c *Cache) Close() error {
	c.lru.Init()
	clear(c.entries)
	return c.Store.Close()
}

// Hits returns the number of reads served from the cache.
func (c *Cache) Hits() uint64 {
	return c.hits.Load()
}

// Misses returns the number of reads passed to the underlying Store.
func (c *Cache) Misses() uint64 {
	return c.misses.Load()
}

// Len returns the number of cached pages.
func (c *Cache) Len() int {
	return c.lru.Len()
}

func (c *Cache) put(id PageID, p []byte) {
	data := append([]byte(nil), p...)
	if elem, ok := c.entries[id]; ok {
		elem.Value.(*cacheEntry).data = data
		c.lru.MoveToFront(elem)
		return
	}
	c.entries[id] = c.lru.PushFront(&cacheEntry{id: id, data: data})
	for c.lru.Len() > c.capacity {
		back := c.lru.Back()
		c.lru.Remove(back)
		delete(c.entries, back.Value.(*cacheEntry).id)
	}
}

func (c *Cache) evict(id PageID) {
	if elem, ok := c.entries[id]; ok {
		c.lru.Remove(elem)
		delete(c.entries, id)
	}
}
