// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package nodecache is the build cache shared by all targets of a build.

A single [Cache] holds a bounded number of entries and evicts the least recently
used one when full. Each build target works through its own [Handle], which namespaces
keys by target so that concurrent builds of different targets never see each other's
entries. String and []byte values may be stored zstd-compressed; this is transparent
to callers.

Handles also track source file metadata, so a target can ask whether a file changed
since it was last cached ([Handle.NeedRebuildFile]) before trusting a cached value.

A cache outlives a run through [Cache.Save] and [Cache.Load], which keep a compressed
snapshot on disk.
*/
package nodecache

import (
	"container/list"
	"errors"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// ErrInvalidSize is returned by [New] for a non-positive capacity.
var ErrInvalidSize = errors.New("cache size must be positive")

type kind int

const (
	kindOther kind = iota
	kindBytes
	kindString
)

// Cache is a fixed-capacity LRU store that is safe for concurrent use.
// The zero value is not usable; construct with [New].
type Cache struct {
	mu      sync.Mutex
	size    int
	order   *list.List // front is most recently used
	entries map[string]*list.Element

	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

type entry struct {
	key        string
	value      any
	kind       kind
	compressed bool
}

// New creates a cache holding at most size entries.
//
// With compress set, string and []byte values are stored zstd-compressed whenever that
// makes them smaller.
func New(size int, compress bool) (*Cache, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	c := &Cache{
		size:    size,
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}

	if compress {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}

		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
		if err != nil {
			return nil, err
		}

		c.encoder = enc
		c.decoder = dec
	}

	return c, nil
}

// Handle returns the view of the cache for one build target.
func (c *Cache) Handle(target string) *Handle {
	return &Handle{cache: c, target: target}
}

// Len returns the number of entries across all targets.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.order.Len()
}

// put stores value under key and reports whether an entry was evicted.
func (c *Cache) put(key string, value any) bool {
	e := c.encode(key, value)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value = e
		c.order.MoveToFront(el)

		return false
	}

	c.entries[key] = c.order.PushFront(e)

	if c.order.Len() <= c.size {
		return false
	}

	oldest := c.order.Back()
	c.order.Remove(oldest)
	delete(c.entries, oldest.Value.(*entry).key)

	return true
}

func (c *Cache) get(key string) (any, bool) {
	c.mu.Lock()

	el, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()

		return nil, false
	}

	c.order.MoveToFront(el)
	e := el.Value.(*entry)

	c.mu.Unlock()

	return c.decode(e)
}

func (c *Cache) remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return false
	}

	c.order.Remove(el)
	delete(c.entries, key)

	return true
}

// encode prepares an entry outside the lock. Byte slices are always copied so that
// callers cannot mutate cached data.
func (c *Cache) encode(key string, value any) *entry {
	var raw []byte

	e := &entry{key: key, value: value}

	switch v := value.(type) {
	case []byte:
		e.kind = kindBytes
		raw = v
		e.value = append([]byte(nil), v...)
	case string:
		e.kind = kindString
		raw = []byte(v)
	default:
		return e
	}

	if c.encoder == nil || len(raw) == 0 {
		return e
	}

	if packed := c.encoder.EncodeAll(raw, nil); len(packed) < len(raw) {
		e.value = packed
		e.compressed = true
	}

	return e
}

// decode returns the caller's copy of an entry's value. A value that fails to
// decompress is reported as missing.
func (c *Cache) decode(e *entry) (any, bool) {
	if !e.compressed {
		if b, ok := e.value.([]byte); ok {
			return append([]byte(nil), b...), true
		}

		return e.value, true
	}

	data, err := c.decoder.DecodeAll(e.value.([]byte), nil)
	if err != nil {
		return nil, false
	}

	if e.kind == kindString {
		return string(data), true
	}

	return data, true
}
