// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package nodecache

import (
	"io/fs"
	"os"
	"time"
)

const (
	valueSpace = "v"
	fileSpace  = "f"
)

// Handle is a target-scoped view of a [Cache].
type Handle struct {
	cache  *Cache
	target string
}

// fileInfo is the metadata recorded by [Handle.CacheFileInfo].
type fileInfo struct {
	modTime time.Time
	size    int64
}

// Target returns the target this handle is scoped to.
func (h *Handle) Target() string {
	return h.target
}

func (h *Handle) key(space, key string) string {
	return h.target + "\x00" + space + "\x00" + key
}

// Get returns the value stored under key for this target.
func (h *Handle) Get(key string) (any, bool) {
	return h.cache.get(h.key(valueSpace, key))
}

// Set stores value under key for this target.
func (h *Handle) Set(key string, value any) {
	h.cache.put(h.key(valueSpace, key), value)
}

// Invalidate drops the value and file metadata stored under key.
func (h *Handle) Invalidate(key string) {
	h.cache.remove(h.key(valueSpace, key))
	h.cache.remove(h.key(fileSpace, key))
}

// CacheFileInfo records the modification time and size of info under key.
//
// Callers stat the file before reading it, so that a change made while reading is
// detected by the next [Handle.NeedRebuildFile].
func (h *Handle) CacheFileInfo(key string, info fs.FileInfo) {
	h.cache.put(h.key(fileSpace, key), fileInfo{modTime: info.ModTime(), size: info.Size()})
}

// NeedRebuildFile reports whether path changed since [Handle.CacheFileInfo] was last
// called with key. It also reports true when nothing was recorded or path cannot be
// stat'ed.
func (h *Handle) NeedRebuildFile(key, path string) bool {
	v, ok := h.cache.get(h.key(fileSpace, key))
	if !ok {
		return true
	}

	cached, ok := v.(fileInfo)
	if !ok {
		return true
	}

	st, err := os.Stat(path)
	if err != nil {
		return true
	}

	return !st.ModTime().Equal(cached.modTime) || st.Size() != cached.size
}
