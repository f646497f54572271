// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Package keysets loads translation data ("keysets") for a bundle.
//
// A keysets file carries a format version tag and, per locale, a mapping from
// translation key to value. Values are usually strings; anything else (plural forms,
// alternatives) is kept as decoded and passed through untouched.
//
// Supported encodings, chosen by file extension:
//
//	.json        {"version": "...", "keysets": {"<locale>": {"<key>": <value>}}}
//	.yaml, .yml  the same document in YAML
//	.js          the JSON document wrapped in a CommonJS module (module.exports = {...};)
//	.po          a GNU gettext catalogue; every entry belongs to the requested locale
//
// The body of a .js module must be strict JSON; only leading // and /* */ comments are
// skipped. The version must be a string in every encoding. Catalogue entries with a
// msgctxt are keyed by context and msgid joined with [ContextSeparator].
//
// Files are read through a per-target cache, see [Read].
package keysets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/rs/zerolog/log"
)

var (
	// ErrNotFound is returned when the keysets file is missing or cannot be read.
	ErrNotFound = errors.New("keysets file not found or unreadable")

	// ErrMalformed is returned when the content does not have the version + locale map shape.
	ErrMalformed = errors.New("malformed keysets data")
)

// Document is parsed translation data.
type Document struct {
	// Version identifies the translation-data dialect.
	Version string

	// Data maps locale -> key -> value.
	Data map[string]map[string]any
}

// Locales returns the locales present in d, sorted.
func (d *Document) Locales() []string {
	return slices.Sorted(maps.Keys(d.Data))
}

// Cache is the read-through store consulted by [Read].
// It is satisfied by *nodecache.Handle.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	NeedRebuildFile(key, path string) bool
	CacheFileInfo(key string, info fs.FileInfo)
}

// Read loads and parses the keysets file filename.
//
// A relative filename is resolved against root. When cache is not nil, the raw file
// content is served from it as long as the file has not changed on disk; after a cold
// read the content and the file's metadata are stored back. lang is only used by
// encodings that do not name their locale themselves (.po).
func Read(ctx context.Context, filename, lang string, cache Cache, root string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filename
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}

	key := "keysets-file-" + filepath.Base(path)

	raw, cached := cachedContent(cache, key, path)
	if !cached {
		var err error

		raw, err = readFile(cache, key, path)
		if err != nil {
			return nil, err
		}
	}

	doc, err := Parse(path, raw, lang)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	log.Debug().
		Str("sys", "keysets").
		Str("path", path).
		Str("version", doc.Version).
		Strs("locales", doc.Locales()).
		Bool("cached", cached).
		Msg("Loaded keysets")

	return doc, nil
}

// readRaw is replaced in tests.
var readRaw = os.ReadFile

// readFile reads path and stores its content in cache. The file is stat'ed first, so
// a change made while reading leaves stale metadata behind and forces a reread.
func readFile(cache Cache, key, path string) ([]byte, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotFound, path, err)
	}

	raw, err := readRaw(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotFound, path, err)
	}

	if cache != nil {
		cache.Set(key, raw)
		cache.CacheFileInfo(key, st)
	}

	return raw, nil
}

func cachedContent(cache Cache, key, path string) ([]byte, bool) {
	if cache == nil || cache.NeedRebuildFile(key, path) {
		return nil, false
	}

	v, ok := cache.Get(key)
	if !ok {
		return nil, false
	}

	raw, ok := v.([]byte)

	return raw, ok
}

// Parse decodes raw according to the extension of name.
// Unknown extensions are decoded as JSON.
func Parse(name string, raw []byte, lang string) (*Document, error) {
	switch filepath.Ext(name) {
	case ".yaml", ".yml":
		return parseYAML(raw)
	case ".js":
		return parseJS(raw)
	case ".po":
		return parsePO(raw, lang)
	default:
		return parseJSON(raw)
	}
}
