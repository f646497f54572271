// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package nodecache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/natefinch/atomic"
)

// snapshotVersion changes whenever the snapshot layout does.
const snapshotVersion = 1

// ErrSnapshotVersion is returned by [Cache.Load] for a snapshot written by an
// incompatible version.
var ErrSnapshotVersion = errors.New("unsupported cache snapshot version")

type snapshot struct {
	Version int             `json:"version"`
	Entries []snapshotEntry `json:"entries"`
}

const (
	snapshotBytes  = "bytes"
	snapshotString = "string"
	snapshotFile   = "file"
)

type snapshotEntry struct {
	Key     string    `json:"key"`
	Kind    string    `json:"kind"`
	Data    []byte    `json:"data,omitempty"`
	ModTime time.Time `json:"modTime,omitzero"`
	Size    int64     `json:"size,omitempty"`
}

// Save writes the entries of c to path as a zstd-compressed snapshot, least recently
// used first. Values other than strings, byte slices and file metadata are skipped.
//
// The file is replaced atomically.
func (c *Cache) Save(path string) error {
	c.mu.Lock()

	pending := make([]*entry, 0, c.order.Len())
	for el := c.order.Back(); el != nil; el = el.Prev() {
		pending = append(pending, el.Value.(*entry))
	}

	c.mu.Unlock()

	snap := snapshot{Version: snapshotVersion, Entries: make([]snapshotEntry, 0, len(pending))}

	for _, e := range pending {
		value, ok := c.decode(e)
		if !ok {
			continue
		}

		se := snapshotEntry{Key: e.key}

		switch v := value.(type) {
		case []byte:
			se.Kind, se.Data = snapshotBytes, v
		case string:
			se.Kind, se.Data = snapshotString, []byte(v)
		case fileInfo:
			se.Kind, se.ModTime, se.Size = snapshotFile, v.modTime, v.size
		default:
			continue
		}

		snap.Entries = append(snap.Entries, se)
	}

	var buf bytes.Buffer

	zw, err := zstd.NewWriter(&buf)
	if err != nil {
		return err
	}

	if err := json.NewEncoder(zw).Encode(&snap); err != nil {
		_ = zw.Close()

		return fmt.Errorf("failed to encode cache snapshot: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to compress cache snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("failed to write cache snapshot %s: %w", path, err)
	}

	return nil
}

// Load adds the entries of the snapshot at path to c and returns how many were read.
// A missing file is not an error. File metadata is restored as recorded, so
// [Handle.NeedRebuildFile] still detects files changed since the snapshot was taken.
func (c *Cache) Load(path string) (int, error) {
	f, err := os.Open(path) // #nosec G304 -- path comes from the build configuration
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return 0, err
	}
	defer zr.Close()

	var snap snapshot
	if err := json.NewDecoder(zr).Decode(&snap); err != nil {
		return 0, fmt.Errorf("failed to decode cache snapshot %s: %w", path, err)
	}

	if snap.Version != snapshotVersion {
		return 0, fmt.Errorf("%w: %d", ErrSnapshotVersion, snap.Version)
	}

	n := 0

	for _, se := range snap.Entries {
		switch se.Kind {
		case snapshotBytes:
			c.put(se.Key, se.Data)
		case snapshotString:
			c.put(se.Key, string(se.Data))
		case snapshotFile:
			c.put(se.Key, fileInfo{modTime: se.ModTime, size: se.Size})
		default:
			continue
		}

		n++
	}

	return n, nil
}
