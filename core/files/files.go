// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Package files discovers template sources on redefinition levels.
package files

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/moby/patternmatcher"
	"github.com/moby/patternmatcher/ignorefile"
	"github.com/rs/zerolog/log"

	"codeberg.org/pixivfe/i18nbundle/core/source"
)

// IgnoreFile is read from the root, when present, for extra exclusion patterns.
const IgnoreFile = ".i18nbundleignore"

// ErrLevelNotFound is returned when a configured level directory does not exist.
var ErrLevelNotFound = errors.New("level directory not found")

// List returns the files under levels whose name ends with "."+suffix for one of suffixes.
//
// Levels are directories relative to root and are walked in the order given. Within a
// level, files are sorted by path. Paths matching exclude, or a pattern in the root
// [IgnoreFile], are skipped. Returned paths are slash-separated and relative to root.
func List(ctx context.Context, root string, levels, suffixes, exclude []string) ([]string, error) {
	patterns, err := readIgnoreFile(root)
	if err != nil {
		return nil, err
	}

	matcher, err := patternmatcher.New(append(slices.Clone(exclude), patterns...))
	if err != nil {
		return nil, fmt.Errorf("invalid exclude pattern: %w", err)
	}

	var paths []string

	for _, level := range levels {
		found, err := listLevel(ctx, root, level, suffixes, matcher)
		if err != nil {
			return nil, err
		}

		paths = append(paths, found...)
	}

	log.Debug().
		Str("sys", "files").
		Strs("levels", levels).
		Int("count", len(paths)).
		Msg("Listed template sources")

	return paths, nil
}

func listLevel(ctx context.Context, root, level string, suffixes []string, matcher *patternmatcher.PatternMatcher) ([]string, error) {
	dir := filepath.Join(root, level)

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrLevelNotFound, dir)
	}

	var found []string

	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}

		rel = filepath.ToSlash(rel)

		if ignored, err := matcher.MatchesOrParentMatches(rel); err == nil && ignored {
			if d.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if d.IsDir() || !hasSuffix(d.Name(), suffixes) {
			return nil
		}

		found = append(found, rel)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk level %s: %w", level, err)
	}

	slices.Sort(found)

	return found, nil
}

func hasSuffix(name string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(name, "."+suffix) {
			return true
		}
	}

	return false
}

func readIgnoreFile(root string) ([]string, error) {
	f, err := os.Open(filepath.Join(root, IgnoreFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	defer f.Close()

	patterns, err := ignorefile.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", IgnoreFile, err)
	}

	return patterns, nil
}

// Read loads the files at paths, relative to root, as fragments in the same order.
func Read(ctx context.Context, root string, paths []string) ([]source.Fragment, error) {
	fragments := make([]source.Fragment, 0, len(paths))

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(p)))
		if err != nil {
			return nil, fmt.Errorf("failed to read template source: %w", err)
		}

		fragments = append(fragments, source.Fragment{Path: p, Text: string(data)})
	}

	return fragments, nil
}
