// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"codeberg.org/pixivfe/i18nbundle/config"
	"codeberg.org/pixivfe/i18nbundle/core/bundle"
	"codeberg.org/pixivfe/i18nbundle/core/files"
	"codeberg.org/pixivfe/i18nbundle/core/idgen"
	"codeberg.org/pixivfe/i18nbundle/core/nodecache"
	"codeberg.org/pixivfe/i18nbundle/core/source"
	"codeberg.org/pixivfe/i18nbundle/core/templates"
	"codeberg.org/pixivfe/i18nbundle/i18n"
)

const (
	targetDirPermissions  = 0o755
	targetFilePermissions = 0o644
)

// build writes the bundle of every configured language.
//
// Languages are built concurrently, at most cfg.Build.Jobs at a time. The first failure
// cancels the remaining builds; targets already written are kept.
func build(ctx context.Context, cfg *config.BuildConfig) error {
	start := time.Now()

	paths, err := files.List(ctx, cfg.Root, cfg.Sources.Levels, cfg.Sources.Suffixes, cfg.Sources.Exclude)
	if err != nil {
		return fmt.Errorf("failed to list template sources: %w", err)
	}

	fragments, err := files.Read(ctx, cfg.Root, paths)
	if err != nil {
		return err
	}

	cache, err := openCache(cfg)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Build.Jobs, 1))

	for _, lang := range cfg.Node.Langs {
		g.Go(func() error {
			return buildLang(gctx, cfg, cache, fragments, lang)
		})
	}

	err = g.Wait()

	saveCache(cfg, cache)

	if err != nil {
		return err
	}

	log.Info().
		Str("node", cfg.Node.Name).
		Int("sources", len(fragments)).
		Int("langs", len(cfg.Node.Langs)).
		Dur("dur", time.Since(start)).
		Msg("Build finished")

	return nil
}

// openCache creates the node cache and fills it from the previous run, if any.
// It returns nil when caching is disabled. An unreadable snapshot only costs a cold build.
func openCache(cfg *config.BuildConfig) (*nodecache.Cache, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}

	cache, err := nodecache.New(cfg.Cache.Size, cfg.Cache.Compress)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	path := cfg.CacheFile()
	if path == "" {
		return cache, nil
	}

	n, err := cache.Load(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Ignoring unreadable cache file")

		return cache, nil
	}

	log.Debug().Str("path", path).Int("entries", n).Msg("Loaded cache")

	return cache, nil
}

func saveCache(cfg *config.BuildConfig, cache *nodecache.Cache) {
	path := cfg.CacheFile()
	if cache == nil || path == "" {
		return
	}

	if err := cache.Save(path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to save cache")

		return
	}

	log.Debug().Str("path", path).Int("entries", cache.Len()).Msg("Saved cache")
}

func buildLang(
	ctx context.Context,
	cfg *config.BuildConfig,
	cache *nodecache.Cache,
	fragments []source.Fragment,
	lang string,
) error {
	target := cfg.TargetPath(lang)

	compiler, err := templates.New(cfg.TemplateOptions(filepath.Base(target)))
	if err != nil {
		return err
	}

	step := bundle.WithI18n(&bundle.TemplateStep{Compiler: compiler}, i18n.JSCompiler{}, cache, cfg.Root)

	if cfg.Build.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, cfg.Build.Timeout)
		defer cancel()
	}

	artifact, err := step.Build(ctx, bundle.Request{
		Lang:        lang,
		Fragments:   fragments,
		KeysetsFile: cfg.KeysetsFile(lang),
		Target:      target,
		BuildID:     idgen.Make(),
	})
	if err != nil {
		logBuildError(lang, target, err)

		return fmt.Errorf("failed to build %s: %w", target, err)
	}

	if err := writeTarget(target, artifact); err != nil {
		return err
	}

	log.Info().
		Str("lang", lang).
		Str("target", target).
		Int("bytes", len(artifact)).
		Msg("Wrote bundle")

	return nil
}

// logBuildError reports the template location of a compiler failure, when known.
func logBuildError(lang, target string, err error) {
	var ce *templates.CompileError
	if !errors.As(err, &ce) || ce.Position == nil {
		return
	}

	log.Error().
		Str("lang", lang).
		Str("target", target).
		Str("source", ce.Position.String()).
		Msg("Template compilation failed")
}

// writeTarget replaces the file at path with content, so readers never see a
// partially written bundle.
func writeTarget(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), targetDirPermissions); err != nil {
		return fmt.Errorf("failed to create target directory: %w", err)
	}

	if err := atomic.WriteFile(path, strings.NewReader(content)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	// New files are created private; an existing target keeps its mode.
	if err := os.Chmod(path, targetFilePermissions); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}
