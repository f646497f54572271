// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"codeberg.org/pixivfe/i18nbundle/i18n"
)

// validation errors.
var (
	errRootNotDirectory    = errors.New("root is not a directory")
	errNoNode              = errors.New("node.name is required")
	errNoLangs             = errors.New("at least one language is required")
	errTargetWithoutLang   = errors.New("target.pattern must contain {lang}")
	errKeysetsWithoutLang  = errors.New("target.keysetsFile must contain {lang}")
	errNoLevels            = errors.New("at least one source level is required")
	errNoSuffixes          = errors.New("at least one source suffix is required")
	errInvalidIdentifier   = errors.New("not a valid JavaScript identifier")
	errNoCompilerCommand   = errors.New("template.command is required when template.devMode is off")
	errInvalidCacheSize    = errors.New("cache.size must be positive when the cache is enabled")
	errNegativeTimeout     = errors.New("build.timeout cannot be negative")
	errInvalidLogLevel     = errors.New("invalid log.logLevel")
	errInvalidLogFormat    = errors.New("invalid log.logFormat")
	errLevelOutsideOfRoot  = errors.New("source level must be inside the root")
	errRequireWithoutValue = errors.New("template require needs globals or commonJS")
)

var identifierRegexp = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// validateAndSet validates the build configuration and normalizes some fields.
func (cfg *BuildConfig) validateAndSet() error {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return fmt.Errorf("invalid root %q: %w", cfg.Root, err)
	}

	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", errRootNotDirectory, root)
	}

	cfg.Root = root

	cfg.Node.Name = strings.Trim(filepath.ToSlash(cfg.Node.Name), "/")
	if cfg.Node.Name == "" {
		return errNoNode
	}

	if err := cfg.validateLangs(); err != nil {
		return err
	}

	if !strings.Contains(cfg.Target.Pattern, "{lang}") {
		return errTargetWithoutLang
	}

	if !strings.Contains(cfg.Target.KeysetsFile, "{lang}") {
		return errKeysetsWithoutLang
	}

	if len(cfg.Sources.Levels) == 0 {
		return errNoLevels
	}

	for _, level := range cfg.Sources.Levels {
		if filepath.IsAbs(level) || !filepath.IsLocal(filepath.FromSlash(level)) {
			return fmt.Errorf("%w: %s", errLevelOutsideOfRoot, level)
		}
	}

	cfg.Sources.Suffixes = normalizeSuffixes(cfg.Sources.Suffixes)
	if len(cfg.Sources.Suffixes) == 0 {
		return errNoSuffixes
	}

	if err := cfg.validateTemplate(); err != nil {
		return err
	}

	if cfg.Cache.Enabled && cfg.Cache.Size <= 0 {
		return errInvalidCacheSize
	}

	if cfg.Build.Jobs < 1 {
		cfg.Build.Jobs = runtime.NumCPU()
		log.Info().
			Int("jobs", cfg.Build.Jobs).
			Msg("Using default number of build jobs")
	}

	if cfg.Build.Timeout < 0 {
		return errNegativeTimeout
	}

	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("%w: %q", errInvalidLogLevel, cfg.Log.Level)
	}

	switch cfg.Log.Format {
	case "console", "json":
		// valid
	default:
		return fmt.Errorf("%w: %q", errInvalidLogFormat, cfg.Log.Format)
	}

	return nil
}

// validateLangs checks every language and drops duplicates, keeping the first occurrence.
func (cfg *BuildConfig) validateLangs() error {
	if len(cfg.Node.Langs) == 0 {
		return errNoLangs
	}

	langs := make([]string, 0, len(cfg.Node.Langs))

	for _, lang := range cfg.Node.Langs {
		if _, err := i18n.ParseLang(lang); err != nil {
			return fmt.Errorf("invalid node.langs: %w", err)
		}

		if !slices.Contains(langs, lang) {
			langs = append(langs, lang)
		}
	}

	cfg.Node.Langs = langs

	return nil
}

func (cfg *BuildConfig) validateTemplate() error {
	if !identifierRegexp.MatchString(cfg.Template.ExportName) {
		return fmt.Errorf("template.exportName %q: %w", cfg.Template.ExportName, errInvalidIdentifier)
	}

	if !identifierRegexp.MatchString(cfg.Template.ApplyFuncName) {
		return fmt.Errorf("template.applyFuncName %q: %w", cfg.Template.ApplyFuncName, errInvalidIdentifier)
	}

	for name, r := range cfg.Template.Requires {
		if r.Globals == "" && r.CommonJS == "" {
			return fmt.Errorf("%w: %s", errRequireWithoutValue, name)
		}
	}

	if !cfg.Template.DevMode && len(cfg.Template.Command) == 0 {
		return errNoCompilerCommand
	}

	return nil
}

// normalizeSuffixes strips leading dots and drops blank entries.
func normalizeSuffixes(suffixes []string) []string {
	out := make([]string, 0, len(suffixes))

	for _, s := range suffixes {
		if s = strings.TrimLeft(strings.TrimSpace(s), "."); s != "" {
			out = append(out, s)
		}
	}

	return out
}
