// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/pflag"

	"codeberg.org/pixivfe/i18nbundle/core/templates"
)

// Global exposes the build configuration.
var Global BuildConfig

const (
	configFileEnv      = "I18NBUNDLE_CONFIGFILE"
	defaultConfigFile  = "./i18nbundle.yaml"
	fallbackConfigFile = "./i18nbundle.yml"
)

// BuildConfig holds the application configuration.
type BuildConfig struct {
	Release buildInfo `yaml:"-"`

	// Root is the project directory. Levels, nodes and keyset files are relative to it.
	Root string `env:"I18NBUNDLE_ROOT,overwrite" yaml:"root"`

	Node struct {
		// Name is the node directory, e.g. desktop.bundles/index. Its base name replaces
		// "?" in file patterns.
		Name  string   `env:"I18NBUNDLE_NODE,overwrite"  yaml:"name"`
		Langs []string `env:"I18NBUNDLE_LANGS,overwrite" yaml:"langs"`
	} `yaml:"node"`

	Target struct {
		Pattern     string `env:"I18NBUNDLE_TARGET,overwrite"        yaml:"pattern"`
		KeysetsFile string `env:"I18NBUNDLE_KEYSETS_FILE,overwrite" yaml:"keysetsFile"`
	} `yaml:"target"`

	Sources struct {
		Levels   []string `env:"I18NBUNDLE_LEVELS,overwrite"   yaml:"levels"`
		Suffixes []string `env:"I18NBUNDLE_SUFFIXES,overwrite" yaml:"suffixes"`
		Exclude  []string `env:"I18NBUNDLE_EXCLUDE,overwrite"  yaml:"exclude"`
	} `yaml:"sources"`

	Template struct {
		ExportName    string                       `env:"I18NBUNDLE_EXPORT_NAME,overwrite"     yaml:"exportName"`
		ApplyFuncName string                       `env:"I18NBUNDLE_APPLY_FUNC_NAME,overwrite" yaml:"applyFuncName"`
		DevMode       bool                         `env:"I18NBUNDLE_DEV,overwrite"             yaml:"devMode"`
		Cache         bool                         `env:"I18NBUNDLE_TEMPLATE_CACHE,overwrite"  yaml:"cache"`
		Requires      map[string]templates.Require `yaml:"requires"`
		// Command is the external compiler used when DevMode is off.
		Command []string `env:"I18NBUNDLE_COMPILER,overwrite" yaml:"command"`
	} `yaml:"template"`

	Cache struct {
		Enabled  bool `env:"I18NBUNDLE_CACHE,overwrite"          yaml:"enabled"`
		Size     int  `env:"I18NBUNDLE_CACHE_SIZE,overwrite"     yaml:"size"`
		Compress bool `env:"I18NBUNDLE_CACHE_COMPRESS,overwrite" yaml:"compress"`
		// File keeps the cache between runs, relative to the root. Empty keeps it in memory.
		File string `env:"I18NBUNDLE_CACHE_FILE,overwrite" yaml:"file"`
	} `yaml:"cache"`

	Build struct {
		// Jobs is the number of languages built at the same time.
		Jobs int `env:"I18NBUNDLE_JOBS,overwrite" yaml:"jobs"`
		// Timeout bounds a single language build. Zero means no limit.
		Timeout time.Duration `env:"I18NBUNDLE_TIMEOUT,overwrite" yaml:"timeout"`
	} `yaml:"build"`

	Log struct {
		Level   string   `env:"I18NBUNDLE_LOG_LEVEL,overwrite"   yaml:"logLevel"`
		Outputs []string `env:"I18NBUNDLE_LOG_OUTPUTS,overwrite" yaml:"logOutputs"`
		Format  string   `env:"I18NBUNDLE_LOG_FORMAT,overwrite"  yaml:"logFormat"`
	} `yaml:"log"`
}

// LoadConfig loads the configuration from various sources.
//
// Precedence, lowest first: defaults, the YAML file, environment variables (including
// a .env file), then the command-line flags registered by [RegisterFlags] that were set.
// flags may be nil.
func (cfg *BuildConfig) LoadConfig(flags *pflag.FlagSet) error {
	configFilePath := chooseConfigFile(flags)

	cfg.SetDefaults()

	cfg.Release.load()

	if err := cfg.readYAML(configFilePath); err != nil {
		return fmt.Errorf("error loading YAML config: %w", err)
	}

	if err := useDotEnv(); err != nil {
		return fmt.Errorf("error using .env file: %w", err)
	}

	if err := readEnv(cfg); err != nil {
		return fmt.Errorf("error loading environment variables: %w", err)
	}

	if err := cfg.applyFlags(flags); err != nil {
		return fmt.Errorf("error applying command-line flags: %w", err)
	}

	if err := cfg.validateAndSet(); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	cfg.setupAudit()

	cfg.print()

	return nil
}

// chooseConfigFile determines the config file path with the following precedence:
// the --config flag, then I18NBUNDLE_CONFIGFILE, then ./i18nbundle.yaml with a
// fallback to ./i18nbundle.yml.
func chooseConfigFile(flags *pflag.FlagSet) string {
	if flags != nil && flags.Changed(flagConfig) {
		path, _ := flags.GetString(flagConfig)

		return path
	}

	if envVar := os.Getenv(configFileEnv); envVar != "" {
		return envVar
	}

	if _, err := os.Stat(defaultConfigFile); os.IsNotExist(err) {
		if _, statErr := os.Stat(fallbackConfigFile); statErr == nil {
			return fallbackConfigFile
		}
	}

	return defaultConfigFile
}

// TargetPath returns where the bundle for lang is written.
func (cfg *BuildConfig) TargetPath(lang string) string {
	return filepath.Join(cfg.Root, filepath.FromSlash(ResolveTarget(cfg.Target.Pattern, cfg.Node.Name, lang)))
}

// KeysetsFile returns the keysets file for lang, relative to the root.
func (cfg *BuildConfig) KeysetsFile(lang string) string {
	return filepath.FromSlash(ResolveTarget(cfg.Target.KeysetsFile, cfg.Node.Name, lang))
}

// CacheFile returns the path of the persisted cache, or "" when the cache is not persisted.
func (cfg *BuildConfig) CacheFile() string {
	if cfg.Cache.File == "" || filepath.IsAbs(cfg.Cache.File) {
		return cfg.Cache.File
	}

	return filepath.Join(cfg.Root, filepath.FromSlash(cfg.Cache.File))
}

// TemplateOptions returns the template compiler options for the bundle written to file.
func (cfg *BuildConfig) TemplateOptions(file string) templates.Options {
	return templates.Options{
		ExportName:    cfg.Template.ExportName,
		ApplyFuncName: cfg.Template.ApplyFuncName,
		DevMode:       cfg.Template.DevMode,
		Cache:         cfg.Template.Cache,
		Requires:      cfg.Template.Requires,
		Command:       cfg.Template.Command,
		File:          file,
	}
}

// ResolveTarget expands a file pattern for a node: "?" becomes the base name of node
// and "{lang}" becomes lang. The result is a slash-separated path inside node.
func ResolveTarget(pattern, node, lang string) string {
	node = strings.TrimSuffix(node, "/")

	base := node
	if i := strings.LastIndex(node, "/"); i >= 0 {
		base = node[i+1:]
	}

	name := strings.NewReplacer("?", base, "{lang}", lang).Replace(pattern)

	if node == "" {
		return name
	}

	return node + "/" + name
}

// GetDurationEncoderOption returns a YAML encoder option that marshals
// time.Duration into a human-readable string format (e.g., "30m", "1h").
func GetDurationEncoderOption() yaml.EncodeOption {
	return yaml.CustomMarshaler[time.Duration](
		func(d time.Duration) ([]byte, error) {
			return yaml.Marshal(d.String())
		},
	)
}
