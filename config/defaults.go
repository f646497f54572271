// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"runtime"

	"codeberg.org/pixivfe/i18nbundle/core/templates"
)

const (
	// Default number of cached entries.
	defaultCacheSize = 256

	// Default cache file, relative to the root.
	defaultCacheFile = ".i18nbundle.cache"

	// Default target and keysets file patterns of a node.
	defaultTargetPattern = "?.bemhtml.{lang}.js"
	defaultKeysetsFile   = "?.keysets.{lang}.js"
)

// SetDefaults populates the configuration with default values.
func (cfg *BuildConfig) SetDefaults() {
	cfg.Root = "."

	cfg.Node.Name = ""
	cfg.Node.Langs = []string{"en"}

	cfg.Target.Pattern = defaultTargetPattern
	cfg.Target.KeysetsFile = defaultKeysetsFile

	cfg.Sources.Levels = []string{"common.blocks"}
	cfg.Sources.Suffixes = []string{"bemhtml"}
	cfg.Sources.Exclude = nil

	cfg.Template.ExportName = templates.DefaultExportName
	cfg.Template.ApplyFuncName = templates.DefaultApplyFuncName
	cfg.Template.DevMode = true
	cfg.Template.Cache = false
	cfg.Template.Requires = nil
	cfg.Template.Command = nil

	cfg.Cache.Enabled = true
	cfg.Cache.Size = defaultCacheSize
	cfg.Cache.Compress = true
	cfg.Cache.File = defaultCacheFile

	cfg.Build.Jobs = runtime.NumCPU()
	cfg.Build.Timeout = 0

	cfg.Log.Level = "info"
	cfg.Log.Outputs = []string{"/dev/stderr"}
	cfg.Log.Format = "console"
}
