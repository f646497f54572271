// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"github.com/spf13/pflag"
)

const (
	flagConfig = "config"
	flagLang   = "lang"
	flagRoot   = "root"
	flagNode   = "node"
	flagDev    = "dev"
	flagJobs   = "jobs"
)

// RegisterFlags defines the configuration flags on flags.
//
// Only flags the user sets take part in [BuildConfig.LoadConfig]; their defaults here are
// for help output.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String(flagConfig, defaultConfigFile, "Path to an i18nbundle configuration file in YAML format.")
	flags.StringSlice(flagLang, nil, "Language to build, may be repeated (overrides node.langs).")
	flags.String(flagRoot, "", "Project root directory (overrides root).")
	flags.String(flagNode, "", "Node directory relative to the root (overrides node.name).")
	flags.Bool(flagDev, false, "Wrap templates without compiling them (overrides template.devMode).")
	flags.Int(flagJobs, 0, "Number of languages built at the same time (overrides build.jobs).")
}

// applyFlags copies the values of the flags that were set into cfg.
func (cfg *BuildConfig) applyFlags(flags *pflag.FlagSet) error {
	if flags == nil {
		return nil
	}

	var err error

	if flags.Changed(flagLang) {
		if cfg.Node.Langs, err = flags.GetStringSlice(flagLang); err != nil {
			return err
		}
	}

	if flags.Changed(flagRoot) {
		if cfg.Root, err = flags.GetString(flagRoot); err != nil {
			return err
		}
	}

	if flags.Changed(flagNode) {
		if cfg.Node.Name, err = flags.GetString(flagNode); err != nil {
			return err
		}
	}

	if flags.Changed(flagDev) {
		if cfg.Template.DevMode, err = flags.GetBool(flagDev); err != nil {
			return err
		}
	}

	if flags.Changed(flagJobs) {
		if cfg.Build.Jobs, err = flags.GetInt(flagJobs); err != nil {
			return err
		}
	}

	return nil
}
