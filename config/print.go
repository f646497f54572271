// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func (cfg *BuildConfig) print() {
	log.Info().
		Str("version", BuildVersion).
		Str("revision", cfg.Release.Revision()).
		Str("root", cfg.Root).
		Str("node", cfg.Node.Name).
		Strs("langs", cfg.Node.Langs).
		Msg("Starting i18nbundle")

	// Only shown at debug level; builds are usually run from scripts.
	if zerolog.GlobalLevel() > zerolog.DebugLevel {
		return
	}

	configYAML, err := cfg.YAML()
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal config to YAML for printing")

		return
	}

	log.Debug().
		Msg("Build configuration:")
	fmt.Fprintln(os.Stderr, string(configYAML))
}

// YAML renders the configuration as YAML.
func (cfg *BuildConfig) YAML() ([]byte, error) {
	return yaml.MarshalWithOptions(
		cfg,
		GetDurationEncoderOption(),
		yaml.Indent(2),
	)
}
