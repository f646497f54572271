// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"
)

// readYAML decodes the build configuration file at path over cfg.
//
// A missing file is not an error. Unknown keys are, since they are most likely typos.
func (cfg *BuildConfig) readYAML(path string) error {
	if path == "" {
		return nil
	}

	f, err := os.Open(path) // #nosec G304 -- path comes from the command line or environment
	if errors.Is(err, fs.ErrNotExist) {
		log.Info().
			Str("path", path).
			Msg("No build configuration file, using defaults")

		return nil
	} else if err != nil {
		return fmt.Errorf("failed to open configuration file %s: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f, yaml.Strict())

	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid configuration file %s: %w", path, err)
	}

	log.Info().
		Str("path", path).
		Msg("Loaded build configuration")

	return nil
}
