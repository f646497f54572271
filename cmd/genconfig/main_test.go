// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/pixivfe/i18nbundle/config"
)

func defaults() *config.BuildConfig {
	cfg := &config.BuildConfig{}
	cfg.SetDefaults()

	cfg.Node.Name = placeholderNode

	return cfg
}

func TestEnvFile(t *testing.T) {
	t.Parallel()

	out := envFile(defaults())

	assert.True(t, strings.HasPrefix(out, envFileHeader))
	assert.Contains(t, out, "## Node\nI18NBUNDLE_NODE=\"desktop.bundles/index\"\n# I18NBUNDLE_LANGS=en\n")
	assert.Contains(t, out, "# I18NBUNDLE_TARGET=?.bemhtml.{lang}.js\n")
	assert.Contains(t, out, "# I18NBUNDLE_EXCLUDE=\n")
	assert.Contains(t, out, "# I18NBUNDLE_ROOT=.\n")
	assert.NotContains(t, out, "Release")
}

func TestYAMLFile(t *testing.T) {
	t.Parallel()

	out, err := yamlFile(defaults())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, yamlFileHeader))
	assert.Contains(t, out, "\nnode:\n  name: desktop.bundles/index\n")
	assert.Contains(t, out, "  # pattern: ")
	assert.Contains(t, out, requiresYAMLComment)

	for line := range strings.SplitSeq(out, "\n") {
		if strings.HasPrefix(line, "  ") && !strings.HasPrefix(strings.TrimSpace(line), "#") {
			assert.Equal(t, "  name: desktop.bundles/index", line)
		}
	}
}
