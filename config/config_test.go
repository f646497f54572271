// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/pixivfe/i18nbundle/core/templates"
)

// writeConfigFile points I18NBUNDLE_CONFIGFILE at a file holding content.
func writeConfigFile(t *testing.T, content string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "i18nbundle.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv(configFileEnv, path)
}

/*
TestLoadConfig focuses on verifying main functionality (e.g. rejecting invalid input),
and *shouldn't* need exhaustive scenarios.

Not parallel: t.Setenv.
*/
func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		env     map[string]string
		wantErr bool
		errIs   error
	}{
		{
			name: "Valid configuration",
			env:  map[string]string{"I18NBUNDLE_NODE": "desktop.bundles/index"},
		},
		{
			name: "Valid configuration file",
			yaml: `
node:
  name: desktop.bundles/index
  langs: [en, ru]
template:
  devMode: false
  command: [node, compile.js]
  requires:
    jquery:
      globals: jQuery
build:
  timeout: 30s
`,
		},
		{
			name:    "Missing node",
			wantErr: true,
			errIs:   errNoNode,
		},
		{
			name: "Invalid language",
			env: map[string]string{
				"I18NBUNDLE_NODE":  "desktop.bundles/index",
				"I18NBUNDLE_LANGS": "en,not a locale",
			},
			wantErr: true,
		},
		{
			name: "Target without language",
			env: map[string]string{
				"I18NBUNDLE_NODE":   "desktop.bundles/index",
				"I18NBUNDLE_TARGET": "?.bemhtml.js",
			},
			wantErr: true,
			errIs:   errTargetWithoutLang,
		},
		{
			name: "Compiler required outside dev mode",
			env: map[string]string{
				"I18NBUNDLE_NODE": "desktop.bundles/index",
				"I18NBUNDLE_DEV":  "false",
			},
			wantErr: true,
			errIs:   errNoCompilerCommand,
		},
		{
			name: "Invalid export name",
			env: map[string]string{
				"I18NBUNDLE_NODE":        "desktop.bundles/index",
				"I18NBUNDLE_EXPORT_NAME": "BEM-HTML",
			},
			wantErr: true,
			errIs:   errInvalidIdentifier,
		},
		{
			name: "Invalid log level",
			env: map[string]string{
				"I18NBUNDLE_NODE":      "desktop.bundles/index",
				"I18NBUNDLE_LOG_LEVEL": "verbose",
			},
			wantErr: true,
			errIs:   errInvalidLogLevel,
		},
		{
			name:    "Unknown key in configuration file",
			yaml:    "node:\n  name: desktop.bundles/index\n  languages: [en]\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("I18NBUNDLE_ROOT", t.TempDir())
			writeConfigFile(t, tt.yaml)

			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg := &BuildConfig{}
			err := cfg.LoadConfig(nil)

			if !tt.wantErr {
				require.NoError(t, err)

				return
			}

			require.Error(t, err)

			if tt.errIs != nil {
				require.ErrorIs(t, err, tt.errIs)
			}
		})
	}
}

// Not parallel: t.Setenv.
func TestLoadConfig_Precedence(t *testing.T) {
	root := t.TempDir()

	writeConfigFile(t, `
root: `+root+`
node:
  name: /desktop.bundles/index/
  langs: [en, ru, en]
build:
  jobs: 2
  timeout: 1m
`)
	t.Setenv("I18NBUNDLE_LANGS", "fr, de")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	require.NoError(t, flags.Parse([]string{"--lang", "pt_BR", "--lang", "ja", "--jobs", "3"}))

	cfg := &BuildConfig{}
	require.NoError(t, cfg.LoadConfig(flags))

	assert.Equal(t, root, cfg.Root)
	assert.Equal(t, "desktop.bundles/index", cfg.Node.Name)
	assert.Equal(t, []string{"pt_BR", "ja"}, cfg.Node.Langs)
	assert.Equal(t, 3, cfg.Build.Jobs)
	assert.Equal(t, time.Minute, cfg.Build.Timeout)
	assert.True(t, cfg.Template.DevMode)

	assert.Equal(t,
		filepath.Join(root, "desktop.bundles", "index", "index.bemhtml.ja.js"),
		cfg.TargetPath("ja"))
	assert.Equal(t,
		filepath.Join("desktop.bundles", "index", "index.keysets.ja.js"),
		cfg.KeysetsFile("ja"))
	assert.Equal(t, filepath.Join(root, ".i18nbundle.cache"), cfg.CacheFile())

	opts := cfg.TemplateOptions("index.bemhtml.ja.js")
	assert.Equal(t, templates.Options{
		ExportName:    "BEMHTML",
		ApplyFuncName: "apply",
		DevMode:       true,
		File:          "index.bemhtml.ja.js",
	}, opts)
}

// Not parallel: t.Setenv.
func TestLoadConfig_EnvDoesNotOverrideWithoutFlag(t *testing.T) {
	writeConfigFile(t, "")
	t.Setenv("I18NBUNDLE_ROOT", t.TempDir())
	t.Setenv("I18NBUNDLE_NODE", "bundles/page")
	t.Setenv("I18NBUNDLE_SUFFIXES", ".bemhtml, bemhtml.js ,")

	cfg := &BuildConfig{}
	require.NoError(t, cfg.LoadConfig(nil))

	assert.Equal(t, []string{"bemhtml", "bemhtml.js"}, cfg.Sources.Suffixes)
}

func TestReadEnv_Errors(t *testing.T) {
	t.Setenv("I18NBUNDLE_JOBS", "many")

	cfg := &BuildConfig{}
	require.Error(t, readEnv(cfg))

	require.ErrorIs(t, readEnv(*cfg), errExpectedPointerToStruct)
}

func TestResolveTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern, node, lang string
		want                string
	}{
		{"?.bemhtml.{lang}.js", "desktop.bundles/index", "en", "desktop.bundles/index/index.bemhtml.en.js"},
		{"?.keysets.{lang}.js", "desktop.bundles/index/", "ru", "desktop.bundles/index/index.keysets.ru.js"},
		{"?.{lang}.js", "page", "pt-BR", "page/page.pt-BR.js"},
		{"bundle.{lang}.js", "", "en", "bundle.en.js"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolveTarget(tt.pattern, tt.node, tt.lang))
	}
}

func TestParseDotEnvLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line       string
		key, value string
		ok         bool
	}{
		{line: "I18NBUNDLE_NODE=bundles/index", key: "I18NBUNDLE_NODE", value: "bundles/index", ok: true},
		{line: `  export I18NBUNDLE_LANGS = "en,ru" `, key: "I18NBUNDLE_LANGS", value: "en,ru", ok: true},
		{line: "I18NBUNDLE_EXPORT_NAME='BEMHTML'", key: "I18NBUNDLE_EXPORT_NAME", value: "BEMHTML", ok: true},
		{line: `EMPTY=""`, key: "EMPTY", value: "", ok: true},
		{line: "# comment"},
		{line: ""},
		{line: "no separator"},
		{line: "=value"},
	}

	for _, tt := range tests {
		key, value, ok := parseDotEnvLine(tt.line)
		assert.Equal(t, tt.ok, ok, tt.line)
		assert.Equal(t, tt.key, key, tt.line)
		assert.Equal(t, tt.value, value, tt.line)
	}
}

func TestRevision(t *testing.T) {
	t.Parallel()

	tests := []struct {
		info buildInfo
		want string
	}{
		{buildInfo{}, "unknown"},
		{buildInfo{VcsRevision: "0123456789abcdef", VcsTime: "2024-05-01T10:00:00Z"}, "2024-05-01-01234567"},
		{buildInfo{VcsRevision: "0123456789abcdef", VcsModified: true}, "01234567+dirty"},
		{buildInfo{VcsRevision: "abc"}, "abc"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.info.Revision())
	}
}

func TestPrettyBuildLog(t *testing.T) {
	t.Parallel()

	m := map[string]any{
		"sys":      "build",
		"stage":    "bundle",
		"lang":     "en",
		"len":      "1.50K",
		"target":   "index.bemhtml.en.js",
		"build_id": "abc",
	}

	require.NoError(t, prettyBuildLog(m))
	assert.Equal(t, map[string]any{
		"message":  "[bundle] en     1.50K index.bemhtml.en.js",
		"build_id": "abc",
	}, m)

	other := map[string]any{"sys": "keysets", "message": "Loaded keysets"}
	require.NoError(t, prettyBuildLog(other))
	assert.Equal(t, "Loaded keysets", other["message"])
}
