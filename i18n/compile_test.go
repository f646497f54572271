// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/pixivfe/i18nbundle/core/keysets"
)

type call struct {
	version string
	lang    string
	keys    map[string]any
}

// recordingCompiler remembers its calls and returns a fixed result.
type recordingCompiler struct {
	calls []call
	out   string
	err   error
}

func (c *recordingCompiler) Compile(_ context.Context, version, lang string, keys map[string]any) (string, error) {
	c.calls = append(c.calls, call{version: version, lang: lang, keys: keys})

	return c.out, c.err
}

func TestCompile_PassesLocaleKeys(t *testing.T) {
	t.Parallel()

	doc := &keysets.Document{
		Version: "v1",
		Data: map[string]map[string]any{
			"en": {"greeting": "Hi"},
			"ru": {"greeting": "Привет"},
		},
	}

	c := &recordingCompiler{out: "I18N_RESULT"}

	got, err := Compile(context.Background(), doc, "en", c)
	require.NoError(t, err)
	assert.Equal(t, "I18N_RESULT", got)

	require.Len(t, c.calls, 1)
	assert.Equal(t, call{version: "v1", lang: "en", keys: map[string]any{"greeting": "Hi"}}, c.calls[0])
}

func TestCompile_RejectsBEMCore(t *testing.T) {
	t.Parallel()

	doc := &keysets.Document{
		Version: VersionBEMCore,
		Data:    map[string]map[string]any{"en": {"greeting": "Hi"}},
	}

	c := &recordingCompiler{out: "unused"}

	_, err := Compile(context.Background(), doc, "en", c)
	require.ErrorIs(t, err, ErrIncompatibleVersion)
	assert.NotErrorIs(t, err, keysets.ErrMalformed)
	assert.Empty(t, c.calls, "compiler must not be invoked for bem-core keysets")
}

func TestCompile_CompilerErrorIsUnchanged(t *testing.T) {
	t.Parallel()

	compileErr := errors.New("unexpected token in keyset")
	doc := &keysets.Document{Version: "v1", Data: map[string]map[string]any{"en": {}}}

	_, err := Compile(context.Background(), doc, "en", &recordingCompiler{err: compileErr})
	assert.Same(t, compileErr, err)
}

func TestCompile_LocaleSelection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		data     map[string]map[string]any
		lang     string
		wantKeys map[string]any
		wantErr  error
	}{
		{
			name:     "related locale",
			data:     map[string]map[string]any{"pt": {"a": "pt"}, "en": {"a": "en"}},
			lang:     "pt-BR",
			wantKeys: map[string]any{"a": "pt"},
		},
		{
			name: "shared keys are layered under the locale",
			data: map[string]map[string]any{
				AllLocale: {"brand": "Acme", "a": "shared"},
				"en":      {"a": "en"},
			},
			lang:     "en",
			wantKeys: map[string]any{"brand": "Acme", "a": "en"},
		},
		{
			name:     "only shared keys",
			data:     map[string]map[string]any{AllLocale: {"brand": "Acme"}},
			lang:     "fr",
			wantKeys: map[string]any{"brand": "Acme"},
		},
		{
			name:    "unrelated locale",
			data:    map[string]map[string]any{"en": {"a": "en"}},
			lang:    "ja",
			wantErr: ErrNoLocaleData,
		},
		{
			name:    "no data at all",
			data:    map[string]map[string]any{},
			lang:    "en",
			wantErr: ErrNoLocaleData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := &recordingCompiler{out: "ok"}
			doc := &keysets.Document{Version: "v1", Data: tt.data}

			_, err := Compile(context.Background(), doc, tt.lang, c)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.ErrorIs(t, err, keysets.ErrMalformed)
				assert.Empty(t, c.calls)

				return
			}

			require.NoError(t, err)
			require.Len(t, c.calls, 1)
			assert.Equal(t, tt.lang, c.calls[0].lang)
			assert.Equal(t, tt.wantKeys, c.calls[0].keys)
		})
	}
}

func TestJSCompiler(t *testing.T) {
	t.Parallel()

	keys := map[string]any{
		"b":     "second",
		"a":     "first {name}",
		"files": []any{"{count} file", "{count} files"},
	}

	first, err := JSCompiler{}.Compile(context.Background(), "v1", "en", keys)
	require.NoError(t, err)

	second, err := JSCompiler{}.Compile(context.Background(), "v1", "en", keys)
	require.NoError(t, err)

	assert.Equal(t, first, second, "output must be deterministic")
	assert.True(t, strings.HasPrefix(first, "(function (keys, lang) {\n"))
	assert.True(t, strings.HasSuffix(first,
		`}({"a":"first {name}","b":"second","files":["{count} file","{count} files"]}, "en"))`))
	assert.NotContains(t, first, "\n\n\n")

	empty, err := JSCompiler{}.Compile(context.Background(), "v1", "ru", nil)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(empty, `}({}, "ru"))`))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = JSCompiler{}.Compile(ctx, "v1", "en", keys)
	require.ErrorIs(t, err, context.Canceled)
}

func TestParseLang(t *testing.T) {
	t.Parallel()

	tag, err := ParseLang("pt_BR")
	require.NoError(t, err)
	assert.Equal(t, "pt-BR", tag.String())

	_, err = ParseLang("")
	require.Error(t, err)

	_, err = ParseLang("not a locale")
	require.Error(t, err)
}
