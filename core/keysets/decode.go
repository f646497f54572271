// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package keysets

import (
	"fmt"
	"regexp"

	"github.com/goccy/go-yaml"
	"github.com/leonelquinteros/gotext"
	"github.com/tidwall/gjson"
)

// VersionGettext is the version tag given to documents decoded from .po catalogues.
const VersionGettext = "gettext"

// ContextSeparator joins a gettext message context and its msgid into one key,
// the way compiled .mo catalogues store them.
const ContextSeparator = "\x04"

var (
	// Leading "//" and "/* */" comments, e.g. a generated-file header.
	leadingComments     = regexp.MustCompile(`^(?:\s+|//[^\n]*|/\*[\s\S]*?\*/)*`)
	moduleExportsPrefix = regexp.MustCompile(`^\s*module\.exports\s*=\s*`)
	moduleExportsSuffix = regexp.MustCompile(`;?\s*$`)
)

func parseJSON(raw []byte) (*Document, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformed)
	}

	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: expected an object", ErrMalformed)
	}

	version := root.Get("version")
	if !version.Exists() {
		return nil, fmt.Errorf("%w: missing version", ErrMalformed)
	}

	if version.Type != gjson.String {
		return nil, fmt.Errorf("%w: version must be a string", ErrMalformed)
	}

	if version.String() == "" {
		return nil, fmt.Errorf("%w: missing version", ErrMalformed)
	}

	keysets := root.Get("keysets")
	if !keysets.IsObject() {
		return nil, fmt.Errorf("%w: missing keysets object", ErrMalformed)
	}

	doc := &Document{Version: version.String(), Data: map[string]map[string]any{}}

	var err error

	keysets.ForEach(func(locale, keys gjson.Result) bool {
		if !keys.IsObject() {
			err = fmt.Errorf("%w: keysets for locale %q is not an object", ErrMalformed, locale.String())

			return false
		}

		m := make(map[string]any)

		keys.ForEach(func(k, v gjson.Result) bool {
			m[k.String()] = v.Value()

			return true
		})

		doc.Data[locale.String()] = m

		return true
	})

	if err != nil {
		return nil, err
	}

	return doc, nil
}

// parseJS strips leading comments and the CommonJS export around a JSON document.
func parseJS(raw []byte) (*Document, error) {
	body := leadingComments.ReplaceAll(raw, nil)
	body = moduleExportsPrefix.ReplaceAll(body, nil)
	body = moduleExportsSuffix.ReplaceAll(body, nil)

	return parseJSON(body)
}

type yamlDocument struct {
	Version any                       `yaml:"version"`
	Keysets map[string]map[string]any `yaml:"keysets"`
}

func parseYAML(raw []byte) (*Document, error) {
	var d yamlDocument
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if d.Version == nil {
		return nil, fmt.Errorf("%w: missing version", ErrMalformed)
	}

	version, ok := d.Version.(string)
	if !ok {
		return nil, fmt.Errorf("%w: version must be a string", ErrMalformed)
	}

	if version == "" {
		return nil, fmt.Errorf("%w: missing version", ErrMalformed)
	}

	if d.Keysets == nil {
		return nil, fmt.Errorf("%w: missing keysets object", ErrMalformed)
	}

	for locale, keys := range d.Keysets {
		if keys == nil {
			d.Keysets[locale] = map[string]any{}
		}
	}

	return &Document{Version: version, Data: d.Keysets}, nil
}

// parsePO turns a gettext catalogue into a single-locale document.
// Untranslated entries are left out; plural entries become a list of forms ordered
// by msgstr index. Entries with a msgctxt are keyed context + [ContextSeparator] + msgid.
func parsePO(raw []byte, lang string) (*Document, error) {
	if lang == "" {
		return nil, fmt.Errorf("%w: a locale is required to read a .po catalogue", ErrMalformed)
	}

	po := gotext.NewPo()
	po.Parse(raw)

	domain := po.GetDomain()
	keys := make(map[string]any)

	for id, tr := range domain.GetTranslations() {
		addTranslation(keys, id, tr)
	}

	for ctx, translations := range domain.GetCtxTranslations() {
		for id, tr := range translations {
			if id != "" {
				addTranslation(keys, ctx+ContextSeparator+id, tr)
			}
		}
	}

	return &Document{
		Version: VersionGettext,
		Data:    map[string]map[string]any{lang: keys},
	}, nil
}

func addTranslation(keys map[string]any, key string, tr *gotext.Translation) {
	if key == "" || tr == nil {
		return
	}

	if tr.PluralID == "" {
		if s := tr.Trs[0]; s != "" {
			keys[key] = s
		}

		return
	}

	forms := make([]any, 0, len(tr.Trs))
	translated := false

	for i := range len(tr.Trs) {
		s := tr.Trs[i]
		translated = translated || s != ""
		forms = append(forms, s)
	}

	if translated {
		keys[key] = forms
	}
}
