// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/language"

	"codeberg.org/pixivfe/i18nbundle/core/keysets"
)

// AllLocale is the pseudo-locale whose keys are shared by every locale.
const AllLocale = "all"

// ParseLang validates a locale identifier and returns its canonical tag.
func ParseLang(s string) (language.Tag, error) {
	if s == "" {
		return language.Tag{}, fmt.Errorf("empty locale identifier")
	}

	// Accept both underscore and hyphen.
	t, err := language.Parse(strings.ReplaceAll(s, "_", "-"))
	if err != nil {
		return language.Tag{}, fmt.Errorf("invalid locale identifier %q: %w", s, err)
	}

	return t, nil
}

// selectKeys returns the keys for lang, layered over the keys of [AllLocale].
// matched is the document locale the keys were taken from, or empty when only
// shared keys apply.
func selectKeys(doc *keysets.Document, lang string) (keys map[string]any, matched string, err error) {
	shared, hasShared := doc.Data[AllLocale]

	own, matched, found := lookupLocale(doc, lang)
	if !found && !hasShared {
		return nil, "", fmt.Errorf("%w: no keysets for locale %q (have %v)", ErrNoLocaleData, lang, doc.Locales())
	}

	keys = make(map[string]any, len(shared)+len(own))
	maps.Copy(keys, shared)
	maps.Copy(keys, own)

	return keys, matched, nil
}

// lookupLocale finds the document locale that best serves lang.
func lookupLocale(doc *keysets.Document, lang string) (map[string]any, string, bool) {
	if keys, ok := doc.Data[lang]; ok && lang != AllLocale {
		return keys, lang, true
	}

	want, err := ParseLang(lang)
	if err != nil {
		return nil, "", false
	}

	var (
		names []string
		tags  []language.Tag
	)

	for _, name := range slices.Sorted(maps.Keys(doc.Data)) {
		if name == AllLocale {
			continue
		}

		t, err := ParseLang(name)
		if err != nil {
			continue
		}

		names = append(names, name)
		tags = append(tags, t)
	}

	if len(tags) == 0 {
		return nil, "", false
	}

	_, index, confidence := language.NewMatcher(tags).Match(want)
	if confidence == language.No {
		return nil, "", false
	}

	logFallbackOnce(want, tags[index])

	return doc.Data[names[index]], names[index], true
}
