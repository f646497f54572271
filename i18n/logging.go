// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

// fallbackOnce deduplicates INFO logs for locale fallbacks.
// The key is requested+"\x00"+served.
var fallbackOnce sync.Map

// logFallbackOnce logs once per (requested, served) pair that keysets of another
// locale are used.
func logFallbackOnce(requested, served language.Tag) {
	from, to := strippedTagString(requested), strippedTagString(served)
	if from == to {
		return
	}

	if _, loaded := fallbackOnce.LoadOrStore(from+"\x00"+to, struct{}{}); !loaded {
		log.Info().
			Str("sys", "i18n").
			Str("locale", from).
			Str("served_by", to).
			Msg("Using keysets of a related locale")
	}
}

// strippedTagString removes variants to form a stable key using base, script and region only.
func strippedTagString(tag language.Tag) string {
	b, s, r := tag.Raw()
	stripped, _ := language.Compose(b, s, r)

	return stripped.String()
}
