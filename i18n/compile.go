// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"codeberg.org/pixivfe/i18nbundle/core/keysets"
)

// VersionBEMCore is the version tag of the bem-core i18n dialect.
const VersionBEMCore = "bem-core"

var (
	// ErrIncompatibleVersion is returned for keysets in the bem-core dialect.
	ErrIncompatibleVersion = errors.New("template bundles can not be used with the bem-core i18n system")

	// ErrNoLocaleData is returned when a document has no keys usable for the requested locale.
	ErrNoLocaleData = fmt.Errorf("%w: missing locale", keysets.ErrMalformed)
)

// Compiler turns the keys of one locale into an executable lookup expression.
type Compiler interface {
	Compile(ctx context.Context, version, lang string, keys map[string]any) (string, error)
}

// Compile produces the i18n lookup expression for lang from doc.
//
// Documents in the bem-core dialect are rejected with [ErrIncompatibleVersion] before
// anything else happens. Errors returned by c are passed through unchanged.
func Compile(ctx context.Context, doc *keysets.Document, lang string, c Compiler) (string, error) {
	if doc.Version == VersionBEMCore {
		return "", ErrIncompatibleVersion
	}

	keys, matched, err := selectKeys(doc, lang)
	if err != nil {
		return "", err
	}

	log.Debug().
		Str("sys", "i18n").
		Str("version", doc.Version).
		Str("lang", lang).
		Str("keysets", matched).
		Int("keys", len(keys)).
		Msg("Compiling i18n")

	return c.Compile(ctx, doc.Version, lang, keys)
}
