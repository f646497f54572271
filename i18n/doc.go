// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package i18n compiles translation data into the lookup expression embedded in
localized template bundles.

# Quick start

	doc, err := keysets.Read(ctx, "index.keysets.en.js", "en", handle, root)
	if err != nil {
		return err
	}

	code, err := i18n.Compile(ctx, doc, "en", i18n.JSCompiler{})

The result is a single JavaScript expression evaluating to an object whose
properties are the translation keys. Each property is a resolver taking an optional
params object:

	BEM.I18N.greeting()                 // "Hi"
	BEM.I18N.welcome({name: "Ann"})     // "Welcome, Ann!"
	BEM.I18N.files({count: 3})          // plural form chosen by Intl.PluralRules

# Dialects

Keysets in the bem-core dialect target a different runtime and can not be used
with template bundles. [Compile] rejects them with [ErrIncompatibleVersion] before
any compilation work starts.

# Locale selection

Data for the requested locale is taken verbatim when present. Otherwise the closest
locale in the document is chosen with golang.org/x/text/language matching, so a
"pt-BR" build can be served by "pt" keysets. Keys of the shared "all" locale are
available in every build unless the selected locale overrides them.
*/
package i18n
