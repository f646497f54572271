// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// runtimeSource is the body of the generated lookup expression. It receives the keys
// and the locale as arguments.
const runtimeSource = `(function (keys, lang) {
    var order = ["zero", "one", "two", "few", "many", "other"],
        rules = typeof Intl !== "undefined" && Intl.PluralRules ? new Intl.PluralRules(lang) : null,
        categories = rules ? order.filter(function (c) {
            return rules.resolvedOptions().pluralCategories.indexOf(c) !== -1;
        }) : ["one", "other"],
        i18n = {};

    function category(count) {
        if (rules) {
            return rules.select(Number(count));
        }
        return count === 1 ? "one" : "other";
    }

    function format(text, params) {
        return String(text).replace(/\{(\w+)\}/g, function (match, name) {
            return params && params[name] !== undefined ? String(params[name]) : match;
        });
    }

    function resolve(value, params) {
        var count = params ? params.count : undefined;
        if (Array.isArray(value)) {
            var i = categories.indexOf(category(count));
            return format(value[i < 0 || i >= value.length ? value.length - 1 : i], params);
        }
        if (value !== null && typeof value === "object") {
            var form = category(count);
            return format(form in value ? value[form] : value.other, params);
        }
        return typeof value === "string" ? format(value, params) : value;
    }

    Object.keys(keys).forEach(function (key) {
        i18n[key] = function (params) {
            return resolve(keys[key], params);
        };
    });

    return i18n;
}(`

// JSCompiler is the built-in [Compiler]. It emits a JavaScript expression whose value
// maps every key to a resolver function.
//
// String values support {name} placeholders filled from the resolver's params.
// Object values are plural forms keyed by CLDR category; arrays are plural forms in
// CLDR category order. The form is picked with Intl.PluralRules for the bundle locale
// and params.count. Any other value is returned as is.
type JSCompiler struct{}

// Compile implements [Compiler]. The output only depends on its arguments.
func (JSCompiler) Compile(ctx context.Context, version, lang string, keys map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if keys == nil {
		keys = map[string]any{}
	}

	data, err := json.Marshal(keys)
	if err != nil {
		return "", fmt.Errorf("failed to encode keys for %s (version %s): %w", lang, version, err)
	}

	locale, err := json.Marshal(lang)
	if err != nil {
		return "", err
	}

	var b strings.Builder

	b.WriteString(runtimeSource)
	b.Write(data)
	b.WriteString(", ")
	b.Write(locale)
	b.WriteString("))")

	return b.String(), nil
}
