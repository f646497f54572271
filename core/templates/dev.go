// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package templates

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"codeberg.org/pixivfe/i18nbundle/core/source"
)

// DevCompiler wraps template source into a module without compiling it.
//
// The source is embedded verbatim and followed by an inline source map, so errors
// thrown at runtime point at the original template files.
type DevCompiler struct {
	Options Options
}

// Compile implements [Compiler].
func (c *DevCompiler) Compile(ctx context.Context, src *source.Aggregate) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	opts := c.Options.withDefaults()

	head, err := devHead(opts)
	if err != nil {
		return "", err
	}

	var b strings.Builder

	b.WriteString(head)

	if src.Len() > 0 {
		b.WriteString(src.Text())
		b.WriteString("\n")
	}

	b.WriteString(devTail(opts))

	comment, err := src.Comment(opts.File, strings.Count(head, "\n"))
	if err != nil {
		return "", err
	}

	if comment != "" {
		b.WriteString(comment)
		b.WriteString("\n")
	}

	log.Debug().
		Str("sys", "templates").
		Int("fragments", src.Len()).
		Int("bytes", b.Len()).
		Msg("Wrapped templates in dev mode")

	return b.String(), nil
}

// devHead renders everything up to the embedded source. It ends with a newline.
func devHead(opts Options) (string, error) {
	options, err := json.Marshal(map[string]bool{"cache": opts.Cache, "devMode": true})
	if err != nil {
		return "", err
	}

	var b strings.Builder

	fmt.Fprintf(&b, "var %s;\n", opts.ExportName)
	b.WriteString("(function (global) {\n")
	b.WriteString("    var requires = {};\n")

	for _, name := range slices.Sorted(maps.Keys(opts.Requires)) {
		line, err := requireLine(name, opts.Requires[name])
		if err != nil {
			return "", err
		}

		b.WriteString(line)
	}

	fmt.Fprintf(&b, "    var options = %s;\n", options)
	b.WriteString("    var templates = (function (requires, options) {\n")
	b.WriteString("        var exports = {};\n")

	return b.String(), nil
}

func devTail(opts Options) string {
	var b strings.Builder

	b.WriteString("        return exports;\n")
	b.WriteString("    }(requires, options));\n")
	b.WriteString("    var api = {};\n")
	fmt.Fprintf(&b, "    api[%q] = function () {\n", opts.ApplyFuncName)
	b.WriteString("        return templates.apply.apply(templates, arguments);\n")
	b.WriteString("    };\n")
	fmt.Fprintf(&b, "    %s = api;\n", opts.ExportName)
	b.WriteString("    if (typeof module === \"object\" && module && typeof module.exports === \"object\") {\n")
	fmt.Fprintf(&b, "        module.exports[%q] = api;\n", opts.ExportName)
	b.WriteString("    }\n")
	b.WriteString("}(typeof window !== \"undefined\" ? window : this));\n")

	return b.String()
}

// requireLine resolves one dependency from a global first, then through require().
func requireLine(name string, r Require) (string, error) {
	key, err := json.Marshal(name)
	if err != nil {
		return "", err
	}

	expr := "undefined"

	if r.CommonJS != "" {
		id, err := json.Marshal(r.CommonJS)
		if err != nil {
			return "", err
		}

		expr = fmt.Sprintf("(typeof require === \"function\" ? require(%s) : undefined)", id)
	}

	if r.Globals != "" {
		g, err := json.Marshal(r.Globals)
		if err != nil {
			return "", err
		}

		expr = fmt.Sprintf("(typeof global[%s] !== \"undefined\" ? global[%s] : %s)", g, g, expr)
	}

	return fmt.Sprintf("    requires[%s] = %s;\n", key, expr), nil
}
