// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package templates adapts template compilers to the bundle build.

A [Compiler] receives the aggregated template source and returns executable template
code. Two implementations are provided: [DevCompiler], which wraps the source for
development without compiling it, and [ExecCompiler], which delegates to an external
compiler process. Use [New] to pick one from [Options].
*/
package templates

import (
	"context"
	"errors"

	"codeberg.org/pixivfe/i18nbundle/core/source"
)

// Default option values.
const (
	DefaultExportName    = "BEMHTML"
	DefaultApplyFuncName = "apply"
)

var errNoCommand = errors.New("a compiler command is required when dev mode is disabled")

// Compiler turns aggregated template source into executable template code.
//
// Implementations must be deterministic for identical input and options.
type Compiler interface {
	Compile(ctx context.Context, src *source.Aggregate) (string, error)
}

// Require describes how a named dependency is made available to template code.
type Require struct {
	// Globals is the name of a global variable holding the dependency.
	Globals string `json:"globals,omitempty" yaml:"globals"`

	// CommonJS is the module id passed to require() when the global is not defined.
	CommonJS string `json:"commonJS,omitempty" yaml:"commonJS"`
}

// Options is the static compiler configuration.
type Options struct {
	ExportName    string
	ApplyFuncName string
	DevMode       bool
	Cache         bool
	Requires      map[string]Require

	// Command is the external compiler and its leading arguments. Unused in dev mode.
	Command []string

	// File is the name of the generated file, recorded in dev-mode source maps.
	File string
}

func (o Options) withDefaults() Options {
	if o.ExportName == "" {
		o.ExportName = DefaultExportName
	}

	if o.ApplyFuncName == "" {
		o.ApplyFuncName = DefaultApplyFuncName
	}

	return o
}

// New returns the compiler selected by opts.
func New(opts Options) (Compiler, error) {
	opts = opts.withDefaults()

	if opts.DevMode {
		return &DevCompiler{Options: opts}, nil
	}

	if len(opts.Command) == 0 {
		return nil, errNoCommand
	}

	return &ExecCompiler{Options: opts}, nil
}
