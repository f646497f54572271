// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package bundle builds localized template bundles.

A [TemplateStep] compiles template fragments on its own. [WithI18n] decorates it so that
each build also reads the locale keyset, compiles it to an i18n lookup expression, and
merges both halves with [Merge]:

	if(typeof BEM == "undefined") { var BEM = {}; }
	(function(bem_) {
	    bem_.I18N = <i18n code>;
	}(BEM));
	<template code>

The two halves run concurrently. The first failure cancels the other half and is
returned as is; no artifact is produced.
*/
package bundle

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"codeberg.org/pixivfe/i18nbundle/core/audit"
	"codeberg.org/pixivfe/i18nbundle/core/idgen"
	"codeberg.org/pixivfe/i18nbundle/core/keysets"
	"codeberg.org/pixivfe/i18nbundle/core/nodecache"
	"codeberg.org/pixivfe/i18nbundle/core/source"
	"codeberg.org/pixivfe/i18nbundle/core/templates"
	"codeberg.org/pixivfe/i18nbundle/i18n"
)

// Request describes one bundle build.
type Request struct {
	// Lang is the locale the bundle is built for.
	Lang string

	// Fragments are the template sources, in build order.
	Fragments []source.Fragment

	// KeysetsFile is the keyset file for Lang, relative to the step root unless absolute.
	KeysetsFile string

	// Target identifies the artifact. It scopes cache entries and appears in logs.
	Target string

	// BuildID ties together the log lines of this build. One is made when empty.
	BuildID string
}

// Step builds the artifact text for a request.
type Step interface {
	Build(ctx context.Context, req Request) (string, error)
}

// TemplateStep compiles the request fragments into template code.
type TemplateStep struct {
	Compiler templates.Compiler
}

// Build implements [Step].
func (s *TemplateStep) Build(ctx context.Context, req Request) (string, error) {
	span := audit.Span{Stage: audit.StageTemplate, BuildID: req.BuildID, Target: req.Target, Lang: req.Lang}
	ctx = span.Begin(ctx)

	code, err := s.Compiler.Compile(ctx, source.New(req.Fragments))

	span.Finish(len(code), err)

	return code, err
}

// I18nStep is a [TemplateStep] that also embeds the compiled locale keyset.
type I18nStep struct {
	base     *TemplateStep
	compiler i18n.Compiler
	cache    *nodecache.Cache
	root     string
}

// WithI18n adds the i18n half to base.
//
// Keyset files are resolved against root and read through cache, in a space owned by
// the request target. cache may be nil.
func WithI18n(base *TemplateStep, compiler i18n.Compiler, cache *nodecache.Cache, root string) *I18nStep {
	return &I18nStep{
		base:     base,
		compiler: compiler,
		cache:    cache,
		root:     root,
	}
}

// Build implements [Step].
func (s *I18nStep) Build(ctx context.Context, req Request) (string, error) {
	if req.BuildID == "" {
		req.BuildID = idgen.Make()
	}

	span := audit.Span{Stage: audit.StageBundle, BuildID: req.BuildID, Target: req.Target, Lang: req.Lang}
	ctx = span.Begin(ctx)

	var templateCode, i18nCode string

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		code, err := s.base.Build(gctx, req)
		if err != nil {
			return err
		}

		templateCode = code

		return nil
	})

	g.Go(func() error {
		code, err := s.buildI18n(gctx, req)
		if err != nil {
			return err
		}

		i18nCode = code

		return nil
	})

	if err := g.Wait(); err != nil {
		span.Finish(0, err)

		return "", err
	}

	artifact := Merge(i18nCode, templateCode)

	span.Finish(len(artifact), nil)

	return artifact, nil
}

func (s *I18nStep) buildI18n(ctx context.Context, req Request) (string, error) {
	span := audit.Span{Stage: audit.StageI18n, BuildID: req.BuildID, Target: req.Target, Lang: req.Lang}
	ctx = span.Begin(ctx)

	code, err := s.compileI18n(ctx, req)

	span.Finish(len(code), err)

	return code, err
}

func (s *I18nStep) compileI18n(ctx context.Context, req Request) (string, error) {
	var cache keysets.Cache
	if s.cache != nil {
		cache = s.cache.Handle(req.Target)
	}

	doc, err := keysets.Read(ctx, req.KeysetsFile, req.Lang, cache, s.root)
	if err != nil {
		return "", err
	}

	return i18n.Compile(ctx, doc, req.Lang, s.compiler)
}

// Merge wraps the i18n expression in the guarded namespace assignment and appends the
// template code unmodified.
func Merge(i18nCode, templateCode string) string {
	return strings.Join([]string{
		`if(typeof BEM == "undefined") { var BEM = {}; }`,
		`(function(bem_) {`,
		`    bem_.I18N = ` + i18nCode + `;`,
		`}(BEM));`,
		templateCode,
	}, "\n")
}
