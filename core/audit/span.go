// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package audit

import (
	"context"
	"fmt"
	"runtime/trace"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// Span represents a build stage in flight.
type Span struct {
	// only these fields are set automatically
	task     *trace.Task
	start    time.Time
	duration time.Duration

	Stage   Stage
	BuildID string
	Target  string
	Lang    string
	Size    int // Size is the length of the stage output in bytes
	Error   error
}

// Stage names one step of a bundle build.
type Stage string

// Constants for build stages.
const (
	StageTemplate Stage = "template"
	StageI18n     Stage = "i18n"
	StageBundle   Stage = "bundle"
)

// Begin starts timing the span and opens a runtime/trace task for it.
func (span *Span) Begin(ctx context.Context) context.Context {
	span.start = time.Now()

	ctx, span.task = trace.NewTask(ctx, "build."+string(span.Stage))

	trace.Log(ctx, "target", span.Target)

	return ctx
}

// End stops timing the span. Calls after the first are ignored.
func (span *Span) End() {
	if span.task != nil {
		span.duration = time.Since(span.start)
		span.task.End()

		span.task = nil
	}
}

// Duration returns the time between Begin and End.
func (span Span) Duration() time.Duration {
	return span.duration
}

// Finish records the stage result, ends the span and logs it.
func (span *Span) Finish(size int, err error) {
	span.Size = size
	span.Error = err

	span.End()
	span.Log()
}

func (span Span) Log() {
	event := log.Debug()

	event.Str("sys", "build")
	event.Str("stage", string(span.Stage))
	event.Str("build_id", span.BuildID)
	event.Str("lang", span.Lang)

	if span.Target != "" {
		event.Str("target", span.Target)
	}

	event.Str("len", humanizeSize(span.Size))
	event.Dur("dur", span.duration)

	if span.Error != nil {
		event.Err(span.Error)
	}

	event.Send()
}

const (
	bytesInKB = 1024
	bytesInMB = bytesInKB * bytesInKB
	bytesInGB = bytesInMB * bytesInKB
)

func humanizeSize(x int) string {
	if x < bytesInKB {
		return strconv.Itoa(x)
	}

	if x < bytesInMB {
		return fmt.Sprintf("%.2fK", float64(x)/bytesInKB)
	}

	if x < bytesInGB {
		return fmt.Sprintf("%.2fM", float64(x)/bytesInMB)
	}

	return fmt.Sprintf("%.2fG", float64(x)/bytesInGB)
}
