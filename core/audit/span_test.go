// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHumanizeSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{1023, "1023"},
		{1024, "1.00K"},
		{1536, "1.50K"},
		{bytesInMB, "1.00M"},
		{3 * bytesInGB, "3.00G"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, humanizeSize(tt.in))
	}
}

// Not parallel: swaps the global logger.
func TestSpan_Finish(t *testing.T) {
	var buf bytes.Buffer

	prev := log.Logger
	log.Logger = zerolog.New(&buf).Level(zerolog.DebugLevel)

	t.Cleanup(func() { log.Logger = prev })

	span := Span{Stage: StageI18n, BuildID: "abc", Target: "index.bemhtml.en.js", Lang: "en"}
	span.Begin(context.Background())
	span.Finish(2048, errors.New("boom"))

	// A second End must not change the recorded duration.
	d := span.Duration()
	span.End()
	assert.Equal(t, d, span.Duration())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "build", entry["sys"])
	assert.Equal(t, "i18n", entry["stage"])
	assert.Equal(t, "abc", entry["build_id"])
	assert.Equal(t, "en", entry["lang"])
	assert.Equal(t, "index.bemhtml.en.js", entry["target"])
	assert.Equal(t, "2.00K", entry["len"])
	assert.Equal(t, "boom", entry["error"])
}
