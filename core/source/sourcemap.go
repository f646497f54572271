// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package source

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	sourceMapVersion = 3
	commentPrefix    = "//# sourceMappingURL=data:application/json;charset=utf-8;base64,"

	vlqBaseShift       = 5
	vlqBaseMask        = 1<<vlqBaseShift - 1
	vlqContinuationBit = 1 << vlqBaseShift
)

const base64Digits = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// SourceMap is a version 3 source map.
type SourceMap struct {
	Version        int      `json:"version"`
	File           string   `json:"file,omitempty"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// SourceMap builds a line-level source map for code that embeds the aggregated text
// verbatim, starting after offset generated lines.
//
// Each line of the aggregated text maps to column 0 of the corresponding fragment line.
// Sources are listed in fragment order; a path that occurs more than once is listed once.
func (a *Aggregate) SourceMap(file string, offset int) *SourceMap {
	m := &SourceMap{
		Version:        sourceMapVersion,
		File:           file,
		Sources:        []string{},
		SourcesContent: []string{},
		Names:          []string{},
	}

	index := make([]int, len(a.fragments))
	seen := make(map[string]int, len(a.fragments))

	for i, f := range a.fragments {
		if j, ok := seen[f.Path]; ok {
			index[i] = j

			continue
		}

		seen[f.Path] = len(m.Sources)
		index[i] = len(m.Sources)

		m.Sources = append(m.Sources, f.Path)
		m.SourcesContent = append(m.SourcesContent, f.Text)
	}

	var b strings.Builder

	b.WriteString(strings.Repeat(";", max(offset, 0)))

	lastSource, lastLine := 0, 0
	segment := make([]byte, 0, 8)

	for i, f := range a.fragments {
		src := index[i]
		lines := strings.Count(f.Text, "\n") + 1

		for line := range lines {
			if i > 0 || line > 0 {
				b.WriteByte(';')
			}

			segment = appendVLQ(segment[:0], 0)
			segment = appendVLQ(segment, src-lastSource)
			segment = appendVLQ(segment, line-lastLine)
			segment = appendVLQ(segment, 0)

			b.Write(segment)

			lastSource, lastLine = src, line
		}
	}

	m.Mappings = b.String()

	return m
}

// Comment renders the source map as an inline sourceMappingURL comment.
// It returns an empty string for an empty aggregate.
func (a *Aggregate) Comment(file string, offset int) (string, error) {
	if len(a.fragments) == 0 {
		return "", nil
	}

	data, err := json.Marshal(a.SourceMap(file, offset))
	if err != nil {
		return "", fmt.Errorf("failed to encode source map: %w", err)
	}

	return commentPrefix + base64.StdEncoding.EncodeToString(data), nil
}

// appendVLQ appends the base64 VLQ encoding of value to b.
func appendVLQ(b []byte, value int) []byte {
	v := value << 1
	if value < 0 {
		v = (-value << 1) | 1
	}

	for {
		digit := v & vlqBaseMask
		v >>= vlqBaseShift

		if v > 0 {
			digit |= vlqContinuationBit
		}

		b = append(b, base64Digits[digit])

		if v == 0 {
			return b
		}
	}
}
