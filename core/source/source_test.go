// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package source

import (
	"encoding/base64"
	"encoding/json"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFragments() []Fragment {
	return []Fragment{
		{Path: "blocks/a/a.bemhtml", Text: "a1\na2"},
		{Path: "blocks/b/b.bemhtml", Text: "b1"},
		{Path: "blocks/c/c.bemhtml", Text: "c1\n"},
	}
}

func TestNew_SingleFragmentIsVerbatim(t *testing.T) {
	t.Parallel()

	a := New([]Fragment{{Path: "a.tmpl", Text: "BODY"}})

	assert.Equal(t, "BODY", a.Text())
	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 1, a.Lines())
}

func TestNew_Empty(t *testing.T) {
	t.Parallel()

	a := New(nil)

	assert.Empty(t, a.Text())
	assert.Zero(t, a.Len())
	assert.Zero(t, a.Lines())

	_, ok := a.Locate(0)
	assert.False(t, ok)

	_, ok = a.LocateLine(1)
	assert.False(t, ok)

	comment, err := a.Comment("index.bemhtml.js", 0)
	require.NoError(t, err)
	assert.Empty(t, comment)
}

func TestNew_DoesNotAliasInput(t *testing.T) {
	t.Parallel()

	frags := testFragments()
	a := New(frags)

	frags[0].Text = "changed"

	assert.Equal(t, "a1\na2\nb1\nc1\n", a.Text())
	assert.Equal(t, "a1\na2", a.Fragments()[0].Text)
}

func TestLocate(t *testing.T) {
	t.Parallel()

	a := New(testFragments())

	tests := []struct {
		name   string
		offset int
		want   Position
	}{
		{"start", 0, Position{Path: "blocks/a/a.bemhtml", Index: 0, Offset: 0, Line: 1, Column: 1}},
		{"second line", 4, Position{Path: "blocks/a/a.bemhtml", Index: 0, Offset: 4, Line: 2, Column: 2}},
		{"separator", 5, Position{Path: "blocks/a/a.bemhtml", Index: 0, Offset: 5, Line: 2, Column: 3}},
		{"second fragment", 6, Position{Path: "blocks/b/b.bemhtml", Index: 1, Offset: 0, Line: 1, Column: 1}},
		{"trailing newline", 12, Position{Path: "blocks/c/c.bemhtml", Index: 2, Offset: 3, Line: 2, Column: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := a.Locate(tt.offset)
			require.True(t, ok)

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Locate(%d) mismatch (-want +got):\n%s", tt.offset, diff)
			}
		})
	}

	_, ok := a.Locate(-1)
	assert.False(t, ok)

	_, ok = a.Locate(len(a.Text()) + 1)
	assert.False(t, ok)
}

func TestLocateLine(t *testing.T) {
	t.Parallel()

	a := New(testFragments())

	require.Equal(t, 5, a.Lines())

	want := []Position{
		{Path: "blocks/a/a.bemhtml", Index: 0, Offset: 0, Line: 1, Column: 1},
		{Path: "blocks/a/a.bemhtml", Index: 0, Offset: 3, Line: 2, Column: 1},
		{Path: "blocks/b/b.bemhtml", Index: 1, Offset: 0, Line: 1, Column: 1},
		{Path: "blocks/c/c.bemhtml", Index: 2, Offset: 0, Line: 1, Column: 1},
		{Path: "blocks/c/c.bemhtml", Index: 2, Offset: 3, Line: 2, Column: 1},
	}

	for i, w := range want {
		got, ok := a.LocateLine(i + 1)
		require.True(t, ok)

		if diff := cmp.Diff(w, got); diff != "" {
			t.Errorf("LocateLine(%d) mismatch (-want +got):\n%s", i+1, diff)
		}
	}

	_, ok := a.LocateLine(6)
	assert.False(t, ok)
}

// Every byte of the concatenated text that belongs to a fragment must map back to
// the same byte of that fragment, whatever the fragment order.
func TestLocate_ConsistentUnderReordering(t *testing.T) {
	t.Parallel()

	orders := [][]Fragment{testFragments(), testFragments()}
	slices.Reverse(orders[1])

	for _, frags := range orders {
		a := New(frags)
		text := a.Text()

		for off := range len(text) {
			pos, ok := a.Locate(off)
			require.True(t, ok)

			f := frags[pos.Index]
			assert.Equal(t, f.Path, pos.Path)

			if pos.Offset < len(f.Text) {
				assert.Equal(t, text[off], f.Text[pos.Offset], "offset %d", off)
			} else {
				assert.Equal(t, separator, string(text[off]), "offset %d", off)
			}
		}
	}
}

func TestSourceMap(t *testing.T) {
	t.Parallel()

	a := New([]Fragment{
		{Path: "a.bemhtml", Text: "x\ny"},
		{Path: "b.bemhtml", Text: "z"},
	})

	got := a.SourceMap("index.bemhtml.js", 0)

	want := &SourceMap{
		Version:        3,
		File:           "index.bemhtml.js",
		Sources:        []string{"a.bemhtml", "b.bemhtml"},
		SourcesContent: []string{"x\ny", "z"},
		Names:          []string{},
		Mappings:       "AAAA;AACA;ACDA",
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SourceMap mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, ";;AAAA;AACA;ACDA", a.SourceMap("", 2).Mappings)
}

// TestSourceMap_Large checks that mapping a big fragment stays linear and matches
// LocateLine on a sample of lines.
func TestSourceMap_Large(t *testing.T) {
	t.Parallel()

	const lines = 200_000

	body := strings.Repeat("block('b')(tag()('div'));\n", lines-1) + "block('b')(tag()('div'));"
	a := New([]Fragment{{Path: "head.bemhtml", Text: "h"}, {Path: "big.bemhtml", Text: body}})

	start := time.Now()
	m := a.SourceMap("", 0)

	// A quadratic walk over 5 MB of source takes minutes.
	assert.Less(t, time.Since(start), 5*time.Second)

	segments := strings.Split(m.Mappings, ";")
	require.Len(t, segments, a.Lines())

	assert.Equal(t, "AAAA", segments[0])
	assert.Equal(t, "ACAA", segments[1])
	assert.Equal(t, "AACA", segments[lines])

	for _, line := range []int{2, 3, 1000, lines + 1} {
		pos, ok := a.LocateLine(line)
		require.True(t, ok)
		assert.Equal(t, 1, pos.Index)
		assert.Equal(t, line-1, pos.Line, "line %d", line)
	}
}

func TestSourceMap_DuplicatePaths(t *testing.T) {
	t.Parallel()

	a := New([]Fragment{
		{Path: "a.bemhtml", Text: "1"},
		{Path: "b.bemhtml", Text: "2"},
		{Path: "a.bemhtml", Text: "3"},
	})

	m := a.SourceMap("", 0)

	assert.Equal(t, []string{"a.bemhtml", "b.bemhtml"}, m.Sources)
	assert.Equal(t, "AAAA;ACAA;ADAA", m.Mappings)
}

func TestComment(t *testing.T) {
	t.Parallel()

	a := New(testFragments())

	comment, err := a.Comment("index.bemhtml.js", 4)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(comment, commentPrefix))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(comment, commentPrefix))
	require.NoError(t, err)

	var got SourceMap
	require.NoError(t, json.Unmarshal(raw, &got))

	if diff := cmp.Diff(a.SourceMap("index.bemhtml.js", 4), &got); diff != "" {
		t.Errorf("decoded comment mismatch (-want +got):\n%s", diff)
	}
}

func TestAppendVLQ(t *testing.T) {
	t.Parallel()

	tests := map[int]string{
		0:   "A",
		1:   "C",
		-1:  "D",
		15:  "e",
		16:  "gB",
		-16: "hB",
		123: "2H",
	}

	for in, want := range tests {
		assert.Equal(t, want, string(appendVLQ(nil, in)), "value %d", in)
	}
}
