// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package source concatenates template source fragments into a single text and keeps
enough positional information to map any offset or line of that text back to the
fragment it came from.

The aggregated text is what the template compiler sees. Diagnostics reported by the
compiler against the aggregated text can be translated back with [Aggregate.Locate]
and [Aggregate.LocateLine], and dev-mode bundles embed a version 3 source map built by
[Aggregate.SourceMap].
*/
package source

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// separator is placed between consecutive fragments.
const separator = "\n"

// Fragment is the content of one template source file.
type Fragment struct {
	Path string
	Text string
}

// Position identifies a location inside a fragment.
//
// Line and Column are 1-based, Offset is the 0-based byte offset local to the fragment.
type Position struct {
	Path   string
	Index  int // index of the fragment in the aggregate
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.Path, p.Line, p.Column)
}

// Aggregate is the concatenation of a sequence of fragments.
// It is immutable once built with [New].
type Aggregate struct {
	text       string
	fragments  []Fragment
	starts     []int // byte offset of each fragment in text
	firstLines []int // 1-based line of text on which each fragment starts
	lines      int
}

// New concatenates fragments in the order given.
//
// An empty sequence yields an empty Aggregate; New never fails.
func New(fragments []Fragment) *Aggregate {
	a := &Aggregate{
		fragments:  slices.Clone(fragments),
		starts:     make([]int, len(fragments)),
		firstLines: make([]int, len(fragments)),
	}

	var b strings.Builder

	line := 1

	for i, f := range fragments {
		if i > 0 {
			b.WriteString(separator)

			line++
		}

		a.starts[i] = b.Len()
		a.firstLines[i] = line

		b.WriteString(f.Text)

		line += strings.Count(f.Text, "\n")
	}

	a.text = b.String()

	if len(fragments) > 0 {
		a.lines = line
	}

	return a
}

// Text returns the concatenated source.
func (a *Aggregate) Text() string {
	return a.text
}

// Fragments returns a copy of the fragments in aggregation order.
func (a *Aggregate) Fragments() []Fragment {
	return slices.Clone(a.fragments)
}

// Len returns the number of fragments.
func (a *Aggregate) Len() int {
	return len(a.fragments)
}

// Lines returns the number of lines in the concatenated text, or 0 when there are no fragments.
func (a *Aggregate) Lines() int {
	return a.lines
}

// Locate maps a byte offset of the concatenated text to a fragment position.
//
// Offsets that fall on a separator resolve to the end of the preceding fragment.
// It reports false when offset is out of range or the aggregate is empty.
func (a *Aggregate) Locate(offset int) (Position, bool) {
	if len(a.fragments) == 0 || offset < 0 || offset > len(a.text) {
		return Position{}, false
	}

	i := sort.Search(len(a.starts), func(j int) bool { return a.starts[j] > offset }) - 1

	f := a.fragments[i]

	local := min(offset-a.starts[i], len(f.Text))

	head := f.Text[:local]

	return Position{
		Path:   f.Path,
		Index:  i,
		Offset: local,
		Line:   1 + strings.Count(head, "\n"),
		Column: local - strings.LastIndex(head, "\n"),
	}, true
}

// LocateLine maps a 1-based line of the concatenated text to the fragment and its local line.
// The returned position points at the first column of that line.
func (a *Aggregate) LocateLine(line int) (Position, bool) {
	if line < 1 || line > a.lines {
		return Position{}, false
	}

	i := sort.Search(len(a.firstLines), func(j int) bool { return a.firstLines[j] > line }) - 1

	f := a.fragments[i]
	local := line - a.firstLines[i] + 1

	offset := 0
	for range local - 1 {
		offset += strings.IndexByte(f.Text[offset:], '\n') + 1
	}

	return Position{
		Path:   f.Path,
		Index:  i,
		Offset: offset,
		Line:   local,
		Column: 1,
	}, true
}
