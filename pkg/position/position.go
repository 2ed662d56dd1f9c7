// Package position converts byte offsets in source text into line/column pairs.
//
// A LineIndex is built once per source string and reused for every lookup in
// that file. Lines are 1-based and columns are 0-based, matching what editor
// integrations expect from diagram node positions.
package position

import "sort"

// LineIndex holds the precomputed byte offsets at which each line starts.
type LineIndex struct {
	// starts[i] is the byte offset of the first character of line i+1.
	starts []int

	// lineOffset shifts reported line numbers for sources carved out of a
	// larger file (e.g. a <script> block inside an SFC). A value of 1 means
	// no shift.
	lineOffset int
}

// NewLineIndex builds a LineIndex for the given source.
//
// Empty source yields a valid index where every offset maps to line 1,
// column 0.
func NewLineIndex(source []byte) *LineIndex {
	starts := []int{0}
	for i, b := range source {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{starts: starts, lineOffset: 1}
}

// WithLineOffset returns a copy of the index whose reported line numbers are
// shifted by (offset - 1). Used when the indexed source is a sub-section of a
// larger file starting at the given 1-based line.
func (li *LineIndex) WithLineOffset(offset int) *LineIndex {
	if offset < 1 {
		offset = 1
	}
	return &LineIndex{starts: li.starts, lineOffset: offset}
}

// Line returns the 1-based line number containing the given byte offset.
func (li *LineIndex) Line(offset int) int {
	return li.lineAt(offset) + li.lineOffset
}

// Column returns the 0-based column of the given byte offset within its line.
func (li *LineIndex) Column(offset int) int {
	if offset < 0 {
		return 0
	}
	line := li.lineAt(offset)
	return offset - li.starts[line]
}

// lineAt returns the 0-based index of the line containing offset.
func (li *LineIndex) lineAt(offset int) int {
	if offset < 0 {
		return 0
	}
	// Find the last line start <= offset.
	idx := sort.Search(len(li.starts), func(i int) bool {
		return li.starts[i] > offset
	})
	if idx == 0 {
		return 0
	}
	return idx - 1
}
