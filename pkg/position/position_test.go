package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineIndex_Basic(t *testing.T) {
	src := []byte("const a = 1;\nconst b = 2;\nconst c = 3;")
	li := NewLineIndex(src)

	assert.Equal(t, 1, li.Line(0))
	assert.Equal(t, 0, li.Column(0))

	// First char of second line.
	assert.Equal(t, 2, li.Line(13))
	assert.Equal(t, 0, li.Column(13))

	// Middle of third line.
	assert.Equal(t, 3, li.Line(30))
	assert.Equal(t, 4, li.Column(30))
}

func TestLineIndex_EmptySource(t *testing.T) {
	li := NewLineIndex(nil)

	assert.Equal(t, 1, li.Line(0))
	assert.Equal(t, 0, li.Column(0))
	assert.Equal(t, 1, li.Line(100))
}

func TestLineIndex_NegativeOffset(t *testing.T) {
	li := NewLineIndex([]byte("x\ny"))

	assert.Equal(t, 1, li.Line(-5))
	assert.Equal(t, 0, li.Column(-5))
}

func TestLineIndex_OffsetAtNewline(t *testing.T) {
	src := []byte("ab\ncd")
	li := NewLineIndex(src)

	// The newline byte itself belongs to line 1.
	assert.Equal(t, 1, li.Line(2))
	assert.Equal(t, 2, li.Column(2))
	assert.Equal(t, 2, li.Line(3))
}

func TestLineIndex_WithLineOffset(t *testing.T) {
	// Simulates a script block starting at line 10 of an SFC.
	src := []byte("const a = ref(0);\nconst b = ref(1);")
	li := NewLineIndex(src).WithLineOffset(10)

	assert.Equal(t, 10, li.Line(0))
	assert.Equal(t, 11, li.Line(20))
	// Columns are unaffected by the line offset.
	assert.Equal(t, 2, li.Column(20))
}

func TestLineIndex_WithLineOffsetClamped(t *testing.T) {
	li := NewLineIndex([]byte("x")).WithLineOffset(0)
	assert.Equal(t, 1, li.Line(0))
}
