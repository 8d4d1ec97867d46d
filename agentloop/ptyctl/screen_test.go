package ptyctl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScreen_PlainTextWrapsAndScrolls(t *testing.T) {
	s := NewScreen(5, 2, 10)
	s.Write([]byte("hello\nworld\nagain"))

	assert.Contains(t, s.Render(false), "world")
	assert.Contains(t, s.Render(false), "again")
}

func TestScreen_CursorPositioning(t *testing.T) {
	s := NewScreen(10, 5, 0)
	s.Write([]byte("\x1b[3;4Hx"))
	x, y := s.Cursor()
	assert.Equal(t, 4, x) // one past the written 'x' at column 3 (0-based)
	assert.Equal(t, 2, y)
}

func TestScreen_EraseLine(t *testing.T) {
	s := NewScreen(10, 1, 0)
	s.Write([]byte("0123456789"))
	s.Write([]byte("\x1b[5D\x1b[K")) // move left 5, erase to end of line
	assert.Equal(t, "01234", s.Render(false))
}

func TestScreen_SGRColorRoundTrip(t *testing.T) {
	s := NewScreen(5, 1, 0)
	s.Write([]byte("\x1b[31mred\x1b[0m"))
	colored := s.Render(true)
	assert.Contains(t, colored, "\x1b[31m")
	assert.Contains(t, colored, "red")
}

func TestScreen_Resize_PreservesOverlap(t *testing.T) {
	s := NewScreen(5, 2, 0)
	s.Write([]byte("hi"))
	s.Resize(10, 3)
	assert.Contains(t, s.Render(false), "hi")
}
