package util

import (
	"strings"
)

// LineAt returns the 1-based line holding byte offset off. Offsets past the end clamp to the last line.
func LineAt(content string, off int) int {
	if off < 0 {
		return 0
	}
	if off > len(content) {
		off = len(content)
	}
	return strings.Count(content[:off], "\n") + 1
}

// LinesSpanned lists every line touched by [off, off+length).
func LinesSpanned(content string, off, length int) []int {
	if off < 0 || off > len(content) {
		return nil
	}
	first := LineAt(content, off)
	last := first
	if length > 0 {
		last = LineAt(content, off+length-1)
	}
	out := make([]int, 0, last-first+1)
	for l := first; l <= last; l++ {
		out = append(out, l)
	}
	return out
}

// Slice returns content[off:off+length] clamped to the content bounds.
func Slice(content string, off, length int) string {
	if off < 0 || off >= len(content) || length <= 0 {
		return ""
	}
	end := off + length
	if end > len(content) {
		end = len(content)
	}
	return content[off:end]
}
