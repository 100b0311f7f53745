// Copyright 2026 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package chunk

import (
	"iter"
	"strings"
)

const (
	// DefaultSize is the default maximum chunk length in runes.
	DefaultSize = 500
	// DefaultOverlap is the default overlap between consecutive chunks.
	DefaultOverlap = 50
)

// Window is a slice of the source text. Start and End are rune offsets
// into the text the windows were produced from; End is exclusive. Text is
// the window's content with surrounding whitespace trimmed, while the
// offsets keep the untrimmed positions.
type Window struct {
	Text  string
	Start int
	End   int
}

// Windows splits text into overlapping windows of at most size runes.
//
// Each window prefers to end at a sentence boundary (". ", "! " or "? ")
// when one exists past the window's start; failing that it ends at the
// last space; failing that it is cut hard at size runes, which is the
// only way a window can split a word. Consecutive windows overlap by
// overlap runes, measured back from the previous cut. Windows that trim
// to nothing are skipped.
//
// size must be positive. If overlap >= size the step degenerates and is
// clamped so the sequence always advances.
func Windows(text string, size, overlap int) iter.Seq[Window] {
	return func(yield func(Window) bool) {
		if size <= 0 {
			return
		}
		if overlap < 0 {
			overlap = 0
		}

		runes := []rune(text)
		n := len(runes)
		start := 0
		for start < n {
			end := start + size
			if end > n {
				end = n
			}

			cut := end
			if end < n {
				if b := sentenceBoundary(runes, start, end); b > start {
					cut = b + 1
				} else if sp := lastSpace(runes, start, end); sp > start {
					cut = sp
				}
			}

			trimmed := strings.TrimSpace(string(runes[start:cut]))
			if trimmed != "" {
				if !yield(Window{Text: trimmed, Start: start, End: cut}) {
					return
				}
			}

			if cut >= n {
				return
			}

			next := cut - overlap
			if next <= start {
				step := size - overlap
				if step < 1 {
					step = 1
				}
				next = start + step
			}
			start = next
		}
	}
}

// Split collects the windows of text into a slice.
func Split(text string, size, overlap int) []Window {
	var windows []Window
	for w := range Windows(text, size, overlap) {
		windows = append(windows, w)
	}
	return windows
}

// sentenceBoundary returns the largest index i in [start, end-2] where a
// sentence terminator is followed by a space, or -1.
func sentenceBoundary(runes []rune, start, end int) int {
	for i := end - 2; i >= start; i-- {
		if (runes[i] == '.' || runes[i] == '!' || runes[i] == '?') && runes[i+1] == ' ' {
			return i
		}
	}
	return -1
}

// lastSpace returns the largest index of a space in [start, end), or -1.
func lastSpace(runes []rune, start, end int) int {
	for i := end - 1; i >= start; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return -1
}
