// Package chunk splits normalized text into overlapping windows for
// embedding.
//
// Windowing is pure rune arithmetic: no model, no language detection.
// Boundaries prefer sentence ends, then word ends, then a hard cut, and
// consecutive windows overlap so sentences near a boundary appear in both
// neighbors.
package chunk
