package chunk

import (
	"fmt"
	"strings"

	"github.com/legisrag/legisrag/pkg/vector"
)

// sentenceEnds are the sentence terminators the chunker snaps to, in no
// particular order; the right-most match wins.
var sentenceEnds = []string{". ", "! ", "? "}

// Chunker splits text into overlapping windows using a sliding window with
// boundary snapping. Splitting is deterministic and independent per document.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker validates the window parameters and returns a Chunker.
// size must be positive and overlap must satisfy 0 <= overlap < size;
// anything else is a configuration error, rejected here rather than at
// call time.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", vector.ErrConfig, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: chunk overlap must be in [0, size), got %d with size %d", vector.ErrConfig, overlap, size)
	}

	return &Chunker{size: size, overlap: overlap}, nil
}

// Size returns the configured window size in characters.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured overlap in characters.
func (c *Chunker) Overlap() int { return c.overlap }

// Split breaks text into trimmed, non-empty windows of at most size
// characters. Windows after the first overlap their predecessor by
// approximately the configured overlap, give or take the boundary-snap
// distance.
//
// When a window would cut mid-text, Split searches the last 20% of the
// window for a break point: a paragraph break first, then the right-most
// sentence terminator (which is kept with its sentence), then a plain
// space. With no break point in the band it hard-cuts at the window edge.
func (c *Chunker) Split(text string) []string {
	if len(text) <= c.size {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}

	var chunks []string
	n := len(text)
	start := 0

	for start < n {
		end := start + c.size
		if end > n {
			end = n
		}

		// Not the final slice: snap to a semantic-ish boundary.
		if end < n {
			bandStart := end - c.size/5
			if bandStart < start {
				bandStart = start
			}
			band := text[bandStart:end]

			if cut := strings.LastIndex(band, "\n\n"); cut != -1 {
				end = bandStart + cut
			} else if cut := lastSentenceEnd(band); cut != -1 {
				// +1 keeps the terminator with its sentence.
				end = bandStart + cut + 1
			} else if cut := strings.LastIndex(band, " "); cut != -1 {
				end = bandStart + cut
			}
		}

		if chunk := strings.TrimSpace(text[start:end]); chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := end
		if end < n {
			next = end - c.overlap
		}
		// Always move forward, even on degenerate inputs.
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks
}

// lastSentenceEnd returns the right-most index of any sentence terminator
// in s, or -1 if none is present.
func lastSentenceEnd(s string) int {
	best := -1
	for _, punct := range sentenceEnds {
		if i := strings.LastIndex(s, punct); i > best {
			best = i
		}
	}
	return best
}
