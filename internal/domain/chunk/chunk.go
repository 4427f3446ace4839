package chunk

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/view-avocats/assistant/internal/domain"
)

// Chunk is a contiguous slice of the knowledge corpus (immutable value object).
// Offsets and lengths are counted in runes.
type Chunk struct {
	index   int
	text    string
	start   int
	overlap int
}

// New creates a Chunk without validation (test fixtures, hydration).
func New(index int, text string, start, overlap int) Chunk {
	return Chunk{index: index, text: text, start: start, overlap: overlap}
}

// Index returns the position of the chunk in the corpus order.
func (c Chunk) Index() int { return c.index }

// Text returns the chunk text.
func (c Chunk) Text() string { return c.text }

// Start returns the rune offset of the chunk in the corpus.
func (c Chunk) Start() int { return c.start }

// Overlap returns the number of leading runes shared with the previous chunk.
func (c Chunk) Overlap() int { return c.overlap }

// Len returns the chunk length in runes.
func (c Chunk) Len() int { return utf8.RuneCountInString(c.text) }

// Fresh returns the part of the text not shared with the previous chunk.
func (c Chunk) Fresh() string {
	if c.overlap == 0 {
		return c.text
	}
	r := []rune(c.text)
	if c.overlap >= len(r) {
		return ""
	}
	return string(r[c.overlap:])
}

// Split cuts text into chunks of at most size runes, consecutive chunks sharing
// overlap runes. The last chunk may be shorter than size and is always kept.
// Empty text yields no chunks.
func Split(text string, size, overlap int) ([]Chunk, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size must be positive, got %d", domain.ErrInvalidChunking, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: overlap must be in [0, %d), got %d", domain.ErrInvalidChunking, size, overlap)
	}

	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil, nil
	}

	stride := size - overlap
	chunks := make([]Chunk, 0, (n+stride-1)/stride)

	for start := 0; ; start += stride {
		end := min(start+size, n)
		shared := overlap
		if start == 0 {
			shared = 0
		}
		chunks = append(chunks, Chunk{
			index:   len(chunks),
			text:    string(runes[start:end]),
			start:   start,
			overlap: shared,
		})
		if end == n {
			break
		}
	}

	return chunks, nil
}

// Join concatenates the non-overlapping portions of chunks.
// Join(Split(t, size, overlap)) == t.
func Join(chunks []Chunk) string {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c.Fresh())
	}
	return b.String()
}
