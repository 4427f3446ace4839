package chunk

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/view-avocats/assistant/internal/domain"
)

func TestSplit_SingleChunkCorpus(t *testing.T) {
	corpus := "Le cabinet est ouvert de 9h à 18h."

	chunks, err := Split(corpus, 1000, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text() != corpus {
		t.Errorf("chunk text = %q, want corpus", chunks[0].Text())
	}
	if chunks[0].Overlap() != 0 || chunks[0].Start() != 0 || chunks[0].Index() != 0 {
		t.Errorf("unexpected first chunk metadata: %+v", chunks[0])
	}
}

func TestSplit_Empty(t *testing.T) {
	chunks, err := Split("", 100, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected no chunks, got %d", len(chunks))
	}
}

func TestSplit_InvalidParams(t *testing.T) {
	tests := []struct {
		name          string
		size, overlap int
	}{
		{"zero size", 0, 0},
		{"negative size", -5, 0},
		{"negative overlap", 10, -1},
		{"overlap equals size", 10, 10},
		{"overlap above size", 10, 20},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Split("abc", tc.size, tc.overlap)
			if !errors.Is(err, domain.ErrInvalidChunking) {
				t.Errorf("expected ErrInvalidChunking, got %v", err)
			}
		})
	}
}

func TestSplit_OverlapAndBounds(t *testing.T) {
	text := "abcdefghijklmnopqrstuvwxyz"

	chunks, err := Split(text, 10, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// starts: 0, 7, 14, 21 -> last chunk "vwxyz"
	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		prev, cur := chunks[i-1].Text(), chunks[i].Text()
		if prev[len(prev)-3:] != cur[:3] {
			t.Errorf("chunk %d does not share 3 runes with chunk %d: %q / %q", i, i-1, prev, cur)
		}
		if chunks[i].Overlap() != 3 {
			t.Errorf("chunk %d overlap = %d, want 3", i, chunks[i].Overlap())
		}
		if chunks[i].Index() != i {
			t.Errorf("chunk %d index = %d", i, chunks[i].Index())
		}
	}
	last := chunks[len(chunks)-1]
	if last.Text() != "vwxyz" {
		t.Errorf("last chunk = %q, want %q", last.Text(), "vwxyz")
	}
}

func TestSplit_NoRedundantTail(t *testing.T) {
	// 20 runes, size 10, overlap 5: starts 0, 5, 10 -> the third chunk ends exactly at 20.
	chunks, err := Split(strings.Repeat("x", 20), 10, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
}

func TestSplit_RunesNotBytes(t *testing.T) {
	text := "éàçùêôîâ"

	chunks, err := Split(text, 3, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, c := range chunks {
		if !utf8.ValidString(c.Text()) {
			t.Errorf("chunk %d is not valid UTF-8: %q", c.Index(), c.Text())
		}
		if c.Len() > 3 {
			t.Errorf("chunk %d has %d runes, max 3", c.Index(), c.Len())
		}
	}
	if Join(chunks) != text {
		t.Errorf("Join = %q, want %q", Join(chunks), text)
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := strings.Repeat("Le droit des affaires. ", 40)

	a, _ := Split(text, 50, 12)
	b, _ := Split(text, 50, 12)
	if len(a) != len(b) {
		t.Fatalf("chunk counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("chunk %d differs", i)
		}
	}
}

func TestJoin_ReconstructsCorpus(t *testing.T) {
	corpora := []string{
		"a",
		"Le cabinet est ouvert de 9h à 18h.",
		strings.Repeat("Droit du travail, droit de la famille et droit pénal.\n", 37),
		strings.Repeat("ß", 101),
	}
	params := []struct{ size, overlap int }{
		{1, 0}, {2, 1}, {7, 3}, {10, 0}, {50, 49}, {1000, 200},
	}

	for _, text := range corpora {
		for _, p := range params {
			chunks, err := Split(text, p.size, p.overlap)
			if err != nil {
				t.Fatalf("Split(size=%d, overlap=%d): %v", p.size, p.overlap, err)
			}
			if got := Join(chunks); got != text {
				t.Errorf("Join(Split(size=%d, overlap=%d)) mismatch", p.size, p.overlap)
			}
			last := chunks[len(chunks)-1]
			if last.Len() == 0 || last.Len() > p.size {
				t.Errorf("last chunk length %d outside (0, %d]", last.Len(), p.size)
			}
		}
	}
}
