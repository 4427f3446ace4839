package knowledge

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/view-avocats/assistant/internal/domain"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Text(t *testing.T) {
	path := writeFile(t, "kb.txt", []byte("Le cabinet est ouvert de 9h à 18h."))

	src, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.Format != FormatText {
		t.Errorf("Format = %q", src.Format)
	}
	if src.Text != "Le cabinet est ouvert de 9h à 18h." {
		t.Errorf("Text = %q", src.Text)
	}
}

func TestLoad_MarkdownStripsBOM(t *testing.T) {
	path := writeFile(t, "kb.md", append([]byte{0xEF, 0xBB, 0xBF}, []byte("# Honoraires")...))

	src, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.Format != FormatMarkdown || src.Text != "# Honoraires" {
		t.Errorf("unexpected source: %+v", src)
	}
}

func TestLoad_Empty(t *testing.T) {
	src, err := Load(writeFile(t, "empty.txt", nil))
	if err != nil {
		t.Fatalf("an empty file is a valid corpus: %v", err)
	}
	if src.Text != "" {
		t.Errorf("Text = %q", src.Text)
	}
}

func TestLoad_ConfigErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		path string
	}{
		{"empty path", ""},
		{"missing file", filepath.Join(dir, "nope.txt")},
		{"directory", dir},
		{"unsupported extension", writeFile(t, "kb.docx", []byte("x"))},
		{"invalid utf8", writeFile(t, "bad.txt", []byte{0xff, 0xfe, 0xfd})},
		{"broken pdf", writeFile(t, "kb.pdf", []byte("not a pdf"))},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(tc.path)
			if !errors.Is(err, domain.ErrConfig) {
				t.Fatalf("expected ErrConfig, got %v", err)
			}
		})
	}
}
