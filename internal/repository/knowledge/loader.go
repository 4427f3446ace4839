// Package knowledge reads the knowledge base file the index is built from.
package knowledge

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/view-avocats/assistant/internal/domain"
)

// Format is the detected file format.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatPDF      Format = "pdf"
)

// Source is the loaded corpus.
type Source struct {
	Path   string
	Format Format
	Text   string
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Load reads the whole file at path. A missing or unreadable file is a configuration error.
func Load(path string) (Source, error) {
	if path == "" {
		return Source{}, domain.NewConfigError("knowledge.path", "is required when knowledge is enabled")
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Source{}, domain.NewConfigError("knowledge.path", "file not found: "+path)
		}
		return Source{}, fmt.Errorf("stat knowledge file: %w", err)
	}
	if info.IsDir() {
		return Source{}, domain.NewConfigError("knowledge.path", path+" is a directory")
	}

	format, err := detectFormat(path)
	if err != nil {
		return Source{}, err
	}

	var text string
	switch format {
	case FormatPDF:
		text, err = readPDF(path)
	default:
		text, err = readText(path)
	}
	if err != nil {
		return Source{}, err
	}

	return Source{Path: path, Format: format, Text: text}, nil
}

func detectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", "":
		return FormatText, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	case ".pdf":
		return FormatPDF, nil
	default:
		return "", domain.NewConfigError("knowledge.path", "unsupported file type "+filepath.Ext(path))
	}
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read knowledge file: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return "", domain.NewConfigError("knowledge.path", "file is not valid UTF-8")
	}
	return string(data), nil
}

func readPDF(path string) (string, error) {
	f, rdr, err := pdf.Open(path)
	if err != nil {
		return "", domain.NewConfigError("knowledge.path", "cannot open pdf: "+err.Error())
	}
	defer f.Close()

	plain, err := rdr.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}
