// Package ingestion turns local files into stored documents.
package ingestion

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ErrUnsupportedFileType is returned for files no extractor can read.
var ErrUnsupportedFileType = errors.New("unsupported file type")

// Extractor returns the plain text of a file.
type Extractor func(path string) (string, error)

var extractors = map[string]Extractor{
	".txt": readPlain,
	".md":  readPlain,
	".pdf": ExtractTextFromPDF,
}

// Supported reports whether ExtractText can read files with path's extension.
func Supported(path string) bool {
	_, ok := extractors[strings.ToLower(filepath.Ext(path))]
	return ok
}

// ExtractText picks an extractor by file extension.
func ExtractText(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	extract, ok := extractors[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFileType, ext)
	}
	return extract(path)
}

func readPlain(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return strings.ToValidUTF8(string(b), "�"), nil
	}
	return string(b), nil
}
