package ingestion

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// ExtractTextFromPDF reads the text layer of a PDF. An empty layer falls back
// to the pdftotext CLI when it is installed.
func ExtractTextFromPDF(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	text, err := readPDF(f, info.Size())
	if err != nil {
		return "", fmt.Errorf("read pdf %s: %w", path, err)
	}
	if text == "" {
		text = pdftotext(path)
	}
	return text, nil
}

func readPDF(r io.ReaderAt, size int64) (string, error) {
	doc, err := pdf.NewReader(r, size)
	if err != nil {
		return "", err
	}
	plain, err := doc.GetPlainText()
	if err != nil {
		return "", err
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func pdftotext(path string) string {
	out, err := exec.Command("pdftotext", "-layout", path, "-").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
