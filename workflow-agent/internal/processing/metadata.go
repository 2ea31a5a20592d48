package processing

import (
	"mime"
	"path/filepath"
	"strings"
	"time"
)

// Metadata describes a source file before it is stored as a document.
type Metadata struct {
	Path        string
	Source      string // "local" or "upload"
	ImportedAt  time.Time
	Title       string
	ContentType string
	Size        int64
}

// NewMetadata derives the title and content type of path from its name.
func NewMetadata(path, source string, size int64, now time.Time) Metadata {
	base := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(base))

	ct := mime.TypeByExtension(ext)
	switch {
	case ext == ".md":
		ct = "text/markdown"
	case ext == ".txt":
		ct = "text/plain"
	case ct == "":
		ct = "application/octet-stream"
	}
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}

	return Metadata{
		Path:        path,
		Source:      source,
		ImportedAt:  now,
		Title:       strings.TrimSuffix(base, filepath.Ext(base)),
		ContentType: ct,
		Size:        size,
	}
}
