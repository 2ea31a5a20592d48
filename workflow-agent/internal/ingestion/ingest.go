package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/processing"
	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/storage"
	"go.uber.org/zap"
)

// DocumentCreator stores extracted documents.
type DocumentCreator interface {
	CreateDocument(ctx context.Context, d *storage.Document) error
}

// Result summarises one ingestion pass.
type Result struct {
	Documents []storage.Document
	Skipped   map[string]string // path -> reason
}

// Ingester extracts local files and stores them as documents.
type Ingester struct {
	docs DocumentCreator
	log  *zap.Logger
	now  func() time.Time
}

// NewIngester creates an ingester writing to docs.
func NewIngester(docs DocumentCreator, logger *zap.Logger) *Ingester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingester{docs: docs, log: logger.Named("ingestion"), now: time.Now}
}

// IngestDir stores every supported file under root. Files that cannot be
// read or have no text are skipped and reported; a storage failure aborts.
func (in *Ingester) IngestDir(ctx context.Context, root string) (*Result, error) {
	files, err := LoadLocalFiles(root)
	if err != nil {
		return nil, err
	}

	res := &Result{Skipped: map[string]string{}}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		doc, reason, err := in.ingestFile(ctx, path)
		if err != nil {
			return res, err
		}
		if reason != "" {
			in.log.Warn("Skipping file", zap.String("path", path), zap.String("reason", reason))
			res.Skipped[path] = reason
			continue
		}
		in.log.Info("Document stored",
			zap.String("path", path),
			zap.Int64("document_id", doc.ID),
			zap.Int("chars", len(doc.ExtractedText)))
		res.Documents = append(res.Documents, *doc)
	}
	return res, nil
}

func (in *Ingester) ingestFile(ctx context.Context, path string) (*storage.Document, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err.Error(), nil
	}
	text, err := ExtractText(path)
	if err != nil {
		return nil, err.Error(), nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, "no extractable text", nil
	}

	meta := processing.NewMetadata(path, "local", info.Size(), in.now())
	doc := &storage.Document{
		Filename:         filepath.Base(path),
		OriginalFilename: filepath.Base(path),
		FilePath:         meta.Path,
		FileSize:         meta.Size,
		ContentType:      meta.ContentType,
		ExtractedText:    text,
	}
	if err := in.docs.CreateDocument(ctx, doc); err != nil {
		return nil, "", err
	}
	return doc, "", nil
}
