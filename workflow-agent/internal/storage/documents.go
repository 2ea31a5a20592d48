package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Document is an uploaded file and its extracted text.
type Document struct {
	ID               int64
	Filename         string
	OriginalFilename string
	FilePath         string
	FileSize         int64
	ContentType      string
	ExtractedText    string
	CreatedAt        time.Time
}

// DocumentStore persists documents.
type DocumentStore struct {
	db DBPool
}

// NewDocumentStore creates a document store on db.
func NewDocumentStore(db DBPool) *DocumentStore {
	return &DocumentStore{db: db}
}

// CreateDocument inserts d and fills in its id and creation time.
func (s *DocumentStore) CreateDocument(ctx context.Context, d *Document) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO documents (filename, original_filename, file_path, file_size, content_type, extracted_text)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`,
		d.Filename, d.OriginalFilename, d.FilePath, d.FileSize, d.ContentType, d.ExtractedText,
	).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// GetDocument loads a document by id.
func (s *DocumentStore) GetDocument(ctx context.Context, id int64) (*Document, error) {
	var d Document
	var text *string
	err := s.db.QueryRow(ctx,
		`SELECT id, filename, original_filename, file_path, file_size, content_type, extracted_text, created_at
FROM documents WHERE id = $1`, id,
	).Scan(&d.ID, &d.Filename, &d.OriginalFilename, &d.FilePath, &d.FileSize, &d.ContentType, &text, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrDocumentNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get document %d: %w", id, err)
	}
	if text != nil {
		d.ExtractedText = *text
	}
	return &d, nil
}

// ListDocuments returns every document without its text, newest first.
func (s *DocumentStore) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, filename, original_filename, file_path, file_size, content_type, created_at
FROM documents ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Filename, &d.OriginalFilename, &d.FilePath, &d.FileSize, &d.ContentType, &d.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
