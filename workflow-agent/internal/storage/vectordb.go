package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

// ChunkEmbedding is one embedded chunk of a document.
type ChunkEmbedding struct {
	Index  int
	Text   string
	Vector []float32
}

// Match is a chunk returned by similarity search.
type Match struct {
	DocumentID   int64
	DocumentName string
	ChunkText    string
	Similarity   float64
}

// VectorStore keeps chunk embeddings in a pgvector column.
type VectorStore struct {
	db  DBPool
	log *zap.Logger
}

// NewVectorStore creates a vector store on db.
func NewVectorStore(db DBPool, logger *zap.Logger) *VectorStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VectorStore{db: db, log: logger.Named("vectordb")}
}

// CountEmbeddings returns how many chunks of a document are embedded.
func (s *VectorStore) CountEmbeddings(ctx context.Context, documentID int64) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM document_embeddings WHERE document_id = $1", documentID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count embeddings: %w", err)
	}
	return n, nil
}

// ReplaceEmbeddings swaps every embedding of a document for chunks in one
// transaction.
func (s *VectorStore) ReplaceEmbeddings(ctx context.Context, documentID int64, model string, chunks []ChunkEmbedding) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
			s.log.Error("Failed to rollback transaction", zap.Error(rbErr))
		}
	}()

	if _, err := tx.Exec(ctx, "DELETE FROM document_embeddings WHERE document_id = $1", documentID); err != nil {
		return fmt.Errorf("delete old embeddings: %w", err)
	}
	for _, c := range chunks {
		_, err := tx.Exec(ctx,
			"INSERT INTO document_embeddings (document_id, chunk_index, chunk_text, model, embedding) VALUES ($1, $2, $3, $4, $5)",
			documentID, c.Index, c.Text, model, pgvector.NewVector(c.Vector))
		if err != nil {
			return fmt.Errorf("insert chunk %d: %w", c.Index, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// SearchSimilar returns the topK chunks closest to query by cosine distance.
// Only rows embedded with the query's dimension are compared; a nil
// documentIDs searches every document.
func (s *VectorStore) SearchSimilar(ctx context.Context, query []float32, topK int, documentIDs []int64) ([]Match, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT e.document_id, d.original_filename, e.chunk_text, 1 - (e.embedding <=> $1) AS similarity
FROM document_embeddings e
JOIN documents d ON d.id = e.document_id
WHERE vector_dims(e.embedding) = $2`)
	args := []any{pgvector.NewVector(query), len(query)}
	if documentIDs != nil {
		args = append(args, documentIDs)
		sb.WriteString(" AND e.document_id = ANY($" + strconv.Itoa(len(args)) + ")")
	}
	args = append(args, topK)
	sb.WriteString(" ORDER BY e.embedding <=> $1 LIMIT $" + strconv.Itoa(len(args)))

	rows, err := s.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var results []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.DocumentID, &m.DocumentName, &m.ChunkText, &m.Similarity); err != nil {
			return nil, err
		}
		results = append(results, m)
	}
	return results, rows.Err()
}
