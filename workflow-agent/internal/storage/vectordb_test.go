package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return mockPool
}

func TestVectorStore_CountEmbeddings(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM document_embeddings WHERE document_id = $1")).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(4))

	n, err := NewVectorStore(mockPool, nil).CountEmbeddings(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestVectorStore_ReplaceEmbeddings(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces rows in one transaction", func(t *testing.T) {
		mockPool := newMockPool(t)
		mockPool.ExpectBegin()
		mockPool.ExpectExec(regexp.QuoteMeta("DELETE FROM document_embeddings WHERE document_id = $1")).
			WithArgs(int64(9)).
			WillReturnResult(pgxmock.NewResult("DELETE", 2))
		insert := regexp.QuoteMeta("INSERT INTO document_embeddings (document_id, chunk_index, chunk_text, model, embedding)")
		mockPool.ExpectExec(insert).
			WithArgs(int64(9), 0, "first", "m", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectExec(insert).
			WithArgs(int64(9), 1, "second", "m", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectCommit()

		err := NewVectorStore(mockPool, nil).ReplaceEmbeddings(ctx, 9, "m", []ChunkEmbedding{
			{Index: 0, Text: "first", Vector: []float32{0.1, 0.2}},
			{Index: 1, Text: "second", Vector: []float32{0.3, 0.4}},
		})
		require.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("rolls back when an insert fails", func(t *testing.T) {
		mockPool := newMockPool(t)
		insertErr := errors.New("dimension mismatch")

		mockPool.ExpectBegin()
		mockPool.ExpectExec("DELETE FROM document_embeddings").
			WithArgs(int64(9)).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))
		mockPool.ExpectExec("INSERT INTO document_embeddings").
			WithArgs(int64(9), 0, "first", "m", pgxmock.AnyArg()).
			WillReturnError(insertErr)
		mockPool.ExpectRollback()

		err := NewVectorStore(mockPool, nil).ReplaceEmbeddings(ctx, 9, "m", []ChunkEmbedding{{Index: 0, Text: "first", Vector: []float32{1}}})
		require.Error(t, err)
		assert.ErrorIs(t, err, insertErr)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		mockPool := newMockPool(t)
		beginErr := errors.New("cannot begin tx")
		mockPool.ExpectBegin().WillReturnError(beginErr)

		err := NewVectorStore(mockPool, nil).ReplaceEmbeddings(ctx, 1, "m", nil)
		assert.ErrorIs(t, err, beginErr)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestVectorStore_SearchSimilar(t *testing.T) {
	ctx := context.Background()
	columns := []string{"document_id", "original_filename", "chunk_text", "similarity"}

	t.Run("restricted to documents", func(t *testing.T) {
		mockPool := newMockPool(t)
		mockPool.ExpectQuery(`vector_dims\(e\.embedding\) = \$2 AND e\.document_id = ANY\(\$3\) ORDER BY e\.embedding <=> \$1 LIMIT \$4`).
			WithArgs(pgxmock.AnyArg(), 3, []int64{1, 2}, 5).
			WillReturnRows(pgxmock.NewRows(columns).
				AddRow(int64(1), "a.pdf", "alpha", 0.92).
				AddRow(int64(2), "b.pdf", "beta", 0.81))

		matches, err := NewVectorStore(mockPool, nil).SearchSimilar(ctx, []float32{1, 0, 0}, 5, []int64{1, 2})
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, Match{DocumentID: 1, DocumentName: "a.pdf", ChunkText: "alpha", Similarity: 0.92}, matches[0])
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("all documents", func(t *testing.T) {
		mockPool := newMockPool(t)
		mockPool.ExpectQuery(`vector_dims\(e\.embedding\) = \$2 ORDER BY e\.embedding <=> \$1 LIMIT \$3`).
			WithArgs(pgxmock.AnyArg(), 2, 4).
			WillReturnRows(pgxmock.NewRows(columns))

		matches, err := NewVectorStore(mockPool, nil).SearchSimilar(ctx, []float32{1, 0}, 4, nil)
		require.NoError(t, err)
		assert.Empty(t, matches)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestDocumentStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	t.Run("create", func(t *testing.T) {
		mockPool := newMockPool(t)
		mockPool.ExpectQuery("INSERT INTO documents").
			WithArgs("guide.pdf", "guide.pdf", "/data/guide.pdf", int64(42), "application/pdf", "text").
			WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), now))

		d := &Document{Filename: "guide.pdf", OriginalFilename: "guide.pdf", FilePath: "/data/guide.pdf", FileSize: 42, ContentType: "application/pdf", ExtractedText: "text"}
		require.NoError(t, NewDocumentStore(mockPool).CreateDocument(ctx, d))
		assert.Equal(t, int64(7), d.ID)
		assert.Equal(t, now, d.CreatedAt)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("get", func(t *testing.T) {
		mockPool := newMockPool(t)
		text := "hello world"
		mockPool.ExpectQuery("FROM documents WHERE id = \\$1").
			WithArgs(int64(7)).
			WillReturnRows(pgxmock.NewRows([]string{"id", "filename", "original_filename", "file_path", "file_size", "content_type", "extracted_text", "created_at"}).
				AddRow(int64(7), "g.pdf", "guide.pdf", "/d/g.pdf", int64(1), "application/pdf", &text, now))

		d, err := NewDocumentStore(mockPool).GetDocument(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, "guide.pdf", d.OriginalFilename)
		assert.Equal(t, "hello world", d.ExtractedText)
	})

	t.Run("get missing", func(t *testing.T) {
		mockPool := newMockPool(t)
		mockPool.ExpectQuery("FROM documents WHERE id = \\$1").
			WithArgs(int64(8)).
			WillReturnError(pgx.ErrNoRows)

		_, err := NewDocumentStore(mockPool).GetDocument(ctx, 8)
		assert.ErrorIs(t, err, ErrDocumentNotFound)
	})
}

func TestMigrate(t *testing.T) {
	mockPool := newMockPool(t)
	for range schema {
		mockPool.ExpectExec("CREATE").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	}
	require.NoError(t, Migrate(context.Background(), mockPool))
	assert.NoError(t, mockPool.ExpectationsWereMet())

	failing := newMockPool(t)
	failing.ExpectExec("CREATE EXTENSION").WillReturnError(errors.New("permission denied"))
	err := Migrate(context.Background(), failing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration step 1")
}
