// Package embedding generates, stores and searches document chunk embeddings.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/graph"
	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/processing"
	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/storage"
	"go.uber.org/zap"
)

// ErrNoText is returned when a document has no extracted text to embed.
var ErrNoText = errors.New("document has no extracted text")

const defaultBatchSize = 64

// DocumentReader loads documents by id.
type DocumentReader interface {
	GetDocument(ctx context.Context, id int64) (*storage.Document, error)
}

// VectorIndex stores and searches chunk vectors.
type VectorIndex interface {
	CountEmbeddings(ctx context.Context, documentID int64) (int, error)
	ReplaceEmbeddings(ctx context.Context, documentID int64, model string, chunks []storage.ChunkEmbedding) error
	SearchSimilar(ctx context.Context, query []float32, topK int, documentIDs []int64) ([]storage.Match, error)
}

// EmbedderFactory builds an embedder for a credential and model.
type EmbedderFactory func(ctx context.Context, apiKey, model string) (processing.Embedder, error)

// Service holds the shared stores. Bind attaches the credential of one node.
type Service struct {
	docs        DocumentReader
	vectors     VectorIndex
	newEmbedder EmbedderFactory
	batchSize   int
	log         *zap.Logger
}

// NewService creates an embedding service. A batchSize of zero or less uses
// 64 chunks per provider request.
func NewService(docs DocumentReader, vectors VectorIndex, newEmbedder EmbedderFactory, batchSize int, logger *zap.Logger) *Service {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		docs:        docs,
		vectors:     vectors,
		newEmbedder: newEmbedder,
		batchSize:   batchSize,
		log:         logger.Named("embedding"),
	}
}

// Bind returns a capability that calls providers with apiKey.
func (s *Service) Bind(apiKey string) *Client {
	return &Client{svc: s, apiKey: apiKey}
}

// Client is a Service bound to one API key. It implements
// graph.EmbeddingCapability.
type Client struct {
	svc    *Service
	apiKey string
}

var _ graph.EmbeddingCapability = (*Client)(nil)

// HasEmbeddings reports whether any chunk of the document is embedded.
func (c *Client) HasEmbeddings(ctx context.Context, documentID int64) (bool, error) {
	n, err := c.svc.vectors.CountEmbeddings(ctx, documentID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GenerateEmbeddings chunks the document text, embeds every chunk and
// replaces the document's stored vectors. It returns the number of chunks.
func (c *Client) GenerateEmbeddings(ctx context.Context, documentID int64, model string, chunkSize, chunkOverlap int) (int, error) {
	doc, err := c.svc.docs.GetDocument(ctx, documentID)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(doc.ExtractedText) == "" {
		return 0, fmt.Errorf("document %d: %w", documentID, ErrNoText)
	}
	if chunkSize <= 0 {
		chunkSize = graph.DefaultChunkSize
	}
	chunks := processing.ChunkText(doc.ExtractedText, chunkSize, chunkOverlap)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("document %d: no text chunks generated", documentID)
	}

	emb, err := c.embedder(ctx, model)
	if err != nil {
		return 0, err
	}

	rows := make([]storage.ChunkEmbedding, 0, len(chunks))
	for start := 0; start < len(chunks); start += c.svc.batchSize {
		end := min(start+c.svc.batchSize, len(chunks))
		vecs, err := emb.Embed(ctx, chunks[start:end])
		if err != nil {
			return 0, fmt.Errorf("embed chunks %d-%d: %w", start, end-1, err)
		}
		for i, v := range vecs {
			rows = append(rows, storage.ChunkEmbedding{Index: start + i, Text: chunks[start+i], Vector: v})
		}
	}

	if err := c.svc.vectors.ReplaceEmbeddings(ctx, documentID, emb.Model(), rows); err != nil {
		return 0, err
	}
	c.svc.log.Info("Generated embeddings",
		zap.Int64("document_id", documentID),
		zap.String("model", emb.Model()),
		zap.Int("chunks", len(rows)))
	return len(rows), nil
}

// Search embeds query and returns the closest stored chunks.
func (c *Client) Search(ctx context.Context, query string, topK int, documentIDs []int64, model string) ([]graph.SearchHit, error) {
	if topK <= 0 {
		topK = graph.DefaultTopK
	}
	emb, err := c.embedder(ctx, model)
	if err != nil {
		return nil, err
	}
	vecs, err := emb.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := c.svc.vectors.SearchSimilar(ctx, vecs[0], topK, documentIDs)
	if err != nil {
		return nil, err
	}
	hits := make([]graph.SearchHit, len(matches))
	for i, m := range matches {
		hits[i] = graph.SearchHit{
			DocumentID:      m.DocumentID,
			DocumentName:    m.DocumentName,
			ChunkText:       m.ChunkText,
			SimilarityScore: m.Similarity,
		}
	}
	return hits, nil
}

func (c *Client) embedder(ctx context.Context, model string) (processing.Embedder, error) {
	if model == "" {
		model = graph.DefaultEmbeddingModel
	}
	return c.svc.newEmbedder(ctx, c.apiKey, model)
}
