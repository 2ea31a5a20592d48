package graph

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const sourcePreviewLen = 200

// runKnowledgeBase makes sure every selected document has embeddings, then
// retrieves the chunks closest to the user query. Embeddings that already
// exist are never regenerated.
func (d *Dispatcher) runKnowledgeBase(ctx context.Context, log *zap.Logger, cfg *KnowledgeBaseConfig, state *State) NodeResult {
	hits, err := d.retrieve(ctx, log, cfg, state.UserQuery())
	if err != nil {
		log.Error("Knowledge base execution failed", zap.Error(err))
		return degraded(Contributions{
			KeyKnowledgeContext: "",
			KeySources:          []SourceRef{},
		}, err.Error())
	}

	blocks := make([]string, len(hits))
	sources := make([]SourceRef, len(hits))
	for i, h := range hits {
		blocks[i] = fmt.Sprintf("Document: %s\nContent: %s", h.DocumentName, h.ChunkText)
		sources[i] = SourceRef{
			DocumentID:      h.DocumentID,
			DocumentName:    h.DocumentName,
			SimilarityScore: h.SimilarityScore,
			ChunkText:       preview(h.ChunkText, sourcePreviewLen),
		}
	}
	log.Info("Knowledge base found relevant chunks", zap.Int("chunks", len(hits)))

	return succeeded(Contributions{
		KeyKnowledgeContext: strings.Join(blocks, "\n\n"),
		KeySources:          sources,
	})
}

func (d *Dispatcher) retrieve(ctx context.Context, log *zap.Logger, cfg *KnowledgeBaseConfig, query string) ([]SearchHit, error) {
	emb, err := d.connector.Embeddings(cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("embedding client: %w", err)
	}

	docs := cfg.Documents()
	for _, id := range docs {
		exists, err := emb.HasEmbeddings(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("checking embeddings for document %d: %w", id, err)
		}
		if exists {
			log.Debug("Document already has embeddings", zap.Int64("document_id", id))
			continue
		}
		log.Info("Generating embeddings for document", zap.Int64("document_id", id), zap.String("model", cfg.Model))
		n, err := emb.GenerateEmbeddings(ctx, id, cfg.Model, cfg.ChunkSize, cfg.ChunkOverlap)
		if err != nil {
			return nil, fmt.Errorf("generating embeddings for document %d: %w", id, err)
		}
		log.Info("Generated embeddings", zap.Int64("document_id", id), zap.Int("chunks", n))
	}

	var filter []int64
	if len(docs) > 0 {
		filter = docs
	}
	return emb.Search(ctx, query, cfg.TopK, filter, cfg.Model)
}

// preview truncates s to max runes, marking the cut with an ellipsis.
func preview(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
