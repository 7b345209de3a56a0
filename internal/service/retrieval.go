// Package service orchestrates ingestion and retrieval over the vector index.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"docchat/internal/domain"
	"docchat/internal/embedding"
	"docchat/internal/vectorindex"
)

// OverFetchFactor is how many times topK candidates are requested from the
// index before owner filtering. The index has no per-owner partition, so a
// plain topK search could come back with nothing left after the filter when
// other owners' documents dominate the neighborhood.
const OverFetchFactor = 2

// Retrieval wires Chunker, Batcher and index together. It is the only
// component the conversation layer talks to.
type Retrieval struct {
	chunker domain.Chunker
	batcher *embedding.Batcher
	index   *vectorindex.Flat
	logger  *zap.Logger
}

// New creates the retrieval service around a shared index.
func New(chunker domain.Chunker, batcher *embedding.Batcher, index *vectorindex.Flat, logger *zap.Logger) *Retrieval {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retrieval{chunker: chunker, batcher: batcher, index: index, logger: logger}
}

// Ingest chunks rawText, embeds the chunks and appends them to the index in
// a single add, so a failure in any earlier stage leaves the index
// untouched. A document that chunks to nothing is a no-op.
//
// Re-ingesting a changed document appends fresh rows next to the stale
// ones; there is no dedup by content, document uniqueness is the caller's
// responsibility.
func (r *Retrieval) Ingest(ctx context.Context, rawText, ownerID string) error {
	chunks := r.chunker.Split(rawText)
	if len(chunks) == 0 {
		r.logger.Debug("nothing to ingest", zap.String("owner", ownerID))
		return nil
	}
	records, err := r.batcher.EmbedTexts(ctx, chunks, domain.TaskDocument, ownerID, nil)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	vectors := make([][]float32, len(records))
	for i, rec := range records {
		vectors[i] = rec.Vector
	}
	if err := r.index.Add(vectors, records); err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	r.logger.Info("ingested document",
		zap.String("owner", ownerID),
		zap.Int("chunks", len(chunks)),
		zap.Int("index_rows", r.index.Len()))
	return nil
}

// Retrieve embeds the query and returns up to topK chunk texts belonging to
// ownerID, closest first. Candidates are over-fetched by OverFetchFactor and
// filtered in one pass; if fewer than topK survive the filter, that is the
// result (no re-query with a larger k).
//
// An index with no documents yields an empty result, not an error: callers
// sit behind a chat surface where "nothing indexed yet" is a normal state.
func (r *Retrieval) Retrieve(ctx context.Context, query, ownerID string, topK int) ([]string, error) {
	if topK <= 0 {
		topK = 3
	}
	rows := r.index.Len()
	if rows == 0 {
		r.logger.Debug("retrieve on empty index", zap.String("owner", ownerID))
		return nil, nil
	}
	rec, err := r.batcher.EmbedText(ctx, query, domain.TaskQuery, ownerID)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	searchK := topK * OverFetchFactor
	if searchK > rows {
		searchK = rows
	}
	hits, err := r.index.Search(rec.Vector, searchK)
	if err != nil {
		if errors.Is(err, vectorindex.ErrEmptyIndex) {
			return nil, nil
		}
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	texts := make([]string, 0, topK)
	for _, hit := range hits {
		if hit.Record.Meta.OwnerID != ownerID {
			continue
		}
		texts = append(texts, hit.Record.Meta.Text)
		if len(texts) >= topK {
			break
		}
	}
	r.logger.Debug("retrieved",
		zap.String("owner", ownerID),
		zap.Int("candidates", len(hits)),
		zap.Int("matches", len(texts)))
	return texts, nil
}
