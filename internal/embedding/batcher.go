package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docchat/internal/domain"
)

var (
	// ErrProvider reports a failed embedding provider call.
	ErrProvider = errors.New("embedding: provider call failed")
	// ErrProviderResponse reports a provider response whose vector count does
	// not match the batch it was asked to embed. Trusting such a response
	// would silently misalign vectors and metadata.
	ErrProviderResponse = errors.New("embedding: provider returned wrong number of vectors")
)

// DefaultBatchSize is the number of texts sent per provider call.
const DefaultBatchSize = 10

// Batcher groups texts into fixed-size batches, embeds each batch with one
// provider call and stamps every resulting vector with a fresh id and its
// chunk metadata.
type Batcher struct {
	provider  domain.EmbeddingProvider
	batchSize int
	logger    *zap.Logger
}

// NewBatcher creates a Batcher around the given provider.
func NewBatcher(provider domain.EmbeddingProvider, batchSize int, logger *zap.Logger) *Batcher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Batcher{provider: provider, batchSize: batchSize, logger: logger}
}

// EmbedTexts embeds texts in contiguous batches of at most batchSize (the
// last batch may be shorter) and returns one record per input text, in input
// order. Batches run sequentially; the provider is trusted to return vectors
// in batch order but never trusted on count.
func (b *Batcher) EmbedTexts(ctx context.Context, texts []string, task domain.TaskType, ownerID string, extra map[string]string) ([]domain.Record, error) {
	records := make([]domain.Record, 0, len(texts))
	for start := 0; start < len(texts); start += b.batchSize {
		end := start + b.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]
		vectors, err := b.provider.Embed(ctx, batch, task)
		if err != nil {
			return nil, fmt.Errorf("embed batch at %d: %w", start, err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("%w: sent %d texts, got %d vectors", ErrProviderResponse, len(batch), len(vectors))
		}
		for i, vec := range vectors {
			records = append(records, domain.Record{
				ID:     uuid.NewString(),
				Vector: vec,
				Meta: domain.Metadata{
					Text:    batch[i],
					OwnerID: ownerID,
					Extra:   cloneExtra(extra),
				},
			})
		}
		b.logger.Debug("embedded batch",
			zap.String("provider", b.provider.Name()),
			zap.String("task", string(task)),
			zap.Int("size", len(batch)))
	}
	return records, nil
}

// EmbedText embeds a single text, e.g. a query.
func (b *Batcher) EmbedText(ctx context.Context, text string, task domain.TaskType, ownerID string) (domain.Record, error) {
	records, err := b.EmbedTexts(ctx, []string{text}, task, ownerID, nil)
	if err != nil {
		return domain.Record{}, err
	}
	return records[0], nil
}

// cloneExtra copies the caller-supplied metadata so records stay independent
// of the caller's map.
func cloneExtra(extra map[string]string) map[string]string {
	if len(extra) == 0 {
		return nil
	}
	out := make(map[string]string, len(extra))
	for k, v := range extra {
		out[k] = v
	}
	return out
}
