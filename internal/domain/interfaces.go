package domain

import "context"

// Chunker splits raw document text into bounded overlapping chunks.
type Chunker interface {
	Split(text string) []string
}

// EmbeddingProvider converts a batch of texts into one vector per text,
// in the same order. Vectors have a fixed dimension per model.
type EmbeddingProvider interface {
	Embed(ctx context.Context, texts []string, task TaskType) ([][]float32, error)
	Name() string
}

// Parser extracts plain text from raw file bytes given the file extension.
type Parser interface {
	Parse(data []byte, ext string) (string, error)
}

// Generator produces a prose answer from a fully assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	// GenerateStream returns a channel of answer tokens. The channel is
	// closed when the answer is complete, the stream fails, or ctx is
	// canceled. The sequence is finite and cannot be restarted.
	GenerateStream(ctx context.Context, prompt string) (<-chan string, error)
}

// Retriever is the retrieval-facing subset of the service exposed to the
// conversation layer.
type Retriever interface {
	Ingest(ctx context.Context, rawText, ownerID string) error
	Retrieve(ctx context.Context, query, ownerID string, topK int) ([]string, error)
}
