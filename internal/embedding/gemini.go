package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"docchat/internal/domain"
)

// DefaultGeminiModel is the embedding model used when none is configured.
const DefaultGeminiModel = "text-embedding-004"

// Gemini embeds text through the Gemini API. The task type is forwarded so
// document and query embeddings land in the same retrieval space.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini embedding provider.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("embedding: missing Gemini API key")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding: create gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Embed returns one vector per text, in input order.
func (g *Gemini) Embed(ctx context.Context, texts []string, task domain.TaskType) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}
	resp, err := g.client.Models.EmbedContent(ctx, g.model, contents, &genai.EmbedContentConfig{
		TaskType: string(task),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	vectors := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		vectors[i] = e.Values
	}
	return vectors, nil
}

// Name returns the provider identifier.
func (g *Gemini) Name() string { return "gemini/" + g.model }
