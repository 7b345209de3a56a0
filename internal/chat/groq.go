// Package chat turns retrieved passages and conversation history into an
// LLM answer, optionally streamed token by token.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultBaseURL points at Groq's OpenAI-compatible endpoint.
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	// DefaultModel is the chat model used when none is configured.
	DefaultModel = "deepseek-r1-distill-llama-70b"

	systemPrompt = "You are a helpful assistant chatbot."
)

// Config configures the Groq generator.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
}

// Groq generates answers through an OpenAI-compatible chat completion API.
type Groq struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewGroq creates a generator from cfg. The API key is required.
func NewGroq(cfg Config) (*Groq, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("chat: missing Groq API key")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4096
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	return &Groq{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

func (g *Groq) request(prompt string) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	}
}

// Generate returns the complete answer for prompt.
func (g *Groq) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, g.request(prompt))
	if err != nil {
		return "", fmt.Errorf("chat: completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat: completion returned no choices")
	}
	return StripReasoning(strings.TrimSpace(resp.Choices[0].Message.Content)), nil
}

// GenerateStream returns a channel of answer tokens. A leading
// <think>...</think> block from reasoning models is filtered out before
// tokens reach the channel. The channel closes on completion, stream error
// or context cancellation; the sequence cannot be restarted.
func (g *Groq) GenerateStream(ctx context.Context, prompt string) (<-chan string, error) {
	stream, err := g.client.CreateChatCompletionStream(ctx, g.request(prompt))
	if err != nil {
		return nil, fmt.Errorf("chat: open stream: %w", err)
	}
	out := make(chan string)
	go func() {
		defer close(out)
		defer stream.Close()
		var filter thinkFilter
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				// a mid-stream failure ends the answer early
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			tok := filter.feed(resp.Choices[0].Delta.Content)
			if tok == "" {
				continue
			}
			select {
			case out <- tok:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// StripReasoning removes everything up to and including the first
// </think> marker that reasoning models prepend to their answers.
func StripReasoning(s string) string {
	if _, after, ok := strings.Cut(s, "</think>"); ok {
		return strings.TrimSpace(after)
	}
	return s
}

// thinkFilter drops a leading <think>...</think> block from a token stream.
// Tokens are buffered until it is clear whether the stream opens with the
// marker; afterwards tokens pass through untouched.
type thinkFilter struct {
	buf        strings.Builder
	swallowing bool
	done       bool
}

const (
	thinkOpen  = "<think>"
	thinkClose = "</think>"
)

func (f *thinkFilter) feed(tok string) string {
	if f.done {
		return tok
	}
	f.buf.WriteString(tok)
	s := f.buf.String()
	if !f.swallowing {
		trimmed := strings.TrimLeft(s, " \t\n")
		if len(trimmed) < len(thinkOpen) {
			if strings.HasPrefix(thinkOpen, trimmed) {
				// could still turn into the opening marker, keep buffering
				return ""
			}
			f.done = true
			return s
		}
		if !strings.HasPrefix(trimmed, thinkOpen) {
			f.done = true
			return s
		}
		f.swallowing = true
	}
	if i := strings.Index(s, thinkClose); i >= 0 {
		f.done = true
		return strings.TrimLeft(s[i+len(thinkClose):], " \n")
	}
	return ""
}
