package chat

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPromptIncludesPassagesAndQuestion(t *testing.T) {
	history := []Message{
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi there"},
	}
	passages := []string{"The cat sat on the mat.", "The dog ran in the park."}

	prompt := BuildPrompt("Where did the cat sit?", history, passages)

	assert.Contains(t, prompt, `QUESTION: "Where did the cat sit?"`)
	assert.Contains(t, prompt, "- The cat sat on the mat.")
	assert.Contains(t, prompt, "- The dog ran in the park.")
	assert.Contains(t, prompt, "user: hello")
	assert.Contains(t, prompt, "assistant: hi there")
}

func TestBuildPromptWindowsHistory(t *testing.T) {
	var history []Message
	for i := 0; i < 12; i++ {
		history = append(history, Message{Role: "user", Content: fmt.Sprintf("turn %d", i)})
	}

	prompt := BuildPrompt("q", history, nil)

	assert.NotContains(t, prompt, "turn 4")
	for i := 5; i < 12; i++ {
		assert.Contains(t, prompt, fmt.Sprintf("turn %d", i))
	}
}

func TestBuildPromptNoPassages(t *testing.T) {
	prompt := BuildPrompt("q", nil, nil)
	assert.Contains(t, prompt, "(no documents indexed yet)")
	assert.Contains(t, prompt, "(none)")
}

func TestStripReasoning(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"no_marker", "plain answer", "plain answer"},
		{"with_think", "<think>working it out</think>\nThe answer is 42.", "The answer is 42."},
		{"marker_only", "reasoning</think>  final", "final"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, StripReasoning(c.in))
		})
	}
}

func TestThinkFilterSwallowsLeadingBlock(t *testing.T) {
	var f thinkFilter
	tokens := []string{"<th", "ink>", "let me ", "reason", "</th", "ink>", "Hello", " world"}
	var out strings.Builder
	for _, tok := range tokens {
		out.WriteString(f.feed(tok))
	}
	assert.Equal(t, "Hello world", out.String())
}

func TestThinkFilterPassesThroughPlainStream(t *testing.T) {
	var f thinkFilter
	tokens := []string{"He", "llo", " world"}
	var out strings.Builder
	for _, tok := range tokens {
		out.WriteString(f.feed(tok))
	}
	assert.Equal(t, "Hello world", out.String())
}
