package chat

import (
	"fmt"
	"strings"
)

// Message is one turn of the conversation shown to the model as context.
type Message struct {
	Role    string
	Content string
}

// historyWindow caps how many past turns are included in the prompt.
const historyWindow = 7

// BuildPrompt assembles the generation prompt from the user question, the
// recent conversation history and the retrieved reference passages. The
// retrieved passages are passed through unchanged.
func BuildPrompt(question string, history []Message, passages []string) string {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	var b strings.Builder
	b.WriteString("You are a helpful and informative assistant that answers questions using\n")
	b.WriteString("the reference passages included below. Respond in complete sentences and\n")
	b.WriteString("include relevant background information. If the passages are irrelevant\n")
	b.WriteString("or unhelpful, you may answer from your own knowledge or ask the user to\n")
	b.WriteString("provide more context. Take the user's past turns into account.\n\n")

	b.WriteString("Conversation so far:\n")
	if len(history) == 0 {
		b.WriteString("(none)\n")
	}
	for _, m := range history {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}

	b.WriteString("\nReference passages:\n")
	if len(passages) == 0 {
		b.WriteString("(no documents indexed yet)\n")
	}
	for _, p := range passages {
		fmt.Fprintf(&b, "- %s\n", p)
	}

	fmt.Fprintf(&b, "\nQUESTION: %q\n\nKindly provide the answer.\n", question)
	return b.String()
}
