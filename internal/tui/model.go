// Package tui is the terminal chat surface over the retrieval service.
package tui

import (
	"context"
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docchat/internal/chat"
	"docchat/internal/chunker"
	"docchat/internal/domain"
)

const greeting = "Hi! I answer questions about your documents. Use /upload <path> to add one."

type (
	answerStartMsg struct {
		passages int
		tokens   <-chan string
	}
	tokenMsg      string
	answerDoneMsg struct{}
	uploadDoneMsg struct {
		path    string
		hash    string
		skipped bool
		err     error
	}
	errMsg struct{ err error }
)

// Model is the Bubble Tea model for the chat application.
type Model struct {
	retriever domain.Retriever
	generator domain.Generator
	parser    domain.Parser

	input    textinput.Model
	viewport viewport.Model

	ownerID string
	topK    int
	seen    map[string]struct{}

	history   []chat.Message
	streaming string
	tokens    <-chan string
	busy      bool
	status    string
	ready     bool
}

// New creates a chat model. ownerID scopes ingestion and retrieval to one
// user for the lifetime of the session. seen holds content hashes of
// documents already indexed, so unchanged re-uploads are skipped; pass nil
// to start an empty session.
func New(retriever domain.Retriever, generator domain.Generator, parser domain.Parser, ownerID string, topK int, seen map[string]struct{}) Model {
	if seen == nil {
		seen = make(map[string]struct{})
	}
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask something, or /upload <path>"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		retriever: retriever,
		generator: generator,
		parser:    parser,
		input:     ti,
		viewport:  vp,
		ownerID:   ownerID,
		topK:      topK,
		seen:      seen,
		history:   []chat.Message{{Role: "assistant", Content: greeting}},
		status:    "Ready.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and answer-stream events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptStyle.GetFrameSize()
		_, qh := inputBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header, status, input frame, spacer
		vh := msg.Height - reserved - th
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = maxInt(20, msg.Width)
		m.viewport.Height = vh
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			if m.busy {
				return m, nil
			}
			line := strings.TrimSpace(m.input.Value())
			if line == "" {
				return m, nil
			}
			m.input.Reset()
			if path, ok := strings.CutPrefix(line, "/upload "); ok {
				m.busy = true
				m.status = "Uploading " + path + "..."
				return m, m.uploadCmd(strings.TrimSpace(path))
			}
			m.history = append(m.history, chat.Message{Role: "user", Content: line})
			m.busy = true
			m.status = "Thinking..."
			m.viewport.SetContent(m.renderTranscript())
			m.viewport.GotoBottom()
			return m, m.askCmd(line)
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}

	case answerStartMsg:
		m.tokens = msg.tokens
		m.streaming = ""
		if msg.passages == 0 {
			m.status = "No matching passages, answering without document context..."
		} else {
			m.status = fmt.Sprintf("Answering from %d passage(s)...", msg.passages)
		}
		return m, waitForToken(m.tokens)

	case tokenMsg:
		m.streaming += string(msg)
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, waitForToken(m.tokens)

	case answerDoneMsg:
		answer := strings.TrimSpace(m.streaming)
		if answer == "" {
			answer = "(no answer)"
		}
		m.history = append(m.history, chat.Message{Role: "assistant", Content: answer})
		m.streaming = ""
		m.tokens = nil
		m.busy = false
		m.status = "Ready."
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil

	case uploadDoneMsg:
		m.busy = false
		switch {
		case msg.err != nil:
			m.status = "Upload failed: " + msg.err.Error()
		case msg.skipped:
			m.status = filepath.Base(msg.path) + " is already indexed, skipped."
		default:
			m.seen[msg.hash] = struct{}{}
			m.status = "Indexed " + filepath.Base(msg.path) + "."
		}
		return m, nil

	case errMsg:
		m.busy = false
		m.tokens = nil
		m.status = "Error: " + msg.err.Error()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("docchat")
	transcript := transcriptStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + transcript + "\n" + input + "\n" + status
}

// askCmd retrieves context for the question and opens the answer stream.
func (m Model) askCmd(question string) tea.Cmd {
	history := make([]chat.Message, len(m.history))
	copy(history, m.history)
	return func() tea.Msg {
		ctx := context.Background()
		passages, err := m.retriever.Retrieve(ctx, question, m.ownerID, m.topK)
		if err != nil {
			return errMsg{err}
		}
		prompt := chat.BuildPrompt(question, history, passages)
		tokens, err := m.generator.GenerateStream(ctx, prompt)
		if err != nil {
			return errMsg{err}
		}
		return answerStartMsg{passages: len(passages), tokens: tokens}
	}
}

// uploadCmd parses and ingests one file. Content already indexed this
// session is skipped by hash. Failures are reported per file and never
// touch what is already indexed.
func (m Model) uploadCmd(path string) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return uploadDoneMsg{path: path, err: err}
		}
		hash := fmt.Sprintf("%x", md5.Sum(data))
		if _, dup := m.seen[hash]; dup {
			return uploadDoneMsg{path: path, skipped: true}
		}
		text, err := m.parser.Parse(data, filepath.Ext(path))
		if err != nil {
			return uploadDoneMsg{path: path, err: err}
		}
		if err := m.retriever.Ingest(context.Background(), chunker.DocumentMarker+text, m.ownerID); err != nil {
			return uploadDoneMsg{path: path, err: err}
		}
		return uploadDoneMsg{path: path, hash: hash}
	}
}

// waitForToken pumps the next token from the answer stream into the
// program's message loop.
func waitForToken(tokens <-chan string) tea.Cmd {
	return func() tea.Msg {
		tok, ok := <-tokens
		if !ok {
			return answerDoneMsg{}
		}
		return tokenMsg(tok)
	}
}

func (m Model) renderTranscript() string {
	var b strings.Builder
	for i, msg := range m.history {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch msg.Role {
		case "user":
			b.WriteString(userStyle.Render("You: ") + msg.Content)
		default:
			b.WriteString(assistantStyle.Render("Assistant: ") + msg.Content)
		}
	}
	if m.streaming != "" {
		b.WriteString("\n\n" + assistantStyle.Render("Assistant: ") + m.streaming)
	}
	return b.String()
}

var (
	headerStyle     = lipgloss.NewStyle().Bold(true)
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	userStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
