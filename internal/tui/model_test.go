package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/chunker"
)

type stubRetriever struct {
	texts []string
}

func (r *stubRetriever) Ingest(_ context.Context, rawText, _ string) error {
	r.texts = append(r.texts, rawText)
	return nil
}

func (r *stubRetriever) Retrieve(context.Context, string, string, int) ([]string, error) {
	return nil, nil
}

type stubGenerator struct{}

func (stubGenerator) Generate(context.Context, string) (string, error) { return "", nil }

func (stubGenerator) GenerateStream(context.Context, string) (<-chan string, error) {
	ch := make(chan string)
	close(ch)
	return ch, nil
}

type stubParser struct{}

func (stubParser) Parse(data []byte, _ string) (string, error) { return string(data), nil }

func runUpload(t *testing.T, m Model, path string) (Model, uploadDoneMsg) {
	t.Helper()
	msg, ok := m.uploadCmd(path)().(uploadDoneMsg)
	require.True(t, ok)
	updated, _ := m.Update(msg)
	return updated.(Model), msg
}

func TestUploadPrefixesDocumentMarker(t *testing.T) {
	r := &stubRetriever{}
	m := New(r, stubGenerator{}, stubParser{}, "u1", 3, nil)
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("some document text"), 0o644))

	_, msg := runUpload(t, m, path)
	require.NoError(t, msg.err)

	require.Len(t, r.texts, 1)
	assert.True(t, strings.HasPrefix(r.texts[0], chunker.DocumentMarker))
	assert.Contains(t, r.texts[0], "some document text")
}

func TestUploadSkipsUnchangedFile(t *testing.T) {
	r := &stubRetriever{}
	m := New(r, stubGenerator{}, stubParser{}, "u1", 3, nil)
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("same old content"), 0o644))

	m, msg := runUpload(t, m, path)
	require.NoError(t, msg.err)
	assert.False(t, msg.skipped)

	m, msg = runUpload(t, m, path)
	assert.True(t, msg.skipped)
	assert.Len(t, r.texts, 1, "unchanged file must not be ingested twice")
	assert.Contains(t, m.status, "skipped")
}

func TestUploadReingestsChangedFile(t *testing.T) {
	r := &stubRetriever{}
	m := New(r, stubGenerator{}, stubParser{}, "u1", 3, nil)
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("first version"), 0o644))

	m, msg := runUpload(t, m, path)
	require.NoError(t, msg.err)

	require.NoError(t, os.WriteFile(path, []byte("second version"), 0o644))
	_, msg = runUpload(t, m, path)
	require.NoError(t, msg.err)
	assert.False(t, msg.skipped)
	assert.Len(t, r.texts, 2)
}

func TestUploadSeenSharedAcrossCallers(t *testing.T) {
	r := &stubRetriever{}
	seen := make(map[string]struct{})
	m := New(r, stubGenerator{}, stubParser{}, "u1", 3, seen)
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("indexed before the session"), 0o644))

	_, msg := runUpload(t, m, path)
	require.NoError(t, msg.err)
	assert.Len(t, seen, 1, "session records hashes in the shared set")
}
