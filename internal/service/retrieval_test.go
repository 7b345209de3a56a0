package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/chunker"
	"docchat/internal/domain"
	"docchat/internal/embedding"
	"docchat/internal/vectorindex"
)

func newTestService(t *testing.T, provider domain.EmbeddingProvider) (*Retrieval, *vectorindex.Flat) {
	t.Helper()
	splitter, err := chunker.New(300, 20)
	require.NoError(t, err)
	if provider == nil {
		provider = embedding.NewLocal(64)
	}
	index := vectorindex.NewFlat()
	batcher := embedding.NewBatcher(provider, 10, nil)
	return New(splitter, batcher, index, nil), index
}

type failingProvider struct{ err error }

func (f *failingProvider) Embed(context.Context, []string, domain.TaskType) ([][]float32, error) {
	return nil, f.err
}
func (f *failingProvider) Name() string { return "failing" }

func TestIngestAndRetrieveEndToEnd(t *testing.T) {
	svc, index := newTestService(t, nil)
	ctx := context.Background()

	doc := "NEW BOOK: The cat sat on the mat. The dog ran in the park."
	require.NoError(t, svc.Ingest(ctx, doc, "u1"))
	assert.Equal(t, 1, index.Len(), "a short document is a single chunk")

	texts, err := svc.Retrieve(ctx, "Where did the cat sit?", "u1", 3)
	require.NoError(t, err)
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "The cat sat on the mat")

	// the same index holds nothing for another owner
	texts, err = svc.Retrieve(ctx, "Where did the cat sit?", "u2", 3)
	require.NoError(t, err)
	assert.Empty(t, texts)
}

func TestRetrieveEmptyIndexIsSoft(t *testing.T) {
	svc, _ := newTestService(t, nil)

	texts, err := svc.Retrieve(context.Background(), "anything", "u1", 3)
	require.NoError(t, err, "an empty index is a normal state, not a failure")
	assert.Empty(t, texts)
}

func TestRetrieveOwnerScoped(t *testing.T) {
	svc, index := newTestService(t, nil)
	ctx := context.Background()

	aliceDocs := []string{
		"the cat sat on the red mat",
		"the cat chased the ball of yarn",
		"the cat slept in the warm sun",
	}
	bobDocs := []string{
		"the cat sat on the blue mat",
		"the cat sat near the door",
	}
	for _, d := range aliceDocs {
		require.NoError(t, svc.Ingest(ctx, d, "alice"))
	}
	for _, d := range bobDocs {
		require.NoError(t, svc.Ingest(ctx, d, "bob"))
	}
	require.Equal(t, 5, index.Len())

	texts, err := svc.Retrieve(ctx, "where did the cat sit?", "alice", 3)
	require.NoError(t, err)
	require.Len(t, texts, 3, "all of alice's records fit within the over-fetched candidates")
	assert.ElementsMatch(t, aliceDocs, texts)
	for _, got := range texts {
		assert.NotContains(t, bobDocs, got)
	}
}

func TestRetrieveFewerThanTopK(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	require.NoError(t, svc.Ingest(ctx, "a single document about cats", "u1"))

	texts, err := svc.Retrieve(ctx, "cats", "u1", 5)
	require.NoError(t, err)
	assert.Len(t, texts, 1, "fewer matches than topK is returned as-is, no re-query")
}

func TestIngestEmptyDocumentIsNoop(t *testing.T) {
	svc, index := newTestService(t, nil)

	require.NoError(t, svc.Ingest(context.Background(), "   \n\n  ", "u1"))
	assert.Zero(t, index.Len())
}

func TestIngestProviderFailureLeavesIndexUntouched(t *testing.T) {
	boom := errors.New("provider down")
	svc, index := newTestService(t, &failingProvider{err: boom})

	err := svc.Ingest(context.Background(), "some document text", "u1")
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, index.Len(), "nothing may be appended when embedding fails")
}

func TestRetrieveEmbeddingFailureIsHard(t *testing.T) {
	boom := errors.New("provider down")
	okSvc, index := newTestService(t, nil)
	require.NoError(t, okSvc.Ingest(context.Background(), "some document text", "u1"))

	splitter, err := chunker.New(300, 20)
	require.NoError(t, err)
	failing := New(splitter, embedding.NewBatcher(&failingProvider{err: boom}, 10, nil), index, nil)

	_, err = failing.Retrieve(context.Background(), "query", "u1", 3)
	assert.ErrorIs(t, err, boom)
}
