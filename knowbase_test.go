package knowbase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritom/knowbase/ai/mock"
	"github.com/veritom/knowbase/core"
	"github.com/veritom/knowbase/ingest"
	"github.com/veritom/knowbase/search"
)

func TestOpenInMemoryIngestAndSearch(t *testing.T) {
	kb, err := Open("", WithInMemoryStore(), WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	defer kb.Close()

	pipeline, err := kb.NewPipeline()
	require.NoError(t, err)
	defer pipeline.Release()

	results, err := pipeline.Ingest(context.Background(), "issues", []ingest.Item{
		{SourceType: core.SourceTypeIssue, Content: "backup job stalls on network share"},
		{SourceType: core.SourceTypeIssue, Content: "backup job stalls on network share"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, ingest.StatusInserted, results[0].Outcome.Status)
	assert.Equal(t, ingest.StatusDuplicate, results[1].Outcome.Status)

	searcher, err := kb.NewSearcher()
	require.NoError(t, err)

	resp, err := searcher.Search(context.Background(), search.Request{Query: "backup job stalls"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, 0, resp.Results[0].Rank)
}

func TestOpenWarmsLexicalIndexFromDisk(t *testing.T) {
	dir := t.TempDir()

	kb, err := Open(dir, WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)

	pipeline, err := kb.NewPipeline()
	require.NoError(t, err)

	_, err = pipeline.Ingest(context.Background(), "issues", []ingest.Item{
		{SourceType: core.SourceTypeIssue, Content: "proxy returns stale responses after failover"},
	})
	require.NoError(t, err)
	pipeline.Release()
	require.NoError(t, kb.Close())

	reopened, err := Open(dir, WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, 1, reopened.Index().Count("issues"))

	searcher, err := reopened.NewSearcher()
	require.NoError(t, err)

	resp, err := searcher.Search(context.Background(), search.Request{Query: "stale responses after failover"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
}

func TestNewServerWiring(t *testing.T) {
	kb, err := Open("", WithInMemoryStore(), WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	defer kb.Close()

	srv, err := kb.NewServer()
	require.NoError(t, err)
	assert.NotNil(t, srv.Handler())
}
