package search

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritom/knowbase/ai"
	"github.com/veritom/knowbase/ai/mock"
	"github.com/veritom/knowbase/config"
	"github.com/veritom/knowbase/core"
	"github.com/veritom/knowbase/lexical"
	"github.com/veritom/knowbase/storage"
	"github.com/veritom/knowbase/storage/badger"
)

// fixture wires a searcher over an in-memory store with a table-driven
// embedder, so tests control every vector exactly.
type fixture struct {
	store    storage.VectorStore
	index    *lexical.Index
	embedder *mock.MockEmbedder
	reranker *mock.MockReranker
	settings *config.Settings
	searcher *Searcher
	vectors  map[string][]float32
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := badger.NewMemoryVectorStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	f := &fixture{
		store:    store,
		index:    lexical.NewIndex(),
		embedder: mock.NewMockEmbedder(),
		reranker: mock.NewMockReranker(),
		vectors:  make(map[string][]float32),
	}
	f.embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if v, ok := f.vectors[text]; ok {
			return v, nil
		}
		return []float32{0, 0, 1}, nil
	}

	f.settings, err = config.NewSettings()
	require.NoError(t, err)

	provider := mock.NewMockProviderWithServices(f.embedder, f.reranker, mock.NewMockSummarizer())
	f.searcher, err = NewSearcher(store, f.index, provider, f.settings)
	require.NoError(t, err)
	return f
}

// addDoc stores and indexes a document with an explicit embedding.
func (f *fixture) addDoc(t *testing.T, collection, content string, embedding []float32, ticket string) *core.Document {
	t.Helper()
	doc := &core.Document{
		ID:         core.NewDocumentID(),
		SourceType: core.SourceTypeFromCollection(collection),
		Content:    content,
		Embedding:  embedding,
	}
	if ticket != "" {
		doc.Metadata = doc.Metadata.Set(core.MetaTicketKey, core.String(ticket))
	}
	doc.ContentHash = core.HashDocument(doc)
	require.NoError(t, f.store.Insert(context.Background(), collection, doc))
	f.index.Add(collection, doc.ID, doc.Content)
	return doc
}

// scoreByContent replaces the reranker with fixed absolute scores per
// document content; unlisted documents score 0.1.
func (f *fixture) scoreByContent(scores map[string]float64) {
	f.reranker.RerankFunc = func(ctx context.Context, query string, documents []string, topN int) ([]ai.RerankResult, error) {
		results := make([]ai.RerankResult, len(documents))
		for i, doc := range documents {
			score := 0.1
			if s, ok := scores[doc]; ok {
				score = s
			}
			results[i] = ai.RerankResult{Index: i, Score: score}
		}
		return results, nil
	}
}

func TestSearchOrdersByRerankScore(t *testing.T) {
	f := newFixture(t)
	f.vectors["login fails"] = []float32{1, 0, 0}
	f.addDoc(t, "issues", "users see 500 errors on login", []float32{0.9, 0.1, 0}, "")
	f.addDoc(t, "issues", "login page styling tweak", []float32{0.7, 0.5, 0}, "")
	f.addDoc(t, "confluence_pages", "how to configure SSO for login", []float32{0.5, 0.7, 0}, "")
	f.scoreByContent(map[string]float64{
		"users see 500 errors on login":  0.95,
		"how to configure SSO for login": 0.6,
		"login page styling tweak":       0.3,
	})

	resp, err := f.searcher.Search(context.Background(), Request{Query: "login fails"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 3)
	assert.False(t, resp.Degraded)

	assert.Equal(t, "users see 500 errors on login", resp.Results[0].Document.Content)
	assert.Equal(t, core.SourceTypeIssue, resp.Results[0].SourceType)
	assert.Equal(t, "how to configure SSO for login", resp.Results[1].Document.Content)
	assert.Equal(t, core.SourceTypeConfluencePage, resp.Results[1].SourceType)

	for i, r := range resp.Results {
		assert.Equal(t, i, r.Rank)
		assert.LessOrEqual(t, r.Similarity, maxNonExactSimilarity, "1.0 is reserved for exact matches")
		if i > 0 {
			assert.GreaterOrEqual(t, resp.Results[i-1].Similarity, r.Similarity)
		}
	}
}

func TestSearchDeduplicatesAcrossCollections(t *testing.T) {
	f := newFixture(t)
	f.vectors["deploy failure"] = []float32{1, 0, 0}
	f.addDoc(t, "issues", "deploy failed with exit code 1", []float32{0.9, 0, 0}, "")

	// The same issue mirrored into a second collection carries the same
	// content hash.
	mirror := &core.Document{
		ID:         core.NewDocumentID(),
		SourceType: core.SourceTypeIssue,
		Content:    "deploy failed with exit code 1",
		Embedding:  []float32{0.9, 0, 0},
	}
	mirror.ContentHash = core.HashDocument(mirror)
	require.NoError(t, f.store.Insert(context.Background(), "jira_tickets", mirror))
	f.index.Add("jira_tickets", mirror.ID, mirror.Content)

	f.scoreByContent(map[string]float64{"deploy failed with exit code 1": 0.8})

	resp, err := f.searcher.Search(context.Background(), Request{Query: "deploy failure"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1, "identical content retrieved from two collections collapses to one result")
}

func TestSearchExactTicketBoost(t *testing.T) {
	// Scenario: the ticket document scores poorly on pure similarity but the
	// query names it, so it must come first with similarity 1.0.
	f := newFixture(t)
	f.vectors["PROJ-42"] = []float32{1, 0, 0}
	f.addDoc(t, "issues", "high similarity unrelated issue", []float32{0.95, 0, 0}, "")
	f.addDoc(t, "jira_tickets", "billing export crash", []float32{0, 0.1, 0.9}, "PROJ-42")
	f.scoreByContent(map[string]float64{
		"high similarity unrelated issue": 0.9,
		"billing export crash":            0.25,
	})

	resp, err := f.searcher.Search(context.Background(), Request{Query: "PROJ-42"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)

	first := resp.Results[0]
	assert.Equal(t, "billing export crash", first.Document.Content)
	assert.Equal(t, 1.0, first.Similarity)
	assert.Equal(t, 0, first.Rank)
	assert.True(t, first.Exact)
}

func TestSearchTicketBoostViaDirectLookup(t *testing.T) {
	// With a candidate limit of 1, the weakly-matching ticket document is
	// truncated out of the pool, so the booster must reach it by direct
	// store lookup.
	f := newFixture(t)
	f.vectors["runbook PROJ-7"] = []float32{1, 0, 0}
	f.addDoc(t, "issues", "runbook steps", []float32{0.9, 0, 0}, "")
	doc := f.addDoc(t, "issues", "archived billing defect", []float32{-1, 0, 0}, "PROJ-7")
	f.scoreByContent(map[string]float64{"runbook steps": 0.7})

	provider := mock.NewMockProviderWithServices(f.embedder, f.reranker, mock.NewMockSummarizer())
	searcher, err := NewSearcher(f.store, f.index, provider, f.settings, WithCandidateLimit(1))
	require.NoError(t, err)

	resp, err := searcher.Search(context.Background(), Request{Query: "runbook PROJ-7"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, doc.ID, resp.Results[0].Document.ID)
	assert.True(t, resp.Results[0].Exact)
	assert.Equal(t, 1.0, resp.Results[0].Similarity)
}

func TestSearchTicketOnlyLookup(t *testing.T) {
	f := newFixture(t)
	doc := f.addDoc(t, "jira_tickets", "payment retries ticket", []float32{0, 1, 0}, "PAY-9")

	resp, err := f.searcher.Search(context.Background(), Request{TicketKey: "PAY-9"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, doc.ID, resp.Results[0].Document.ID)
	assert.Equal(t, 1.0, resp.Results[0].Similarity)
	assert.True(t, resp.Results[0].Exact)

	resp, err = f.searcher.Search(context.Background(), Request{TicketKey: "PAY-404"})
	require.NoError(t, err)
	assert.Empty(t, resp.Results, "unknown ticket resolves to no matches, not an error")
}

func TestSearchThresholdDropsWeakResults(t *testing.T) {
	// Scenario: threshold 0.9 against a corpus whose best match scores 0.5
	// returns an empty results array, not an error.
	f := newFixture(t)
	f.vectors["obscure query"] = []float32{1, 0, 0}
	f.addDoc(t, "issues", "vaguely related issue", []float32{0.6, 0.4, 0}, "")
	f.scoreByContent(map[string]float64{"vaguely related issue": 0.5})
	require.NoError(t, f.settings.SetSimilarityThreshold(0.9))

	resp, err := f.searcher.Search(context.Background(), Request{Query: "obscure query"})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.False(t, resp.Degraded)
}

func TestSearchDegradesWhenRerankerUnavailable(t *testing.T) {
	// Scenario: reranker down → results still come back, ordered by fused
	// score, flagged degraded.
	f := newFixture(t)
	f.vectors["cache eviction"] = []float32{1, 0, 0}
	f.addDoc(t, "issues", "cache eviction storm after deploy", []float32{0.95, 0.05, 0}, "")
	f.addDoc(t, "issues", "eviction policy documentation gap", []float32{0.5, 0.5, 0}, "")
	f.reranker.RerankFunc = func(ctx context.Context, query string, documents []string, topN int) ([]ai.RerankResult, error) {
		return nil, ai.ErrRerankerUnavailable
	}

	resp, err := f.searcher.Search(context.Background(), Request{Query: "cache eviction"})
	require.NoError(t, err)
	assert.True(t, resp.Degraded)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "cache eviction storm after deploy", resp.Results[0].Document.Content,
		"fused dense/sparse order survives the fallback")
}

func TestSearchEmptyCorpus(t *testing.T) {
	f := newFixture(t)

	resp, err := f.searcher.Search(context.Background(), Request{Query: "anything at all"})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestSearchEmptyRequestRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.searcher.Search(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = f.searcher.Search(context.Background(), Request{Query: "   "})
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSearchFatalStoreErrorAborts(t *testing.T) {
	f := newFixture(t)
	f.addDoc(t, "issues", "some issue", []float32{1, 0, 0}, "")
	require.NoError(t, f.store.Close())

	_, err := f.searcher.Search(context.Background(), Request{Query: "some issue"})
	assert.ErrorIs(t, err, storage.ErrStoreUnavailable,
		"fatal errors abort the query instead of returning a truncated list")
}

func TestSearchMaxResultsTruncates(t *testing.T) {
	f := newFixture(t)
	f.vectors["worker pool"] = []float32{1, 0, 0}
	scores := map[string]float64{}
	for _, content := range []string{
		"worker pool exhaustion alpha",
		"worker pool exhaustion beta",
		"worker pool exhaustion gamma",
	} {
		f.addDoc(t, "issues", content, []float32{0.9, 0.1, 0}, "")
		scores[content] = 0.8
	}
	f.scoreByContent(scores)

	resp, err := f.searcher.Search(context.Background(), Request{Query: "worker pool", MaxResults: 2})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 2)
}

func TestSearchSummaryIsBestEffort(t *testing.T) {
	f := newFixture(t)
	f.vectors["tls handshake"] = []float32{1, 0, 0}
	f.addDoc(t, "issues", "tls handshake timeout behind proxy", []float32{0.9, 0, 0}, "")
	f.scoreByContent(map[string]float64{"tls handshake timeout behind proxy": 0.9})

	resp, err := f.searcher.Search(context.Background(), Request{Query: "tls handshake", WithSummary: true})
	require.NoError(t, err)
	assert.Contains(t, resp.Summary, "tls handshake")

	// A failing summarizer never fails the search.
	provider := mock.NewMockProviderWithServices(f.embedder, f.reranker, &mock.MockSummarizer{
		SummarizeFunc: func(ctx context.Context, query string, documents []string) (string, error) {
			return "", ai.ErrSummarizerUnavailable
		},
	})
	searcher, err := NewSearcher(f.store, f.index, provider, f.settings)
	require.NoError(t, err)

	resp, err = searcher.Search(context.Background(), Request{Query: "tls handshake", WithSummary: true})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.Empty(t, resp.Summary)
}

// recordingMonitor captures the stage sequence for pipeline-order assertions.
type recordingMonitor struct {
	noopMonitor
	stages  []Stage
	boosted []string
}

func (m *recordingMonitor) EnterStage(stage Stage) { m.stages = append(m.stages, stage) }
func (m *recordingMonitor) TicketBoost(id string)  { m.boosted = append(m.boosted, id) }

func TestSearchStagesAdvanceForwardOnly(t *testing.T) {
	f := newFixture(t)
	f.vectors["audit PROJ-3"] = []float32{1, 0, 0}
	f.addDoc(t, "issues", "audit log gaps", []float32{0.9, 0, 0}, "")
	f.addDoc(t, "jira_tickets", "audit retention ticket", []float32{0.8, 0.2, 0}, "PROJ-3")
	f.scoreByContent(map[string]float64{
		"audit log gaps":         0.7,
		"audit retention ticket": 0.6,
	})

	monitor := &recordingMonitor{}
	_, err := f.searcher.SearchWithMonitor(context.Background(), Request{Query: "audit PROJ-3"}, monitor)
	require.NoError(t, err)

	assert.Equal(t, []Stage{
		StageCollecting,
		StageDeduplicating,
		StageReranking,
		StageBoosting,
		StageFiltering,
		StageDone,
	}, monitor.stages)
	assert.Len(t, monitor.boosted, 1)
}

func TestSearchSummaryMentionsQuery(t *testing.T) {
	summarizer := mock.NewMockSummarizer()
	out, err := summarizer.Summarize(context.Background(), "q", []string{"a", "b"})
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "2"))
}
