package knowledge

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/research-agent/internal/testutil"
	"github.com/codeready-toolchain/research-agent/pkg/llm"
	"github.com/codeready-toolchain/research-agent/pkg/research/model"
)

// fakeEmbedder returns a unit vector whose first dimension is 1 when the
// text mentions "cats" and whose second dimension is 1 otherwise, so
// semantic search over a handful of fixture rows is deterministic without
// a real embedding model.
type fakeEmbedder struct{}

func (fakeEmbedder) Chat(ctx context.Context, req *llm.ChatRequest) (<-chan llm.Chunk, error) {
	ch := make(chan llm.Chunk, 1)
	ch <- &llm.TextChunk{Content: req.Messages[len(req.Messages)-1].Content}
	close(ch)
	return ch, nil
}

func (fakeEmbedder) Embed(ctx context.Context, embeddingModel string, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, embeddingDimensions)
		if strings.Contains(strings.ToLower(text), "cats") {
			vec[0] = 1
		} else {
			vec[1] = 1
		}
		out[i] = vec
	}
	return out, nil
}

func (fakeEmbedder) Close() error { return nil }

func newTestStore(t *testing.T) *Store {
	t.Helper()
	pool := testutil.RequirePostgres(t)
	return New(pool, fakeEmbedder{}, "test-embed", "")
}

func TestStore_SaveAndGetRoundTrips(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	confidence := 0.87
	result := &model.ResearchResult{
		LogID:      uuid.New().String(),
		PlanID:     uuid.New().String(),
		Query:      "how many legs do cats have",
		Answer:     "Cats have four legs.",
		Sources:    []model.Source{{URL: "http://example.com", Title: "Cats 101"}},
		Confidence: &confidence,
	}
	require.NoError(t, s.Save(ctx, result))

	got, err := s.Get(ctx, result.LogID)
	require.NoError(t, err)
	assert.Equal(t, result.Query, got.Query)
	assert.Equal(t, result.Answer, got.Answer)
	require.Len(t, got.Sources, 1)
	assert.Equal(t, "http://example.com", got.Sources[0].URL)
	require.NotNil(t, got.Confidence)
	assert.InDelta(t, confidence, *got.Confidence, 0.0001)
}

func TestStore_SearchPriorResearchRanksOnLexicalMatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &model.ResearchResult{
		LogID: uuid.New().String(), PlanID: uuid.New().String(),
		Query: "what do cats eat", Answer: "Cats are obligate carnivores.",
	}))
	require.NoError(t, s.Save(ctx, &model.ResearchResult{
		LogID: uuid.New().String(), PlanID: uuid.New().String(),
		Query: "how do airplanes fly", Answer: "Lift comes from pressure differences over the wing.",
	}))

	hits, err := s.SearchPriorResearch(ctx, "cats", 5)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Contains(t, hits[0].Query, "cats")
}

func TestStore_SearchHybridBlendsSemanticAndLexicalChannels(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	catResult := &model.ResearchResult{
		LogID: uuid.New().String(), PlanID: uuid.New().String(),
		Query: "what do cats eat", Answer: "Cats are obligate carnivores.",
	}
	require.NoError(t, s.Save(ctx, catResult))
	require.NoError(t, s.Save(ctx, &model.ResearchResult{
		LogID: uuid.New().String(), PlanID: uuid.New().String(),
		Query: "how do airplanes fly", Answer: "Lift comes from pressure differences over the wing.",
	}))

	hits, err := s.SearchHybrid(ctx, "tell me about cats", 5)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, catResult.LogID, hits[0].LogID)
	assert.GreaterOrEqual(t, hits[0].Score, 0.0)
	assert.LessOrEqual(t, hits[0].Score, 1.0)
}

func TestStore_BackfillIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	logID := uuid.New().String()
	require.NoError(t, s.Save(ctx, &model.ResearchResult{
		LogID: logID, PlanID: uuid.New().String(),
		Query: "what do cats eat", Answer: "Cats are obligate carnivores.",
	}))

	// The row already has an embedding from Save, so Backfill has nothing
	// left to do, and running it twice changes nothing.
	n, err := s.Backfill(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = s.Backfill(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
