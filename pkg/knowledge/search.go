package knowledge

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pgvector/pgvector-go"

	"github.com/codeready-toolchain/research-agent/pkg/tools"
)

// defaultSemanticWeight and defaultFullTextWeight implement §4.11's
// default hybrid mix when the caller doesn't supply its own.
const (
	defaultSemanticWeight = 0.7
	defaultFullTextWeight = 0.3

	// bothChannelsBoost rewards a result that both searches agree on.
	bothChannelsBoost = 1.1
)

// SearchPriorResearch implements §4.11's lexical search: search_vector
// (maintained by the insert/update trigger in schema.go, weighting the
// query column A over the answer column B) ranked against the query.
func (s *Store) SearchPriorResearch(ctx context.Context, query string, maxResults int) ([]tools.PriorResearchHit, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT log_id, query, answer, ts_rank(search_vector, plainto_tsquery('english', $1)) AS rank
		FROM research_results
		WHERE search_vector @@ plainto_tsquery('english', $1)
		ORDER BY rank DESC
		LIMIT $2`,
		query, maxResults,
	)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	defer rows.Close()

	var hits []tools.PriorResearchHit
	for rows.Next() {
		var h tools.PriorResearchHit
		if err := rows.Scan(&h.LogID, &h.Query, &h.Answer, &h.Score); err != nil {
			return nil, fmt.Errorf("scan lexical hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// SearchHybrid satisfies tools.PriorResearchSource with the §4.11 default
// weight mix (semantic 0.7 / full-text 0.3).
func (s *Store) SearchHybrid(ctx context.Context, query string, maxResults int) ([]tools.PriorResearchHit, error) {
	return s.SearchHybridWeighted(ctx, query, maxResults, defaultSemanticWeight, defaultFullTextWeight)
}

// hybridCandidate accumulates the per-channel scores for one row before
// the final blended score is computed, keyed by log_id.
type hybridCandidate struct {
	hit        tools.PriorResearchHit
	semantic   float64
	fullText   float64
	inSemantic bool
	inFullText bool
}

// SearchHybridWeighted implements §4.11's full hybrid search: semantic
// and full-text queries run concurrently, each fetching 2×maxResults,
// merged by row id, blended as semantic*wSemantic + fullText*wFullText
// with a 1.1x multiplier when a result appears in both channels, clamped
// to [0,1], sorted descending, and truncated to maxResults.
func (s *Store) SearchHybridWeighted(ctx context.Context, query string, maxResults int, semanticWeight, fullTextWeight float64) ([]tools.PriorResearchHit, error) {
	fetchLimit := maxResults * 2
	if fetchLimit <= 0 {
		fetchLimit = 2
	}

	var (
		wg                         sync.WaitGroup
		semanticHits, fullTextHits []hybridCandidate
		semanticErr, fullTextErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		semanticHits, semanticErr = s.semanticCandidates(ctx, query, fetchLimit)
	}()
	go func() {
		defer wg.Done()
		fullTextHits, fullTextErr = s.fullTextCandidates(ctx, query, fetchLimit)
	}()
	wg.Wait()

	if semanticErr != nil && fullTextErr != nil {
		return nil, fmt.Errorf("hybrid search: semantic: %v, full-text: %v", semanticErr, fullTextErr)
	}

	merged := make(map[string]*hybridCandidate, len(semanticHits)+len(fullTextHits))
	for _, c := range semanticHits {
		cc := c
		cc.inSemantic = true
		merged[cc.hit.LogID] = &cc
	}
	for _, c := range fullTextHits {
		if existing, ok := merged[c.hit.LogID]; ok {
			existing.fullText = c.fullText
			existing.inFullText = true
			continue
		}
		cc := c
		cc.inFullText = true
		merged[cc.hit.LogID] = &cc
	}

	hits := make([]tools.PriorResearchHit, 0, len(merged))
	for _, c := range merged {
		score := c.semantic*semanticWeight + c.fullText*fullTextWeight
		if c.inSemantic && c.inFullText {
			score *= bothChannelsBoost
		}
		c.hit.Score = clamp01(score)
		hits = append(hits, c.hit)
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > maxResults {
		hits = hits[:maxResults]
	}
	return hits, nil
}

func (s *Store) semanticCandidates(ctx context.Context, query string, limit int) ([]hybridCandidate, error) {
	vectors, err := s.embedder.Embed(ctx, s.embeddingModel, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedder returned no vectors")
	}
	queryVec := pgvector.NewVector(vectors[0])

	rows, err := s.pool.Query(ctx, `
		SELECT log_id, query, answer, 1 - (embedding <=> $1) AS similarity
		FROM research_results
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $2`,
		queryVec, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	defer rows.Close()

	var out []hybridCandidate
	for rows.Next() {
		var c hybridCandidate
		if err := rows.Scan(&c.hit.LogID, &c.hit.Query, &c.hit.Answer, &c.semantic); err != nil {
			return nil, fmt.Errorf("scan semantic hit: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) fullTextCandidates(ctx context.Context, query string, limit int) ([]hybridCandidate, error) {
	hits, err := s.SearchPriorResearch(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]hybridCandidate, len(hits))
	for i, h := range hits {
		out[i] = hybridCandidate{hit: h, fullText: clamp01(h.Score)}
	}
	return out, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
