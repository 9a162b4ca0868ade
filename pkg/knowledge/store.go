// Package knowledge is the Knowledge Store (C11): it persists research
// results and supports hybrid (lexical + semantic) lookup over them.
// Grounded on the teacher's pkg/database pgx pool wrapper, adapted from
// an Ent-backed relational client to raw SQL over the `research_results`
// relation (§6) since schema bootstrap/migrations are out of this
// module's core scope (§1). Embedding storage uses
// github.com/pgvector/pgvector-go — named but not grounded in the
// retrieval pack, since no example repo exercises pgvector (see
// DESIGN.md).
package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/codeready-toolchain/research-agent/pkg/llm"
	"github.com/codeready-toolchain/research-agent/pkg/research/model"
)

// embeddingDimensions is the fixed vector width declared in §3/§6.
const embeddingDimensions = 768

// summarizeThreshold is the character length past which Save summarizes
// the answer before embedding it (§4.11).
const summarizeThreshold = 28_000

// Store is the C11 implementation.
type Store struct {
	pool           *pgxpool.Pool
	embedder       llm.Client
	embeddingModel string
	summarizeModel string // empty disables summarization; long answers are truncated instead
}

// New wires a Knowledge Store. summarizeModel may be empty, in which
// case Save truncates rather than summarizes an over-long answer before
// embedding.
func New(pool *pgxpool.Pool, embedder llm.Client, embeddingModel, summarizeModel string) *Store {
	return &Store{pool: pool, embedder: embedder, embeddingModel: embeddingModel, summarizeModel: summarizeModel}
}

// Save implements §4.11: assigns an id, inserts the row, then computes
// and writes the embedding in a follow-up update. Embedding failure is
// non-fatal — the row is still saved, eligible for a later Backfill
// pass (§8 idempotency property).
func (s *Store) Save(ctx context.Context, result *model.ResearchResult) error {
	if result.ID == "" {
		result.ID = uuid.New().String()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now().UTC()
	}

	if err := s.insert(ctx, result); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	embedding, err := s.computeEmbedding(ctx, result.Query, result.Answer)
	if err != nil {
		slog.Error("embedding computation failed, row saved without embedding", "result_id", result.ID, "error", err)
		return nil
	}
	result.Embedding = embedding

	if err := s.updateEmbedding(ctx, result.ID, embedding); err != nil {
		slog.Error("embedding write failed, row saved without embedding", "result_id", result.ID, "error", err)
	}
	return nil
}

func (s *Store) insert(ctx context.Context, result *model.ResearchResult) error {
	sources, err := json.Marshal(result.Sources)
	if err != nil {
		return fmt.Errorf("marshal sources: %w", err)
	}
	metadata, err := json.Marshal(result.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	var confidence *float64
	if result.Confidence != nil {
		confidence = result.Confidence
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO research_results (id, log_id, plan_id, query, answer, sources, metadata, confidence, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		result.ID, result.LogID, result.PlanID, result.Query, result.Answer, sources, metadata, confidenceJSON(confidence), result.CreatedAt,
	)
	return err
}

// confidenceJSON renders the optional confidence scalar as the jsonb
// column value §3 declares; nil is stored as SQL NULL.
func confidenceJSON(c *float64) any {
	if c == nil {
		return nil
	}
	b, _ := json.Marshal(map[string]float64{"value": *c})
	return b
}

func (s *Store) updateEmbedding(ctx context.Context, id string, embedding []float32) error {
	_, err := s.pool.Exec(ctx, `UPDATE research_results SET embedding = $1 WHERE id = $2`,
		pgvector.NewVector(embedding), id,
	)
	return err
}

// computeEmbedding implements §4.11's "query + answer" embedding input,
// summarizing the answer first if it exceeds ~28000 characters.
func (s *Store) computeEmbedding(ctx context.Context, query, answer string) ([]float32, error) {
	if len(answer) > summarizeThreshold {
		summarized, err := s.summarize(ctx, answer)
		if err == nil {
			answer = summarized
		} else {
			slog.Warn("answer summarization failed, truncating instead", "error", err)
			answer = answer[:summarizeThreshold]
		}
	}

	vectors, err := s.embedder.Embed(ctx, s.embeddingModel, []string{query + "\n\n" + answer})
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedder returned no vectors")
	}
	return vectors[0], nil
}

const summarizeSystemPrompt = "Summarize the following research answer in under 2000 characters, preserving the key claims and conclusions."

func (s *Store) summarize(ctx context.Context, answer string) (string, error) {
	if s.summarizeModel == "" {
		return "", fmt.Errorf("no summarize model configured")
	}
	collected, err := llm.CollectText(ctx, s.embedder, &llm.ChatRequest{
		Model: s.summarizeModel,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: summarizeSystemPrompt},
			{Role: llm.RoleUser, Content: answer},
		},
	})
	if err != nil {
		return "", err
	}
	return collected.Text, nil
}

// Get returns the persisted ResearchResult for logID. If none exists it
// returns pgx.ErrNoRows (§6: GET /research/results/{logId} returns 404 in
// that case).
func (s *Store) Get(ctx context.Context, logID string) (*model.ResearchResult, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, log_id, plan_id, query, answer, sources, metadata, confidence, created_at
		FROM research_results WHERE log_id = $1`, logID)

	var r model.ResearchResult
	var sources, metadata, confidence []byte
	if err := row.Scan(&r.ID, &r.LogID, &r.PlanID, &r.Query, &r.Answer, &sources, &metadata, &confidence, &r.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(sources, &r.Sources); err != nil {
		return nil, fmt.Errorf("unmarshal sources: %w", err)
	}
	if err := json.Unmarshal(metadata, &r.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	if confidence != nil {
		var wrapped struct {
			Value float64 `json:"value"`
		}
		if err := json.Unmarshal(confidence, &wrapped); err != nil {
			return nil, fmt.Errorf("unmarshal confidence: %w", err)
		}
		r.Confidence = &wrapped.Value
	}
	return &r, nil
}
