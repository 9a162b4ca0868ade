package knowledge

import (
	"context"
	"fmt"
	"log/slog"
)

// Backfill computes embeddings for rows saved before embedding was
// available (or whose embedding write failed), in batches of batchSize.
// It returns the number of rows it successfully embedded. Safe to run
// repeatedly — it only ever targets rows where embedding IS NULL.
func (s *Store) Backfill(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 50
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, query, answer FROM research_results
		WHERE embedding IS NULL
		LIMIT $1`, batchSize,
	)
	if err != nil {
		return 0, fmt.Errorf("select backfill candidates: %w", err)
	}

	type candidate struct {
		id, query, answer string
	}
	var candidates []candidate
	for rows.Next() {
		var c candidate
		if err := rows.Scan(&c.id, &c.query, &c.answer); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan backfill candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	var embedded int
	for _, c := range candidates {
		embedding, err := s.computeEmbedding(ctx, c.query, c.answer)
		if err != nil {
			slog.Error("backfill embedding failed", "result_id", c.id, "error", err)
			continue
		}
		if err := s.updateEmbedding(ctx, c.id, embedding); err != nil {
			slog.Error("backfill embedding write failed", "result_id", c.id, "error", err)
			continue
		}
		embedded++
	}
	return embedded, nil
}
