// Package testutil provides shared integration-test scaffolding: a
// testcontainers-backed ephemeral Postgres instance with pgvector, used by
// any package whose tests exercise real SQL (events, knowledge).
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// RequirePostgres skips the test unless RESEARCH_AGENT_POSTGRES_TESTS=1 is
// set, matching the pack's convention of gating real-database tests behind
// an opt-in env var so `go test ./...` stays hermetic by default. When run,
// it starts a disposable pgvector/pgvector:pg16 container, applies schema, and returns
// a connected pool cleaned up via t.Cleanup.
func RequirePostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if os.Getenv("RESEARCH_AGENT_POSTGRES_TESTS") != "1" {
		t.Skip("set RESEARCH_AGENT_POSTGRES_TESTS=1 to run tests against a real Postgres container")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx, "pgvector/pgvector:pg16",
		postgres.WithDatabase("research_agent_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		wait.ForListeningPort("5432/tcp"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, schemaSQL)
	require.NoError(t, err)

	return pool
}

const schemaSQL = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE events (
	id uuid PRIMARY KEY,
	log_id uuid NOT NULL,
	"timestamp" timestamptz NOT NULL,
	event_type varchar(50) NOT NULL,
	plan_id uuid NULL,
	phase_id uuid NULL,
	step_id uuid NULL,
	data jsonb NOT NULL
);
CREATE INDEX ON events (log_id);
CREATE INDEX ON events ("timestamp");
CREATE INDEX ON events (event_type);
CREATE INDEX events_data_gin ON events USING GIN (data);

CREATE TABLE research_results (
	id uuid PRIMARY KEY,
	log_id uuid NOT NULL,
	plan_id uuid NOT NULL,
	query text NOT NULL,
	answer text NOT NULL,
	sources jsonb NOT NULL,
	metadata jsonb NOT NULL,
	confidence jsonb NULL,
	embedding vector(768) NULL,
	search_vector tsvector,
	created_at timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX ON research_results (log_id);
CREATE INDEX research_results_search_vector_idx ON research_results USING GIN (search_vector);
CREATE INDEX research_results_embedding_idx ON research_results USING hnsw (embedding vector_cosine_ops);

CREATE FUNCTION research_results_search_vector_update() RETURNS trigger AS $$
BEGIN
	NEW.search_vector :=
		setweight(to_tsvector('english', coalesce(NEW.query, '')), 'A') ||
		setweight(to_tsvector('english', coalesce(NEW.answer, '')), 'B');
	RETURN NEW;
END
$$ LANGUAGE plpgsql;

CREATE TRIGGER research_results_search_vector_trigger
	BEFORE INSERT OR UPDATE ON research_results
	FOR EACH ROW EXECUTE FUNCTION research_results_search_vector_update();
`
