package knowledge

// Schema is the DDL for the research_results relation (§6): the
// pgvector extension, a generated-by-trigger search_vector column
// backing the weighted lexical search in search.go (query weight A,
// answer weight B), a GIN index over it, and an HNSW cosine-distance
// index over embedding. cmd/research-agent's `migrate` subcommand
// executes this when invoked; there is no migration framework (see
// DESIGN.md on dropping golang-migrate).
const Schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS research_results (
    id             uuid PRIMARY KEY,
    log_id         uuid NOT NULL UNIQUE,
    plan_id        uuid NOT NULL,
    query          text NOT NULL,
    answer         text NOT NULL,
    sources        jsonb NOT NULL DEFAULT '[]',
    metadata       jsonb NOT NULL DEFAULT '{}',
    confidence     jsonb,
    embedding      vector(768),
    search_vector  tsvector,
    created_at     timestamptz NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS research_results_log_id_idx ON research_results (log_id);
CREATE INDEX IF NOT EXISTS research_results_search_vector_idx ON research_results USING GIN (search_vector);
CREATE INDEX IF NOT EXISTS research_results_embedding_idx ON research_results USING hnsw (embedding vector_cosine_ops);

CREATE OR REPLACE FUNCTION research_results_search_vector_update() RETURNS trigger AS $$
BEGIN
    NEW.search_vector :=
        setweight(to_tsvector('english', coalesce(NEW.query, '')), 'A') ||
        setweight(to_tsvector('english', coalesce(NEW.answer, '')), 'B');
    RETURN NEW;
END
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS research_results_search_vector_trigger ON research_results;
CREATE TRIGGER research_results_search_vector_trigger
    BEFORE INSERT OR UPDATE ON research_results
    FOR EACH ROW EXECUTE FUNCTION research_results_search_vector_update();
`
