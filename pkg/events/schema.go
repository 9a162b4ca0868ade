package events

// Schema is the DDL for the `events` relation (§6) PostgresStore reads
// and writes. cmd/research-agent's `migrate` subcommand executes this
// when invoked, alongside pkg/knowledge.Schema; there is no migration
// framework (see DESIGN.md on dropping golang-migrate).
const Schema = `
CREATE TABLE IF NOT EXISTS events (
    id         uuid PRIMARY KEY,
    log_id     uuid NOT NULL,
    "timestamp" timestamptz NOT NULL,
    event_type varchar(50) NOT NULL,
    plan_id    uuid,
    phase_id   uuid,
    step_id    uuid,
    data       jsonb NOT NULL
);

CREATE INDEX IF NOT EXISTS events_log_id_idx ON events (log_id);
CREATE INDEX IF NOT EXISTS events_timestamp_idx ON events ("timestamp");
CREATE INDEX IF NOT EXISTS events_event_type_idx ON events (event_type);
CREATE INDEX IF NOT EXISTS events_data_gin_idx ON events USING GIN (data);
`
