package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/research-agent/internal/testutil"
)

func TestPostgresStore_AppendAndSince(t *testing.T) {
	pool := testutil.RequirePostgres(t)
	store := NewPostgresStore(pool)
	ctx := context.Background()
	logID := uuid.New().String()

	base := time.Now().UTC()
	first := Event{ID: uuid.New().String(), LogID: logID, Timestamp: base, EventType: TypeSessionStarted, Data: SessionStartedPayload{Query: "q"}}
	second := Event{ID: uuid.New().String(), LogID: logID, Timestamp: base.Add(time.Millisecond), EventType: TypeSessionCompleted, Data: struct{}{}}

	require.NoError(t, store.Append(ctx, first))
	require.NoError(t, store.Append(ctx, second))

	got, err := store.Since(ctx, logID, base)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, TypeSessionStarted, got[0].EventType)
	assert.Equal(t, TypeSessionCompleted, got[1].EventType)
}

func TestPostgresStore_SinceExcludesEarlierEvents(t *testing.T) {
	pool := testutil.RequirePostgres(t)
	store := NewPostgresStore(pool)
	ctx := context.Background()
	logID := uuid.New().String()

	base := time.Now().UTC()
	require.NoError(t, store.Append(ctx, Event{ID: uuid.New().String(), LogID: logID, Timestamp: base, EventType: TypeSessionStarted, Data: struct{}{}}))
	require.NoError(t, store.Append(ctx, Event{ID: uuid.New().String(), LogID: logID, Timestamp: base.Add(time.Second), EventType: TypeSessionCompleted, Data: struct{}{}}))

	got, err := store.Since(ctx, logID, base.Add(500*time.Millisecond))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, TypeSessionCompleted, got[0].EventType)
}
