package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinator_SubscriberReceivesEventsInEmitOrder(t *testing.T) {
	c := NewCoordinator(nil)
	sub := c.Subscribe("log-1")
	defer c.Unsubscribe(sub)

	c.EmitSessionStarted(context.Background(), "log-1", "what is go")
	c.EmitPlanningStarted(context.Background(), "log-1")
	c.EmitSessionCompleted(context.Background(), "log-1")

	var types []string
	for i := 0; i < 3; i++ {
		select {
		case evt := <-sub.Events():
			types = append(types, evt.EventType)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
	assert.Equal(t, []string{TypeSessionStarted, TypePlanningStarted, TypeSessionCompleted}, types)
}

func TestCoordinator_SubscriberOnlySeesItsOwnLog(t *testing.T) {
	c := NewCoordinator(nil)
	subA := c.Subscribe("log-a")
	subB := c.Subscribe("log-b")
	defer c.Unsubscribe(subA)
	defer c.Unsubscribe(subB)

	c.EmitSessionStarted(context.Background(), "log-a", "q")

	select {
	case evt := <-subA.Events():
		assert.Equal(t, "log-a", evt.LogID)
	case <-time.After(time.Second):
		t.Fatal("subA never received its event")
	}

	select {
	case evt := <-subB.Events():
		t.Fatalf("subB should not have received anything, got %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCoordinator_GlobalSubscriberSeesEveryLog(t *testing.T) {
	c := NewCoordinator(nil)
	global := c.SubscribeGlobal()
	defer c.Unsubscribe(global)

	c.EmitSessionStarted(context.Background(), "log-a", "q1")
	c.EmitSessionStarted(context.Background(), "log-b", "q2")

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case evt := <-global.Events():
			seen[evt.LogID] = true
		case <-time.After(time.Second):
			t.Fatal("timed out")
		}
	}
	assert.True(t, seen["log-a"])
	assert.True(t, seen["log-b"])
}

func TestCoordinator_UnsubscribeClosesChannel(t *testing.T) {
	c := NewCoordinator(nil)
	sub := c.Subscribe("log-1")
	c.Unsubscribe(sub)

	_, ok := <-sub.Events()
	assert.False(t, ok, "channel should be closed after Unsubscribe")
}

func TestCoordinator_SlowSubscriberDropsFromHeadWithoutBlockingProducer(t *testing.T) {
	c := &Coordinator{
		subscriptions: make(map[string]map[string]*Subscription),
		global:        make(map[string]*Subscription),
		lastStamp:     make(map[string]time.Time),
		bufferSize:    2,
	}
	sub := c.Subscribe("log-1")
	defer c.Unsubscribe(sub)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			c.EmitSessionStarted(context.Background(), "log-1", "q")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("producer blocked on a slow subscriber")
	}
}

func TestCoordinator_NextTimestampIsStrictlyMonotonic(t *testing.T) {
	c := NewCoordinator(nil)
	sub := c.Subscribe("log-1")
	defer c.Unsubscribe(sub)

	for i := 0; i < 50; i++ {
		c.EmitSessionStarted(context.Background(), "log-1", "q")
	}

	var last time.Time
	for i := 0; i < 50; i++ {
		evt := <-sub.Events()
		if i > 0 {
			assert.True(t, evt.Timestamp.After(last), "timestamps must be strictly increasing")
		}
		last = evt.Timestamp
	}
}

func TestCoordinator_History_NilStoreReturnsNil(t *testing.T) {
	c := NewCoordinator(nil)
	evts, err := c.History(context.Background(), "log-1", time.Time{})
	require.NoError(t, err)
	assert.Nil(t, evts)
}
