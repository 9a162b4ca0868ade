package events

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// DefaultBufferSize bounds how many events a slow subscriber may lag behind
// before the Coordinator starts dropping from the head of its buffer.
const DefaultBufferSize = 256

// Subscription is a live handle returned by Coordinator.Subscribe. Callers
// range over Events() until it is closed, then call Unsubscribe.
type Subscription struct {
	id    string
	logID string
	ch    chan Event

	mu      sync.Mutex
	dropped int64
}

// Events returns the channel of delivered events. It is closed by
// Unsubscribe.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// push delivers evt to the subscriber's buffer, non-blocking. If the
// buffer is full, the oldest buffered event is discarded to make room —
// the producer is never blocked by a slow subscriber (§4.1, §5).
func (s *Subscription) push(evt Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case s.ch <- evt:
		return
	default:
	}

	select {
	case <-s.ch:
		s.dropped++
	default:
	}
	select {
	case s.ch <- evt:
	default:
		s.dropped++
	}
}

// drainDroppedMarker attempts to deliver a "dropped" marker event once
// buffer space frees up, so the subscriber learns it missed events.
func (s *Subscription) drainDroppedMarker(logID string) {
	s.mu.Lock()
	count := s.dropped
	if count == 0 {
		s.mu.Unlock()
		return
	}
	marker := Event{
		ID:        uuid.New().String(),
		LogID:     logID,
		Timestamp: time.Now().UTC(),
		EventType: TypeDropped,
		Data:      DroppedPayload{Count: int(count)},
	}
	select {
	case s.ch <- marker:
		s.dropped = 0
	default:
	}
	s.mu.Unlock()
}

// Coordinator is the Event Coordinator (C1): it durably appends events
// and fans them out to subscribers of a logId and of the global channel.
type Coordinator struct {
	store Store

	mu            sync.RWMutex
	subscriptions map[string]map[string]*Subscription // logID -> subID -> sub
	global        map[string]*Subscription

	clockMu    sync.Mutex
	lastStamp  map[string]time.Time

	bufferSize int
	nextSubID  atomic.Uint64
}

// NewCoordinator constructs a Coordinator. store may be nil in tests that
// only exercise live fan-out.
func NewCoordinator(store Store) *Coordinator {
	return &Coordinator{
		store:         store,
		subscriptions: make(map[string]map[string]*Subscription),
		global:        make(map[string]*Subscription),
		lastStamp:     make(map[string]time.Time),
		bufferSize:    DefaultBufferSize,
	}
}

// EmitOptions carries the optional routing fields of an Event.
type EmitOptions struct {
	PlanID  string
	PhaseID string
	StepID  string
}

// Emit assigns a monotonic timestamp, appends the event (best-effort,
// asynchronously — persistence failure is logged but never gates
// subsequent Emit calls or live delivery), and publishes synchronously to
// every subscriber of logID and of the global channel.
func (c *Coordinator) Emit(ctx context.Context, logID, eventType string, data any, opts EmitOptions) {
	evt := Event{
		ID:        uuid.New().String(),
		LogID:     logID,
		Timestamp: c.nextTimestamp(logID),
		EventType: eventType,
		PlanID:    opts.PlanID,
		PhaseID:   opts.PhaseID,
		StepID:    opts.StepID,
		Data:      data,
	}

	c.publish(evt)

	if c.store != nil {
		go func() {
			if err := c.store.Append(context.WithoutCancel(ctx), evt); err != nil {
				slog.Error("failed to persist event", "log_id", logID, "event_type", eventType, "error", err)
			}
		}()
	}
}

// nextTimestamp returns a timestamp strictly greater than the previous one
// handed out for this logID, so the append-only ordering invariant in §3
// holds even under clock coarseness or back-to-back Emit calls.
func (c *Coordinator) nextTimestamp(logID string) time.Time {
	c.clockMu.Lock()
	defer c.clockMu.Unlock()

	now := time.Now().UTC()
	if last, ok := c.lastStamp[logID]; ok && !now.After(last) {
		now = last.Add(time.Nanosecond)
	}
	c.lastStamp[logID] = now
	return now
}

func (c *Coordinator) publish(evt Event) {
	c.mu.RLock()
	subs := make([]*Subscription, 0, len(c.subscriptions[evt.LogID])+len(c.global))
	for _, s := range c.subscriptions[evt.LogID] {
		subs = append(subs, s)
	}
	for _, s := range c.global {
		subs = append(subs, s)
	}
	c.mu.RUnlock()

	for _, s := range subs {
		s.push(evt)
		s.drainDroppedMarker(evt.LogID)
	}
}

// Subscribe returns a restartable stream of events for logID, starting
// from events whose timestamp is >= the subscription time. No backfill —
// callers needing history use the log-reader endpoint (§6).
func (c *Coordinator) Subscribe(logID string) *Subscription {
	sub := &Subscription{
		id:    c.newSubID(),
		logID: logID,
		ch:    make(chan Event, c.bufferSize),
	}

	c.mu.Lock()
	if c.subscriptions[logID] == nil {
		c.subscriptions[logID] = make(map[string]*Subscription)
	}
	c.subscriptions[logID][sub.id] = sub
	c.mu.Unlock()

	return sub
}

// SubscribeGlobal returns a stream that receives every event regardless
// of logId, for process-wide observers.
func (c *Coordinator) SubscribeGlobal() *Subscription {
	sub := &Subscription{
		id:    c.newSubID(),
		logID: GlobalChannel,
		ch:    make(chan Event, c.bufferSize),
	}

	c.mu.Lock()
	c.global[sub.id] = sub
	c.mu.Unlock()

	return sub
}

// Unsubscribe releases the subscriber slot promptly; any buffered events
// for it are dropped.
func (c *Coordinator) Unsubscribe(sub *Subscription) {
	c.mu.Lock()
	if sub.logID == GlobalChannel {
		delete(c.global, sub.id)
	} else if m, ok := c.subscriptions[sub.logID]; ok {
		delete(m, sub.id)
		if len(m) == 0 {
			delete(c.subscriptions, sub.logID)
		}
	}
	c.mu.Unlock()
	close(sub.ch)
}

func (c *Coordinator) newSubID() string {
	return uuid.New().String()
}

// History returns every persisted event for logID since the given time,
// for clients reconnecting to the SSE stream (§6 log-reader contract).
func (c *Coordinator) History(ctx context.Context, logID string, since time.Time) ([]Event, error) {
	if c.store == nil {
		return nil, nil
	}
	return c.store.Since(ctx, logID, since)
}
