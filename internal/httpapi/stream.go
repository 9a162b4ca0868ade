package httpapi

import (
	"encoding/json"
	"io"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/research-agent/pkg/events"
)

// terminalEventTypes ends the stream: the session has reached one of its
// terminal states and no further events for this logId will ever arrive.
var terminalEventTypes = map[string]bool{
	events.TypeSessionCompleted: true,
	events.TypeSessionFailed:    true,
}

// handleStream implements GET /research/stream/{logId} (§6): a
// server-sent event stream that closes when the session reaches a
// terminal state or the client disconnects. Grounded on the teacher's
// WSHub broadcast loop, adapted from a shared hub fan-out to a single
// per-logId events.Subscription since SSE is one stream per client.
func (s *Server) handleStream(c *gin.Context) {
	logID := c.Param("logId")

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	sub := s.events.Subscribe(logID)
	defer s.events.Unsubscribe(sub)

	clientGone := c.Request.Context().Done()

	c.Stream(func(w io.Writer) bool {
		select {
		case evt, ok := <-sub.Events():
			if !ok {
				return false
			}
			writeSSEEvent(c, evt)
			return !terminalEventTypes[evt.EventType]
		case <-clientGone:
			return false
		}
	})
}

func writeSSEEvent(c *gin.Context, evt events.Event) {
	payload, err := json.Marshal(evt.Data)
	if err != nil {
		slog.Error("failed to marshal event payload for SSE", "event_type", evt.EventType, "error", err)
		return
	}
	c.SSEvent(evt.EventType, json.RawMessage(payload))
}
