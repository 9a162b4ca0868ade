// Package httpapi is the HTTP surface (§6): a thin Gin layer over the
// Orchestrator, Event Coordinator, and Knowledge Store. Grounded on the
// teacher's pkg/api (gin.Engine + Server struct wrapping the session
// manager), adapted from the teacher's WebSocket hub broadcast to SSE
// delivery over a per-logId events.Subscription.
package httpapi

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/codeready-toolchain/research-agent/pkg/events"
	"github.com/codeready-toolchain/research-agent/pkg/research/model"
)

// SessionRunner is the subset of *orchestrator.Orchestrator the HTTP
// surface depends on, declared locally so this package never imports
// pkg/research/orchestrator directly.
type SessionRunner interface {
	RunSession(query string) (logID string, done <-chan *model.Session)
	Session(logID string) (*model.Session, bool)
	Sessions() []*model.Session
}

// ResultReader is the subset of *knowledge.Store the result endpoint
// depends on.
type ResultReader interface {
	Get(ctx context.Context, logID string) (*model.ResearchResult, error)
}

// Server is the HTTP surface. It is deliberately thin: every handler is
// a direct call into the Orchestrator, Event Coordinator, or Knowledge
// Store — no business logic lives here.
type Server struct {
	engine   *gin.Engine
	sessions SessionRunner
	events   *events.Coordinator
	results  ResultReader
	dbPool   *pgxpool.Pool
}

// New builds a Server. ginMode is passed to gin.SetMode ("debug",
// "release", "test"); empty leaves gin's default untouched.
func New(sessions SessionRunner, coordinator *events.Coordinator, results ResultReader, dbPool *pgxpool.Pool, ginMode string) *Server {
	if ginMode != "" {
		gin.SetMode(ginMode)
	}
	s := &Server{
		engine:   gin.New(),
		sessions: sessions,
		events:   coordinator,
		results:  results,
		dbPool:   dbPool,
	}
	s.engine.Use(gin.Recovery(), otelgin.Middleware("research-agent"), requestLogger())
	s.routes()
	return s
}

// Engine returns the underlying gin.Engine for http.ListenAndServe or
// httptest-based tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) routes() {
	s.engine.POST("/research/query", s.handleCreateQuery)
	s.engine.GET("/research/stream/:logId", s.handleStream)
	s.engine.GET("/research/results/:logId", s.handleResult)
	s.engine.GET("/research/sessions", s.handleListSessions)
	s.engine.GET("/healthz", s.handleHealth)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		slog.Info("http request", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status())
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func jsonError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}
