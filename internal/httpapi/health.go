package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	healthStatusHealthy   = "healthy"
	healthStatusUnhealthy = "unhealthy"
)

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// handleHealth implements GET /healthz (§6 expansion), grounded on the
// teacher's healthHandler: only this process's own dependencies
// (database) are checked, never the external LLM or tool providers, so
// an outage there never flaps this orchestrator's own health.
func (s *Server) handleHealth(c *gin.Context) {
	checks := map[string]string{}
	status := healthStatusHealthy

	if s.dbPool != nil {
		if err := s.dbPool.Ping(c.Request.Context()); err != nil {
			status = healthStatusUnhealthy
			checks["database"] = err.Error()
		} else {
			checks["database"] = healthStatusHealthy
		}
	}

	httpStatus := http.StatusOK
	if status == healthStatusUnhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	c.JSON(httpStatus, healthResponse{Status: status, Checks: checks})
}
