package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// createQueryRequest is the POST /research/query body (§6).
type createQueryRequest struct {
	Query string `json:"query"`
}

// createQueryResponse is returned immediately; the session continues
// asynchronously and is followed via GET /research/stream/{logId}.
type createQueryResponse struct {
	LogID string `json:"logId"`
}

func (s *Server) handleCreateQuery(c *gin.Context) {
	var req createQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonError(c, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		jsonError(c, http.StatusBadRequest, errEmptyQuery)
		return
	}

	logID, _ := s.sessions.RunSession(req.Query)
	c.JSON(http.StatusOK, createQueryResponse{LogID: logID})
}

func (s *Server) handleResult(c *gin.Context) {
	logID := c.Param("logId")

	result, err := s.results.Get(c.Request.Context(), logID)
	if err != nil {
		if isNotFound(err) {
			jsonError(c, http.StatusNotFound, errNoResult)
			return
		}
		jsonError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, s.sessions.Sessions())
}
