package httpapi

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/logistics-control-tower/agent/contract"
	"github.com/tanpawarit/logistics-control-tower/agent/conversation"
)

type queryRequest struct {
	Query   string `json:"query"`
	Role    string `json:"role"`
	History string `json:"history"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) query(c *gin.Context) {
	var body queryRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "request body must be JSON with a query field"})
		return
	}
	if strings.TrimSpace(body.Query) == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: contractx.ErrInvalidQuery.Error()})
		return
	}

	role, err := contractx.ParseRole(body.Role)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	out, err := s.orch.Submit(c.Request.Context(), contractx.QueryRequest{
		Query:   body.Query,
		Role:    role,
		History: conversation.Parse(body.History),
	})
	if err != nil {
		if errors.Is(err, contractx.ErrInvalidQuery) || errors.Is(err, contractx.ErrInvalidRole) || errors.Is(err, contractx.ErrValidation) {
			c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	c.JSON(http.StatusOK, out.Response())
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) ready(c *gin.Context) {
	if s.readiness == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ready", "checks": gin.H{}})
		return
	}

	results := s.readiness()
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := make(map[string]string, len(results))
	status, code := "ready", http.StatusOK
	for _, name := range names {
		if err := results[name]; err != nil {
			checks[name] = err.Error()
			status, code = "unavailable", http.StatusServiceUnavailable
			zerolog.Ctx(c.Request.Context()).Warn().Str("dependency", name).Err(err).Msg("readiness check failed")
			continue
		}
		checks[name] = "ok"
	}
	c.JSON(code, gin.H{"status": status, "checks": checks})
}

func (s *Server) sample(c *gin.Context) {
	set, err := s.catalog.Sample(c.Request.Context(), s.cfg.SampleRows)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "sample data unavailable"})
		return
	}
	c.JSON(http.StatusOK, set)
}

func (s *Server) schema(c *gin.Context) {
	info, err := s.catalog.DescribeTables(c.Request.Context(), nil, false)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "schema unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"schema": info})
}
