// In file: cmd/weather-assistant/handler.go
package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dileep-u-k/weather-assistant/internal/api"
	"github.com/dileep-u-k/weather-assistant/internal/assistant"
	"github.com/dileep-u-k/weather-assistant/internal/llm"
	"github.com/dileep-u-k/weather-assistant/internal/logger"
	cversion "github.com/dileep-u-k/weather-assistant/internal/version"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// Answerer is the part of the orchestrator the HTTP layer needs.
type Answerer interface {
	AnswerDetailed(ctx context.Context, query string) (*assistant.Result, error)
}

// ProfileReader exposes stored model usage profiles.
type ProfileReader interface {
	GetProfile(ctx context.Context, modelID string) (*llm.ModelProfile, bool, error)
}

// Handler serves the assistant's HTTP API.
type Handler struct {
	answerer Answerer
	profiles ProfileReader // nil when profiling is disabled
	log      logger.Logger
}

func NewHandler(answerer Answerer, profiles ProfileReader, log logger.Logger) *Handler {
	return &Handler{answerer: answerer, profiles: profiles, log: log}
}

// HandleAsk answers one weather question.
func (h *Handler) HandleAsk(c *gin.Context) {
	startTime := time.Now()
	requestID := c.GetString(requestIDKey)

	var req api.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		msg := "query must not be empty"
		if err != nil {
			msg = "Invalid request: " + err.Error()
		}
		c.JSON(http.StatusBadRequest, api.ErrorResponse{RequestID: requestID, Error: msg, Kind: assistant.KindEmptyQuery})
		return
	}

	ctx := logger.ContextWithRequestID(c.Request.Context(), requestID)
	res, err := h.answerer.AnswerDetailed(ctx, req.Query)
	if err != nil {
		kind := assistant.Kind(err)
		status := statusForKind(kind)
		fields := map[string]interface{}{"request_id": requestID, "kind": kind, "status": status}
		if status >= http.StatusInternalServerError {
			h.log.WithError(err).Error("Query failed", fields)
		} else {
			h.log.WithError(err).Info("Query rejected", fields)
		}
		c.JSON(status, api.ErrorResponse{RequestID: requestID, Error: err.Error(), Kind: kind})
		return
	}

	subQueries := make([]api.SubQueryResult, 0, len(res.SubQueries))
	for _, r := range res.SubQueries {
		subQueries = append(subQueries, api.SubQueryResult{
			Query:    r.Query,
			Location: r.Parameters.Location,
			Date:     r.Parameters.Date.String(),
			Path:     string(r.Path),
		})
	}

	c.JSON(http.StatusOK, api.AskResponse{
		RequestID:  requestID,
		Summary:    res.Summary,
		SubQueries: subQueries,
		Report:     res.Report,
		LatencyMS:  time.Since(startTime).Milliseconds(),
	})
}

// HandleProfile returns the usage profile of a model.
func (h *Handler) HandleProfile(c *gin.Context) {
	if h.profiles == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profiling is disabled"})
		return
	}
	modelID := c.Param("model")
	profile, found, err := h.profiles.GetProfile(c.Request.Context(), modelID)
	if err != nil {
		h.log.WithError(err).Error("Failed to read profile", map[string]interface{}{"model": modelID})
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "no profile for model " + modelID})
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) HandleVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"build":      GetBuildInfo(),
		"components": cversion.ComponentVersions,
	})
}

// statusForKind maps an error kind to its HTTP status.
func statusForKind(kind string) int {
	switch kind {
	case assistant.KindEmptyQuery:
		return http.StatusBadRequest
	case assistant.KindLocationNotFound:
		return http.StatusNotFound
	case assistant.KindDateOutOfRange:
		return http.StatusUnprocessableEntity
	case assistant.KindSchemaParse, assistant.KindTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// requestLogger assigns a request id and logs each request once it completes.
func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(requestIDHeader, requestID)

		c.Next()

		log.Info("HTTP request", map[string]interface{}{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
		})
	}
}
