package api

import (
	"net/http"
	"strconv"

	"CaseSync/internal/model"
	"CaseSync/internal/repository"
	"CaseSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// IngestHandler admin endpoints for triggering and inspecting ingestion.
type IngestHandler struct {
	ingest *service.IngestionService
	audit  *service.IngestionAuditService
	logger *logrus.Logger
}

func NewIngestHandler(ingest *service.IngestionService, audit *service.IngestionAuditService, logger *logrus.Logger) *IngestHandler {
	return &IngestHandler{ingest: ingest, audit: audit, logger: logger}
}

// RunIngestion runs one ingestion synchronously and returns its RunResult.
// POST /ingest/run?n=10&use_real=false&max_attempts=3
func (h *IngestHandler) RunIngestion(c *gin.Context) {
	n, err := strconv.Atoi(c.DefaultQuery("n", "0"))
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "n must be a non-negative integer"})
		return
	}
	useReal, err := strconv.ParseBool(c.DefaultQuery("use_real", "false"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "use_real must be a boolean"})
		return
	}
	maxAttempts, err := strconv.Atoi(c.DefaultQuery("max_attempts", "0"))
	if err != nil || maxAttempts < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "max_attempts must be a non-negative integer"})
		return
	}

	result, err := h.ingest.Run(c.Request.Context(), service.RunRequest{
		Count:         n,
		UseReal:       useReal,
		ExecutionType: model.ExecutionAPI,
		MaxAttempts:   maxAttempts,
	})
	if err != nil {
		respondError(c, h.logger, "RunIngestion", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GET /ingest/status
func (h *IngestHandler) Status(c *gin.Context) {
	st, err := h.audit.Status(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "IngestStatus", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// GET /ingest/history?limit=10
func (h *IngestHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	list, err := h.audit.History(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.logger, "IngestHistory", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"history":        list,
		"total_returned": len(list),
	})
}

// GET /ingest/stats?execution_type=cron
func (h *IngestHandler) Stats(c *gin.Context) {
	filter := repository.TotalsFilter{ExecutionType: model.ExecutionType(c.Query("execution_type"))}
	stats, err := h.audit.Stats(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, "IngestStats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
