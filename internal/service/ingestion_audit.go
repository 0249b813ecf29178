package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"CaseSync/internal/model"
	"CaseSync/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	RunStatusSuccess       = "success"
	RunStatusFailed        = "failed"
	RunStatusRunning       = "running"
	RunStatusNeverExecuted = "never_executed"

	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

// RunStatus is the latest run, or the never_executed sentinel with no run.
type RunStatus struct {
	Status  string              `json:"status"`
	Message string              `json:"message,omitempty"`
	LastRun *model.IngestionLog `json:"last_execution,omitempty"`
}

type IngestionStats struct {
	TotalRuns         int64      `json:"total_executions"`
	SuccessfulRuns    int64      `json:"successful_executions"`
	FailedRuns        int64      `json:"failed_executions"`
	SuccessRate       float64    `json:"success_rate"`
	TotalCasesCreated int64      `json:"total_cases_created"`
	LastSuccessAt     *time.Time `json:"last_success"`
}

// IngestionAuditService is the read side of the ingestion audit log.
type IngestionAuditService struct {
	logs   repository.IngestionLogRepository
	logger *logrus.Logger
}

func NewIngestionAuditService(logs repository.IngestionLogRepository, logger *logrus.Logger) *IngestionAuditService {
	return &IngestionAuditService{logs: logs, logger: logger}
}

func (s *IngestionAuditService) Status(ctx context.Context) (*RunStatus, error) {
	last, err := s.logs.Latest(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &RunStatus{Status: RunStatusNeverExecuted, Message: "no ingestion has run yet"}, nil
	}
	if err != nil {
		return nil, err
	}

	status := RunStatusFailed
	switch {
	case !last.Finished():
		status = RunStatusRunning
	case last.Success:
		status = RunStatusSuccess
	}
	return &RunStatus{Status: status, LastRun: last}, nil
}

// History returns the newest runs first; limit defaults to 10 and is capped at 100.
func (s *IngestionAuditService) History(ctx context.Context, limit int) ([]*model.IngestionLog, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.logs.ListRecent(ctx, limit)
}

func (s *IngestionAuditService) Stats(ctx context.Context, filter repository.TotalsFilter) (*IngestionStats, error) {
	totals, err := s.logs.Totals(ctx, filter)
	if err != nil {
		return nil, err
	}

	stats := &IngestionStats{
		TotalRuns:         totals.Total,
		SuccessfulRuns:    totals.Successful,
		FailedRuns:        totals.Total - totals.Successful,
		TotalCasesCreated: totals.CasesCreated,
	}
	if totals.Total > 0 {
		rate := float64(totals.Successful) / float64(totals.Total) * 100
		stats.SuccessRate = math.Round(rate*100) / 100
	}

	last, err := s.logs.LatestSuccessful(ctx)
	switch {
	case err == nil:
		stats.LastSuccessAt = &last.StartedAt
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return nil, fmt.Errorf("ingestion stats: %w", err)
	}
	return stats, nil
}
