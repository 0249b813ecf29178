package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"CaseSync/internal/model"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrRunFinished is returned when writing to a log row whose run already ended.
var ErrRunFinished = errors.New("ingestion run already finished")

// IngestionLogRepository is the audit trail of ingestion runs. A row is
// writable only until Finish succeeds on it.
type IngestionLogRepository interface {
	Create(ctx context.Context, log *model.IngestionLog) error
	UpdateAttempt(ctx context.Context, id uint64, attempt int) error
	Finish(ctx context.Context, id uint64, out RunOutcome) error
	GetByID(ctx context.Context, id uint64) (*model.IngestionLog, error)
	Latest(ctx context.Context) (*model.IngestionLog, error)
	LatestSuccessful(ctx context.Context) (*model.IngestionLog, error)
	ListRecent(ctx context.Context, limit int) ([]*model.IngestionLog, error)
	Totals(ctx context.Context, filter TotalsFilter) (*IngestionTotals, error)
}

// TotalsFilter narrows the aggregate; zero values mean no restriction.
type TotalsFilter struct {
	ExecutionType model.ExecutionType
	Since         *time.Time
}

// RunOutcome is everything written when a run is finalized.
type RunOutcome struct {
	FinishedAt      time.Time
	DurationSeconds float64
	Success         bool
	AttemptNumber   int
	CasesFound      int
	CasesCreated    int
	ErrorMessage    *string
	ErrorTrace      *string
	Meta            datatypes.JSON
}

// IngestionTotals aggregate counters over all runs.
type IngestionTotals struct {
	Total        int64 `gorm:"column:total"`
	Successful   int64 `gorm:"column:successful"`
	CasesCreated int64 `gorm:"column:cases_created"`
}

type ingestionLogRepository struct {
	db *gorm.DB
}

func NewIngestionLogRepository(db *gorm.DB) IngestionLogRepository {
	return &ingestionLogRepository{db: db}
}

func (r *ingestionLogRepository) Create(ctx context.Context, log *model.IngestionLog) error {
	if err := r.db.WithContext(ctx).Create(log).Error; err != nil {
		return fmt.Errorf("create ingestion log: %w", err)
	}
	return nil
}

func (r *ingestionLogRepository) UpdateAttempt(ctx context.Context, id uint64, attempt int) error {
	res := r.db.WithContext(ctx).Model(&model.IngestionLog{}).
		Where("id = ? AND finished_at IS NULL", id).
		Update("attempt_number", attempt)
	if res.Error != nil {
		return fmt.Errorf("update attempt of ingestion log %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update attempt of ingestion log %d: %w", id, ErrRunFinished)
	}
	return nil
}

func (r *ingestionLogRepository) Finish(ctx context.Context, id uint64, out RunOutcome) error {
	res := r.db.WithContext(ctx).Model(&model.IngestionLog{}).
		Where("id = ? AND finished_at IS NULL", id).
		Updates(map[string]any{
			"finished_at":      out.FinishedAt,
			"duration_seconds": out.DurationSeconds,
			"success":          out.Success,
			"attempt_number":   out.AttemptNumber,
			"cases_found":      out.CasesFound,
			"cases_created":    out.CasesCreated,
			"error_message":    out.ErrorMessage,
			"error_trace":      out.ErrorTrace,
			"meta":             out.Meta,
		})
	if res.Error != nil {
		return fmt.Errorf("finish ingestion log %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("finish ingestion log %d: %w", id, ErrRunFinished)
	}
	return nil
}

func (r *ingestionLogRepository) GetByID(ctx context.Context, id uint64) (*model.IngestionLog, error) {
	var l model.IngestionLog
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&l).Error; err != nil {
		return nil, fmt.Errorf("get ingestion log %d: %w", id, err)
	}
	return &l, nil
}

// Latest returns gorm.ErrRecordNotFound (wrapped) when no run exists.
func (r *ingestionLogRepository) Latest(ctx context.Context) (*model.IngestionLog, error) {
	var l model.IngestionLog
	if err := r.db.WithContext(ctx).Order("started_at DESC").Order("id DESC").Take(&l).Error; err != nil {
		return nil, fmt.Errorf("latest ingestion log: %w", err)
	}
	return &l, nil
}

func (r *ingestionLogRepository) LatestSuccessful(ctx context.Context) (*model.IngestionLog, error) {
	var l model.IngestionLog
	if err := r.db.WithContext(ctx).Where("success = ?", true).
		Order("started_at DESC").Order("id DESC").Take(&l).Error; err != nil {
		return nil, fmt.Errorf("latest successful ingestion log: %w", err)
	}
	return &l, nil
}

func (r *ingestionLogRepository) ListRecent(ctx context.Context, limit int) ([]*model.IngestionLog, error) {
	var list []*model.IngestionLog
	if err := r.db.WithContext(ctx).Order("started_at DESC").Order("id DESC").
		Limit(limit).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list ingestion logs: %w", err)
	}
	return list, nil
}

// Totals runs a single aggregate statement over the log table.
func (r *ingestionLogRepository) Totals(ctx context.Context, filter TotalsFilter) (*IngestionTotals, error) {
	qb := sq.Select(
		"COUNT(*) AS total",
		"COALESCE(SUM(CASE WHEN success THEN 1 ELSE 0 END), 0) AS successful",
		"COALESCE(SUM(CASE WHEN success THEN cases_created ELSE 0 END), 0) AS cases_created",
	).From(model.IngestionLog{}.TableName())
	if filter.ExecutionType != "" {
		qb = qb.Where(sq.Eq{"execution_type": string(filter.ExecutionType)})
	}
	if filter.Since != nil {
		qb = qb.Where(sq.GtOrEq{"started_at": *filter.Since})
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build ingestion totals query: %w", err)
	}

	var t IngestionTotals
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&t).Error; err != nil {
		return nil, fmt.Errorf("ingestion totals: %w", err)
	}
	return &t, nil
}
