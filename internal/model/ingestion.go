package model

import (
	"time"

	"gorm.io/datatypes"
)

// SourceMode selects the source adapter for a run.
type SourceMode string

const (
	SourceModeMock SourceMode = "mock"
	SourceModeReal SourceMode = "real"
)

// ModeFor maps the use_real flag used by every trigger surface.
func ModeFor(useReal bool) SourceMode {
	if useReal {
		return SourceModeReal
	}
	return SourceModeMock
}

type ExecutionType string

const (
	ExecutionManual ExecutionType = "manual"
	ExecutionCron   ExecutionType = "cron"
	ExecutionAPI    ExecutionType = "api"
)

// IngestionLog is one row per ingestion run: created at start, updated in
// place on every attempt, finalized exactly once.
type IngestionLog struct {
	ID              uint64         `gorm:"column:id;primaryKey;autoIncrement" json:"log_id"`
	RunID           string         `gorm:"column:run_id;type:varchar(64);uniqueIndex;not null" json:"run_id"`
	StartedAt       time.Time      `gorm:"column:started_at;not null;index;index:ix_ingestion_log_started_success,priority:1" json:"started_at"`
	FinishedAt      *time.Time     `gorm:"column:finished_at" json:"finished_at"`
	DurationSeconds *float64       `gorm:"column:duration_seconds" json:"duration_seconds"`
	Mode            SourceMode     `gorm:"column:mode;type:varchar(8);not null;index" json:"mode"`
	RequestedCount  int            `gorm:"column:requested_count;not null" json:"requested_count"`
	Success         bool           `gorm:"column:success;not null;default:false;index:ix_ingestion_log_started_success,priority:2" json:"success"`
	CasesFound      int            `gorm:"column:cases_found;not null;default:0" json:"cases_found"`
	CasesCreated    int            `gorm:"column:cases_created;not null;default:0" json:"cases_created"`
	AttemptNumber   int            `gorm:"column:attempt_number;not null;default:1" json:"attempt_number"`
	MaxAttempts     int            `gorm:"column:max_attempts;not null;default:3" json:"max_attempts"`
	ErrorMessage    *string        `gorm:"column:error_message;type:text" json:"error_message"`
	ErrorTrace      *string        `gorm:"column:error_trace;type:text" json:"-"`
	Meta            datatypes.JSON `gorm:"column:meta" json:"meta"`
	ExecutionType   ExecutionType  `gorm:"column:execution_type;type:varchar(16);not null;index:ix_ingestion_log_execution_type,priority:1" json:"execution_type"`
}

func (IngestionLog) TableName() string { return "ingestion_logs" }

// Finished reports whether the owning run has been finalized.
func (l *IngestionLog) Finished() bool { return l.FinishedAt != nil }
