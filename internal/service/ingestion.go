package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"CaseSync/internal/config"
	"CaseSync/internal/interfaces"
	"CaseSync/internal/model"
	"CaseSync/internal/normalizer"
	"CaseSync/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// RunRequest parameters of one ingestion run. Zero values take the configured
// defaults.
type RunRequest struct {
	Count         int
	UseReal       bool
	ExecutionType model.ExecutionType
	MaxAttempts   int
}

// RunResult is what every trigger surface returns to its caller.
type RunResult struct {
	Success            bool    `json:"success"`
	LogID              uint64  `json:"log_id"`
	RunID              string  `json:"run_id"`
	Attempt            int     `json:"attempt"`
	CasesCreated       int     `json:"cases_created"`
	CasesFound         int     `json:"cases_found"`
	DurationSeconds    float64 `json:"duration_seconds"`
	Error              string  `json:"error,omitempty"`
	MaxAttemptsReached bool    `json:"max_attempts_reached"`
}

// IngestionService runs source pulls with retry and keeps the audit row of
// each run current. It is the only component that retries.
type IngestionService struct {
	sources  interfaces.SourceSelector
	cases    repository.CaseRepository
	logs     repository.IngestionLogRepository
	cfg      *config.IngestionConfig
	backoff  BackoffPolicy
	sleeper  Sleeper
	now      func() time.Time
	validate *validator.Validate
	logger   *logrus.Logger
}

type IngestionOption func(*IngestionService)

// WithSleeper replaces the backoff wait, e.g. with a recording fake in tests.
func WithSleeper(s Sleeper) IngestionOption {
	return func(svc *IngestionService) { svc.sleeper = s }
}

func WithClock(now func() time.Time) IngestionOption {
	return func(svc *IngestionService) { svc.now = now }
}

func NewIngestionService(sources interfaces.SourceSelector, cases repository.CaseRepository,
	logs repository.IngestionLogRepository, cfg *config.IngestionConfig, logger *logrus.Logger,
	opts ...IngestionOption) *IngestionService {
	s := &IngestionService{
		sources: sources,
		cases:   cases,
		logs:    logs,
		cfg:     cfg,
		backoff: BackoffPolicy{Base: cfg.BackoffBase, Max: cfg.BackoffMax},
		sleeper: RealSleeper,
		now:     time.Now,
		logger:  logger,
	}
	for _, o := range opts {
		o(s)
	}
	s.validate = newValidator(s.now)
	return s
}

// RunDaily is the scheduled run: environment-driven count, mode and attempts.
func (s *IngestionService) RunDaily(ctx context.Context) (*RunResult, error) {
	return s.Run(ctx, RunRequest{
		Count:         s.cfg.DailyCount,
		UseReal:       s.cfg.UseReal,
		ExecutionType: model.ExecutionCron,
		MaxAttempts:   s.cfg.DailyMaxAttempts,
	})
}

// Run executes one ingestion run. The returned error is non-nil only when the
// audit row could not be created; every other failure is reported in the
// result and in the audit row.
func (s *IngestionService) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	req = s.withDefaults(req)
	mode := model.ModeFor(req.UseReal)
	started := s.now()

	run := &model.IngestionLog{
		RunID:          uuid.NewString(),
		StartedAt:      started,
		Mode:           mode,
		RequestedCount: req.Count,
		AttemptNumber:  1,
		MaxAttempts:    req.MaxAttempts,
		ExecutionType:  req.ExecutionType,
	}
	if err := s.logs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("start ingestion run: %w", err)
	}

	log := s.logger.WithFields(logrus.Fields{
		"run_id":         run.RunID,
		"log_id":         run.ID,
		"mode":           mode,
		"execution_type": req.ExecutionType,
		"max_attempts":   req.MaxAttempts,
	})
	log.WithField("count", req.Count).Info("ingestion run started")

	var lastErr error
	for attempt := 1; attempt <= req.MaxAttempts; attempt++ {
		alog := log.WithField("attempt", attempt)
		if attempt > 1 {
			if err := s.logs.UpdateAttempt(ctx, run.ID, attempt); err != nil {
				alog.WithError(err).Warn("record attempt number")
			}
		}

		out, err := s.attempt(ctx, mode, req.Count, alog)
		if err == nil {
			return s.finishSuccess(ctx, run, attempt, out, alog), nil
		}
		lastErr = err
		alog.WithError(err).Warn("ingestion attempt failed")

		if attempt == req.MaxAttempts {
			break
		}
		delay := s.backoff.Delay(attempt)
		alog.WithField("backoff", delay.String()).Info("retrying after backoff")
		if err := s.sleeper.Sleep(ctx, delay); err != nil {
			cause := errors.Wrapf(err, "ingestion cancelled after attempt %d", attempt)
			return s.finishFailure(ctx, run, attempt, cause, false, log), nil
		}
	}

	return s.finishFailure(ctx, run, req.MaxAttempts, lastErr, true, log), nil
}

func (s *IngestionService) withDefaults(req RunRequest) RunRequest {
	if req.Count <= 0 {
		req.Count = s.cfg.DefaultCount
	}
	if req.MaxAttempts <= 0 {
		req.MaxAttempts = s.cfg.MaxAttempts
	}
	if req.ExecutionType == "" {
		req.ExecutionType = model.ExecutionManual
	}
	return req
}

type attemptOutcome struct {
	found    int
	created  int
	inserted int
	skipped  int
}

// attempt is one fetch and store pass. Adapter panics become attempt errors.
func (s *IngestionService) attempt(ctx context.Context, mode model.SourceMode, count int, log *logrus.Entry) (out attemptOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("ingestion attempt panicked: %v", r)
		}
	}()

	src, err := s.sources.Source(mode, count)
	if err != nil {
		return out, errors.WithStack(err)
	}
	raws, err := src.FetchCases(ctx)
	if err != nil {
		return out, errors.Wrapf(err, "fetch from %s source", mode)
	}

	out.found = len(raws)
	for i, raw := range raws {
		rlog := log.WithField("record", i)
		nc, err := s.prepare(raw)
		if err != nil {
			out.skipped++
			rlog.WithError(err).Warn("record rejected")
			continue
		}
		_, created, err := s.cases.GetOrCreate(ctx, nc)
		if err != nil {
			out.skipped++
			rlog.WithError(err).WithField("case_number", nc.CaseNumber).Warn("record not stored")
			continue
		}
		out.created++
		if created {
			out.inserted++
		}
	}
	return out, nil
}

func (s *IngestionService) prepare(raw *model.RawCase) (*model.NormalizedCase, error) {
	if raw == nil {
		return nil, errors.New("nil record")
	}
	nc := normalizer.NormalizeCase(raw)
	if err := s.validate.Struct(&nc.RawCase); err != nil {
		return nil, invalid(err)
	}
	return nc, nil
}

func (s *IngestionService) finishSuccess(ctx context.Context, run *model.IngestionLog, attempt int, out attemptOutcome, log *logrus.Entry) *RunResult {
	finished := s.now()
	duration := finished.Sub(run.StartedAt).Seconds()

	meta := s.encodeMeta(map[string]any{
		"cases_new":       out.inserted,
		"records_skipped": out.skipped,
		"attempts_used":   attempt,
	}, log)
	err := s.logs.Finish(context.WithoutCancel(ctx), run.ID, repository.RunOutcome{
		FinishedAt:      finished,
		DurationSeconds: duration,
		Success:         true,
		AttemptNumber:   attempt,
		CasesFound:      out.found,
		CasesCreated:    out.created,
		Meta:            meta,
	})
	if err != nil {
		log.WithError(err).Error("finalize ingestion log")
	}

	log.WithFields(logrus.Fields{
		"cases_found":   out.found,
		"cases_created": out.created,
		"cases_new":     out.inserted,
		"duration_s":    duration,
	}).Info("ingestion run succeeded")

	return &RunResult{
		Success:         true,
		LogID:           run.ID,
		RunID:           run.RunID,
		Attempt:         attempt,
		CasesCreated:    out.created,
		CasesFound:      out.found,
		DurationSeconds: duration,
	}
}

func (s *IngestionService) finishFailure(ctx context.Context, run *model.IngestionLog, attempt int, cause error, exhausted bool, log *logrus.Entry) *RunResult {
	if cause == nil {
		cause = errors.New("ingestion failed")
	}
	finished := s.now()
	duration := finished.Sub(run.StartedAt).Seconds()
	msg := cause.Error()
	trace := fmt.Sprintf("%+v", cause)

	meta := s.encodeMeta(map[string]any{
		"attempts_used":        attempt,
		"max_attempts_reached": exhausted,
	}, log)
	err := s.logs.Finish(context.WithoutCancel(ctx), run.ID, repository.RunOutcome{
		FinishedAt:      finished,
		DurationSeconds: duration,
		Success:         false,
		AttemptNumber:   attempt,
		ErrorMessage:    &msg,
		ErrorTrace:      &trace,
		Meta:            meta,
	})
	if err != nil {
		log.WithError(err).Error("finalize ingestion log")
	}

	log.WithError(cause).WithFields(logrus.Fields{
		"attempt":              attempt,
		"max_attempts_reached": exhausted,
	}).Error("ingestion run failed")

	return &RunResult{
		Success:            false,
		LogID:              run.ID,
		RunID:              run.RunID,
		Attempt:            attempt,
		DurationSeconds:    duration,
		Error:              msg,
		MaxAttemptsReached: exhausted,
	}
}

func (s *IngestionService) encodeMeta(m map[string]any, log *logrus.Entry) datatypes.JSON {
	b, err := json.Marshal(m)
	if err != nil {
		log.WithError(err).Warn("encode ingestion meta")
		return nil
	}
	return datatypes.JSON(b)
}
