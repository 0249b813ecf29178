package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"CaseSync/internal/config"
	"CaseSync/internal/interfaces"
	"CaseSync/internal/model"
	"CaseSync/internal/repository"
	"CaseSync/internal/testutil"

	"gorm.io/gorm"
)

// scriptedSelector hands out one scripted adapter call per attempt.
type scriptedSelector struct {
	calls   int
	modes   []model.SourceMode
	fetches []func() ([]*model.RawCase, error)
}

func (s *scriptedSelector) Source(mode model.SourceMode, _ int) (interfaces.SourceAdapter, error) {
	s.modes = append(s.modes, mode)
	i := s.calls
	s.calls++
	if i >= len(s.fetches) {
		i = len(s.fetches) - 1
	}
	return &funcSource{mode: mode, fetch: s.fetches[i]}, nil
}

type funcSource struct {
	mode  model.SourceMode
	fetch func() ([]*model.RawCase, error)
}

func (f *funcSource) Mode() model.SourceMode { return f.mode }

func (f *funcSource) FetchCases(context.Context) ([]*model.RawCase, error) { return f.fetch() }

type recordingSleeper struct {
	delays []time.Duration
	err    error
}

func (r *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return r.err
}

func failing(msg string) func() ([]*model.RawCase, error) {
	return func() ([]*model.RawCase, error) { return nil, errors.New(msg) }
}

func records(n int, prefix string) func() ([]*model.RawCase, error) {
	return func() ([]*model.RawCase, error) {
		out := make([]*model.RawCase, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, rawCase(fmt.Sprintf("%s-%02d", prefix, i)))
		}
		return out, nil
	}
}

func rawCase(number string) *model.RawCase {
	value := 10000.0
	due := time.Now().AddDate(0, 0, 15)
	return &model.RawCase{
		Court:         "TJMG",
		Jurisdiction:  "Saúde",
		CaseNumber:    number,
		PatientHash:   "h" + number,
		Procedure:     "cirurgia",
		Municipality:  "belo horizonte",
		ValueEstimate: &value,
		Status:        model.CaseStatusOpen,
		DueDate:       &due,
	}
}

type ingestionFixture struct {
	db      *gorm.DB
	svc     *IngestionService
	sleeper *recordingSleeper
	logs    repository.IngestionLogRepository
	cases   repository.CaseRepository
}

func newIngestionFixture(t *testing.T, sel interfaces.SourceSelector) *ingestionFixture {
	t.Helper()
	db := testutil.NewDB(t)
	cfg := config.Default()
	f := &ingestionFixture{
		db:      db,
		sleeper: &recordingSleeper{},
		logs:    repository.NewIngestionLogRepository(db),
		cases:   repository.NewCaseRepository(db),
	}
	f.svc = NewIngestionService(sel, f.cases, f.logs, &cfg.Ingestion, testutil.Logger(), WithSleeper(f.sleeper))
	return f
}

func (f *ingestionFixture) logRows(t *testing.T) []model.IngestionLog {
	t.Helper()
	var rows []model.IngestionLog
	if err := f.db.Find(&rows).Error; err != nil {
		t.Fatal(err)
	}
	return rows
}

func TestRunSucceedsOnThirdAttempt(t *testing.T) {
	sel := &scriptedSelector{fetches: []func() ([]*model.RawCase, error){
		failing("portal timeout"),
		failing("layout changed"),
		records(4, "ok"),
	}}
	f := newIngestionFixture(t, sel)

	res, err := f.svc.Run(context.Background(), RunRequest{Count: 4, MaxAttempts: 3})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Success || res.Attempt != 3 || res.CasesCreated != 4 || res.CasesFound != 4 {
		t.Fatalf("result = %+v", res)
	}
	if want := []time.Duration{10 * time.Second, 20 * time.Second}; fmt.Sprint(f.sleeper.delays) != fmt.Sprint(want) {
		t.Fatalf("delays = %v, want %v", f.sleeper.delays, want)
	}

	rows := f.logRows(t)
	if len(rows) != 1 {
		t.Fatalf("log rows = %d, want 1", len(rows))
	}
	row := rows[0]
	if !row.Success || row.AttemptNumber != 3 || row.ID != res.LogID || !row.Finished() {
		t.Fatalf("log row = %+v", row)
	}
	if row.ErrorMessage != nil {
		t.Fatalf("error message on success: %q", *row.ErrorMessage)
	}
	if row.ExecutionType != model.ExecutionManual || row.Mode != model.SourceModeMock {
		t.Fatalf("defaults not applied: %+v", row)
	}
}

func TestRunExhaustsAttempts(t *testing.T) {
	sel := &scriptedSelector{fetches: []func() ([]*model.RawCase, error){failing("browser crashed")}}
	f := newIngestionFixture(t, sel)

	res, err := f.svc.Run(context.Background(), RunRequest{Count: 5, MaxAttempts: 3, ExecutionType: model.ExecutionAPI})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Success || !res.MaxAttemptsReached || res.Attempt != 3 {
		t.Fatalf("result = %+v", res)
	}
	if !strings.Contains(res.Error, "browser crashed") {
		t.Fatalf("error = %q", res.Error)
	}
	if sel.calls != 3 {
		t.Fatalf("adapter called %d times", sel.calls)
	}
	if len(f.sleeper.delays) != 2 {
		t.Fatalf("slept %d times, want 2", len(f.sleeper.delays))
	}

	rows := f.logRows(t)
	if len(rows) != 1 {
		t.Fatalf("log rows = %d", len(rows))
	}
	row := rows[0]
	if row.Success || row.AttemptNumber != 3 || row.ErrorMessage == nil || row.ErrorTrace == nil {
		t.Fatalf("log row = %+v", row)
	}
	if !strings.Contains(*row.ErrorTrace, "browser crashed") {
		t.Fatalf("trace = %q", *row.ErrorTrace)
	}
}

func TestRunPartialBatch(t *testing.T) {
	fetch := func() ([]*model.RawCase, error) {
		out, _ := records(8, "good")()
		bad := rawCase("")
		past := time.Now().AddDate(0, 0, -3)
		expired := rawCase("expired")
		expired.DueDate = &past
		return append(out, bad, expired), nil
	}
	f := newIngestionFixture(t, &scriptedSelector{fetches: []func() ([]*model.RawCase, error){fetch}})

	res, err := f.svc.Run(context.Background(), RunRequest{Count: 10})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.CasesFound != 10 || res.CasesCreated != 8 || res.Attempt != 1 {
		t.Fatalf("result = %+v", res)
	}
	n, _ := f.cases.Count(context.Background())
	if n != 8 {
		t.Fatalf("stored = %d", n)
	}
}

func TestRunTwiceIsIdempotent(t *testing.T) {
	sel := &scriptedSelector{fetches: []func() ([]*model.RawCase, error){records(5, "same")}}
	f := newIngestionFixture(t, sel)
	ctx := context.Background()

	first, err := f.svc.Run(ctx, RunRequest{Count: 5})
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.svc.Run(ctx, RunRequest{Count: 5})
	if err != nil {
		t.Fatal(err)
	}
	if first.CasesCreated != 5 || second.CasesCreated != 5 {
		t.Fatalf("created = %d / %d", first.CasesCreated, second.CasesCreated)
	}
	n, _ := f.cases.Count(ctx)
	if n != 5 {
		t.Fatalf("stored = %d, want 5", n)
	}

	row, err := f.logs.GetByID(ctx, second.LogID)
	if err != nil {
		t.Fatal(err)
	}
	var meta map[string]any
	if err := json.Unmarshal(row.Meta, &meta); err != nil {
		t.Fatal(err)
	}
	if meta["cases_new"] != float64(0) {
		t.Fatalf("second run cases_new = %v", meta["cases_new"])
	}
	if len(f.logRows(t)) != 2 {
		t.Fatal("expected one log row per run")
	}
}

func TestRunRecoversAdapterPanic(t *testing.T) {
	boom := func() ([]*model.RawCase, error) { panic("nil pointer in parser") }
	sel := &scriptedSelector{fetches: []func() ([]*model.RawCase, error){boom, records(1, "p")}}
	f := newIngestionFixture(t, sel)

	res, err := f.svc.Run(context.Background(), RunRequest{Count: 1, MaxAttempts: 2})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.Attempt != 2 {
		t.Fatalf("result = %+v", res)
	}
}

func TestRunCancelledDuringBackoff(t *testing.T) {
	sel := &scriptedSelector{fetches: []func() ([]*model.RawCase, error){failing("down")}}
	f := newIngestionFixture(t, sel)
	f.sleeper.err = context.Canceled

	res, err := f.svc.Run(context.Background(), RunRequest{MaxAttempts: 5})
	if err != nil {
		t.Fatal(err)
	}
	if res.Success || res.MaxAttemptsReached || res.Attempt != 1 {
		t.Fatalf("result = %+v", res)
	}
	rows := f.logRows(t)
	if len(rows) != 1 || !rows[0].Finished() || rows[0].Success {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestRunDailyUsesScheduledDefaults(t *testing.T) {
	sel := &scriptedSelector{fetches: []func() ([]*model.RawCase, error){records(2, "cron")}}
	f := newIngestionFixture(t, sel)
	f.svc.cfg.UseReal = true
	f.svc.cfg.DailyCount = 2
	f.svc.cfg.DailyMaxAttempts = 4

	res, err := f.svc.RunDaily(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success {
		t.Fatalf("result = %+v", res)
	}
	if sel.modes[0] != model.SourceModeReal {
		t.Fatalf("mode = %s", sel.modes[0])
	}
	row := f.logRows(t)[0]
	if row.ExecutionType != model.ExecutionCron || row.MaxAttempts != 4 || row.RequestedCount != 2 {
		t.Fatalf("row = %+v", row)
	}
}
