package mock

import (
	"context"
	"io"
	"regexp"
	"testing"
	"time"

	"CaseSync/internal/adapter"
	"CaseSync/internal/model"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func fixedNow() time.Time { return time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC) }

func TestFetchCasesShape(t *testing.T) {
	a := New(25, 42, fixedNow, quietLogger())
	got, err := a.FetchCases(context.Background())
	if err != nil {
		t.Fatalf("FetchCases: %v", err)
	}
	if len(got) != 25 {
		t.Fatalf("len = %d, want 25", len(got))
	}

	caseNumber := regexp.MustCompile(`^5002025\d{4}-\d{2}\.2025\.8\.13\.0000$`)
	today := model.StartOfDay(fixedNow())
	for i, c := range got {
		if !caseNumber.MatchString(c.CaseNumber) {
			t.Errorf("case %d: bad case number %q", i, c.CaseNumber)
		}
		if len(c.PatientHash) != 16 {
			t.Errorf("case %d: patient hash %q", i, c.PatientHash)
		}
		if v := *c.ValueEstimate; v < minValue || v > maxValue {
			t.Errorf("case %d: value %v out of range", i, v)
		}
		days := int(c.DueDate.Sub(today).Hours() / 24)
		if days < 10 || days > 90 {
			t.Errorf("case %d: due in %d days", i, days)
		}
		if c.Court != "TJMG" || c.Status != model.CaseStatusOpen {
			t.Errorf("case %d: court=%q status=%q", i, c.Court, c.Status)
		}
		if c.Meta["source"] != "mock_tjmg" {
			t.Errorf("case %d: meta %v", i, c.Meta)
		}
	}
}

func TestFetchCasesReproducible(t *testing.T) {
	a, _ := New(10, 7, fixedNow, quietLogger()).FetchCases(context.Background())
	b, _ := New(10, 7, fixedNow, quietLogger()).FetchCases(context.Background())
	for i := range a {
		if a[i].CaseNumber != b[i].CaseNumber || *a[i].ValueEstimate != *b[i].ValueEstimate ||
			a[i].Procedure != b[i].Procedure || a[i].Municipality != b[i].Municipality {
			t.Fatalf("record %d differs for the same seed: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestPatientHashIsStablePerIndex(t *testing.T) {
	if patientHash(3) != patientHash(3) {
		t.Fatal("hash not deterministic")
	}
	if patientHash(3) == patientHash(4) {
		t.Fatal("distinct patients share a hash")
	}
}

func TestRegisteredAsMock(t *testing.T) {
	factory, ok := adapter.GetFactory(model.SourceModeMock)
	if !ok {
		t.Fatal("mock factory not registered")
	}
	if factory == nil {
		t.Fatal("nil factory")
	}
}

func TestFetchCasesHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(5, 1, fixedNow, quietLogger()).FetchCases(ctx); err == nil {
		t.Fatal("expected error on cancelled context")
	}
}
