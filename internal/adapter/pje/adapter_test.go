package pje

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"CaseSync/internal/config"

	"github.com/sirupsen/logrus"
)

type fakeSession struct {
	pages   map[string]string
	fail    map[string]error
	closed  int
	queries []string
}

func (s *fakeSession) Search(_ context.Context, term string) (string, error) {
	s.queries = append(s.queries, term)
	if err, ok := s.fail[term]; ok {
		return "", err
	}
	return s.pages[term], nil
}

func (s *fakeSession) Close() error {
	s.closed++
	return errors.New("already closed")
}

type fakeDetails map[string]string

func (f fakeDetails) FetchText(_ context.Context, url string) (string, error) {
	for suffix, text := range f {
		if strings.HasSuffix(url, suffix) {
			return text, nil
		}
	}
	return "", errors.New("404")
}

func testConfig(terms ...string) *config.PJeSourceConfig {
	return &config.PJeSourceConfig{
		PortalURL:   "https://pje.example/",
		SearchTerms: terms,
		MaxCases:    30,
	}
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func sessionOf(s *fakeSession) SessionFactory {
	return func(context.Context, *config.PJeSourceConfig, *logrus.Logger) (Session, error) {
		return s, nil
	}
}

var captured = time.Date(2025, 5, 2, 9, 30, 0, 0, time.UTC)

func TestFetchCasesKeepsFavorableRulings(t *testing.T) {
	session := &fakeSession{pages: map[string]string{
		"Secretaria de Saúde": `<a href="/DetalheProcessoConsultaPublica?ca=1">5000001-11.2024.8.13.0024 - Cirurgia</a>
<a href="/DetalheProcessoConsultaPublica?ca=2">5000002-22.2024.8.13.0024 - Medicamento</a>
<a href="/DetalheProcessoConsultaPublica?ca=3">5000003-33.2024.8.13.0024 - Exame</a>`,
	}}
	details := fakeDetails{
		"ca=1": "Comarca: Contagem - julgo procedente o pedido de cirurgia",
		"ca=2": "pedido indeferido",
	}

	a := newAdapter(testConfig("Secretaria de Saúde"), 10, quietLogger(), sessionOf(session), details, func() time.Time { return captured })
	got, err := a.FetchCases(context.Background())
	if err != nil {
		t.Fatalf("FetchCases: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	c := got[0]
	if c.CaseNumber != "5000001-11.2024.8.13.0024" || c.Procedure != "Cirurgia" || c.Municipality != "Contagem" {
		t.Errorf("unexpected case %+v", c)
	}
	if *c.ValueEstimate != 50000 {
		t.Errorf("value = %v", *c.ValueEstimate)
	}
	if want := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC); !c.DueDate.Equal(want) {
		t.Errorf("due = %v, want %v", c.DueDate, want)
	}
	if c.Meta["source"] != "pje_tjmg_real" || c.Meta["termo_busca"] != "Secretaria de Saúde" {
		t.Errorf("meta = %v", c.Meta)
	}
	if session.closed != 1 {
		t.Errorf("session closed %d times, want 1", session.closed)
	}
}

func TestFetchCasesAllSearchesFail(t *testing.T) {
	session := &fakeSession{fail: map[string]error{
		"a": errors.New("timeout"),
		"b": errors.New("timeout"),
	}}
	a := newAdapter(testConfig("a", "b"), 10, quietLogger(), sessionOf(session), fakeDetails{}, time.Now)

	if _, err := a.FetchCases(context.Background()); err == nil {
		t.Fatal("expected error when every search fails")
	}
	if session.closed != 1 {
		t.Errorf("session closed %d times, want 1", session.closed)
	}
	if len(session.queries) != 2 {
		t.Errorf("queries = %v", session.queries)
	}
}

func TestFetchCasesPartialSearchFailure(t *testing.T) {
	session := &fakeSession{
		fail:  map[string]error{"a": errors.New("timeout")},
		pages: map[string]string{"b": `<a href="/DetalheProcessoConsultaPublica?ca=9">5000009-99.2024.8.13.0024 - UTI</a>`},
	}
	details := fakeDetails{"ca=9": "defiro a internação em UTI"}
	a := newAdapter(testConfig("a", "b"), 10, quietLogger(), sessionOf(session), details, time.Now)

	got, err := a.FetchCases(context.Background())
	if err != nil {
		t.Fatalf("FetchCases: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
}

func TestFetchCasesBrowserUnavailable(t *testing.T) {
	failing := func(context.Context, *config.PJeSourceConfig, *logrus.Logger) (Session, error) {
		return nil, errors.New("chrome not found")
	}
	a := newAdapter(testConfig("a"), 10, quietLogger(), failing, fakeDetails{}, time.Now)
	if _, err := a.FetchCases(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestFetchCasesStopsAtLimit(t *testing.T) {
	session := &fakeSession{pages: map[string]string{
		"a": `<a href="/DetalheProcessoConsultaPublica?ca=1">5000001-11.2024.8.13.0024 - x</a>
<a href="/DetalheProcessoConsultaPublica?ca=2">5000002-22.2024.8.13.0024 - y</a>`,
		"b": `<a href="/DetalheProcessoConsultaPublica?ca=3">5000003-33.2024.8.13.0024 - z</a>`,
	}}
	details := fakeDetails{"ca=1": "defiro", "ca=2": "defiro", "ca=3": "defiro"}
	a := newAdapter(testConfig("a", "b"), 2, quietLogger(), sessionOf(session), details, time.Now)

	got, err := a.FetchCases(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if len(session.queries) != 1 {
		t.Errorf("second term searched after limit reached: %v", session.queries)
	}
}
