// Package pje scrapes the TJMG PJe public search portal for health cases won
// against public health departments.
package pje

import (
	"context"
	"io"
	"net/http"
	"time"

	"CaseSync/internal/adapter"
	"CaseSync/internal/config"
	"CaseSync/internal/interfaces"
	"CaseSync/internal/model"
	"CaseSync/internal/utils/httpclient"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const dueInDays = 30

func init() {
	adapter.Register(model.SourceModeReal, NewPJeAdapter)
}

// DetailFetcher returns the visible text of a case detail page.
type DetailFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

type PJeAdapter struct {
	cfg        *config.PJeSourceConfig
	limit      int
	logger     *logrus.Logger
	newSession SessionFactory
	details    DetailFetcher
	now        func() time.Time
}

// NewPJeAdapter is the registered factory for the live source.
func NewPJeAdapter(cfg *config.Config, logger *logrus.Logger, count int) interfaces.SourceAdapter {
	pjeCfg := cfg.Sources.PJe
	return newAdapter(&pjeCfg, count, logger, NewChromeSession,
		&httpDetailFetcher{client: httpclient.NewHTTPClient(&pjeCfg, logger)}, time.Now)
}

func newAdapter(cfg *config.PJeSourceConfig, count int, logger *logrus.Logger,
	sessions SessionFactory, details DetailFetcher, now func() time.Time) *PJeAdapter {
	limit := cfg.MaxCases
	if count > 0 && (limit <= 0 || count < limit) {
		limit = count
	}
	return &PJeAdapter{
		cfg:        cfg,
		limit:      limit,
		logger:     logger,
		newSession: sessions,
		details:    details,
		now:        now,
	}
}

func (a *PJeAdapter) Mode() model.SourceMode { return model.SourceModeReal }

// FetchCases holds one browser session for the whole call and always
// releases it.
func (a *PJeAdapter) FetchCases(ctx context.Context) ([]*model.RawCase, error) {
	session, err := a.newSession(ctx, a.cfg, a.logger)
	if err != nil {
		a.logger.WithError(err).Error("pje: browser session unavailable")
		return nil, errors.Wrap(err, "pje: start browser session")
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			a.logger.WithError(cerr).Warn("pje: close browser session")
		}
	}()

	listings, err := a.collectListings(ctx, session)
	if err != nil {
		return nil, err
	}

	captured := a.now()
	due := model.StartOfDay(captured).AddDate(0, 0, dueInDays)

	out := make([]*model.RawCase, 0, len(listings))
	for _, l := range listings {
		if err := ctx.Err(); err != nil {
			return nil, errors.WithStack(err)
		}
		rc, ok := a.buildCase(ctx, l, captured, due)
		if ok {
			out = append(out, rc)
		}
	}

	a.logger.WithFields(logrus.Fields{
		"listings":  len(listings),
		"favorable": len(out),
	}).Info("pje: capture finished")
	return out, nil
}

func (a *PJeAdapter) collectListings(ctx context.Context, session Session) ([]Listing, error) {
	var (
		listings []Listing
		searched int
		failed   int
		lastErr  error
	)
	for _, term := range a.cfg.SearchTerms {
		if len(listings) >= a.limit {
			break
		}
		searched++
		log := a.logger.WithField("term", term)

		html, err := session.Search(ctx, term)
		if err != nil {
			if ctx.Err() != nil {
				return nil, errors.WithStack(ctx.Err())
			}
			failed++
			lastErr = err
			log.WithError(err).Warn("pje: search failed")
			continue
		}
		found, err := ParseListings(html, a.cfg.PortalURL, term, a.limit-len(listings))
		if err != nil {
			failed++
			lastErr = err
			log.WithError(err).Warn("pje: unreadable result page")
			continue
		}
		log.WithField("found", len(found)).Info("pje: search done")
		listings = append(listings, found...)
	}

	if searched > 0 && failed == searched {
		a.logger.WithError(lastErr).WithField("searches", searched).Error("pje: every search failed")
		return nil, errors.Wrapf(lastErr, "pje: all %d searches failed", searched)
	}
	return listings, nil
}

func (a *PJeAdapter) buildCase(ctx context.Context, l Listing, captured, due time.Time) (*model.RawCase, bool) {
	log := a.logger.WithField("case_number", l.Number)

	detail, err := a.details.FetchText(ctx, l.URL)
	if err != nil {
		log.WithError(err).Warn("pje: detail page unavailable, skipping")
		return nil, false
	}

	text := l.Text + " " + detail
	if !IsFavorable(text) {
		log.Debug("pje: no favorable ruling, skipping")
		return nil, false
	}
	kind, estimate := Classify(l.Subject + " " + text)

	return &model.RawCase{
		Court:         "TJMG",
		Jurisdiction:  "Saúde",
		CaseNumber:    l.Number,
		PatientHash:   PatientHash(l.Number),
		Procedure:     capitalize(kind),
		Municipality:  ExtractMunicipality(text),
		ValueEstimate: &estimate,
		Status:        model.CaseStatusOpen,
		DueDate:       &due,
		Meta: map[string]any{
			"assunto":      l.Subject,
			"url":          l.URL,
			"termo_busca":  l.Term,
			"source":       "pje_tjmg_real",
			"captura_data": captured.Format(time.RFC3339),
		},
	}, true
}

type httpDetailFetcher struct {
	client *http.Client
}

func (f *httpDetailFetcher) FetchText(ctx context.Context, url string) (string, error) {
	resp, err := httpclient.Get(ctx, f.client, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", errors.Wrapf(err, "read detail page %s", url)
	}
	return ExtractText(string(body))
}
