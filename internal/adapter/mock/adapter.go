// Package mock is a synthetic court-records source used for development,
// demos and the default ingestion mode.
package mock

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"CaseSync/internal/adapter"
	"CaseSync/internal/config"
	"CaseSync/internal/interfaces"
	"CaseSync/internal/model"

	"github.com/sirupsen/logrus"
)

var procedures = []string{
	"Cirurgia oncológica",
	"Radioterapia IMRT",
	"Cateterismo",
	"Prótese de quadril",
	"Hemodiálise",
	"Medicação de alto custo",
	"Quimioterapia",
}

var municipalities = []string{
	"Belo Horizonte", "Uberlândia", "Contagem", "Juiz de Fora",
	"Betim", "Montes Claros", "Uberaba", "Governador Valadares",
	"Ipatinga", "Sete Lagoas", "Divinópolis", "Ibirité",
	"Poços de Caldas", "Patos de Minas", "Teófilo Otoni", "Sabará",
}

const (
	minValue = 5000.0
	maxValue = 80000.0
)

func init() {
	adapter.Register(model.SourceModeMock, NewMockAdapter)
}

type MockAdapter struct {
	count  int
	rng    *rand.Rand
	now    func() time.Time
	logger *logrus.Logger
}

// NewMockAdapter is the registered factory. A zero seed seeds from the clock.
func NewMockAdapter(cfg *config.Config, logger *logrus.Logger, count int) interfaces.SourceAdapter {
	seed := cfg.Sources.Mock.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return New(count, seed, time.Now, logger)
}

func New(count int, seed int64, now func() time.Time, logger *logrus.Logger) *MockAdapter {
	return &MockAdapter{
		count:  count,
		rng:    rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)),
		now:    now,
		logger: logger,
	}
}

func (a *MockAdapter) Mode() model.SourceMode { return model.SourceModeMock }

func (a *MockAdapter) FetchCases(ctx context.Context) ([]*model.RawCase, error) {
	now := a.now()
	today := model.StartOfDay(now)
	year := now.Year()

	out := make([]*model.RawCase, 0, a.count)
	for i := 0; i < a.count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		value := minValue + a.rng.Float64()*(maxValue-minValue)
		value = math.Round(value*100) / 100
		due := today.AddDate(0, 0, 10+a.rng.IntN(81))

		out = append(out, &model.RawCase{
			Court:         "TJMG",
			Jurisdiction:  "Saúde",
			CaseNumber:    fmt.Sprintf("500%d%04d-%d.%d.8.13.0000", year, i, 10+a.rng.IntN(90), year),
			PatientHash:   patientHash(i),
			Procedure:     procedures[a.rng.IntN(len(procedures))],
			Municipality:  municipalities[a.rng.IntN(len(municipalities))],
			ValueEstimate: &value,
			Status:        model.CaseStatusOpen,
			DueDate:       &due,
			Meta: map[string]any{
				"stage":  "transitado_em_julgado",
				"source": "mock_tjmg",
			},
		})
	}

	a.logger.WithField("count", len(out)).Info("mock source generated cases")
	return out, nil
}

func patientHash(i int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("paciente_%d", i)))
	return hex.EncodeToString(sum[:])[:16]
}
