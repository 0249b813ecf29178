package interfaces

import (
	"context"

	"CaseSync/internal/config"
	"CaseSync/internal/model"

	"github.com/sirupsen/logrus"
)

// SourceAdapter is implemented by every court-records source. Adapters are
// built per run and must not be shared between runs.
type SourceAdapter interface {
	Mode() model.SourceMode
	// FetchCases returns the raw records of one pull. A non-nil error fails
	// the whole attempt; per-record problems are the adapter's to skip.
	FetchCases(ctx context.Context) ([]*model.RawCase, error)
}

// Factory builds an adapter that yields up to count records.
type Factory func(cfg *config.Config, logger *logrus.Logger, count int) SourceAdapter

// SourceSelector resolves the adapter for a mode.
type SourceSelector interface {
	Source(mode model.SourceMode, count int) (SourceAdapter, error)
}
