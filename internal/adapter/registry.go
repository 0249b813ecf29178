package adapter

import (
	"fmt"

	"CaseSync/internal/config"
	"CaseSync/internal/interfaces"
	"CaseSync/internal/model"

	"github.com/sirupsen/logrus"
)

// SourceRegistry builds a fresh adapter per run from the registered factories.
type SourceRegistry struct {
	cfg    *config.Config
	logger *logrus.Logger
}

func NewSourceRegistry(cfg *config.Config, logger *logrus.Logger) *SourceRegistry {
	logger.WithField("modes", ListFactories()).Info("source adapter factories registered")
	return &SourceRegistry{cfg: cfg, logger: logger}
}

// Source implements interfaces.SourceSelector.
func (r *SourceRegistry) Source(mode model.SourceMode, count int) (interfaces.SourceAdapter, error) {
	factory, ok := GetFactory(mode)
	if !ok {
		return nil, fmt.Errorf("no source adapter registered for mode %q (registered: %v)", mode, ListFactories())
	}

	src := factory(r.cfg, r.logger, count)
	if src == nil {
		return nil, fmt.Errorf("factory for mode %q returned nil adapter", mode)
	}
	if src.Mode() != mode {
		r.logger.WithFields(logrus.Fields{
			"requested_mode": mode,
			"adapter_mode":   src.Mode(),
		}).Error("adapter mode does not match registration")
		return nil, fmt.Errorf("adapter mode %q does not match requested %q", src.Mode(), mode)
	}
	return src, nil
}
