package adapter

import (
	"fmt"
	"sort"
	"sync"

	"CaseSync/internal/interfaces"
	"CaseSync/internal/model"

	"github.com/sirupsen/logrus"
)

var (
	factoryMu       sync.RWMutex
	factoryRegistry = make(map[model.SourceMode]interfaces.Factory)
)

// Register is called from the init functions of the source packages.
func Register(mode model.SourceMode, factory interfaces.Factory) {
	if factory == nil {
		panic(fmt.Sprintf("adapter factory for mode %s must not be nil", mode))
	}
	factoryMu.Lock()
	defer factoryMu.Unlock()
	if _, exists := factoryRegistry[mode]; exists {
		logrus.Warnf("adapter for mode %s already registered, overriding", mode)
	}
	factoryRegistry[mode] = factory
}

// GetFactory returns the factory registered for mode.
func GetFactory(mode model.SourceMode) (interfaces.Factory, bool) {
	factoryMu.RLock()
	defer factoryMu.RUnlock()
	factory, ok := factoryRegistry[mode]
	return factory, ok
}

// ListFactories lists the registered modes in sorted order.
func ListFactories() []model.SourceMode {
	factoryMu.RLock()
	defer factoryMu.RUnlock()
	modes := make([]model.SourceMode, 0, len(factoryRegistry))
	for m := range factoryRegistry {
		modes = append(modes, m)
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i] < modes[j] })
	return modes
}
