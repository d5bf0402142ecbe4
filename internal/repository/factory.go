package repository

import (
	"fmt"

	"equity-advisor/internal/interfaces"
	"equity-advisor/internal/store"
)

// New opens the configured store. Callers own Close.
func New(cfg *store.Config) (interfaces.RecommendationStore, error) {
	switch cfg.Storage.Driver {
	case "memory":
		return NewMemory(), nil
	case "sqlite":
		return OpenSQLite(cfg.Storage.Path)
	case "badger":
		return OpenBadger(cfg.Storage.Path)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}
