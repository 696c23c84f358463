package storage

import (
	"fmt"

	"archive-analyzer/config"
)

// Open returns the store selected by cfg.StorageDriver, or nil for "none".
func Open(cfg *config.Config) (RecordStore, error) {
	switch cfg.StorageDriver {
	case "", "none":
		return nil, nil
	case "postgres":
		s, err := NewPostgresStore(cfg.DSN())
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		s, err := NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q (want none, postgres or sqlite)", cfg.StorageDriver)
}
