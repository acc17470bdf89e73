package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/fmuoria/cv-auditor/internal/config"
	"github.com/fmuoria/cv-auditor/internal/models"
)

// ErrNotFound is returned when no record exists for a student ID
var ErrNotFound = errors.New("record not found")

// Store is an append-only record log. Rows are never updated in place; a resubmission
// appends a new row and the most recent row per student is their current status.
// Implementations serialize their own writes.
type Store interface {
	Append(ctx context.Context, record models.Record) error
	ReadAll(ctx context.Context) ([]models.Record, error)
	Close() error
}

// Resetter is implemented by stores that can drop every record
type Resetter interface {
	Reset(ctx context.Context) error
}

// Open selects the backend named in cfg
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendCSV:
		return NewCSVStore(cfg.Path)
	case config.BackendPostgres:
		return NewPostgresStore(ctx, cfg.DSN, cfg.Table)
	case config.BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %q", cfg.Backend)
	}
}

// Latest keeps the most recent row per student ID, in the order students first appeared
func Latest(records []models.Record) []models.Record {
	index := make(map[string]int, len(records))
	latest := make([]models.Record, 0, len(records))

	for _, record := range records {
		if i, ok := index[record.ID]; ok {
			latest[i] = record
			continue
		}
		index[record.ID] = len(latest)
		latest = append(latest, record)
	}

	return latest
}

// History returns every row for one student, oldest first
func History(records []models.Record, id string) []models.Record {
	history := make([]models.Record, 0)
	for _, record := range records {
		if record.ID == id {
			history = append(history, record)
		}
	}
	return history
}
