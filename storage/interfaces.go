package storage

import (
	"context"
	"time"

	"archive-analyzer/models"
)

// RecordStore is the interface any persistence backend must satisfy.
type RecordStore interface {
	// Save stores the table's rows under handle, ignoring rows already
	// stored, and returns how many were new.
	Save(ctx context.Context, handle string, t *models.Table) (int, error)
	// Load rebuilds the stored table for handle in insertion order.
	Load(ctx context.Context, handle string) (*models.Table, error)
	// Handles lists every stored handle.
	Handles(ctx context.Context) ([]HandleSummary, error)
	Close() error
}

// HandleSummary describes what is stored for one handle.
type HandleSummary struct {
	Handle    string
	Rows      int
	LastSaved time.Time
}
