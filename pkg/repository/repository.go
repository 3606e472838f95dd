package repository

import (
	"context"

	"github.com/harvestloop/tallysync/pkg/model"
)

// RowStore is the append-only tabular store the sync pipeline writes to.
type RowStore interface {
	// Append adds rows to the store. An empty batch is a no-op: the store
	// is never created or touched by a run that found nothing new.
	Append(ctx context.Context, rows []model.Row) error
}

// StateStore persists the sync watermark between runs.
type StateStore interface {
	// Load reads the persisted watermark. A missing or malformed state
	// yields an empty watermark, never an error.
	Load(ctx context.Context) (*model.Watermark, error)

	// Save writes the watermark atomically, creating parent directories
	// as needed.
	Save(ctx context.Context, wm *model.Watermark) error

	// Reset removes the persisted watermark so the next run performs a
	// full resync. Missing state is not an error.
	Reset(ctx context.Context) error
}
