package storage

import (
	"context"

	"miniaevol/internal/snapshot"
)

// Store defines transaction-like persistence operations for a run's world
// snapshots.
type Store interface {
	Init(ctx context.Context) error
	SaveSnapshot(ctx context.Context, runID string, s snapshot.WorldSnapshot) error
	GetSnapshot(ctx context.Context, runID string) (snapshot.WorldSnapshot, bool, error)
}
