// internal/storage/storage.go
package storage

import (
	"context"

	"solana-arbscan/internal/storage/models"
)

// Storage persists analysis output for later inspection.
type Storage interface {
	// Opportunities
	SaveOpportunities(ctx context.Context, opportunities []*models.Opportunity) error
	ListOpportunities(ctx context.Context, pairKey string, limit, offset int) ([]*models.Opportunity, error)

	// Snapshots
	SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) error
	ListSnapshots(ctx context.Context, pairKey string, limit, offset int) ([]*models.Snapshot, error)

	// Migrations
	RunMigrations() error

	Close() error
}
