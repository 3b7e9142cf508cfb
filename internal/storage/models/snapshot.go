// internal/storage/models/snapshot.go
package models

import (
	"time"

	"solana-arbscan/internal/arbitrage"
)

// Snapshot summarizes one collection pass over a pair. Individual quotes
// are not stored; the opportunities table carries the actionable rows.
type Snapshot struct {
	BaseModel
	RequestID         string    `gorm:"unique;not null;type:varchar(64)"`
	Pair              string    `gorm:"index;not null;type:varchar(32)"`
	SuccessfulSources int       `gorm:"not null"`
	FailedSources     int       `gorm:"not null"`
	ResponseTimeMs    int64     `gorm:"not null"`
	Opportunities     int       `gorm:"default:0"`
	FilteredOutliers  int       `gorm:"default:0"`
	MarketEfficiency  float64   `gorm:"type:decimal(6,4)"`
	DataQuality       float64   `gorm:"type:decimal(6,4)"`
	ObservedAt        time.Time `gorm:"index;not null"`
}

// NewSnapshot converts an analysis result into its storage row.
func NewSnapshot(result *arbitrage.AnalysisResult) *Snapshot {
	snap := result.Snapshot
	return &Snapshot{
		RequestID:         snap.RequestID,
		Pair:              snap.Pair.Key(),
		SuccessfulSources: snap.SuccessfulSources,
		FailedSources:     snap.FailedSources,
		ResponseTimeMs:    snap.TotalResponseTimeMs,
		Opportunities:     len(result.Opportunities),
		FilteredOutliers:  result.Metrics.FilteredOutliers,
		MarketEfficiency:  result.Metrics.MarketEfficiency,
		DataQuality:       result.Metrics.DataQuality,
		ObservedAt:        time.UnixMilli(snap.TimestampMs),
	}
}
