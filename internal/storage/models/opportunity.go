// internal/storage/models/opportunity.go
package models

import (
	"time"

	"solana-arbscan/internal/arbitrage"
)

// Opportunity is one persisted cross-source spread observation.
type Opportunity struct {
	BaseModel
	RequestID      string    `gorm:"index;not null;type:varchar(64)"`
	Pair           string    `gorm:"index;not null;type:varchar(32)"`
	BuySource      string    `gorm:"not null;type:varchar(50)"`
	SellSource     string    `gorm:"not null;type:varchar(50)"`
	BuyPrice       float64   `gorm:"type:decimal(30,12);not null"`
	SellPrice      float64   `gorm:"type:decimal(30,12);not null"`
	SpreadPercent  float64   `gorm:"type:decimal(12,8);not null"`
	GrossProfit    float64   `gorm:"type:decimal(30,12)"`
	NetProfit      float64   `gorm:"type:decimal(30,12)"`
	GasCost        float64   `gorm:"type:decimal(20,9)"`
	Confidence     float64   `gorm:"type:decimal(6,4)"`
	RiskScore      float64   `gorm:"type:decimal(6,4)"`
	LiquidityScore float64   `gorm:"type:decimal(6,4)"`
	ObservedAt     time.Time `gorm:"index;not null"`
}

// NewOpportunity converts an analyzed opportunity into its storage row.
func NewOpportunity(opp arbitrage.Opportunity) *Opportunity {
	return &Opportunity{
		RequestID:      opp.RequestID,
		Pair:           opp.Pair.Key(),
		BuySource:      opp.BuySource,
		SellSource:     opp.SellSource,
		BuyPrice:       opp.BuyPrice.InexactFloat64(),
		SellPrice:      opp.SellPrice.InexactFloat64(),
		SpreadPercent:  opp.SpreadPercentage.InexactFloat64(),
		GrossProfit:    opp.EstimatedGrossProfit.InexactFloat64(),
		NetProfit:      opp.NetProfit.InexactFloat64(),
		GasCost:        opp.EstimatedGasCost.InexactFloat64(),
		Confidence:     opp.Confidence,
		RiskScore:      opp.RiskScore,
		LiquidityScore: opp.LiquidityScore,
		ObservedAt:     opp.Timestamp,
	}
}
