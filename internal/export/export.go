package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"solana-arbscan/internal/arbitrage"
)

// ExportFormat represents the export file format
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
)

// ExportOptions configures the export behavior
type ExportOptions struct {
	Format     ExportFormat
	StartTime  time.Time
	EndTime    time.Time
	PairFilter string  // Filter by pair key, e.g. "SOL/USDC"
	MinProfit  float64 // Only export opportunities above this net profit
	OutputDir  string
}

// OpportunityExporter writes analyzed opportunities to disk
type OpportunityExporter struct {
	logger *zap.Logger
}

// NewOpportunityExporter creates a new exporter
func NewOpportunityExporter(logger *zap.Logger) *OpportunityExporter {
	return &OpportunityExporter{
		logger: logger,
	}
}

// ExportOpportunities exports opportunities based on the provided options
func (oe *OpportunityExporter) ExportOpportunities(opportunities []arbitrage.Opportunity, options ExportOptions) (string, error) {
	// Filter opportunities
	filtered := oe.filterOpportunities(opportunities, options)

	if len(filtered) == 0 {
		return "", fmt.Errorf("no opportunities match the export criteria")
	}

	// Sort by timestamp
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.Before(filtered[j].Timestamp)
	})

	// Generate filename
	filename := oe.generateFilename(options)
	outputPath := filepath.Join(options.OutputDir, filename)

	// Ensure output directory exists
	if err := os.MkdirAll(options.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	// Export based on format
	var err error
	switch options.Format {
	case FormatCSV:
		err = oe.exportToCSV(filtered, outputPath)
	case FormatJSON:
		err = oe.exportToJSON(filtered, outputPath)
	default:
		err = fmt.Errorf("unsupported format: %s", options.Format)
	}

	if err != nil {
		return "", err
	}

	oe.logger.Info("Opportunities exported",
		zap.String("file", outputPath),
		zap.Int("count", len(filtered)),
		zap.String("format", string(options.Format)))

	return outputPath, nil
}

// filterOpportunities applies filters to the opportunity list
func (oe *OpportunityExporter) filterOpportunities(opportunities []arbitrage.Opportunity, options ExportOptions) []arbitrage.Opportunity {
	var filtered []arbitrage.Opportunity

	for _, opp := range opportunities {
		// Time filter
		if !options.StartTime.IsZero() && opp.Timestamp.Before(options.StartTime) {
			continue
		}
		if !options.EndTime.IsZero() && opp.Timestamp.After(options.EndTime) {
			continue
		}

		// Pair filter
		if options.PairFilter != "" && opp.Pair.Key() != options.PairFilter {
			continue
		}

		// Profit filter
		if options.MinProfit > 0 {
			profit, _ := opp.NetProfit.Float64()
			if profit < options.MinProfit {
				continue
			}
		}

		filtered = append(filtered, opp)
	}

	return filtered
}

// generateFilename creates a filename based on export options
func (oe *OpportunityExporter) generateFilename(options ExportOptions) string {
	timestamp := time.Now().Format("20060102_150405")

	prefix := "opportunities_all"
	if options.PairFilter != "" {
		prefix = "opportunities_" + strings.ReplaceAll(options.PairFilter, "/", "-")
	}

	return fmt.Sprintf("%s_%s.%s", prefix, timestamp, options.Format)
}

// CSVHeaders returns the opportunity CSV column names.
func CSVHeaders() []string {
	return []string{
		"timestamp", "request_id", "pair", "buy_source", "sell_source",
		"buy_price", "sell_price", "spread", "spread_pct",
		"gross_profit", "impact_cost", "gas_cost", "net_profit",
		"confidence", "risk_score", "liquidity_score", "market_efficiency",
	}
}

func toCSVRecord(opp arbitrage.Opportunity) []string {
	return []string{
		opp.Timestamp.Format(time.RFC3339),
		opp.RequestID,
		opp.Pair.Key(),
		opp.BuySource,
		opp.SellSource,
		opp.BuyPrice.String(),
		opp.SellPrice.String(),
		opp.Spread.String(),
		opp.SpreadPercentage.String(),
		opp.EstimatedGrossProfit.String(),
		opp.PriceImpactCost.String(),
		opp.EstimatedGasCost.String(),
		opp.NetProfit.String(),
		strconv.FormatFloat(opp.Confidence, 'f', 4, 64),
		strconv.FormatFloat(opp.RiskScore, 'f', 4, 64),
		strconv.FormatFloat(opp.LiquidityScore, 'f', 4, 64),
		strconv.FormatFloat(opp.MarketEfficiency, 'f', 4, 64),
	}
}

// exportToCSV exports opportunities to CSV format
func (oe *OpportunityExporter) exportToCSV(opportunities []arbitrage.Opportunity, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write headers
	if err := writer.Write(CSVHeaders()); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}

	// Write opportunities
	for _, opp := range opportunities {
		if err := writer.Write(toCSVRecord(opp)); err != nil {
			return fmt.Errorf("failed to write opportunity: %w", err)
		}
	}

	return nil
}

// exportToJSON exports opportunities to JSON format
func (oe *OpportunityExporter) exportToJSON(opportunities []arbitrage.Opportunity, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(opportunities); err != nil {
		return fmt.Errorf("failed to encode opportunities: %w", err)
	}

	return nil
}
