package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"solana-arbscan/internal/arbitrage"
	"solana-arbscan/internal/pricing"
)

func sampleOpportunity(pairKey string, netProfit float64) arbitrage.Opportunity {
	return arbitrage.Opportunity{
		Pair: pricing.TokenPair{
			FromSymbol: pairKey[:3],
			ToSymbol:   pairKey[4:],
			Amount:     decimal.NewFromInt(10),
		},
		BuySource:        "raydium",
		SellSource:       "jupiter",
		BuyPrice:         decimal.NewFromInt(99),
		SellPrice:        decimal.NewFromInt(100),
		Spread:           decimal.NewFromInt(1),
		SpreadPercentage: decimal.NewFromFloat(0.0101),
		NetProfit:        decimal.NewFromFloat(netProfit),
		Confidence:       0.9,
		RiskScore:        0.2,
		LiquidityScore:   1.0,
		MarketEfficiency: 0.0,
		Timestamp:        time.Now(),
		RequestID:        "req_1_0",
	}
}

func TestExportToCSV(t *testing.T) {
	exporter := NewOpportunityExporter(zap.NewNop())
	outputDir := t.TempDir()

	path, err := exporter.ExportOpportunities(
		[]arbitrage.Opportunity{
			sampleOpportunity("SOL/USDC", 5),
			sampleOpportunity("RAY/USDC", 2),
		},
		ExportOptions{Format: FormatCSV, OutputDir: outputDir})
	require.NoError(t, err)

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3, "header plus two rows")
	assert.Equal(t, CSVHeaders(), records[0])
	assert.Equal(t, "SOL/USDC", records[1][2])
}

func TestExportToJSON(t *testing.T) {
	exporter := NewOpportunityExporter(zap.NewNop())
	outputDir := t.TempDir()

	path, err := exporter.ExportOpportunities(
		[]arbitrage.Opportunity{sampleOpportunity("SOL/USDC", 5)},
		ExportOptions{Format: FormatJSON, OutputDir: outputDir})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded []arbitrage.Opportunity
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "raydium", decoded[0].BuySource)
}

func TestExportFilters(t *testing.T) {
	exporter := NewOpportunityExporter(zap.NewNop())
	outputDir := t.TempDir()

	opportunities := []arbitrage.Opportunity{
		sampleOpportunity("SOL/USDC", 5),
		sampleOpportunity("RAY/USDC", 0.5),
	}

	path, err := exporter.ExportOpportunities(opportunities, ExportOptions{
		Format:     FormatCSV,
		OutputDir:  outputDir,
		PairFilter: "SOL/USDC",
	})
	require.NoError(t, err)

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 2, "header plus the one matching row")
}

func TestExportNoMatches(t *testing.T) {
	exporter := NewOpportunityExporter(zap.NewNop())

	_, err := exporter.ExportOpportunities(nil, ExportOptions{
		Format:    FormatCSV,
		OutputDir: t.TempDir(),
	})
	assert.Error(t, err)
}

func TestExportUnsupportedFormat(t *testing.T) {
	exporter := NewOpportunityExporter(zap.NewNop())

	_, err := exporter.ExportOpportunities(
		[]arbitrage.Opportunity{sampleOpportunity("SOL/USDC", 5)},
		ExportOptions{Format: "xml", OutputDir: t.TempDir()})
	assert.Error(t, err)
}
