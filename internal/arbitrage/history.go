// internal/arbitrage/history.go
package arbitrage

import (
	"sync"

	"go.uber.org/zap"
)

// DefaultHistorySize bounds the cross-call opportunity buffer.
const DefaultHistorySize = 500

// History keeps a bounded buffer of past opportunities so the analyzer
// can compare fresh spreads against recent market behavior. Guarded for
// concurrent Analyze calls across pairs.
type History struct {
	mu            sync.RWMutex
	opportunities []Opportunity
	maxEntries    int
	logger        *zap.Logger

	// Running totals over the buffered entries.
	totalAppended int
}

// NewHistory creates a bounded history buffer.
func NewHistory(maxEntries int, logger *zap.Logger) *History {
	if maxEntries <= 0 {
		maxEntries = DefaultHistorySize
	}
	return &History{
		opportunities: make([]Opportunity, 0, maxEntries),
		maxEntries:    maxEntries,
		logger:        logger.Named("history"),
	}
}

// Append records surviving opportunities, trimming to the bound.
func (h *History) Append(opportunities []Opportunity) {
	if len(opportunities) == 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.opportunities = append(h.opportunities, opportunities...)
	h.totalAppended += len(opportunities)
	if overflow := len(h.opportunities) - h.maxEntries; overflow > 0 {
		h.opportunities = h.opportunities[overflow:]
	}

	h.logger.Debug("history updated",
		zap.Int("appended", len(opportunities)),
		zap.Int("buffered", len(h.opportunities)))
}

// SpreadStats returns the mean and standard deviation of the buffered
// spread percentages, plus the sample count.
func (h *History) SpreadStats() (mean, stddev float64, n int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	spreads := make([]float64, 0, len(h.opportunities))
	for _, opp := range h.opportunities {
		v, _ := opp.SpreadPercentage.Float64()
		spreads = append(spreads, v)
	}
	mean, stddev = meanStddev(spreads)
	return mean, stddev, len(spreads)
}

// Recent returns up to limit most recent opportunities, newest last.
func (h *History) Recent(limit int) []Opportunity {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if limit <= 0 || limit > len(h.opportunities) {
		limit = len(h.opportunities)
	}

	start := len(h.opportunities) - limit
	result := make([]Opportunity, limit)
	copy(result, h.opportunities[start:])
	return result
}

// Len returns the number of buffered opportunities.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.opportunities)
}

// TotalAppended returns the lifetime count of appended opportunities.
func (h *History) TotalAppended() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalAppended
}
