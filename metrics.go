package memberkit

import (
	"sync"
	"time"
)

// DecisionMetrics provides access decision statistics.
type DecisionMetrics struct {
	TotalDecisions  int64         `json:"total_decisions"`
	Granted         int64         `json:"granted"`
	Denied          int64         `json:"denied"`
	StoreErrors     int64         `json:"store_errors"`
	AverageDuration time.Duration `json:"average_duration"`
	MaxDuration     time.Duration `json:"max_duration"`
	MinDuration     time.Duration `json:"min_duration"`
	LastReset       time.Time     `json:"last_reset"`
}

// decisionMonitor holds the internal decision monitoring state.
type decisionMonitor struct {
	mu            sync.RWMutex
	totalCount    int64
	grantedCount  int64
	deniedCount   int64
	storeErrCount int64
	totalDuration time.Duration
	maxDuration   time.Duration
	minDuration   time.Duration
	lastReset     time.Time
}

func newDecisionMonitor() *decisionMonitor {
	return &decisionMonitor{
		minDuration: time.Hour, // Initialize to a large value
		lastReset:   time.Now(),
	}
}

// record registers one completed access decision.
func (dm *decisionMonitor) record(duration time.Duration, granted, storeErr bool) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	dm.totalCount++
	dm.totalDuration += duration

	if granted {
		dm.grantedCount++
	} else {
		dm.deniedCount++
	}
	if storeErr {
		dm.storeErrCount++
	}

	if duration > dm.maxDuration {
		dm.maxDuration = duration
	}
	if duration < dm.minDuration {
		dm.minDuration = duration
	}
}

// getMetrics returns the current decision metrics.
func (dm *decisionMonitor) getMetrics() DecisionMetrics {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	var avg time.Duration
	if dm.totalCount > 0 {
		avg = dm.totalDuration / time.Duration(dm.totalCount)
	}

	return DecisionMetrics{
		TotalDecisions:  dm.totalCount,
		Granted:         dm.grantedCount,
		Denied:          dm.deniedCount,
		StoreErrors:     dm.storeErrCount,
		AverageDuration: avg,
		MaxDuration:     dm.maxDuration,
		MinDuration:     dm.minDuration,
		LastReset:       dm.lastReset,
	}
}

// reset clears all metrics.
func (dm *decisionMonitor) reset() {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	dm.totalCount = 0
	dm.grantedCount = 0
	dm.deniedCount = 0
	dm.storeErrCount = 0
	dm.totalDuration = 0
	dm.maxDuration = 0
	dm.minDuration = time.Hour
	dm.lastReset = time.Now()
}
