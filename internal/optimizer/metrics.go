package optimizer

import (
	"math"
	"time"

	"github.com/custodia-labs/phonematch-core/internal/core/domain"
)

// Timer measures the wall-clock time of one request
type Timer struct {
	start time.Time
}

// StartTimer starts a Timer
func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ElapsedMs returns the elapsed milliseconds rounded to two decimals
func (t *Timer) ElapsedMs() float64 {
	ms := float64(time.Since(t.start).Microseconds()) / 1000
	return math.Round(ms*100) / 100
}

// Performance builds the performance block of a response
func (t *Timer) Performance(resultCount int, fromCache bool) domain.Performance {
	return domain.Performance{
		ExecutionTimeMs: t.ElapsedMs(),
		ResultCount:     resultCount,
		FromCache:       fromCache,
	}
}
