package errors

import (
	"sync"
	"time"
)

// rateLimiter suppresses repeated reports raised from the same stack frame
// within the silent window.
type rateLimiter struct {
	lock   sync.Mutex
	silent time.Duration
	now    func() time.Time
	buffer map[string]*errorStats
}

func newRateLimiter(silent time.Duration) *rateLimiter {
	return &rateLimiter{
		silent: silent,
		now:    time.Now,
		buffer: map[string]*errorStats{},
	}
}

type errorStats struct {
	totalOccurCount int
	// occurrences suppressed since the last report
	occurCountSinceLastReport int
	lastReportTime            *time.Time
}

func (in *errorStats) Copy() *errorStats {
	return &errorStats{
		totalOccurCount:           in.totalOccurCount,
		occurCountSinceLastReport: in.occurCountSinceLastReport,
		lastReportTime:            in.lastReportTime,
	}
}

func (b *rateLimiter) StackBasedRateLimited(stack string) (bool, *errorStats) {
	b.lock.Lock()
	defer b.lock.Unlock()
	stats := b.buffer[stack]
	if stats == nil {
		stats = &errorStats{}
		b.buffer[stack] = stats
	}
	cp := stats.Copy()
	now := b.now()
	stats.totalOccurCount++
	if stats.lastReportTime != nil && now.Sub(*stats.lastReportTime) < b.silent {
		stats.occurCountSinceLastReport++
		return true, cp
	}
	stats.occurCountSinceLastReport = 0
	stats.lastReportTime = &now
	return false, cp
}
