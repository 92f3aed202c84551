package mirror

import (
	"sync"
	"sync/atomic"
)

// RunStats collects the process-wide counters for one mirror run.  Counters
// only ever go up; concurrent traversal branches increment them freely and
// the totals are read once, after the walk finishes, to pick the exit status
// and fill the run report.
type RunStats struct {
	pagesProcessed atomic.Int64
	errors         atomic.Int64

	mu            sync.Mutex
	pagesPerLevel map[int]int64
}

func NewRunStats() *RunStats {
	return &RunStats{
		pagesPerLevel: map[int]int64{},
	}
}

// RecordPage counts one successfully materialized page at the given nesting
// level (root = 0).
func (s *RunStats) RecordPage(level int) {
	s.pagesProcessed.Add(1)

	s.mu.Lock()
	s.pagesPerLevel[level]++
	s.mu.Unlock()
}

// RecordError counts one node-fatal failure.
func (s *RunStats) RecordError() {
	s.errors.Add(1)
}

func (s *RunStats) PagesProcessed() int64 {
	return s.pagesProcessed.Load()
}

func (s *RunStats) Errors() int64 {
	return s.errors.Load()
}

// PagesPerLevel returns a copy of the per-depth page counts.
func (s *RunStats) PagesPerLevel() map[int]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[int]int64, len(s.pagesPerLevel))
	for level, n := range s.pagesPerLevel {
		counts[level] = n
	}
	return counts
}
