// Package stats tracks run counters across the pipeline stages.
package stats

import (
	"fmt"
	"sync/atomic"
)

// Stats counts work done by a single run. All methods are safe for
// concurrent use.
type Stats struct {
	linesRead        atomic.Uint64
	recordsEmitted   atomic.Uint64
	droppedEnvelopes atomic.Uint64
	incompleteGroups atomic.Uint64
}

func New() *Stats {
	return &Stats{}
}

func (s *Stats) AddLineRead() { s.linesRead.Add(1) }

func (s *Stats) AddRecordEmitted() { s.recordsEmitted.Add(1) }

func (s *Stats) AddDroppedEnvelope() { s.droppedEnvelopes.Add(1) }

func (s *Stats) AddIncompleteGroups(n uint64) { s.incompleteGroups.Add(n) }

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	LinesRead        uint64
	RecordsEmitted   uint64
	DroppedEnvelopes uint64
	IncompleteGroups uint64
}

func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		LinesRead:        s.linesRead.Load(),
		RecordsEmitted:   s.recordsEmitted.Load(),
		DroppedEnvelopes: s.droppedEnvelopes.Load(),
		IncompleteGroups: s.incompleteGroups.Load(),
	}
}

func (sn Snapshot) String() string {
	return fmt.Sprintf("lines=%d emitted=%d dropped=%d incomplete=%d",
		sn.LinesRead, sn.RecordsEmitted, sn.DroppedEnvelopes, sn.IncompleteGroups)
}
