// Package assembly pairs up fragments of multi-sentence AIS messages and
// emits one completed record per group once every fragment has been seen.
//
// The cache is not safe for concurrent use. The pipeline gives it to a
// single owner goroutine fed by a channel, so no locking is needed.
package assembly

import (
	"strings"

	"ais_parser/internal/ais"
	"ais_parser/internal/nmea"
)

type entry struct {
	expected  int
	seen      int
	filled    []bool
	payloads  []string
	sentences []string
	group     string // verbatim tag of fragment 1, whatever the arrival order
	landfall  string
	source    string
	satTime   string
	channel   string
}

// Cache accumulates fragments keyed by normalized group id.
type Cache struct {
	entries map[string]*entry
}

func New() *Cache {
	return &Cache{entries: make(map[string]*entry)}
}

// Ingest adds one fragment. When the fragment completes its group, the
// assembled record is returned and the group entry is dropped; otherwise
// Ingest returns nil. A re-arrival of the same (group, index) replaces the
// earlier payload; metadata keeps the first non-empty value seen. The
// record's group is the verbatim tag of fragment 1, so it does not depend on
// arrival order.
func (c *Cache) Ingest(s *nmea.Sentence) *ais.PositionReport {
	key := nmea.GroupKey(s.Group)
	e, ok := c.entries[key]
	if !ok {
		e = &entry{
			expected:  s.FragCount,
			filled:    make([]bool, s.FragCount),
			payloads:  make([]string, s.FragCount),
			sentences: make([]string, s.FragCount),
			group:     s.Group,
			landfall:  s.LandfallTime,
			channel:   s.Channel,
		}
		c.entries[key] = e
	}

	if s.FragIndex < 1 || s.FragIndex > e.expected {
		return nil
	}
	slot := s.FragIndex - 1
	if !e.filled[slot] {
		e.filled[slot] = true
		e.seen++
	}
	e.payloads[slot] = s.Payload
	e.sentences[slot] = s.Raw
	if slot == 0 {
		e.group = s.Group
	}

	if e.source == "" {
		e.source = s.Source
	}
	if e.satTime == "" {
		e.satTime = s.SatTime
	}
	if e.landfall == "" {
		e.landfall = s.LandfallTime
	}

	if e.seen < e.expected {
		return nil
	}
	delete(c.entries, key)

	return &ais.PositionReport{
		Sentence:                 strings.Join(e.sentences, "\n"),
		LandfallTime:             e.landfall,
		Group:                    e.group,
		SatelliteAcquisitionTime: e.satTime,
		Source:                   e.source,
		Channel:                  e.channel,
		RawPayload:               strings.Join(e.payloads, ""),
		MessageClass:             ais.ClassMultiline,
	}
}

// Len returns the number of groups still waiting for fragments. At end of
// run these are the incomplete reassemblies.
func (c *Cache) Len() int {
	return len(c.entries)
}
