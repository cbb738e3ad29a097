// Package web serves the base station's monitoring surface: a JSON status
// endpoint and a websocket stream of per-cycle navigation records.
package web

import (
	"sync"
	"time"

	"rovernav/internal/nav"
)

// Status is the mutable state behind /api/status. The control loop owns
// the writes; HTTP handlers only read.
type Status struct {
	mu sync.RWMutex

	startedUTC time.Time
	cycles     uint64
	last       nav.Record
	haveLast   bool
}

// StatusSnapshot is the /api/status payload.
type StatusSnapshot struct {
	StartedUTC string      `json:"started_utc"`
	UptimeSec  float64     `json:"uptime_sec"`
	CycleCount uint64      `json:"cycle_count"`
	LastRecord *nav.Record `json:"last_record,omitempty"`
}

func NewStatus(now time.Time) *Status {
	return &Status{startedUTC: now.UTC()}
}

func (s *Status) Update(rec nav.Record) {
	s.mu.Lock()
	s.cycles++
	s.last = rec
	s.haveLast = true
	s.mu.Unlock()
}

func (s *Status) Snapshot(now time.Time) StatusSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := StatusSnapshot{
		StartedUTC: s.startedUTC.Format(time.RFC3339Nano),
		UptimeSec:  now.UTC().Sub(s.startedUTC).Seconds(),
		CycleCount: s.cycles,
	}
	if s.haveLast {
		rec := s.last
		out.LastRecord = &rec
	}
	return out
}

// RecordHub fans per-cycle records out to websocket subscribers. It keeps
// the most recent record so a new subscriber gets an immediate sample.
// Slow subscribers drop records rather than stalling the control loop.
type RecordHub struct {
	mu       sync.RWMutex
	subs     map[int]chan nav.Record
	nextID   int
	last     nav.Record
	haveLast bool
}

func NewRecordHub() *RecordHub {
	return &RecordHub{subs: make(map[int]chan nav.Record)}
}

func (h *RecordHub) Subscribe(buffer int) (int, <-chan nav.Record) {
	if buffer <= 0 {
		buffer = 8
	}
	ch := make(chan nav.Record, buffer)
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	last := h.last
	have := h.haveLast
	h.mu.Unlock()
	if have {
		select {
		case ch <- last:
		default:
		}
	}
	return id, ch
}

func (h *RecordHub) Unsubscribe(id int) {
	h.mu.Lock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
	h.mu.Unlock()
}

func (h *RecordHub) Publish(rec nav.Record) {
	h.mu.Lock()
	h.last = rec
	h.haveLast = true
	// Sends are non-blocking, so they stay under the lock: a concurrent
	// Unsubscribe must not close a channel with a send in flight.
	for _, ch := range h.subs {
		select {
		case ch <- rec:
		default:
		}
	}
	h.mu.Unlock()
}
