package protocol

import "sync"

// Accumulator collects decoded records for one caller. Nothing in this
// package holds one implicitly; callers pass it where records should land.
type Accumulator struct {
	mu      sync.RWMutex
	records []Record
}

func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

func (a *Accumulator) Append(recs ...Record) {
	if len(recs) == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, recs...)
}

// Records returns a snapshot in insertion order.
func (a *Accumulator) Records() []Record {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Record, len(a.records))
	copy(out, a.records)
	return out
}

func (a *Accumulator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.records)
}

func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = nil
}
