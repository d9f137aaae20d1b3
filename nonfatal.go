package gokafka

import (
	"sync"
	"time"
)

// NonfatalError is one entry of the non-fatal ring (spec.md §3 "Non-fatal
// error record").
type NonfatalError struct {
	Timestamp time.Time
	Code      int16
	Message   string
	ServerKey string
	Topic     string
	Partition int32
}

// nonfatalRing is a bounded, oldest-dropped-on-overflow buffer of
// NonfatalError records, the same pre-flush bounded buffer shape as a
// log cache, specialized from byte messages to typed error records.
type nonfatalRing struct {
	mu       sync.Mutex
	capacity int
	entries  []NonfatalError
	next     int
	full     bool
}

func newNonfatalRing(capacity int) *nonfatalRing {
	if capacity < 1 {
		capacity = 1
	}
	return &nonfatalRing{capacity: capacity, entries: make([]NonfatalError, capacity)}
}

func (r *nonfatalRing) record(err *Error, serverKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := NonfatalError{
		Timestamp: time.Now(),
		Code:      err.Code,
		Message:   err.Message,
		ServerKey: serverKey,
		Topic:     err.Topic,
		Partition: err.Partition,
	}
	r.entries[r.next] = rec
	r.next = (r.next + 1) % r.capacity
	if r.next == 0 {
		r.full = true
	}
	nonfatalCounter.WithLabelValues(clusterErrorMessages[err.Code]).Inc()
}

// snapshot returns every recorded entry, oldest first.
func (r *nonfatalRing) snapshot() []NonfatalError {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		out := make([]NonfatalError, r.next)
		copy(out, r.entries[:r.next])
		return out
	}
	out := make([]NonfatalError, r.capacity)
	copy(out, r.entries[r.next:])
	copy(out[r.capacity-r.next:], r.entries[:r.next])
	return out
}

func (r *nonfatalRing) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next = 0
	r.full = false
}
