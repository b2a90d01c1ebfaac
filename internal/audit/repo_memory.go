package audit

import (
	"context"
	"sync"
)

// MemoryRepo keeps events in append order, for tests.
type MemoryRepo struct {
	mu     sync.Mutex
	events []Event

	// Err, when set, fails every Append and records nothing.
	Err error
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Append(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, e)
	return nil
}

// Events returns a copy of everything appended so far.
func (r *MemoryRepo) Events() []Event {
	return r.filter(func(Event) bool { return true })
}

// OfType returns the appended events of type t, oldest first.
func (r *MemoryRepo) OfType(t EventType) []Event {
	return r.filter(func(e Event) bool { return e.Type == t })
}

func (r *MemoryRepo) filter(keep func(Event) bool) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
