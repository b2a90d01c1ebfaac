package batch

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repository for tests.
type MemoryRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]Job
	tick   int64
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{rows: make(map[int64]Job)}
}

// now is strictly increasing so recency ordering is deterministic.
func (r *MemoryRepo) now() time.Time {
	r.tick++
	return time.Unix(1700000000+r.tick, 0).UTC()
}

func (r *MemoryRepo) Create(_ context.Context, j Job) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	j.ID = r.nextID
	j.CreatedAt = r.now()
	j.UpdatedAt = j.CreatedAt
	r.rows[j.ID] = j
	return j, nil
}

func (r *MemoryRepo) LatestByCallName(_ context.Context, userID int64, callName string) (Job, error) {
	return r.latest(func(j Job) bool { return j.UserID == userID && j.CallName == callName })
}

func (r *MemoryRepo) LatestByCallNameAnyOwner(_ context.Context, callName string) (Job, error) {
	return r.latest(func(j Job) bool { return j.CallName == callName })
}

func (r *MemoryRepo) UpdateStatus(_ context.Context, id int64, status Status) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.rows[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	j.Status = status
	j.UpdatedAt = r.now()
	r.rows[id] = j
	return j, nil
}

func (r *MemoryRepo) ListByUser(_ context.Context, userID int64) ([]Job, error) {
	return r.filter(func(j Job) bool { return j.UserID == userID }), nil
}

func (r *MemoryRepo) ListAll(_ context.Context) ([]Job, error) {
	return r.filter(func(Job) bool { return true }), nil
}

func (r *MemoryRepo) latest(match func(Job) bool) (Job, error) {
	rows := r.filter(match)
	if len(rows) == 0 {
		return Job{}, ErrNotFound
	}
	return rows[0], nil
}

func (r *MemoryRepo) filter(match func(Job) bool) []Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Job
	for _, j := range r.rows {
		if match(j) {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].CreatedAt.Equal(out[k].CreatedAt) {
			return out[i].ID > out[k].ID
		}
		return out[i].CreatedAt.After(out[k].CreatedAt)
	})
	return out
}
