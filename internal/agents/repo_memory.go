package agents

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
	rows   map[int64]Agent
	clock  func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	base := time.Unix(1700000000, 0).UTC()
	var tick int64
	return &MemoryRepo{
		rows: make(map[int64]Agent),
		// strictly increasing timestamps keep recency ordering deterministic
		clock: func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Second)
		},
	}
}

func (r *MemoryRepo) Create(_ context.Context, a Agent) (Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rows {
		if existing.UserID == a.UserID && existing.AgentName == a.AgentName {
			return Agent{}, ErrDuplicateName
		}
	}
	r.nextID++
	a.ID = r.nextID
	now := r.clock()
	a.CreatedAt, a.UpdatedAt = now, now
	r.rows[a.ID] = a
	return a, nil
}

func (r *MemoryRepo) Update(_ context.Context, a Agent) (Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.rows[a.ID]
	if !ok {
		return Agent{}, ErrNotFound
	}
	cur.FirstMessage = a.FirstMessage
	cur.Prompt = a.Prompt
	cur.LLM = a.LLM
	cur.DocumentationID = a.DocumentationID
	cur.FileName = a.FileName
	cur.FileURL = a.FileURL
	cur.VoiceID = a.VoiceID
	cur.VoiceURL = a.VoiceURL
	cur.BusinessName = a.BusinessName
	cur.AgentType = a.AgentType
	cur.SpeakingStyle = a.SpeakingStyle
	cur.UpdatedAt = r.clock()
	r.rows[a.ID] = cur
	return cur, nil
}

func (r *MemoryRepo) Get(_ context.Context, id int64) (Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rows[id]
	if !ok {
		return Agent{}, ErrNotFound
	}
	return a, nil
}

func (r *MemoryRepo) GetByName(_ context.Context, userID int64, name string) (Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.rows {
		if a.UserID == userID && a.AgentName == name {
			return a, nil
		}
	}
	return Agent{}, ErrNotFound
}

func (r *MemoryRepo) FindLatestByName(_ context.Context, name string) (Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best Agent
	found := false
	for _, a := range r.rows {
		if a.AgentName != name {
			continue
		}
		if !found || a.CreatedAt.After(best.CreatedAt) || (a.CreatedAt.Equal(best.CreatedAt) && a.ID > best.ID) {
			best, found = a, true
		}
	}
	if !found {
		return Agent{}, ErrNotFound
	}
	return best, nil
}

func (r *MemoryRepo) ListByUser(_ context.Context, userID int64) ([]Agent, error) {
	return r.filter(func(a Agent) bool { return a.UserID == userID }), nil
}

func (r *MemoryRepo) ListAll(_ context.Context) ([]Agent, error) {
	return r.filter(func(Agent) bool { return true }), nil
}

func (r *MemoryRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

// Put stores a row as-is, for seeding tests.
func (r *MemoryRepo) Put(a Agent) Agent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == 0 {
		r.nextID++
		a.ID = r.nextID
	} else if a.ID > r.nextID {
		r.nextID = a.ID
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = r.clock()
		a.UpdatedAt = a.CreatedAt
	}
	r.rows[a.ID] = a
	return a
}

func (r *MemoryRepo) filter(keep func(Agent) bool) []Agent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Agent
	for _, a := range r.rows {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
