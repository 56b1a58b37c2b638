package jobs

import (
	"sync"
	"time"
)

// State is a background job lifecycle state.
type State string

const (
	StateQueued    State = "QUEUED"
	StateRunning   State = "RUNNING"
	StateSucceeded State = "SUCCEEDED"
	StateFailed    State = "FAILED"
)

// Done reports whether the job reached a terminal state.
func (s State) Done() bool {
	return s == StateSucceeded || s == StateFailed
}

// Status is the observable state of one job.
type Status struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	State     State       `json:"state"`
	Progress  float64     `json:"progress"`
	Detail    interface{} `json:"detail,omitempty"`
	Result    interface{} `json:"result,omitempty"`
	Error     interface{} `json:"error,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Tracker keeps job statuses in memory. Finished jobs expire after the TTL.
type Tracker struct {
	mu    sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]*Status
}

// NewTracker builds a tracker; ttl <= 0 defaults to one hour.
func NewTracker(ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Tracker{ttl: ttl, now: time.Now, items: make(map[string]*Status)}
}

// Create registers a queued job.
func (t *Tracker) Create(id, jobType string) Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.evictLocked()
	now := t.now().UTC()
	st := &Status{ID: id, Type: jobType, State: StateQueued, CreatedAt: now, UpdatedAt: now}
	t.items[id] = st
	return *st
}

// Update applies fn to the job's status. It returns false for unknown jobs.
func (t *Tracker) Update(id string, fn func(*Status)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.items[id]
	if !ok {
		return false
	}
	fn(st)
	st.UpdatedAt = t.now().UTC()
	return true
}

// Get returns a copy of the job's status.
func (t *Tracker) Get(id string) (Status, bool) {
	t.mu.RLock()
	st, ok := t.items[id]
	if ok && st.State.Done() && t.now().Sub(st.UpdatedAt) > t.ttl {
		ok = false
	}
	var out Status
	if ok {
		out = *st
	}
	t.mu.RUnlock()
	return out, ok
}

func (t *Tracker) evictLocked() {
	now := t.now()
	for id, st := range t.items {
		if st.State.Done() && now.Sub(st.UpdatedAt) > t.ttl {
			delete(t.items, id)
		}
	}
}
