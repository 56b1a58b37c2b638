package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/noah-isme/sma-exam-scheduler/internal/repository"
	"github.com/noah-isme/sma-exam-scheduler/internal/scheduler"
)

// ErrProposalNotFound is returned for unknown or expired proposals.
var ErrProposalNotFound = errors.New("proposal not found")

// ExamProposal is a generated schedule waiting to be saved.
type ExamProposal struct {
	ID        string            `json:"id"`
	Result    *scheduler.Result `json:"result"`
	CreatedAt time.Time         `json:"createdAt"`
	ExpiresAt time.Time         `json:"expiresAt"`
}

// ProposalStore keeps proposals between generation and save.
type ProposalStore interface {
	Save(ctx context.Context, proposal ExamProposal) error
	Get(ctx context.Context, id string) (*ExamProposal, error)
	Delete(ctx context.Context, id string) error
}

// MemoryProposalStore keeps proposals in process memory.
type MemoryProposalStore struct {
	mu    sync.RWMutex
	items map[string]ExamProposal
	now   func() time.Time
}

// NewMemoryProposalStore builds an empty in-memory store.
func NewMemoryProposalStore() *MemoryProposalStore {
	return &MemoryProposalStore{items: make(map[string]ExamProposal), now: time.Now}
}

func (s *MemoryProposalStore) Save(_ context.Context, proposal ExamProposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, p := range s.items {
		if now.After(p.ExpiresAt) {
			delete(s.items, id)
		}
	}
	s.items[proposal.ID] = proposal
	return nil
}

func (s *MemoryProposalStore) Get(ctx context.Context, id string) (*ExamProposal, error) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrProposalNotFound
	}
	if s.now().After(proposal.ExpiresAt) {
		_ = s.Delete(ctx, id)
		return nil, ErrProposalNotFound
	}
	return &proposal, nil
}

func (s *MemoryProposalStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
	return nil
}

type proposalCache interface {
	Get(ctx context.Context, id string, dest interface{}) error
	Set(ctx context.Context, id string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// RedisProposalStore shares proposals between API replicas through Redis.
type RedisProposalStore struct {
	cache proposalCache
	now   func() time.Time
}

// NewRedisProposalStore wraps a cache repository.
func NewRedisProposalStore(cache proposalCache) *RedisProposalStore {
	return &RedisProposalStore{cache: cache, now: time.Now}
}

func (s *RedisProposalStore) Save(ctx context.Context, proposal ExamProposal) error {
	ttl := proposal.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.cache.Set(ctx, proposal.ID, proposal, ttl)
}

func (s *RedisProposalStore) Get(ctx context.Context, id string) (*ExamProposal, error) {
	var proposal ExamProposal
	if err := s.cache.Get(ctx, id, &proposal); err != nil {
		if errors.Is(err, repository.ErrCacheMiss) {
			return nil, ErrProposalNotFound
		}
		return nil, err
	}
	return &proposal, nil
}

func (s *RedisProposalStore) Delete(ctx context.Context, id string) error {
	return s.cache.Delete(ctx, id)
}
