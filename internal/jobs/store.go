package jobs

import (
	"context"
	"sync"

	"github.com/cloo-solutions/geotrack/internal/domain"
)

// DefaultRetention is the number of jobs a MemoryStore keeps.
const DefaultRetention = 1000

// Store persists job snapshots for polling.
type Store interface {
	Save(ctx context.Context, job *domain.Job) error
	Get(ctx context.Context, id string) (*domain.Job, error)
}

// MemoryStore keeps jobs in process. Once more than retention jobs are held,
// the oldest terminal jobs are evicted; running jobs are never evicted.
type MemoryStore struct {
	mu        sync.RWMutex
	jobs      map[string]*domain.Job
	order     []string
	retention int
}

// NewMemoryStore creates a store keeping at most retention jobs.
func NewMemoryStore(retention int) *MemoryStore {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &MemoryStore{
		jobs:      make(map[string]*domain.Job),
		retention: retention,
	}
}

func (s *MemoryStore) Save(_ context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID]; !ok {
		s.order = append(s.order, job.ID)
	}
	s.jobs[job.ID] = job.Clone()
	s.evict()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return job.Clone(), nil
}

// Len returns the number of retained jobs.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// evict drops terminal jobs in submission order until the store fits.
func (s *MemoryStore) evict() {
	excess := len(s.jobs) - s.retention
	if excess <= 0 {
		return
	}
	kept := s.order[:0]
	for _, id := range s.order {
		if excess > 0 && s.jobs[id].Status.IsTerminal() {
			delete(s.jobs, id)
			excess--
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
}
