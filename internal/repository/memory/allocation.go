package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/schedulo/internal/domain"
	"github.com/spec-kit/schedulo/internal/repository"
)

// AllocationStore is an in-memory repository.AllocationRepository.
type AllocationStore struct {
	mu   sync.RWMutex
	byID map[string]*domain.Allocation
}

var _ repository.AllocationRepository = (*AllocationStore)(nil)

// NewAllocationStore creates an empty store.
func NewAllocationStore() *AllocationStore {
	return &AllocationStore{byID: make(map[string]*domain.Allocation)}
}

// Add stores an allocation produced elsewhere, assigning an id when missing.
func (s *AllocationStore) Add(alloc domain.Allocation) domain.Allocation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if alloc.ID == "" {
		alloc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if alloc.CreatedAt.IsZero() {
		alloc.CreatedAt = now
	}
	alloc.UpdatedAt = now
	s.byID[alloc.ID] = &alloc
	return alloc
}

func (s *AllocationStore) GetByID(_ context.Context, id string) (*domain.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if alloc, ok := s.byID[id]; ok {
		out := *alloc
		return &out, nil
	}
	return nil, repository.ErrNotFound
}

func (s *AllocationStore) ListAll(_ context.Context) ([]domain.Allocation, error) {
	s.mu.RLock()
	all := make([]domain.Allocation, 0, len(s.byID))
	for _, alloc := range s.byID {
		all = append(all, *alloc)
	}
	s.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool {
		if all[i].ExamDate.Equal(all[j].ExamDate) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ExamDate.Before(all[j].ExamDate)
	})
	return all, nil
}

func (s *AllocationStore) UpdateFacultyID(_ context.Context, id, facultyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	alloc, ok := s.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	alloc.FacultyID = facultyID
	alloc.UpdatedAt = time.Now().UTC()
	return nil
}
