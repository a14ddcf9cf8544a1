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

// FacultyUploadStore is an in-memory repository.FacultyUploadRepository.
type FacultyUploadStore struct {
	mu   sync.RWMutex
	byID map[string]*domain.FacultyUpload
}

var _ repository.FacultyUploadRepository = (*FacultyUploadStore)(nil)

// NewFacultyUploadStore creates an empty store.
func NewFacultyUploadStore() *FacultyUploadStore {
	return &FacultyUploadStore{byID: make(map[string]*domain.FacultyUpload)}
}

func (s *FacultyUploadStore) Upsert(_ context.Context, upload *domain.FacultyUpload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, existing := range s.byID {
		if existing.EmployeeID == upload.EmployeeID {
			upload.ID = existing.ID
			upload.CreatedAt = existing.CreatedAt
			break
		}
	}
	if upload.ID == "" {
		upload.ID = uuid.NewString()
		upload.CreatedAt = now
	}
	upload.UploadedAt = now
	upload.UpdatedAt = now
	stored := *upload
	stored.Subjects = append([]string(nil), upload.Subjects...)
	stored.Availability = cloneAvailability(upload.Availability)
	s.byID[upload.ID] = &stored
	return nil
}

func (s *FacultyUploadStore) GetByID(_ context.Context, id string) (*domain.FacultyUpload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if upload, ok := s.byID[id]; ok {
		out := *upload
		return &out, nil
	}
	return nil, repository.ErrNotFound
}

func (s *FacultyUploadStore) List(_ context.Context, limit, offset int) ([]domain.FacultyUpload, error) {
	s.mu.RLock()
	all := make([]domain.FacultyUpload, 0, len(s.byID))
	for _, upload := range s.byID {
		all = append(all, *upload)
	}
	s.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool { return all[i].UploadedAt.After(all[j].UploadedAt) })
	return paginate(all, limit, offset), nil
}
