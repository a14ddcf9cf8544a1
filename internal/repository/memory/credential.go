// Package memory provides process-local repositories used by STORE_DRIVER=memory and tests.
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

// CredentialStore is an in-memory repository.CredentialRepository enforcing the same
// per-store unique email and employee id constraints as the SQL tables.
type CredentialStore struct {
	mu   sync.RWMutex
	role domain.Role
	byID map[string]*domain.Credential
}

var _ repository.CredentialRepository = (*CredentialStore)(nil)

// NewCredentialStore creates an empty store for role.
func NewCredentialStore(role domain.Role) *CredentialStore {
	return &CredentialStore{role: role, byID: make(map[string]*domain.Credential)}
}

func (s *CredentialStore) Role() domain.Role {
	return s.role
}

func (s *CredentialStore) Create(_ context.Context, cred *domain.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUnique(cred); err != nil {
		return err
	}
	now := time.Now().UTC()
	cred.ID = uuid.NewString()
	cred.Role = s.role
	cred.CreatedAt = now
	cred.UpdatedAt = now
	s.byID[cred.ID] = cloneCredential(cred)
	return nil
}

func (s *CredentialStore) GetByID(_ context.Context, id string) (*domain.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cred, ok := s.byID[id]; ok {
		return cloneCredential(cred), nil
	}
	return nil, repository.ErrNotFound
}

func (s *CredentialStore) GetByEmployeeID(_ context.Context, employeeID string) (*domain.Credential, error) {
	return s.find(func(c *domain.Credential) bool { return c.EmployeeID == employeeID })
}

func (s *CredentialStore) GetByEmail(_ context.Context, email string) (*domain.Credential, error) {
	return s.find(func(c *domain.Credential) bool { return c.Email == email })
}

func (s *CredentialStore) List(_ context.Context, filter repository.CredentialFilter) ([]domain.Credential, error) {
	s.mu.RLock()
	all := make([]domain.Credential, 0, len(s.byID))
	for _, cred := range s.byID {
		if filter.Department != nil && cred.Department != *filter.Department {
			continue
		}
		if filter.Campus != nil && cred.Campus != *filter.Campus {
			continue
		}
		if filter.Active != nil && cred.Active != *filter.Active {
			continue
		}
		all = append(all, *cloneCredential(cred))
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return paginate(all, filter.Limit, filter.Offset), nil
}

func (s *CredentialStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	return s.mutate(id, func(c *domain.Credential) { c.PasswordHash = passwordHash })
}

func (s *CredentialStore) SetActive(_ context.Context, id string, active bool) error {
	return s.mutate(id, func(c *domain.Credential) { c.Active = active })
}

func (s *CredentialStore) SetResetOTP(_ context.Context, id, otp string, expiresAt time.Time) error {
	return s.mutate(id, func(c *domain.Credential) {
		code, exp := otp, expiresAt
		c.ResetOTP = &code
		c.ResetOTPExpiresAt = &exp
	})
}

func (s *CredentialStore) ClearResetOTP(_ context.Context, id, otp string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.byID[id]
	if !ok || cred.ResetOTP == nil || *cred.ResetOTP != otp {
		return nil
	}
	cred.ResetOTP = nil
	cred.ResetOTPExpiresAt = nil
	cred.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *CredentialStore) ConsumeResetOTP(_ context.Context, id, otp, passwordHash string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.byID[id]
	if !ok || !cred.HasPendingOTP() || *cred.ResetOTP != otp || now.After(*cred.ResetOTPExpiresAt) {
		return false, nil
	}
	cred.PasswordHash = passwordHash
	cred.ResetOTP = nil
	cred.ResetOTPExpiresAt = nil
	cred.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (s *CredentialStore) find(match func(*domain.Credential) bool) (*domain.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, cred := range s.byID {
		if match(cred) {
			return cloneCredential(cred), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *CredentialStore) mutate(id string, fn func(*domain.Credential)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(cred)
	cred.UpdatedAt = time.Now().UTC()
	return nil
}

// checkUnique must be called with the write lock held.
func (s *CredentialStore) checkUnique(cred *domain.Credential) error {
	for _, other := range s.byID {
		if other.Email == cred.Email {
			return &repository.ConflictError{Field: repository.FieldEmail}
		}
		if other.EmployeeID == cred.EmployeeID {
			return &repository.ConflictError{Field: repository.FieldEmployeeID}
		}
	}
	return nil
}

func cloneCredential(in *domain.Credential) *domain.Credential {
	out := *in
	out.Subjects = append([]string(nil), in.Subjects...)
	out.Availability = cloneAvailability(in.Availability)
	if in.ResetOTP != nil {
		code := *in.ResetOTP
		out.ResetOTP = &code
	}
	if in.ResetOTPExpiresAt != nil {
		exp := *in.ResetOTPExpiresAt
		out.ResetOTPExpiresAt = &exp
	}
	return &out
}

func cloneAvailability(in []domain.DayAvailability) []domain.DayAvailability {
	if in == nil {
		return nil
	}
	out := make([]domain.DayAvailability, len(in))
	for i, day := range in {
		out[i] = domain.DayAvailability{Day: day.Day, TimeSlots: append([]domain.TimeSlot(nil), day.TimeSlots...)}
	}
	return out
}

func paginate[T any](items []T, limit, offset int) []T {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
