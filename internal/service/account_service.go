package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/schedulo/internal/domain"
	"github.com/spec-kit/schedulo/internal/repository"
	apperrors "github.com/spec-kit/schedulo/pkg/util/errorutil"
)

// AccountService administers faculty login records.
type AccountService struct {
	faculty repository.CredentialRepository
	logger  *zap.Logger
}

// NewAccountService builds the service.
func NewAccountService(faculty repository.CredentialRepository, logger *zap.Logger) *AccountService {
	return &AccountService{faculty: faculty, logger: logger}
}

// ListFaculty returns sanitized faculty profiles matching filter.
func (s *AccountService) ListFaculty(ctx context.Context, filter repository.CredentialFilter) ([]domain.Profile, error) {
	creds, err := s.faculty.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	profiles := make([]domain.Profile, 0, len(creds))
	for i := range creds {
		profiles = append(profiles, creds[i].Profile())
	}
	return profiles, nil
}

// SetActive enables or soft-disables a faculty account. Records are never deleted.
func (s *AccountService) SetActive(ctx context.Context, id string, active bool) (*domain.Profile, error) {
	if err := s.faculty.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("faculty", map[string]any{"id": id})
		}
		return nil, err
	}
	cred, err := s.faculty.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("faculty account status changed", zap.String("employee_id", cred.EmployeeID), zap.Bool("active", active))
	profile := cred.Profile()
	return &profile, nil
}
