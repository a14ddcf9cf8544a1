package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/schedulo/internal/auth"
	"github.com/spec-kit/schedulo/internal/config"
	"github.com/spec-kit/schedulo/internal/domain"
	"github.com/spec-kit/schedulo/internal/observability"
	"github.com/spec-kit/schedulo/internal/repository"
	apperrors "github.com/spec-kit/schedulo/pkg/util/errorutil"
)

// AuthService coordinates login, session lookup, registration and password changes.
type AuthService struct {
	resolver       *IdentityResolver
	tokenMgr       *auth.TokenManager
	bcryptCost     int
	minPasswordLen int
	logger         *zap.Logger
	metrics        *observability.Metrics
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, resolver *IdentityResolver, logger *zap.Logger, metrics *observability.Metrics) *AuthService {
	minLen := cfg.PasswordMinLength
	if minLen <= 0 {
		minLen = 8
	}
	return &AuthService{
		resolver:       resolver,
		tokenMgr:       auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost:     cfg.BcryptCost,
		minPasswordLen: minLen,
		logger:         logger,
		metrics:        metrics,
	}
}

// LoginResult is a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Identity  *Identity
}

// Login authenticates by employee id and password.
func (s *AuthService) Login(ctx context.Context, employeeID, password string) (*LoginResult, error) {
	if password == "" {
		return nil, apperrors.NewValidationError("employee ID and password are required", map[string]any{"password": "required"})
	}

	identity, err := s.resolver.Resolve(ctx, employeeID)
	if errors.Is(err, ErrIdentityNotFound) {
		s.logger.Info("login rejected: unknown employee id", zap.String("employee_id", strings.TrimSpace(employeeID)))
		s.metrics.RecordLogin("unknown_identity")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	cred := identity.Credential
	if !cred.Active {
		s.logger.Info("login rejected: account deactivated", zap.String("employee_id", cred.EmployeeID), zap.String("role", string(identity.Role)))
		s.metrics.RecordLogin("deactivated")
		return nil, ErrAccountDeactivated
	}

	if err := auth.ComparePassword(cred.PasswordHash, password); err != nil {
		if !auth.IsMismatch(err) {
			s.logger.Error("stored password hash unusable", zap.String("employee_id", cred.EmployeeID), zap.Error(err))
		}
		s.logger.Info("login rejected: wrong password", zap.String("employee_id", cred.EmployeeID), zap.String("role", string(identity.Role)))
		s.metrics.RecordLogin("wrong_password")
		return nil, ErrInvalidCredentials
	}

	token, meta, err := s.tokenMgr.Issue(cred.ID, identity.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	s.metrics.RecordLogin("success")
	return &LoginResult{Token: token, ExpiresAt: meta.ExpiresAt, Identity: identity}, nil
}

// CurrentUser reloads the credential named by validated token claims. It satisfies
// auth.IdentityLoader.
func (s *AuthService) CurrentUser(ctx context.Context, claims *auth.Claims) (*domain.Credential, error) {
	identity, err := s.resolver.FindByID(ctx, claims.Role, claims.SubjectID)
	if errors.Is(err, ErrIdentityNotFound) {
		return nil, ErrSessionInvalid
	}
	if err != nil {
		return nil, err
	}
	if !identity.Credential.Active {
		return nil, ErrSessionInvalid
	}
	return identity.Credential, nil
}

// RegisterInput carries a new account's fields.
type RegisterInput struct {
	Name       string
	Email      string
	Password   string
	EmployeeID string
	Role       domain.Role
	Department string
	Campus     string
	Phone      string
	Subject    string
	Subjects   []string
}

// Register creates an account in the store of in.Role. Email and employee id must be
// unused across every store.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.Credential, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = NormalizeEmail(in.Email)
	in.EmployeeID = strings.TrimSpace(in.EmployeeID)
	if in.Role == "" {
		in.Role = domain.RoleFaculty
	}

	details := map[string]any{}
	if in.Name == "" {
		details["name"] = "required"
	}
	if in.Email == "" {
		details["email"] = "required"
	}
	if in.EmployeeID == "" {
		details["employeeId"] = "required"
	}
	if len(in.Password) < s.minPasswordLen {
		details["password"] = "too short"
	}
	if !in.Role.Valid() {
		details["role"] = "must be one of admin, hod, faculty"
	}
	if in.Role == domain.RoleFaculty && strings.TrimSpace(in.Subject) == "" && len(in.Subjects) == 0 {
		details["subject"] = "subject or subjects is required for faculty"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("please provide all required fields", details)
	}

	if err := s.ensureUnused(ctx, in.Email, in.EmployeeID); err != nil {
		return nil, err
	}

	store, ok := s.resolver.StoreFor(in.Role)
	if !ok {
		return nil, apperrors.NewInternalError(errors.New("no store for role " + string(in.Role)))
	}
	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	cred := &domain.Credential{
		Name:         in.Name,
		Email:        in.Email,
		EmployeeID:   in.EmployeeID,
		PasswordHash: hash,
		Department:   strings.TrimSpace(in.Department),
		Campus:       strings.TrimSpace(in.Campus),
		Phone:        strings.TrimSpace(in.Phone),
		Subject:      strings.TrimSpace(in.Subject),
		Subjects:     in.Subjects,
		Active:       true,
	}
	if cred.Subject == "" && len(cred.Subjects) > 0 {
		cred.Subject = cred.Subjects[0]
	}
	if err := store.Create(ctx, cred); err != nil {
		return nil, conflictOr(err)
	}
	s.logger.Info("account registered", zap.String("employee_id", cred.EmployeeID), zap.String("role", string(cred.Role)))
	return cred, nil
}

func (s *AuthService) ensureUnused(ctx context.Context, email, employeeID string) error {
	if _, err := s.resolver.FindByEmail(ctx, email); err == nil {
		return apperrors.NewConflict("user with this email already exists", map[string]any{"field": repository.FieldEmail})
	} else if !errors.Is(err, ErrIdentityNotFound) {
		return err
	}
	if _, err := s.resolver.FindByEmployeeID(ctx, employeeID); err == nil {
		return apperrors.NewConflict("employee ID already exists", map[string]any{"field": repository.FieldEmployeeID})
	} else if !errors.Is(err, ErrIdentityNotFound) {
		return err
	}
	return nil
}

// ChangePassword replaces the password of an authenticated caller after checking the
// current one.
func (s *AuthService) ChangePassword(ctx context.Context, role domain.Role, id, currentPassword, newPassword string) error {
	if currentPassword == "" {
		return apperrors.NewValidationError("current password is required", map[string]any{"currentPassword": "required"})
	}
	if len(newPassword) < s.minPasswordLen {
		return apperrors.NewValidationError("new password is too short", map[string]any{"newPassword": "too short"})
	}

	identity, err := s.resolver.FindByID(ctx, role, id)
	if errors.Is(err, ErrIdentityNotFound) {
		return apperrors.NewNotFound("user", nil)
	}
	if err != nil {
		return err
	}
	if err := auth.ComparePassword(identity.Credential.PasswordHash, currentPassword); err != nil {
		return ErrWrongPassword
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	store, _ := s.resolver.StoreFor(role)
	if err := store.UpdatePassword(ctx, id, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("user", nil)
		}
		return err
	}
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func conflictOr(err error) error {
	var conflict *repository.ConflictError
	if errors.As(err, &conflict) {
		msg := "user with this email already exists"
		if conflict.Field == repository.FieldEmployeeID {
			msg = "employee ID already exists"
		}
		return apperrors.NewConflict(msg, map[string]any{"field": conflict.Field})
	}
	return err
}
