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
	"github.com/spec-kit/schedulo/internal/mail"
	"github.com/spec-kit/schedulo/internal/observability"
	"github.com/spec-kit/schedulo/internal/repository"
	apperrors "github.com/spec-kit/schedulo/pkg/util/errorutil"
)

// PasswordResetService runs the emailed OTP flow for faculty accounts.
//
// A record moves NoRequest -> OTPIssued -> PasswordReset, or stays OTPIssued until the
// code expires. Issuing again overwrites the previous code.
type PasswordResetService struct {
	faculty        repository.CredentialRepository
	mailer         mail.Mailer
	ttl            time.Duration
	bcryptCost     int
	minPasswordLen int
	now            func() time.Time
	generateOTP    func() (string, error)
	logger         *zap.Logger
	metrics        *observability.Metrics
}

// PasswordResetOption customizes the service.
type PasswordResetOption func(*PasswordResetService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) PasswordResetOption {
	return func(s *PasswordResetService) { s.now = now }
}

// WithOTPGenerator replaces the random code source.
func WithOTPGenerator(gen func() (string, error)) PasswordResetOption {
	return func(s *PasswordResetService) { s.generateOTP = gen }
}

// NewPasswordResetService builds the service over the faculty store.
func NewPasswordResetService(cfg config.AuthConfig, faculty repository.CredentialRepository, mailer mail.Mailer, logger *zap.Logger, metrics *observability.Metrics, opts ...PasswordResetOption) *PasswordResetService {
	minLen := cfg.PasswordMinLength
	if minLen <= 0 {
		minLen = 8
	}
	s := &PasswordResetService{
		faculty:        faculty,
		mailer:         mailer,
		ttl:            cfg.OTPTTL(),
		bcryptCost:     cfg.BcryptCost,
		minPasswordLen: minLen,
		now:            time.Now,
		generateOTP:    auth.GenerateOTP,
		logger:         logger,
		metrics:        metrics,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OTPRequestResult reports an OTP request. Sent is false when the employee id is unknown;
// callers must answer both cases identically apart from the masked address.
type OTPRequestResult struct {
	Sent        bool
	MaskedEmail string
	ExpiresAt   time.Time
}

// RequestOTP issues a code and emails it. The code is stored before sending and removed
// again if the email cannot be delivered.
func (s *PasswordResetService) RequestOTP(ctx context.Context, employeeID string) (*OTPRequestResult, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return nil, apperrors.NewValidationError("employee ID is required", map[string]any{"employeeId": "required"})
	}

	cred, err := s.faculty.GetByEmployeeID(ctx, employeeID)
	if errors.Is(err, repository.ErrNotFound) {
		s.logger.Info("otp requested for unknown employee id", zap.String("employee_id", employeeID))
		s.metrics.RecordOTP("request", "unknown_identity")
		return &OTPRequestResult{}, nil
	}
	if err != nil {
		return nil, err
	}
	if !cred.Active {
		s.metrics.RecordOTP("request", "deactivated")
		return nil, ErrResetDeactivated
	}

	code, err := s.generateOTP()
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	expiresAt := s.now().Add(s.ttl)
	if err := s.faculty.SetResetOTP(ctx, cred.ID, code, expiresAt); err != nil {
		return nil, err
	}

	msg, err := mail.PasswordResetOTP(cred.Name, cred.Email, cred.EmployeeID, code, s.ttl)
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		if clearErr := s.faculty.ClearResetOTP(context.WithoutCancel(ctx), cred.ID, code); clearErr != nil {
			s.logger.Error("failed to clear undelivered otp", zap.String("employee_id", cred.EmployeeID), zap.Error(clearErr))
		}
		s.metrics.RecordOTP("request", "mail_failed")
		return nil, apperrors.NewExternalServiceError("failed to send OTP email, please try again later", err)
	}

	s.logger.Info("otp issued", zap.String("employee_id", cred.EmployeeID), zap.Time("expires_at", expiresAt))
	s.metrics.RecordOTP("request", "sent")
	return &OTPRequestResult{Sent: true, MaskedEmail: mail.MaskAddress(cred.Email), ExpiresAt: expiresAt}, nil
}

// VerifyOTPOnly checks a code without consuming it.
func (s *PasswordResetService) VerifyOTPOnly(ctx context.Context, employeeID, otp string) error {
	cred, err := s.lookup(ctx, employeeID)
	if err != nil {
		return err
	}
	if err := s.check(cred, otp, s.now()); err != nil {
		s.metrics.RecordOTP("verify", outcomeOf(err))
		return err
	}
	s.metrics.RecordOTP("verify", "ok")
	return nil
}

// VerifyAndReset checks the code and, in one conditional write, stores the new password
// and clears the code. A code can be consumed once.
func (s *PasswordResetService) VerifyAndReset(ctx context.Context, employeeID, otp, newPassword string) error {
	if len(newPassword) < s.minPasswordLen {
		return apperrors.NewValidationError("new password is too short", map[string]any{"newPassword": "too short"})
	}
	otp = strings.TrimSpace(otp)
	cred, err := s.lookup(ctx, employeeID)
	if err != nil {
		return err
	}
	now := s.now()
	if err := s.check(cred, otp, now); err != nil {
		s.metrics.RecordOTP("reset", outcomeOf(err))
		return err
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	ok, err := s.faculty.ConsumeResetOTP(ctx, cred.ID, otp, hash, now)
	if err != nil {
		return err
	}
	if !ok {
		s.metrics.RecordOTP("reset", "no_request")
		return ErrOTPNoRequest
	}
	s.logger.Info("password reset via otp", zap.String("employee_id", cred.EmployeeID))
	s.metrics.RecordOTP("reset", "ok")
	return nil
}

func (s *PasswordResetService) lookup(ctx context.Context, employeeID string) (*domain.Credential, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return nil, apperrors.NewValidationError("employee ID is required", map[string]any{"employeeId": "required"})
	}
	cred, err := s.faculty.GetByEmployeeID(ctx, employeeID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("faculty", nil)
	}
	return cred, err
}

func (s *PasswordResetService) check(cred *domain.Credential, otp string, now time.Time) error {
	if !cred.HasPendingOTP() {
		return ErrOTPNoRequest
	}
	if now.After(*cred.ResetOTPExpiresAt) {
		return ErrOTPExpired
	}
	if !auth.EqualOTP(*cred.ResetOTP, strings.TrimSpace(otp)) {
		return ErrOTPMismatch
	}
	return nil
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrOTPNoRequest):
		return "no_request"
	case errors.Is(err, ErrOTPExpired):
		return "expired"
	case errors.Is(err, ErrOTPMismatch):
		return "mismatch"
	}
	return "error"
}
