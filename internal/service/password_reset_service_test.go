package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/schedulo/internal/domain"
	apperrors "github.com/spec-kit/schedulo/pkg/util/errorutil"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

func (c *fixedClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newResetService(env *testEnv, clock *fixedClock, code string) *PasswordResetService {
	return NewPasswordResetService(env.cfg.Auth, env.stores.Faculty, env.mailer, env.logger, nil,
		WithClock(clock.Now),
		WithOTPGenerator(func() (string, error) { return code, nil }))
}

func TestRequestOTPSendsMaskedEmail(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, domain.RoleFaculty, "FAC001", "faculty@test.com", "password123", true)
	clock := &fixedClock{now: time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)}
	svc := newResetService(env, clock, "482913")

	res, err := svc.RequestOTP(context.Background(), "FAC001")
	require.NoError(t, err)
	assert.True(t, res.Sent)
	assert.Equal(t, "fa***@test.com", res.MaskedEmail)
	assert.Equal(t, clock.now.Add(5*time.Minute), res.ExpiresAt)
	require.Equal(t, 1, env.mailer.count())
	assert.Contains(t, env.mailer.sent[0].Text, "482913")
}

func TestRequestOTPUnknownSendsNothing(t *testing.T) {
	env := newTestEnv(t)
	svc := newResetService(env, &fixedClock{now: time.Now()}, "111111")

	res, err := svc.RequestOTP(context.Background(), "UNKNOWN")
	require.NoError(t, err)
	assert.False(t, res.Sent)
	assert.Zero(t, env.mailer.count())
}

func TestRequestOTPDeactivated(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, domain.RoleFaculty, "FAC002", "off@test.com", "password123", false)
	svc := newResetService(env, &fixedClock{now: time.Now()}, "111111")

	_, err := svc.RequestOTP(context.Background(), "FAC002")
	require.ErrorIs(t, err, ErrResetDeactivated)
	assert.Equal(t, http.StatusForbidden, apperrors.ToDomainError(err).HTTPStatus)
	assert.Zero(t, env.mailer.count())
}

func TestRequestOTPMailFailureClearsCode(t *testing.T) {
	env := newTestEnv(t)
	cred := env.seed(t, domain.RoleFaculty, "FAC001", "faculty@test.com", "password123", true)
	env.mailer.err = errors.New("smtp down")
	svc := newResetService(env, &fixedClock{now: time.Now()}, "222222")

	_, err := svc.RequestOTP(context.Background(), "FAC001")
	require.Error(t, err)
	assert.Equal(t, "EXTERNAL_SERVICE_FAILED", apperrors.ToDomainError(err).Code)

	stored, err := env.stores.Faculty.GetByID(context.Background(), cred.ID)
	require.NoError(t, err)
	assert.False(t, stored.HasPendingOTP())
}

func TestOTPExpiryBoundary(t *testing.T) {
	cases := []struct {
		name    string
		elapsed time.Duration
		wantErr error
	}{
		{"just before expiry", 299 * time.Second, nil},
		{"exactly at expiry", 300 * time.Second, nil},
		{"after expiry", 301 * time.Second, ErrOTPExpired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.seed(t, domain.RoleFaculty, "FAC001", "faculty@test.com", "password123", true)
			clock := &fixedClock{now: time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)}
			svc := newResetService(env, clock, "654321")

			_, err := svc.RequestOTP(context.Background(), "FAC001")
			require.NoError(t, err)
			clock.Advance(tc.elapsed)

			err = svc.VerifyOTPOnly(context.Background(), "FAC001", "654321")
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestVerifyAndResetAtExpiryUsesOneInstant(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, domain.RoleFaculty, "FAC001", "faculty@test.com", "password123", true)
	clock := &fixedClock{now: time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)}
	ticking := false
	svc := NewPasswordResetService(env.cfg.Auth, env.stores.Faculty, env.mailer, env.logger, nil,
		WithClock(func() time.Time {
			now := clock.Now()
			if ticking {
				clock.Advance(time.Second)
			}
			return now
		}),
		WithOTPGenerator(func() (string, error) { return "246810", nil }))
	ctx := context.Background()

	_, err := svc.RequestOTP(ctx, "FAC001")
	require.NoError(t, err)
	clock.Advance(300 * time.Second)
	ticking = true

	require.NoError(t, svc.VerifyAndReset(ctx, "FAC001", "246810", "brandnew99"))
	_, err = newAuthService(env).Login(ctx, "FAC001", "brandnew99")
	assert.NoError(t, err)
}

func TestVerifyOTPErrors(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, domain.RoleFaculty, "FAC001", "faculty@test.com", "password123", true)
	svc := newResetService(env, &fixedClock{now: time.Now()}, "654321")
	ctx := context.Background()

	err := svc.VerifyOTPOnly(ctx, "NOPE", "654321")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apperrors.ToDomainError(err).HTTPStatus)

	assert.ErrorIs(t, svc.VerifyOTPOnly(ctx, "FAC001", "654321"), ErrOTPNoRequest)

	_, err = svc.RequestOTP(ctx, "FAC001")
	require.NoError(t, err)
	assert.ErrorIs(t, svc.VerifyOTPOnly(ctx, "FAC001", "000000"), ErrOTPMismatch)
	assert.NoError(t, svc.VerifyOTPOnly(ctx, "FAC001", "654321"))
}

func TestVerifyAndResetIsSingleUse(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, domain.RoleFaculty, "FAC001", "faculty@test.com", "password123", true)
	svc := newResetService(env, &fixedClock{now: time.Now()}, "777777")
	authSvc := newAuthService(env)
	ctx := context.Background()

	_, err := svc.RequestOTP(ctx, "FAC001")
	require.NoError(t, err)

	require.NoError(t, svc.VerifyAndReset(ctx, "FAC001", "777777", "brandnew99"))
	assert.ErrorIs(t, svc.VerifyAndReset(ctx, "FAC001", "777777", "another999"), ErrOTPNoRequest)

	_, err = authSvc.Login(ctx, "FAC001", "brandnew99")
	assert.NoError(t, err)
	_, err = authSvc.Login(ctx, "FAC001", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyAndResetChecksPasswordFirst(t *testing.T) {
	env := newTestEnv(t)
	svc := newResetService(env, &fixedClock{now: time.Now()}, "777777")

	err := svc.VerifyAndReset(context.Background(), "NOPE", "777777", "short")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestSecondRequestOverwritesFirst(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, domain.RoleFaculty, "FAC001", "faculty@test.com", "password123", true)
	clock := &fixedClock{now: time.Now()}
	codes := []string{"111111", "222222"}
	svc := NewPasswordResetService(env.cfg.Auth, env.stores.Faculty, env.mailer, env.logger, nil,
		WithClock(clock.Now),
		WithOTPGenerator(func() (string, error) {
			code := codes[0]
			codes = codes[1:]
			return code, nil
		}))
	ctx := context.Background()

	_, err := svc.RequestOTP(ctx, "FAC001")
	require.NoError(t, err)
	_, err = svc.RequestOTP(ctx, "FAC001")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.VerifyOTPOnly(ctx, "FAC001", "111111"), ErrOTPMismatch)
	assert.NoError(t, svc.VerifyOTPOnly(ctx, "FAC001", "222222"))
}
