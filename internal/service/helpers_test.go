package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/schedulo/internal/auth"
	"github.com/spec-kit/schedulo/internal/config"
	"github.com/spec-kit/schedulo/internal/domain"
	"github.com/spec-kit/schedulo/internal/mail"
	"github.com/spec-kit/schedulo/internal/persistence"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func testConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 60,
			OTPTTLMinutes:         5,
			BcryptCost:            auth.MinBcryptCost,
			PasswordMinLength:     8,
		},
		Import: config.ImportConfig{PasswordPrefix: "vfstr"},
	}
}

type testEnv struct {
	cfg      config.Config
	stores   *persistence.Stores
	resolver *IdentityResolver
	mailer   *fakeMailer
	logger   *zap.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	stores := persistence.NewMemoryStores()
	return &testEnv{
		cfg:      testConfig(),
		stores:   stores,
		resolver: NewIdentityResolver(stores.CredentialStores()...),
		mailer:   &fakeMailer{},
		logger:   zap.NewNop(),
	}
}

func (e *testEnv) seed(t *testing.T, role domain.Role, employeeID, email, password string, active bool) *domain.Credential {
	t.Helper()
	hash, err := auth.HashPassword(password, auth.MinBcryptCost)
	require.NoError(t, err)
	store, ok := e.resolver.StoreFor(role)
	require.True(t, ok)
	cred := &domain.Credential{
		Name:         "Test " + employeeID,
		Email:        email,
		EmployeeID:   employeeID,
		PasswordHash: hash,
		Department:   "CSE",
		Campus:       "Main Campus",
		Active:       active,
	}
	if role == domain.RoleFaculty {
		cred.Subject = "Data Structures"
		cred.Subjects = []string{"Data Structures", "Algorithms"}
	}
	require.NoError(t, store.Create(context.Background(), cred))
	return cred
}
