package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/schedulo/internal/api/http/handlers"
	"github.com/spec-kit/schedulo/internal/auth"
	"github.com/spec-kit/schedulo/internal/config"
	"github.com/spec-kit/schedulo/internal/domain"
	"github.com/spec-kit/schedulo/internal/events"
	"github.com/spec-kit/schedulo/internal/mail"
	"github.com/spec-kit/schedulo/internal/persistence"
	"github.com/spec-kit/schedulo/internal/realtime"
	"github.com/spec-kit/schedulo/internal/service"
)

type countingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (m *countingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *countingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type testServer struct {
	app    *fiber.App
	stores *persistence.Stores
	mailer *countingMailer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 60,
			OTPTTLMinutes:         5,
			BcryptCost:            auth.MinBcryptCost,
			PasswordMinLength:     8,
		},
		Import: config.ImportConfig{PasswordPrefix: "vfstr", MaxUploadMB: 1},
	}
	stores := persistence.NewMemoryStores()
	mailer := &countingMailer{}
	resolver := service.NewIdentityResolver(stores.CredentialStores()...)

	authService := service.NewAuthService(cfg.Auth, resolver, logger, nil)
	resetService := service.NewPasswordResetService(cfg.Auth, stores.Faculty, mailer, logger, nil)
	importService := service.NewImportService(cfg, service.ImportDependencies{
		Resolver: resolver, Faculty: stores.Faculty, Uploads: stores.Uploads, Mailer: mailer,
	}, logger, nil)
	notifications := service.NewNotificationService(service.NotificationDependencies{
		Allocations: stores.Allocations, Faculty: stores.Faculty, Uploads: stores.Uploads,
		Dispatcher: events.NewLocalDispatcher(), Mailer: mailer,
	}, logger)

	app := fiber.New()
	RegisterMiddlewares(app, MiddlewareConfig{Logger: logger, Timeout: 5 * time.Second})
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("schedulo", "test", nil),
		Auth:           handlers.NewAuthHandler(authService, resetService),
		Imports:        handlers.NewImportHandler(importService, cfg.Import.MaxUploadBytes()),
		Faculty:        handlers.NewFacultyHandler(service.NewAccountService(stores.Faculty, logger)),
		Allocations:    handlers.NewAllocationHandler(notifications),
		Realtime:       handlers.NewRealtimeHandler(realtime.NewHub(logger, nil), logger),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), authService),
	})
	return &testServer{app: app, stores: stores, mailer: mailer}
}

func (s *testServer) seed(t *testing.T, role domain.Role, employeeID, email, password string) *domain.Credential {
	t.Helper()
	hash, err := auth.HashPassword(password, auth.MinBcryptCost)
	require.NoError(t, err)
	cred := &domain.Credential{
		Name: "Test Faculty", Email: email, EmployeeID: employeeID, PasswordHash: hash,
		Department: "CSE", Subject: "Data Structures", Active: true,
	}
	var store interface {
		Create(context.Context, *domain.Credential) error
	}
	switch role {
	case domain.RoleAdmin:
		store = s.stores.Admins
	case domain.RoleHOD:
		store = s.stores.HODs
	default:
		store = s.stores.Faculty
	}
	require.NoError(t, store.Create(context.Background(), cred))
	return cred
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	return s.send(t, req)
}

func (s *testServer) upload(t *testing.T, path, filename, content, token string) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(fiber.MethodPost, path, &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	return s.send(t, req)
}

func (s *testServer) send(t *testing.T, req *nethttp.Request) (int, map[string]any) {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (s *testServer) login(t *testing.T, employeeID, password string) string {
	t.Helper()
	status, body := s.do(t, fiber.MethodPost, "/auth/login", map[string]string{"employeeId": employeeID, "password": password}, "")
	require.Equal(t, fiber.StatusOK, status, body)
	return body["token"].(string)
}

func TestLoginFacultyByEmployeeID(t *testing.T) {
	srv := newTestServer(t)
	srv.seed(t, domain.RoleFaculty, "FAC001", "faculty@test.com", "password123")

	status, body := srv.do(t, fiber.MethodPost, "/auth/login", map[string]string{"employeeId": "FAC001", "password": "password123"}, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["token"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "faculty", data["role"])
	assert.Equal(t, "FAC001", data["employeeId"])
	assert.NotContains(t, data, "password")
}

func TestLoginFailuresShareMessage(t *testing.T) {
	srv := newTestServer(t)
	srv.seed(t, domain.RoleFaculty, "FAC001", "faculty@test.com", "password123")

	s1, unknown := srv.do(t, fiber.MethodPost, "/auth/login", map[string]string{"employeeId": "NOPE", "password": "password123"}, "")
	s2, wrong := srv.do(t, fiber.MethodPost, "/auth/login", map[string]string{"employeeId": "FAC001", "password": "nope-nope"}, "")

	assert.Equal(t, fiber.StatusUnauthorized, s1)
	assert.Equal(t, fiber.StatusUnauthorized, s2)
	assert.Equal(t, unknown["message"], wrong["message"])
	assert.Equal(t, false, unknown["success"])
}

func TestLoginValidation(t *testing.T) {
	srv := newTestServer(t)
	status, body := srv.do(t, fiber.MethodPost, "/auth/login", map[string]string{"employeeId": "FAC001"}, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", body["code"])
}

func TestForgotPasswordUnknownIsGeneric(t *testing.T) {
	srv := newTestServer(t)
	status, body := srv.do(t, fiber.MethodPost, "/auth/forgot-password", map[string]string{"employeeId": "UNKNOWN"}, "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.NotContains(t, body, "email")
	assert.Zero(t, srv.mailer.count())
}

func TestForgotPasswordKnownReturnsMaskedEmail(t *testing.T) {
	srv := newTestServer(t)
	srv.seed(t, domain.RoleFaculty, "FAC001", "faculty@test.com", "password123")

	status, body := srv.do(t, fiber.MethodPost, "/auth/forgot-password", map[string]string{"employeeId": "FAC001"}, "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "fa***@test.com", body["email"])
	assert.Equal(t, 1, srv.mailer.count())
}

func TestVerifyOTPOnlyUnknownIs404(t *testing.T) {
	srv := newTestServer(t)
	status, _ := srv.do(t, fiber.MethodPost, "/auth/verify-otp-only", map[string]string{"employeeId": "NOPE", "otp": "123456"}, "")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestMeRequiresToken(t *testing.T) {
	srv := newTestServer(t)
	srv.seed(t, domain.RoleFaculty, "FAC001", "faculty@test.com", "password123")

	status, _ := srv.do(t, fiber.MethodGet, "/auth/me", nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	token := srv.login(t, "FAC001", "password123")
	status, body := srv.do(t, fiber.MethodGet, "/auth/me", nil, token)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "FAC001", body["data"].(map[string]any)["employeeId"])
}

func TestRegisterIsAdminOnly(t *testing.T) {
	srv := newTestServer(t)
	srv.seed(t, domain.RoleAdmin, "ADM1", "admin@test.com", "password123")
	srv.seed(t, domain.RoleFaculty, "FAC001", "faculty@test.com", "password123")

	payload := map[string]any{
		"name": "New HOD", "email": "hod@test.com", "password": "password123",
		"employeeId": "HOD1", "role": "hod",
	}

	status, _ := srv.do(t, fiber.MethodPost, "/auth/register", payload, srv.login(t, "FAC001", "password123"))
	assert.Equal(t, fiber.StatusForbidden, status)

	adminToken := srv.login(t, "ADM1", "password123")
	status, body := srv.do(t, fiber.MethodPost, "/auth/register", payload, adminToken)
	require.Equal(t, fiber.StatusCreated, status, body)
	assert.Equal(t, "hod", body["data"].(map[string]any)["role"])

	status, body = srv.do(t, fiber.MethodPost, "/auth/register", payload, adminToken)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "CONFLICT", body["code"])
}

func TestResetPasswordFlow(t *testing.T) {
	srv := newTestServer(t)
	srv.seed(t, domain.RoleFaculty, "FAC001", "faculty@test.com", "password123")
	token := srv.login(t, "FAC001", "password123")

	status, _ := srv.do(t, fiber.MethodPost, "/auth/reset-password",
		map[string]string{"currentPassword": "wrong-one", "newPassword": "newpassword1"}, token)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = srv.do(t, fiber.MethodPost, "/auth/reset-password",
		map[string]string{"currentPassword": "password123", "newPassword": "newpassword1"}, token)
	require.Equal(t, fiber.StatusOK, status)
	srv.login(t, "FAC001", "newpassword1")
}

func TestUploadFacultyCredentials(t *testing.T) {
	srv := newTestServer(t)
	srv.seed(t, domain.RoleHOD, "HOD1", "hod@test.com", "password123")
	token := srv.login(t, "HOD1", "password123")

	roster := "name,email,employeeId,department,campus\n" +
		"Asha,asha@test.com,FAC100,CSE,Main\n" +
		"Dup,hod@test.com,FAC101,CSE,Main\n" +
		"Bad,,FAC102,CSE,Main\n"

	status, body := srv.upload(t, "/upload/faculty-credentials/preview", "roster.csv", roster, token)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Len(t, body["data"].([]any), 3)

	status, body = srv.upload(t, "/upload/faculty-credentials", "roster.csv", roster, token)
	require.Equal(t, fiber.StatusOK, status, body)
	data := body["data"].(map[string]any)
	assert.Len(t, data["created"].([]any), 1)
	assert.Len(t, data["duplicates"].([]any), 1)
	assert.Len(t, data["invalid"].([]any), 1)
	assert.Equal(t, 1, srv.mailer.count())

	status, body = srv.do(t, fiber.MethodGet, "/faculty-credentials", nil, token)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"].([]any), 1)
}

func TestSetFacultyStatusIsAdminOnly(t *testing.T) {
	srv := newTestServer(t)
	srv.seed(t, domain.RoleAdmin, "ADM1", "admin@test.com", "password123")
	srv.seed(t, domain.RoleHOD, "HOD1", "hod@test.com", "password123")
	fac := srv.seed(t, domain.RoleFaculty, "FAC001", "faculty@test.com", "password123")

	path := "/faculty-credentials/" + fac.ID + "/status"
	status, _ := srv.do(t, fiber.MethodPatch, path, map[string]bool{"isActive": false}, srv.login(t, "HOD1", "password123"))
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body := srv.do(t, fiber.MethodPatch, path, map[string]bool{"isActive": false}, srv.login(t, "ADM1", "password123"))
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, false, body["data"].(map[string]any)["isActive"])

	status, _ = srv.do(t, fiber.MethodPost, "/auth/login", map[string]string{"employeeId": "FAC001", "password": "password123"}, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = srv.do(t, fiber.MethodPatch, "/faculty-credentials/missing/status", map[string]bool{"isActive": true}, srv.login(t, "ADM1", "password123"))
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestHealthLive(t *testing.T) {
	srv := newTestServer(t)
	status, body := srv.do(t, fiber.MethodGet, "/health/live", nil, "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "alive", body["status"])

	status, _ = srv.do(t, fiber.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, fiber.StatusOK, status)
}

func TestWebsocketRequiresUpgrade(t *testing.T) {
	srv := newTestServer(t)
	srv.seed(t, domain.RoleFaculty, "FAC001", "faculty@test.com", "password123")
	token := srv.login(t, "FAC001", "password123")

	status, _ := srv.do(t, fiber.MethodGet, "/ws?token=bogus", nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = srv.do(t, fiber.MethodGet, "/ws?token="+token, nil, "")
	assert.Equal(t, fiber.StatusUpgradeRequired, status)
}
