package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/schedulo/internal/api/dto"
	"github.com/spec-kit/schedulo/internal/auth"
	"github.com/spec-kit/schedulo/internal/domain"
	"github.com/spec-kit/schedulo/internal/service"
	apperrors "github.com/spec-kit/schedulo/pkg/util/errorutil"
)

const forgotPasswordMessage = "If an account exists for this employee ID, an OTP has been sent to the registered email."

// AuthHandler exposes login, session and password endpoints.
type AuthHandler struct {
	authService  *service.AuthService
	resetService *service.PasswordResetService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, resetService *service.PasswordResetService) *AuthHandler {
	return &AuthHandler{authService: authService, resetService: resetService}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	cred, err := h.authService.Register(c.UserContext(), service.RegisterInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		EmployeeID: req.EmployeeID,
		Role:       domain.Role(req.Role),
		Department: req.Department,
		Campus:     req.Campus,
		Phone:      req.Phone,
		Subject:    req.Subject,
		Subjects:   req.Subjects,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, cred.Profile())
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.authService.Login(c.UserContext(), req.EmployeeID, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.AuthResponse{
		Success:   true,
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		Data:      res.Identity.Credential.Profile(),
	})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, found := auth.PrincipalFromContext(c)
	if !found {
		return apperrors.NewUnauthorized("authentication required")
	}
	return ok(c, http.StatusOK, principal.Credential.Profile())
}

// ForgotPassword handles POST /auth/forgot-password.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.resetService.RequestOTP(c.UserContext(), req.EmployeeID)
	if err != nil {
		return err
	}
	resp := dto.ForgotPasswordResponse{Success: true, Message: forgotPasswordMessage}
	if res.Sent {
		resp.Email = res.MaskedEmail
		resp.ExpiresAt = &res.ExpiresAt
	}
	return c.JSON(resp)
}

// VerifyOTPOnly handles POST /auth/verify-otp-only.
func (h *AuthHandler) VerifyOTPOnly(c *fiber.Ctx) error {
	var req dto.VerifyOTPOnlyRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.resetService.VerifyOTPOnly(c.UserContext(), req.EmployeeID, req.OTP); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "OTP verified"})
}

// VerifyOTP handles POST /auth/verify-otp.
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req dto.VerifyOTPRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.resetService.VerifyAndReset(c.UserContext(), req.EmployeeID, req.OTP, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "password has been reset, sign in with the new password"})
}

// ResetPassword handles POST /auth/reset-password for a signed-in caller.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	principal, found := auth.PrincipalFromContext(c)
	if !found {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ChangePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	err := h.authService.ChangePassword(c.UserContext(), principal.Role, principal.Credential.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "password updated"})
}
