package dto

import (
	"time"

	"github.com/spec-kit/schedulo/internal/domain"
)

// RegisterRequest payload for admin-created accounts.
type RegisterRequest struct {
	Name       string   `json:"name" validate:"required"`
	Email      string   `json:"email" validate:"required,email"`
	Password   string   `json:"password" validate:"required,min=8"`
	Role       string   `json:"role" validate:"omitempty,oneof=admin hod faculty"`
	EmployeeID string   `json:"employeeId" validate:"required"`
	Department string   `json:"department"`
	Campus     string   `json:"campus"`
	Phone      string   `json:"phone"`
	Subject    string   `json:"subject"`
	Subjects   []string `json:"subjects" validate:"omitempty,dive,required"`
}

// LoginRequest payload for login by employee id.
type LoginRequest struct {
	EmployeeID string `json:"employeeId" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// ForgotPasswordRequest starts the OTP flow.
type ForgotPasswordRequest struct {
	EmployeeID string `json:"employeeId" validate:"required"`
}

// VerifyOTPOnlyRequest checks a code without consuming it.
type VerifyOTPOnlyRequest struct {
	EmployeeID string `json:"employeeId" validate:"required"`
	OTP        string `json:"otp" validate:"required,len=6,numeric"`
}

// VerifyOTPRequest consumes a code and sets a new password.
type VerifyOTPRequest struct {
	EmployeeID  string `json:"employeeId" validate:"required"`
	OTP         string `json:"otp" validate:"required,len=6,numeric"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// ChangePasswordRequest payload for authenticated password changes.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

// AuthResponse standard response for login.
type AuthResponse struct {
	Success   bool           `json:"success"`
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	Data      domain.Profile `json:"data"`
}

// ForgotPasswordResponse is returned whether or not the employee id exists.
type ForgotPasswordResponse struct {
	Success   bool       `json:"success"`
	Message   string     `json:"message"`
	Email     string     `json:"email,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}
