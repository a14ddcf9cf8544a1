package service

import (
	"net/http"

	apperrors "github.com/spec-kit/schedulo/pkg/util/errorutil"
)

// Authentication and password reset failures. Login never reveals whether the employee id
// exists; ErrInvalidCredentials covers both cases.
var (
	ErrInvalidCredentials = apperrors.NewDomainError("INVALID_CREDENTIALS", "invalid credentials", http.StatusUnauthorized, nil)
	ErrAccountDeactivated = apperrors.NewDomainError("ACCOUNT_DEACTIVATED", "account is deactivated, contact the administrator", http.StatusUnauthorized, nil)
	ErrResetDeactivated   = apperrors.NewDomainError("ACCOUNT_DEACTIVATED", "account is deactivated, password reset is not allowed", http.StatusForbidden, nil)
	ErrSessionInvalid     = apperrors.NewDomainError("UNAUTHORIZED", "not authorized, user not found or inactive", http.StatusUnauthorized, nil)
	ErrWrongPassword      = apperrors.NewDomainError("UNAUTHORIZED", "current password is incorrect", http.StatusUnauthorized, nil)

	ErrOTPNoRequest = apperrors.NewDomainError("OTP_NO_REQUEST", "no OTP request found, request a new code", http.StatusBadRequest, nil)
	ErrOTPExpired   = apperrors.NewDomainError("OTP_EXPIRED", "OTP has expired, request a new code", http.StatusBadRequest, nil)
	ErrOTPMismatch  = apperrors.NewDomainError("OTP_MISMATCH", "invalid OTP", http.StatusBadRequest, nil)
)
