package repository

import (
	"context"
	"time"
)

// PasswordResetRepository manages the OTP fields stored on a credential record.
type PasswordResetRepository interface {
	// SetResetOTP overwrites any earlier code; only the newest code is valid.
	SetResetOTP(ctx context.Context, id, otp string, expiresAt time.Time) error
	// ClearResetOTP removes the code only if it still equals otp.
	ClearResetOTP(ctx context.Context, id, otp string) error
	// ConsumeResetOTP sets the new hash and clears the code in one write, provided the stored
	// code equals otp and has not expired at now. It reports whether a row was changed.
	ConsumeResetOTP(ctx context.Context, id, otp, passwordHash string, now time.Time) (bool, error)
}

func (r *credentialRepository) SetResetOTP(ctx context.Context, id, otp string, expiresAt time.Time) error {
	query := `
        UPDATE ` + r.table + ` SET reset_otp=$1, reset_otp_expires_at=$2, updated_at=NOW()
        WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, otp, expiresAt, id)
	if err != nil {
		return mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *credentialRepository) ClearResetOTP(ctx context.Context, id, otp string) error {
	query := `
        UPDATE ` + r.table + ` SET reset_otp=NULL, reset_otp_expires_at=NULL, updated_at=NOW()
        WHERE id=$1 AND reset_otp=$2`
	_, err := r.pool.Exec(ctx, query, id, otp)
	return mapError(err)
}

func (r *credentialRepository) ConsumeResetOTP(ctx context.Context, id, otp, passwordHash string, now time.Time) (bool, error) {
	query := `
        UPDATE ` + r.table + `
        SET password_hash=$1, reset_otp=NULL, reset_otp_expires_at=NULL, updated_at=NOW()
        WHERE id=$2 AND reset_otp=$3 AND reset_otp_expires_at >= $4`
	cmd, err := r.pool.Exec(ctx, query, passwordHash, id, otp, now)
	if err != nil {
		return false, mapError(err)
	}
	return cmd.RowsAffected() == 1, nil
}
