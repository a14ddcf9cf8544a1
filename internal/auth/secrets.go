package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
)

const (
	otpMin   = 100000
	otpSpan  = 900000
	alphanum = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// GenerateOTP returns a 6 digit code drawn uniformly from 100000..999999.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpSpan))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+otpMin), nil
}

// EqualOTP compares codes in constant time.
func EqualOTP(stored, presented string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}

// GeneratePassword returns prefix followed by n random alphanumerics. It is an initial,
// human-shareable secret mailed to imported faculty.
func GeneratePassword(prefix string, n int) (string, error) {
	buf := make([]byte, n)
	max := big.NewInt(int64(len(alphanum)))
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		buf[i] = alphanum[idx.Int64()]
	}
	return prefix + string(buf), nil
}
