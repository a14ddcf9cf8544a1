package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/schedulo/internal/domain"
)

const defaultSessionTTL = 7 * 24 * time.Hour

var errMalformedClaims = errors.New("token missing subject or role")

// Claims is the session token payload. Only the subject id and role are trusted; the
// profile is always reloaded from the store.
type Claims struct {
	SubjectID string      `json:"id"`
	Role      domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 session tokens.
type TokenManager struct {
	key    []byte
	ttl    time.Duration
	clock  func() time.Time
	parser *jwt.Parser
}

// NewTokenManager builds a manager. A non-positive ttlMinutes selects a seven day session.
func NewTokenManager(secret string, ttlMinutes int) *TokenManager {
	ttl := time.Duration(ttlMinutes) * time.Minute
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	tm := &TokenManager{key: []byte(secret), ttl: ttl, clock: time.Now}
	tm.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return tm.clock() }),
	)
	return tm
}

// Issue signs a session token for the subject.
func (tm *TokenManager) Issue(subjectID string, role domain.Role) (string, domain.Token, error) {
	meta := domain.Token{SubjectID: subjectID, Role: role, IssuedAt: tm.clock()}
	meta.ExpiresAt = meta.IssuedAt.Add(tm.ttl)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		SubjectID: subjectID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(meta.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(meta.ExpiresAt),
		},
	}).SignedString(tm.key)
	if err != nil {
		return "", domain.Token{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, meta, nil
}

// Verify checks signature and expiry and returns the claims.
func (tm *TokenManager) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	if _, err := tm.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return tm.key, nil
	}); err != nil {
		return nil, err
	}
	if claims.SubjectID == "" || !claims.Role.Valid() {
		return nil, errMalformedClaims
	}
	return claims, nil
}
