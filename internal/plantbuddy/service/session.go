package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/auth"
)

// ErrInvalidSession covers every way a session token can fail verification.
// The cause is logged server-side but never returned to the caller.
var ErrInvalidSession = errors.New("service: invalid session token")

const sessionKeyContext = "WebAppSession"

// DefaultSessionTTL bounds how long a minted session outlives the init data
// that produced it.
const DefaultSessionTTL = time.Hour

// SessionService mints and verifies the short-lived HS256 tokens the mini-app
// uses after its first init-data verification. The signing key is derived
// from the bot token with a context string, so it never matches the init-data
// signing key and the credential itself stays out of memory.
type SessionService struct {
	Issuer string
	TTL    time.Duration

	key []byte
}

// NewSessionService derives the session signing key from the bot credential.
func NewSessionService(botToken, issuer string, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	mac := hmac.New(sha256.New, []byte(sessionKeyContext))
	mac.Write([]byte(botToken))

	return &SessionService{
		Issuer: issuer,
		TTL:    ttl,
		key:    mac.Sum(nil),
	}
}

// Issue mints a session token for a verified identity. now is explicit so
// expiry is deterministic in tests.
func (s *SessionService) Issue(ident auth.Identity, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    s.Issuer,
		Subject:   ident.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

// Verify checks a session token and returns the identity it was minted for.
func (s *SessionService) Verify(tokenString string, now time.Time) (auth.Identity, error) {
	claims := &jwt.RegisteredClaims{}

	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return auth.Identity{}, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}

	ident, ok := auth.FromSessionSubject(claims.Subject)
	if !ok {
		return auth.Identity{}, ErrInvalidSession
	}
	return ident, nil
}
