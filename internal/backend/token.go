package backend

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SignedTokenSource mints HS256 service tokens for the backend and reuses
// one until it is close to expiry.
type SignedTokenSource struct {
	Secret  []byte
	Issuer  string
	Subject string
	TTL     time.Duration

	mu      sync.Mutex
	current string
	expires time.Time
	now     func() time.Time
}

const tokenSkew = 30 * time.Second

func NewSignedTokenSource(secret, issuer, subject string, ttl time.Duration) *SignedTokenSource {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &SignedTokenSource{Secret: []byte(secret), Issuer: issuer, Subject: subject, TTL: ttl}
}

func (s *SignedTokenSource) Token(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != "" && s.clock().Add(tokenSkew).Before(s.expires) {
		return s.current, nil
	}
	return s.mint()
}

// Refresh discards the cached token.
func (s *SignedTokenSource) Refresh(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mint()
}

func (s *SignedTokenSource) mint() (string, error) {
	if len(s.Secret) == 0 {
		return "", errors.New("backend token secret not configured")
	}
	now := s.clock()
	exp := now.Add(s.TTL)
	claims := jwt.RegisteredClaims{
		Issuer:    s.Issuer,
		Subject:   s.Subject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return "", err
	}
	s.current, s.expires = signed, exp
	return signed, nil
}

func (s *SignedTokenSource) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}
