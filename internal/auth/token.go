// Package auth issues and verifies console session tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"tripconsole/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims carry what the envelope context needs for every backend call.
type Claims struct {
	UserID string `json:"uid"`
	OUID   int    `json:"ouid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type Issuer struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

func NewIssuer(secret, issuer string, ttl time.Duration) Issuer {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return Issuer{Secret: []byte(secret), Issuer: issuer, TTL: ttl}
}

// Issue signs a session token for the operator.
func (i Issuer) Issue(subject string, rc domain.RequestContext, now time.Time) (string, time.Time, error) {
	if len(i.Secret) == 0 {
		return "", time.Time{}, errors.New("jwt secret not configured")
	}
	exp := now.Add(i.TTL)
	claims := Claims{
		UserID: rc.UserID,
		OUID:   rc.OUID,
		Role:   rc.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse verifies the token and returns the operator context.
func (i Issuer) Parse(token string) (domain.RequestContext, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.Secret, nil
	}, jwt.WithIssuer(i.Issuer), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return domain.RequestContext{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		return domain.RequestContext{}, ErrInvalidToken
	}
	return domain.RequestContext{UserID: claims.UserID, OUID: claims.OUID, Role: claims.Role}, nil
}
