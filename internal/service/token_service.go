package service

import (
	"fmt"
	"time"

	"github.com/dom/coursemarket/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carries the subject id under "id" and the namespace as audience.
type Claims struct {
	SubjectID string `json:"id"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies identity tokens. Each namespace signs with
// its own secret, so a token is only ever valid in the namespace that issued it.
type TokenService struct {
	secrets map[domain.Namespace][]byte
	ttl     time.Duration
	now     func() time.Time
}

func NewTokenService(adminSecret, userSecret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secrets: map[domain.Namespace][]byte{
			domain.NamespaceAdmin: []byte(adminSecret),
			domain.NamespaceUser:  []byte(userSecret),
		},
		ttl: ttl,
		now: time.Now,
	}
}

// SetClock replaces the time source used for issuing and verifying tokens.
func (s *TokenService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

func (s *TokenService) Issue(subjectID uuid.UUID, ns domain.Namespace) (string, error) {
	secret, ok := s.secrets[ns]
	if !ok {
		return "", fmt.Errorf("unknown namespace %q", ns)
	}

	now := s.now()
	claims := Claims{
		SubjectID: subjectID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID.String(),
			Audience:  jwt.ClaimStrings{string(ns)},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// Verify returns the subject of a valid token issued for ns.
func (s *TokenService) Verify(tokenString string, ns domain.Namespace) (uuid.UUID, error) {
	secret, ok := s.secrets[ns]
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(string(ns)),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	subjectID, err := uuid.Parse(claims.SubjectID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject: %v", ErrInvalidToken, err)
	}

	return subjectID, nil
}
