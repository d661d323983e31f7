package service_test

import (
	"testing"
	"time"

	"github.com/dom/coursemarket/internal/domain"
	"github.com/dom/coursemarket/internal/service"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_IssueAndVerify(t *testing.T) {
	tokens := service.NewTokenService("admin-secret", "user-secret", 24*time.Hour)
	subject := uuid.New()

	token, err := tokens.Issue(subject, domain.NamespaceUser)
	require.NoError(t, err)

	got, err := tokens.Verify(token, domain.NamespaceUser)
	require.NoError(t, err)
	assert.Equal(t, subject, got)
}

func TestTokenService_Expiry(t *testing.T) {
	issuedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tokens := service.NewTokenService("admin-secret", "user-secret", 24*time.Hour)
	tokens.SetClock(func() time.Time { return issuedAt })

	subject := uuid.New()
	token, err := tokens.Issue(subject, domain.NamespaceAdmin)
	require.NoError(t, err)

	tests := []struct {
		name    string
		at      time.Time
		wantErr bool
	}{
		{name: "immediately", at: issuedAt},
		{name: "within a day", at: issuedAt.Add(23*time.Hour + 59*time.Minute)},
		{name: "after a day", at: issuedAt.Add(24*time.Hour + time.Second), wantErr: true},
		{name: "a week later", at: issuedAt.Add(7 * 24 * time.Hour), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at := tt.at
			tokens.SetClock(func() time.Time { return at })

			got, err := tokens.Verify(token, domain.NamespaceAdmin)
			if tt.wantErr {
				assert.ErrorIs(t, err, service.ErrInvalidToken)
				assert.ErrorIs(t, err, service.ErrUnauthenticated)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, subject, got)
		})
	}
}

func TestTokenService_NamespaceIsolation(t *testing.T) {
	tokens := service.NewTokenService("admin-secret", "user-secret", time.Hour)
	subject := uuid.New()

	adminToken, err := tokens.Issue(subject, domain.NamespaceAdmin)
	require.NoError(t, err)
	userToken, err := tokens.Issue(subject, domain.NamespaceUser)
	require.NoError(t, err)

	_, err = tokens.Verify(adminToken, domain.NamespaceUser)
	assert.ErrorIs(t, err, service.ErrInvalidToken)

	_, err = tokens.Verify(userToken, domain.NamespaceAdmin)
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestTokenService_RejectsForgedTokens(t *testing.T) {
	tokens := service.NewTokenService("admin-secret", "user-secret", time.Hour)
	subject := uuid.New().String()
	now := time.Now()

	sign := func(method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}

	valid := service.Claims{
		SubjectID: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{"user"},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	noExpiry := service.Claims{
		SubjectID:        subject,
		RegisteredClaims: jwt.RegisteredClaims{Audience: jwt.ClaimStrings{"user"}},
	}
	badSubject := valid
	badSubject.SubjectID = "not-a-uuid"

	tests := []struct {
		name  string
		token string
	}{
		{name: "wrong secret", token: sign(jwt.SigningMethodHS256, []byte("other"), valid)},
		{name: "different hmac algorithm", token: sign(jwt.SigningMethodHS512, []byte("user-secret"), valid)},
		{name: "unsigned", token: sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid)},
		{name: "missing expiry", token: sign(jwt.SigningMethodHS256, []byte("user-secret"), noExpiry)},
		{name: "subject not a uuid", token: sign(jwt.SigningMethodHS256, []byte("user-secret"), badSubject)},
		{name: "garbage", token: "invalid.token.here"},
		{name: "empty", token: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tokens.Verify(tt.token, domain.NamespaceUser)
			assert.ErrorIs(t, err, service.ErrInvalidToken)
		})
	}
}
