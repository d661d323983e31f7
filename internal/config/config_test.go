package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("JWT_ADMIN_SECRET", "admin-secret")
	t.Setenv("JWT_USER_SECRET", "user-secret")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("CLOUDINARY_CLOUD_NAME", "demo")
	t.Setenv("CLOUDINARY_API_KEY", "key")
	t.Setenv("CLOUDINARY_API_SECRET", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "4001", cfg.Port)
	assert.Equal(t, TransportBearer, cfg.AuthTransport)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, "usd", cfg.PaymentCurrency)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL())
	assert.Equal(t, 15*time.Second, cfg.ExternalCallTimeout)
	assert.Equal(t, 30*time.Minute, cfg.PendingPurchaseTTL)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("AUTH_TRANSPORT", "COOKIE")
	t.Setenv("JWT_EXPIRATION_HOURS", "2")
	t.Setenv("EXTERNAL_CALL_TIMEOUT_SECONDS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, TransportCookie, cfg.AuthTransport)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL())
	assert.Equal(t, 15*time.Second, cfg.ExternalCallTimeout)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing admin secret",
			env:     map[string]string{"JWT_ADMIN_SECRET": ""},
			wantErr: "JWT_ADMIN_SECRET",
		},
		{
			name:    "shared secrets",
			env:     map[string]string{"JWT_USER_SECRET": "admin-secret"},
			wantErr: "must differ",
		},
		{
			name:    "unknown transport",
			env:     map[string]string{"AUTH_TRANSPORT": "query"},
			wantErr: "AUTH_TRANSPORT",
		},
		{
			name:    "missing stripe key",
			env:     map[string]string{"STRIPE_SECRET_KEY": ""},
			wantErr: "STRIPE_SECRET_KEY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
