package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/dom/coursemarket/internal/domain"
	"github.com/dom/coursemarket/internal/service"
	"github.com/dom/coursemarket/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialService_Register(t *testing.T) {
	env := newServiceEnv(t)
	credentials := env.services.Credentials
	ctx := context.Background()

	valid := service.RegisterInput{
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     "grace@example.com",
		Password:  "cobol1",
	}

	tests := []struct {
		name         string
		ns           domain.Namespace
		input        service.RegisterInput
		setup        func()
		wantErr      error
		wantMessages []string
	}{
		{
			name:  "successful user registration",
			ns:    domain.NamespaceUser,
			input: valid,
		},
		{
			name:  "successful admin registration",
			ns:    domain.NamespaceAdmin,
			input: valid,
		},
		{
			name: "duplicate email differing only in case",
			ns:   domain.NamespaceUser,
			input: service.RegisterInput{
				FirstName: "Grace",
				LastName:  "Hopper",
				Email:     "  GRACE@Example.com ",
				Password:  "cobol1",
			},
			setup: func() {
				testutil.NewIdentityBuilder(domain.NamespaceUser).
					WithEmail("grace@example.com").
					Build(t, env.db.DB)
			},
			wantErr: service.ErrEmailTaken,
		},
		{
			name:  "same email in the other namespace is allowed",
			ns:    domain.NamespaceAdmin,
			input: valid,
			setup: func() {
				testutil.NewIdentityBuilder(domain.NamespaceUser).
					WithEmail("grace@example.com").
					Build(t, env.db.DB)
			},
		},
		{
			name:    "all fields invalid are reported together",
			ns:      domain.NamespaceUser,
			input:   service.RegisterInput{FirstName: "Al", Email: "not-an-email", Password: "123"},
			wantErr: service.ErrInvalidInput,
			wantMessages: []string{
				"firstName must be at least 3 characters long",
				"lastName is required",
				"email must be a valid email address",
				"password must be at least 6 characters long",
			},
		},
		{
			name:  "password of exactly 72 bytes",
			ns:    domain.NamespaceUser,
			input: withPassword(valid, strings.Repeat("p", 72)),
		},
		{
			name:         "password longer than 72 bytes",
			ns:           domain.NamespaceUser,
			input:        withPassword(valid, strings.Repeat("p", 73)),
			wantErr:      service.ErrInvalidInput,
			wantMessages: []string{"password must be at most 72 bytes long"},
		},
		{
			name:         "multibyte password under 72 characters but over 72 bytes",
			ns:           domain.NamespaceUser,
			input:        withPassword(valid, strings.Repeat("€", 25)),
			wantErr:      service.ErrInvalidInput,
			wantMessages: []string{"password must be at most 72 bytes long"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.reset(t)

			if tt.setup != nil {
				tt.setup()
			}

			identity, err := credentials.Register(ctx, tt.ns, tt.input)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				if tt.wantMessages != nil {
					var validationErr *service.ValidationError
					require.ErrorAs(t, err, &validationErr)
					assert.ElementsMatch(t, tt.wantMessages, validationErr.Messages)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, strings.ToLower(strings.TrimSpace(tt.input.Email)), identity.Email)
			assert.NotEqual(t, tt.input.Password, identity.PasswordHash)
			assert.True(t, strings.HasPrefix(identity.PasswordHash, "$2"))

			stored, err := credentials.GetByID(ctx, tt.ns, identity.ID)
			require.NoError(t, err)
			assert.Equal(t, identity.Email, stored.Email)
		})
	}
}

func TestCredentialService_Login(t *testing.T) {
	env := newServiceEnv(t)
	credentials := env.services.Credentials
	tokens := env.services.Tokens
	ctx := context.Background()

	tests := []struct {
		name    string
		ns      domain.Namespace
		email   string
		pass    string
		wantErr error
	}{
		{name: "valid credentials", ns: domain.NamespaceUser, email: "ada@example.com", pass: "secret123"},
		{name: "email is case insensitive", ns: domain.NamespaceUser, email: "ADA@example.com", pass: "secret123"},
		{name: "wrong password", ns: domain.NamespaceUser, email: "ada@example.com", pass: "wrong-pass", wantErr: service.ErrInvalidCredentials},
		{name: "unknown email", ns: domain.NamespaceUser, email: "nobody@example.com", pass: "secret123", wantErr: service.ErrInvalidCredentials},
		{name: "user credentials do not open the admin namespace", ns: domain.NamespaceAdmin, email: "ada@example.com", pass: "secret123", wantErr: service.ErrInvalidCredentials},
		{name: "missing password", ns: domain.NamespaceUser, email: "ada@example.com", wantErr: service.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.reset(t)
			user, _ := testutil.NewIdentityBuilder(domain.NamespaceUser).
				WithEmail("ada@example.com").
				WithPassword("secret123").
				Build(t, env.db.DB)

			result, err := credentials.Login(ctx, tt.ns, service.LoginInput{Email: tt.email, Password: tt.pass})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, user.ID, result.Identity.ID)

			subject, err := tokens.Verify(result.Token, tt.ns)
			require.NoError(t, err)
			assert.Equal(t, user.ID, subject)

			_, err = tokens.Verify(result.Token, domain.NamespaceAdmin)
			assert.ErrorIs(t, err, service.ErrInvalidToken)
		})
	}
}

func TestCredentialService_UnknownEmailAndWrongPasswordMatch(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	testutil.NewIdentityBuilder(domain.NamespaceAdmin).
		WithEmail("root@example.com").
		WithPassword("secret123").
		Build(t, env.db.DB)

	_, unknownErr := env.services.Credentials.VerifyCredentials(ctx, domain.NamespaceAdmin, "ghost@example.com", "secret123")
	_, wrongErr := env.services.Credentials.VerifyCredentials(ctx, domain.NamespaceAdmin, "root@example.com", "not-it")

	require.Error(t, unknownErr)
	require.Error(t, wrongErr)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func withPassword(input service.RegisterInput, password string) service.RegisterInput {
	input.Password = password
	return input
}
