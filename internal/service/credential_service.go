package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dom/coursemarket/internal/domain"
	"github.com/dom/coursemarket/internal/metrics"
	"github.com/dom/coursemarket/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// CredentialService registers and authenticates admins and users.
type CredentialService struct {
	repos      *repository.Repositories
	tokens     *TokenService
	validate   *validator.Validate
	bcryptCost int
	metrics    metrics.Recorder

	// compared against when the email is unknown, so both failure paths cost a bcrypt round
	dummyHash []byte
}

func NewCredentialService(repos *repository.Repositories, tokens *TokenService, bcryptCost int, recorder metrics.Recorder) *CredentialService {
	dummyHash, _ := bcrypt.GenerateFromPassword([]byte("dummy-password"), bcryptCost)
	return &CredentialService{
		repos:      repos,
		tokens:     tokens,
		validate:   newValidator(),
		bcryptCost: bcryptCost,
		metrics:    recorder,
		dummyHash:  dummyHash,
	}
}

type RegisterInput struct {
	FirstName string `json:"firstName" validate:"required,min=3"`
	LastName  string `json:"lastName" validate:"required,min=3"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6,maxbytes=72"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResult struct {
	Identity *domain.Identity
	Token    string
}

func (s *CredentialService) Register(ctx context.Context, ns domain.Namespace, input RegisterInput) (*domain.Identity, error) {
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Email = normalizeEmail(input.Email)

	if err := validateStruct(s.validate, input); err != nil {
		return nil, err
	}

	identities := s.repos.Identities(ns)

	_, err := identities.GetByEmail(ctx, input.Email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	identity := &domain.Identity{
		ID:           uuid.New(),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := identities.Create(ctx, identity); err != nil {
		// lost a race against a concurrent registration of the same email
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create %s: %w", ns, err)
	}

	s.metrics.RecordRegistration(string(ns))
	return identity, nil
}

// VerifyCredentials returns the identity owning email when password matches.
// An unknown email and a wrong password fail identically.
func (s *CredentialService) VerifyCredentials(ctx context.Context, ns domain.Namespace, email, password string) (*domain.Identity, error) {
	identity, err := s.repos.Identities(ns).GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return identity, nil
}

func (s *CredentialService) Login(ctx context.Context, ns domain.Namespace, input LoginInput) (*AuthResult, error) {
	if err := validateStruct(s.validate, input); err != nil {
		return nil, err
	}

	identity, err := s.VerifyCredentials(ctx, ns, input.Email, input.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.metrics.RecordLogin(string(ns), false)
		}
		return nil, err
	}

	token, err := s.tokens.Issue(identity.ID, ns)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.metrics.RecordLogin(string(ns), true)
	return &AuthResult{
		Identity: identity,
		Token:    token,
	}, nil
}

func (s *CredentialService) GetByID(ctx context.Context, ns domain.Namespace, id uuid.UUID) (*domain.Identity, error) {
	identity, err := s.repos.Identities(ns).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}
	return identity, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
