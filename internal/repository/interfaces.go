package repository

import (
	"context"
	"errors"

	"github.com/dom/coursemarket/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrNoMatch is returned by scoped writes when the scope matched no rows.
	ErrNoMatch = errors.New("no row matched the write scope")
)

type IdentityRepository interface {
	Create(ctx context.Context, identity *domain.Identity) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Identity, error)
	GetByEmail(ctx context.Context, email string) (*domain.Identity, error)
}

// CourseChanges holds the mutable course fields; a nil Image keeps the current one.
type CourseChanges struct {
	Title       string
	Description string
	Price       float64
	Image       *domain.CourseImage
}

type CourseRepository interface {
	Create(ctx context.Context, course *domain.Course) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error)
	GetAll(ctx context.Context) ([]*domain.Course, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Course, error)
	UpdateOwned(ctx context.Context, id, creatorID uuid.UUID, changes CourseChanges) (*domain.Course, error)
	DeleteOwned(ctx context.Context, id, creatorID uuid.UUID) error
}

type PurchaseRepository interface {
	Create(ctx context.Context, purchase *domain.Purchase) error
	GetByUserAndCourse(ctx context.Context, userID, courseID uuid.UUID) (*domain.Purchase, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Purchase, error)
	GetByPaymentIntentID(ctx context.Context, intentID string) (*domain.Purchase, error)
	SetPaymentIntent(ctx context.Context, id uuid.UUID, intentID string) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PurchaseStatus) error
	DeletePending(ctx context.Context, id uuid.UUID) error
}

type Repositories struct {
	Admin    IdentityRepository
	User     IdentityRepository
	Course   CourseRepository
	Purchase PurchaseRepository
}

// Identities returns the identity store for a namespace.
func (r *Repositories) Identities(ns domain.Namespace) IdentityRepository {
	if ns == domain.NamespaceAdmin {
		return r.Admin
	}
	return r.User
}
