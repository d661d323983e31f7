package postgres

import (
	"context"

	"github.com/dom/coursemarket/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type identityRepository struct {
	db    *gorm.DB
	table string
}

func NewIdentityRepository(db *gorm.DB, ns domain.Namespace) *identityRepository {
	return &identityRepository{db: db, table: ns.Table()}
}

func (r *identityRepository) Create(ctx context.Context, identity *domain.Identity) error {
	return translate(r.db.WithContext(ctx).Table(r.table).Create(identity).Error)
}

func (r *identityRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Identity, error) {
	var identity domain.Identity
	err := r.db.WithContext(ctx).Table(r.table).First(&identity, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &identity, nil
}

func (r *identityRepository) GetByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	var identity domain.Identity
	err := r.db.WithContext(ctx).Table(r.table).First(&identity, "email = ?", email).Error
	if err != nil {
		return nil, translate(err)
	}
	return &identity, nil
}
