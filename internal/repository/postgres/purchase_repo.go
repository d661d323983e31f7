package postgres

import (
	"context"

	"github.com/dom/coursemarket/internal/domain"
	"github.com/dom/coursemarket/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type purchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) *purchaseRepository {
	return &purchaseRepository{db: db}
}

// Create fails with repository.ErrDuplicate when the user already holds
// a purchase for the course.
func (r *purchaseRepository) Create(ctx context.Context, purchase *domain.Purchase) error {
	return translate(r.db.WithContext(ctx).Create(purchase).Error)
}

func (r *purchaseRepository) GetByUserAndCourse(ctx context.Context, userID, courseID uuid.UUID) (*domain.Purchase, error) {
	var purchase domain.Purchase
	err := r.db.WithContext(ctx).First(&purchase, "user_id = ? AND course_id = ?", userID, courseID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &purchase, nil
}

func (r *purchaseRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Purchase, error) {
	purchases := []*domain.Purchase{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&purchases).Error
	if err != nil {
		return nil, err
	}
	return purchases, nil
}

func (r *purchaseRepository) GetByPaymentIntentID(ctx context.Context, intentID string) (*domain.Purchase, error) {
	var purchase domain.Purchase
	err := r.db.WithContext(ctx).First(&purchase, "payment_intent_id = ?", intentID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &purchase, nil
}

func (r *purchaseRepository) SetPaymentIntent(ctx context.Context, id uuid.UUID, intentID string) error {
	return r.updateColumn(ctx, id, "payment_intent_id", intentID)
}

func (r *purchaseRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PurchaseStatus) error {
	return r.updateColumn(ctx, id, "status", status)
}

// DeletePending removes the purchase unless it has already been paid.
func (r *purchaseRepository) DeletePending(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, domain.PurchaseStatusPending).
		Delete(&domain.Purchase{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repository.ErrNoMatch
	}
	return nil
}

func (r *purchaseRepository) updateColumn(ctx context.Context, id uuid.UUID, column string, value interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Purchase{}).
		Where("id = ?", id).
		Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
