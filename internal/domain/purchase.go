package domain

import (
	"time"

	"github.com/google/uuid"
)

type PurchaseStatus string

const (
	PurchaseStatusPending PurchaseStatus = "pending"
	PurchaseStatusPaid    PurchaseStatus = "paid"
)

// Purchase records a user's claim on a course. The (user, course) pair is unique.
type Purchase struct {
	ID              uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	UserID          uuid.UUID      `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_purchases_user_course"`
	CourseID        uuid.UUID      `json:"courseId" gorm:"type:uuid;not null;uniqueIndex:idx_purchases_user_course"`
	Status          PurchaseStatus `json:"status" gorm:"not null;default:'pending'"`
	PaymentIntentID string         `json:"paymentIntentId,omitempty" gorm:"index"`
	Amount          int64          `json:"amount" gorm:"not null"`
	Currency        string         `json:"currency" gorm:"not null"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}
