package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/dom/coursemarket/internal/domain"
	"github.com/dom/coursemarket/internal/repository"
	"github.com/dom/coursemarket/internal/repository/postgres"
	"github.com/dom/coursemarket/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPurchase(userID, courseID uuid.UUID) *domain.Purchase {
	return &domain.Purchase{
		ID:        uuid.New(),
		UserID:    userID,
		CourseID:  courseID,
		Status:    domain.PurchaseStatusPending,
		Amount:    1999,
		Currency:  "usd",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestPurchaseRepository_UniquePerUserAndCourse(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewPurchaseRepository(testDB.DB)
	ctx := context.Background()

	userID := uuid.New()
	courseID := uuid.New()

	tests := []struct {
		name     string
		purchase *domain.Purchase
		wantErr  error
	}{
		{name: "first purchase", purchase: newPurchase(userID, courseID)},
		{name: "same user and course", purchase: newPurchase(userID, courseID), wantErr: repository.ErrDuplicate},
		{name: "same course, other user", purchase: newPurchase(uuid.New(), courseID)},
		{name: "same user, other course", purchase: newPurchase(userID, uuid.New())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(ctx, tt.purchase)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}

	held, err := repo.GetByUserAndCourse(ctx, userID, courseID)
	require.NoError(t, err)
	assert.Equal(t, tests[0].purchase.ID, held.ID)

	purchases, err := repo.GetByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, purchases, 2)
}

func TestPurchaseRepository_Lifecycle(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewPurchaseRepository(testDB.DB)
	ctx := context.Background()

	purchase := newPurchase(uuid.New(), uuid.New())
	require.NoError(t, repo.Create(ctx, purchase))
	require.NoError(t, repo.SetPaymentIntent(ctx, purchase.ID, "pi_123"))

	stored, err := repo.GetByPaymentIntentID(ctx, "pi_123")
	require.NoError(t, err)
	assert.Equal(t, purchase.ID, stored.ID)
	assert.Equal(t, domain.PurchaseStatusPending, stored.Status)

	require.NoError(t, repo.UpdateStatus(ctx, purchase.ID, domain.PurchaseStatusPaid))

	err = repo.DeletePending(ctx, purchase.ID)
	assert.ErrorIs(t, err, repository.ErrNoMatch, "paid purchases are never released")

	stored, err = repo.GetByPaymentIntentID(ctx, "pi_123")
	require.NoError(t, err)
	assert.Equal(t, domain.PurchaseStatusPaid, stored.Status)

	err = repo.UpdateStatus(ctx, uuid.New(), domain.PurchaseStatusPaid)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.GetByPaymentIntentID(ctx, "pi_missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPurchaseRepository_DeletePendingFreesThePair(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewPurchaseRepository(testDB.DB)
	ctx := context.Background()

	userID, courseID := uuid.New(), uuid.New()
	first := newPurchase(userID, courseID)
	require.NoError(t, repo.Create(ctx, first))

	require.NoError(t, repo.DeletePending(ctx, first.ID))

	_, err := repo.GetByUserAndCourse(ctx, userID, courseID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repo.Create(ctx, newPurchase(userID, courseID)))
}
