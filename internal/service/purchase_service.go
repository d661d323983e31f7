package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dom/coursemarket/internal/domain"
	"github.com/dom/coursemarket/internal/metrics"
	"github.com/dom/coursemarket/internal/repository"
	"github.com/google/uuid"
)

// PaymentProcessor creates payment intents and authenticates processor callbacks.
type PaymentProcessor interface {
	CreateIntent(ctx context.Context, req domain.IntentRequest) (*domain.Intent, error)
	CancelIntent(ctx context.Context, intentID string) error
	ParseWebhook(payload []byte, signature string) (*domain.PaymentEvent, error)
}

type PurchaseService struct {
	courseRepo   repository.CourseRepository
	purchaseRepo repository.PurchaseRepository
	payments     PaymentProcessor
	metrics      metrics.Recorder
	currency     string
	timeout      time.Duration
	pendingTTL   time.Duration
}

func NewPurchaseService(courseRepo repository.CourseRepository, purchaseRepo repository.PurchaseRepository, payments PaymentProcessor, recorder metrics.Recorder, currency string, timeout, pendingTTL time.Duration) *PurchaseService {
	return &PurchaseService{
		courseRepo:   courseRepo,
		purchaseRepo: purchaseRepo,
		payments:     payments,
		metrics:      recorder,
		currency:     currency,
		timeout:      timeout,
		pendingTTL:   pendingTTL,
	}
}

type PurchaseResult struct {
	Course       *domain.Course
	Purchase     *domain.Purchase
	ClientSecret string
}

type PurchaseList struct {
	Purchases []*domain.Purchase
	Courses   []*domain.Course
}

// Purchase reserves (userID, courseID) as a pending purchase and opens a
// payment intent for it. The reservation is what makes a second purchase of
// the same course fail, including when both requests race. It is released
// again if the intent cannot be opened and recorded, or once it has stayed
// unpaid for longer than the pending TTL.
func (s *PurchaseService) Purchase(ctx context.Context, userID, courseID uuid.UUID) (*PurchaseResult, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("get course: %w", err)
	}

	held, err := s.purchaseRepo.GetByUserAndCourse(ctx, userID, courseID)
	switch {
	case err == nil:
		if !s.releaseStale(ctx, held) {
			s.metrics.RecordPurchase(metrics.PurchaseDuplicate)
			return nil, ErrAlreadyPurchased
		}
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("check purchase: %w", err)
	}

	now := time.Now()
	purchase := &domain.Purchase{
		ID:        uuid.New(),
		UserID:    userID,
		CourseID:  courseID,
		Status:    domain.PurchaseStatusPending,
		Amount:    course.PriceMinorUnits(),
		Currency:  s.currency,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.purchaseRepo.Create(ctx, purchase); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.metrics.RecordPurchase(metrics.PurchaseDuplicate)
			return nil, ErrAlreadyPurchased
		}
		return nil, fmt.Errorf("reserve purchase: %w", err)
	}

	intent, err := s.createIntent(ctx, purchase)
	if err != nil {
		s.release(ctx, purchase.ID)
		s.metrics.RecordPurchase(metrics.PurchaseFailed)
		return nil, &PaymentError{Err: err}
	}

	if err := s.purchaseRepo.SetPaymentIntent(ctx, purchase.ID, intent.ID); err != nil {
		// the client never sees this intent, so nothing can pay it once canceled
		if cancelErr := s.cancelIntent(ctx, intent.ID); cancelErr != nil {
			slog.Error("failed to cancel unrecorded payment intent", "intent_id", intent.ID, "error", cancelErr)
		}
		s.release(ctx, purchase.ID)
		s.metrics.RecordPurchase(metrics.PurchaseFailed)
		return nil, fmt.Errorf("record payment intent: %w", err)
	}
	purchase.PaymentIntentID = intent.ID

	s.metrics.RecordPurchase(metrics.PurchaseCreated)
	return &PurchaseResult{
		Course:       course,
		Purchase:     purchase,
		ClientSecret: intent.ClientSecret,
	}, nil
}

// releaseStale frees a pending purchase that outlived the pending TTL so the
// course can be bought again. Its intent is canceled first; when the processor
// refuses, the intent may have been paid and the purchase is kept.
func (s *PurchaseService) releaseStale(ctx context.Context, purchase *domain.Purchase) bool {
	if purchase.Status != domain.PurchaseStatusPending || time.Since(purchase.CreatedAt) < s.pendingTTL {
		return false
	}

	if purchase.PaymentIntentID != "" {
		if err := s.cancelIntent(ctx, purchase.PaymentIntentID); err != nil {
			slog.Warn("stale purchase kept, intent could not be canceled",
				"purchase_id", purchase.ID, "intent_id", purchase.PaymentIntentID, "error", err)
			return false
		}
	}

	if err := s.purchaseRepo.DeletePending(ctx, purchase.ID); err != nil {
		if !errors.Is(err, repository.ErrNoMatch) {
			slog.Error("failed to release stale purchase", "purchase_id", purchase.ID, "error", err)
		}
		return false
	}
	s.metrics.RecordPurchase(metrics.PurchaseExpired)
	return true
}

// release drops a reservation whose intent never reached the client.
func (s *PurchaseService) release(ctx context.Context, purchaseID uuid.UUID) {
	if err := s.purchaseRepo.DeletePending(context.WithoutCancel(ctx), purchaseID); err != nil {
		slog.Error("failed to release purchase reservation", "purchase_id", purchaseID, "error", err)
	}
}

func (s *PurchaseService) cancelIntent(ctx context.Context, intentID string) error {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	return s.payments.CancelIntent(callCtx, intentID)
}

func (s *PurchaseService) createIntent(ctx context.Context, purchase *domain.Purchase) (*domain.Intent, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.payments.CreateIntent(callCtx, domain.IntentRequest{
		Amount:   purchase.Amount,
		Currency: purchase.Currency,
		// one key per reservation of (user, course): processor-side retries of
		// this call are deduplicated, a later fresh purchase is not
		IdempotencyKey: fmt.Sprintf("purchase-%s-%s-%s", purchase.UserID, purchase.CourseID, purchase.ID),
		Metadata: map[string]string{
			"purchaseId": purchase.ID.String(),
			"userId":     purchase.UserID.String(),
			"courseId":   purchase.CourseID.String(),
		},
	})
}

// ListForUser returns the user's purchases and the courses they refer to.
func (s *PurchaseService) ListForUser(ctx context.Context, userID uuid.UUID) (*PurchaseList, error) {
	purchases, err := s.purchaseRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}

	courseIDs := make([]uuid.UUID, 0, len(purchases))
	for _, p := range purchases {
		courseIDs = append(courseIDs, p.CourseID)
	}

	courses, err := s.courseRepo.GetByIDs(ctx, courseIDs)
	if err != nil {
		return nil, fmt.Errorf("list purchased courses: %w", err)
	}

	return &PurchaseList{
		Purchases: purchases,
		Courses:   courses,
	}, nil
}

// ConfirmPayment marks the purchase behind intentID as paid.
func (s *PurchaseService) ConfirmPayment(ctx context.Context, intentID string) error {
	purchase, err := s.purchaseByIntent(ctx, intentID)
	if err != nil {
		return err
	}
	if purchase.Status == domain.PurchaseStatusPaid {
		return nil
	}

	if err := s.purchaseRepo.UpdateStatus(ctx, purchase.ID, domain.PurchaseStatusPaid); err != nil {
		return fmt.Errorf("mark purchase paid: %w", err)
	}
	s.metrics.RecordPurchase(metrics.PurchasePaid)
	return nil
}

// CancelPayment releases the pending purchase behind intentID so the user can
// buy the course again. Paid purchases are left alone.
func (s *PurchaseService) CancelPayment(ctx context.Context, intentID string) error {
	purchase, err := s.purchaseByIntent(ctx, intentID)
	if err != nil {
		return err
	}

	if err := s.purchaseRepo.DeletePending(ctx, purchase.ID); err != nil {
		if errors.Is(err, repository.ErrNoMatch) {
			return nil
		}
		return fmt.Errorf("release purchase: %w", err)
	}
	s.metrics.RecordPurchase(metrics.PurchaseCanceled)
	return nil
}

// HandleWebhook verifies a processor callback and applies it to the ledger.
// Event types the ledger does not track are ignored.
func (s *PurchaseService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.payments.ParseWebhook(payload, signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}

	switch event.Type {
	case domain.PaymentSucceeded:
		return s.ConfirmPayment(ctx, event.IntentID)
	case domain.PaymentFailed, domain.PaymentCanceled:
		return s.CancelPayment(ctx, event.IntentID)
	default:
		return nil
	}
}

func (s *PurchaseService) purchaseByIntent(ctx context.Context, intentID string) (*domain.Purchase, error) {
	purchase, err := s.purchaseRepo.GetByPaymentIntentID(ctx, intentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("get purchase: %w", err)
	}
	return purchase, nil
}
