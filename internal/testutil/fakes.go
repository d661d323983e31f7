package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dom/coursemarket/internal/domain"
)

// ValidSignature is the only webhook signature FakePaymentProcessor accepts
const ValidSignature = "valid"

var (
	ErrFakeUpload  = errors.New("fake asset host unavailable")
	ErrFakePayment = errors.New("fake payment processor unavailable")
)

// FakeAssetHost stores nothing and hands out sequential public ids
type FakeAssetHost struct {
	mu         sync.Mutex
	failUpload bool
	uploads    []domain.ImageUpload
	destroyed  []string
	seq        int
}

func NewFakeAssetHost() *FakeAssetHost {
	return &FakeAssetHost{}
}

func (f *FakeAssetHost) Upload(ctx context.Context, image domain.ImageUpload) (domain.CourseImage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failUpload {
		return domain.CourseImage{}, ErrFakeUpload
	}
	f.seq++
	f.uploads = append(f.uploads, image)
	publicID := fmt.Sprintf("coursemarket/courses/img-%d", f.seq)
	return domain.CourseImage{
		PublicID: publicID,
		URL:      "https://assets.test/" + publicID + ".png",
	}, nil
}

func (f *FakeAssetHost) Destroy(ctx context.Context, publicID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed = append(f.destroyed, publicID)
	return nil
}

func (f *FakeAssetHost) SetFailUpload(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failUpload = fail
}

func (f *FakeAssetHost) Uploads() []domain.ImageUpload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.ImageUpload(nil), f.uploads...)
}

func (f *FakeAssetHost) Destroyed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.destroyed...)
}

// FakeWebhookEvent is the payload FakePaymentProcessor parses
type FakeWebhookEvent struct {
	Type     string `json:"type"`
	IntentID string `json:"intentId"`
}

// FakePaymentProcessor issues intents "pi_<n>" and records every request
type FakePaymentProcessor struct {
	mu         sync.Mutex
	fail       bool
	failCancel bool
	requests   []domain.IntentRequest
	canceled   []string
	seq        int
}

func NewFakePaymentProcessor() *FakePaymentProcessor {
	return &FakePaymentProcessor{}
}

func (f *FakePaymentProcessor) CreateIntent(ctx context.Context, req domain.IntentRequest) (*domain.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	if f.fail {
		return nil, ErrFakePayment
	}
	f.seq++
	id := fmt.Sprintf("pi_%d", f.seq)
	return &domain.Intent{ID: id, ClientSecret: id + "_secret"}, nil
}

func (f *FakePaymentProcessor) CancelIntent(ctx context.Context, intentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failCancel {
		return ErrFakePayment
	}
	f.canceled = append(f.canceled, intentID)
	return nil
}

func (f *FakePaymentProcessor) ParseWebhook(payload []byte, signature string) (*domain.PaymentEvent, error) {
	if signature != ValidSignature {
		return nil, errors.New("signature mismatch")
	}
	var event FakeWebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, err
	}
	return &domain.PaymentEvent{
		Type:     domain.PaymentEventType(event.Type),
		IntentID: event.IntentID,
	}, nil
}

func (f *FakePaymentProcessor) SetFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

// SetFailCancel makes CancelIntent fail as it does for an intent already paid
func (f *FakePaymentProcessor) SetFailCancel(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failCancel = fail
}

func (f *FakePaymentProcessor) Canceled() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.canceled...)
}

func (f *FakePaymentProcessor) Requests() []domain.IntentRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.IntentRequest(nil), f.requests...)
}

// LastIntentID returns the id of the most recently issued intent
func (f *FakePaymentProcessor) LastIntentID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fmt.Sprintf("pi_%d", f.seq)
}
