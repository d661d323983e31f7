// Package payment creates payment intents with Stripe and verifies its webhooks.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dom/coursemarket/internal/domain"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
)

type StripeProcessor struct {
	api           *client.API
	webhookSecret string
}

func NewStripeProcessor(secretKey, webhookSecret string) *StripeProcessor {
	return newStripeProcessor(secretKey, webhookSecret, nil)
}

func newStripeProcessor(secretKey, webhookSecret string, backends *stripe.Backends) *StripeProcessor {
	return &StripeProcessor{
		api:           client.New(secretKey, backends),
		webhookSecret: webhookSecret,
	}
}

func (p *StripeProcessor) CreateIntent(ctx context.Context, req domain.IntentRequest) (*domain.Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.Amount),
		Currency:           stripe.String(req.Currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			return nil, fmt.Errorf("create payment intent: %s (%s)", stripeErr.Msg, stripeErr.Code)
		}
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	return &domain.Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
	}, nil
}

// CancelIntent cancels an intent that has not been paid. Stripe refuses to
// cancel intents that already succeeded or are processing.
func (p *StripeProcessor) CancelIntent(ctx context.Context, intentID string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx

	if _, err := p.api.PaymentIntents.Cancel(intentID, params); err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			return fmt.Errorf("cancel payment intent: %s (%s)", stripeErr.Msg, stripeErr.Code)
		}
		return fmt.Errorf("cancel payment intent: %w", err)
	}
	return nil
}

// ParseWebhook checks the Stripe-Signature header and extracts the payment
// intent the event is about.
func (p *StripeProcessor) ParseWebhook(payload []byte, signature string) (*domain.PaymentEvent, error) {
	if p.webhookSecret == "" {
		return nil, errors.New("webhook secret not configured")
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("verify webhook: %w", err)
	}

	parsed := &domain.PaymentEvent{Type: domain.PaymentEventType(event.Type)}

	if event.Data != nil && len(event.Data.Raw) > 0 {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("decode payment intent: %w", err)
		}
		parsed.IntentID = pi.ID
	}

	return parsed, nil
}
