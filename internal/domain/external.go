package domain

// ImageUpload is an image received from a client, before it is handed to the asset host.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// IntentRequest asks the payment processor for a client-confirmable payment intent.
type IntentRequest struct {
	Amount         int64 // minor currency units
	Currency       string
	IdempotencyKey string
	Metadata       map[string]string
}

type Intent struct {
	ID           string
	ClientSecret string
}

type PaymentEventType string

const (
	PaymentSucceeded PaymentEventType = "payment_intent.succeeded"
	PaymentFailed    PaymentEventType = "payment_intent.payment_failed"
	PaymentCanceled  PaymentEventType = "payment_intent.canceled"
)

// PaymentEvent is a verified notification from the payment processor.
type PaymentEvent struct {
	Type     PaymentEventType
	IntentID string
}
