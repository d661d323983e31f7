package service

import (
	"errors"
	"strings"
)

// Error kinds. Every error returned by this package matches at most one of
// them with errors.Is, which is what the HTTP layer maps to status codes.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrConflict        = errors.New("conflict")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
)

var (
	ErrEmailTaken         = newKindError(ErrConflict, "User already exist")
	ErrAlreadyPurchased   = newKindError(ErrConflict, "User has already purchased this course")
	ErrInvalidCredentials = newKindError(ErrUnauthenticated, "Invalid Credentials")
	ErrInvalidToken       = newKindError(ErrUnauthenticated, "Invalid token or expired")
	ErrCourseNotFound     = newKindError(ErrNotFound, "Course not found")
	ErrPurchaseNotFound   = newKindError(ErrNotFound, "Purchase not found")
	ErrIdentityNotFound   = newKindError(ErrNotFound, "Account not found")
	ErrNotCourseOwner     = newKindError(ErrForbidden, "Course was created by another admin")
	ErrInvalidWebhook     = newKindError(ErrInvalidInput, "Invalid webhook signature")
)

type kindError struct {
	kind error
	msg  string
}

func newKindError(kind error, msg string) *kindError {
	return &kindError{kind: kind, msg: msg}
}

func (e *kindError) Error() string {
	return e.msg
}

func (e *kindError) Is(target error) bool {
	return target == e.kind
}

// ValidationError lists every problem found in a request's input.
type ValidationError struct {
	Messages []string
}

func newValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// PaymentError wraps a failure reported by the payment processor.
type PaymentError struct {
	Err error
}

func (e *PaymentError) Error() string {
	return "payment processor: " + e.Err.Error()
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

// UploadError wraps a failure reported by the asset host.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string {
	return "asset upload: " + e.Err.Error()
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// PublicMessage returns the client-facing message of err: the message of
// the service error it wraps, if any, otherwise err's own text.
func PublicMessage(err error) string {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.msg
	}
	return err.Error()
}
