package store

import (
	"errors"
	"fmt"
)

// Sentinels shared by every store implementation. Entity-specific errors
// wrap one of these, so callers can match either the specific or the
// general form with errors.Is.
var (
	ErrNotFound          = errors.New("entity not found")
	ErrDuplicate         = errors.New("entity already exists")
	ErrInvalidEntity     = errors.New("invalid entity")
	ErrTransactionFailed = errors.New("transaction failed")
)

var (
	ErrUserNotFound           = fmt.Errorf("%w: user", ErrNotFound)
	ErrQuestionNotFound       = fmt.Errorf("%w: question", ErrNotFound)
	ErrReviewCardNotFound     = fmt.Errorf("%w: review card", ErrNotFound)
	ErrProgressNotFound       = fmt.Errorf("%w: question progress", ErrNotFound)
	ErrSessionNotFound        = fmt.Errorf("%w: session", ErrNotFound)
	ErrSubscriptionNotFound   = fmt.Errorf("%w: subscription", ErrNotFound)
	ErrWebhookReceiptNotFound = fmt.Errorf("%w: webhook receipt", ErrNotFound)

	// ErrReviewCardExists means the user already queued the question.
	ErrReviewCardExists = fmt.Errorf("%w: review card", ErrDuplicate)
	// ErrSubscriptionExists means the provider reference is already bound.
	ErrSubscriptionExists = fmt.Errorf("%w: subscription", ErrDuplicate)
)

// IsNotFoundError reports whether err is, or wraps, ErrNotFound.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError reports whether err is, or wraps, ErrDuplicate.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
