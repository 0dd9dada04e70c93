package domain

import (
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
)

// Platform identifies the storefront a subscription was purchased through.
type Platform string

// Possible platforms.
const (
	PlatformWebStripe        Platform = "web_stripe"
	PlatformIOSSuperwall     Platform = "ios_superwall"
	PlatformAndroidSuperwall Platform = "android_superwall"
)

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	switch p {
	case PlatformWebStripe, PlatformIOSSuperwall, PlatformAndroidSuperwall:
		return true
	default:
		return false
	}
}

// SubscriptionStatus is the billing state of a subscription.
type SubscriptionStatus string

// Possible subscription statuses.
const (
	SubscriptionActive     SubscriptionStatus = "active"
	SubscriptionTrialing   SubscriptionStatus = "trialing"
	SubscriptionPastDue    SubscriptionStatus = "past_due"
	SubscriptionCanceled   SubscriptionStatus = "canceled"
	SubscriptionExpired    SubscriptionStatus = "expired"
	SubscriptionIncomplete SubscriptionStatus = "incomplete"
)

// Valid reports whether s is a known subscription status.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionActive, SubscriptionTrialing, SubscriptionPastDue,
		SubscriptionCanceled, SubscriptionExpired, SubscriptionIncomplete:
		return true
	default:
		return false
	}
}

// GrantsAccess reports whether the status alone allows premium access.
func (s SubscriptionStatus) GrantsAccess() bool {
	return s == SubscriptionActive || s == SubscriptionTrialing
}

// PlanInterval is the billing period of a plan.
type PlanInterval string

// Possible plan intervals.
const (
	IntervalMonth    PlanInterval = "month"
	IntervalYear     PlanInterval = "year"
	IntervalLifetime PlanInterval = "lifetime"
)

// SubscriptionEventType labels an audit row.
type SubscriptionEventType string

// Possible audit event types.
const (
	EventCreated       SubscriptionEventType = "created"
	EventRenewed       SubscriptionEventType = "renewed"
	EventCanceled      SubscriptionEventType = "canceled"
	EventExpired       SubscriptionEventType = "expired"
	EventUpdated       SubscriptionEventType = "updated"
	EventPaymentFailed SubscriptionEventType = "payment_failed"
	EventRefunded      SubscriptionEventType = "refunded"
)

// Subscription errors.
var (
	ErrSubscriptionUserIDEmpty  = errors.New("subscription user ID cannot be empty")
	ErrInvalidPlatform          = errors.New("invalid platform")
	ErrInvalidSubscriptionState = errors.New("invalid subscription status")
	ErrMissingExternalRef       = errors.New("subscription has no provider reference")
	ErrInvalidPeriod            = errors.New("subscription period end precedes its start")
)

// expiringSoonDays is how many days before period end a subscription is reported as expiring.
const expiringSoonDays = 7

// ExternalRef is a provider's identifier for a subscription lineage.
type ExternalRef struct {
	Provider WebhookProvider
	ID       string
}

// Subscription is the current state of one subscription lineage. IsActive is a
// cached flag; ActiveAt is the authoritative answer.
type Subscription struct {
	ID                      uuid.UUID          `json:"id"`
	UserID                  uuid.UUID          `json:"user_id"`
	Platform                Platform           `json:"platform"`
	Status                  SubscriptionStatus `json:"status"`
	CurrentPeriodStart      time.Time          `json:"current_period_start"`
	CurrentPeriodEnd        time.Time          `json:"current_period_end"`
	CancelAt                *time.Time         `json:"cancel_at,omitempty"`
	CanceledAt              *time.Time         `json:"canceled_at,omitempty"`
	TrialEnd                *time.Time         `json:"trial_end,omitempty"`
	StripeSubscriptionID    string             `json:"stripe_subscription_id,omitempty"`
	StripeCustomerID        string             `json:"stripe_customer_id,omitempty"`
	StripePriceID           string             `json:"stripe_price_id,omitempty"`
	SuperwallSubscriptionID string             `json:"superwall_subscription_id,omitempty"`
	SuperwallOfferID        string             `json:"superwall_offer_id,omitempty"`
	ProductID               string             `json:"product_id"`
	PlanInterval            PlanInterval       `json:"plan_interval"`
	AutoRenew               bool               `json:"auto_renew"`
	IsActive                bool               `json:"is_active"`
	CreatedAt               time.Time          `json:"created_at"`
	UpdatedAt               time.Time          `json:"updated_at"`
}

// IsActiveAt is the gating rule: the status grants access and the period has
// not elapsed.
func IsActiveAt(status SubscriptionStatus, periodEnd, now time.Time) bool {
	return status.GrantsAccess() && periodEnd.After(now)
}

// ActiveAt reports whether the subscription grants access at now.
func (s *Subscription) ActiveAt(now time.Time) bool {
	return IsActiveAt(s.Status, s.CurrentPeriodEnd, now)
}

// HasAccessAt is the entitlement gate. It trusts the stored flag until the
// period ends, so a past_due subscription keeps access through its grace
// period.
func (s *Subscription) HasAccessAt(now time.Time) bool {
	return s.IsActive && s.CurrentPeriodEnd.After(now)
}

// Elapsed reports whether the subscription is still flagged active although
// its period ended before now.
func (s *Subscription) Elapsed(now time.Time) bool {
	return s.IsActive && s.CurrentPeriodEnd.Before(now)
}

// Ref returns the provider reference of the subscription.
func (s *Subscription) Ref() ExternalRef {
	if s.StripeSubscriptionID != "" {
		return ExternalRef{Provider: ProviderStripe, ID: s.StripeSubscriptionID}
	}
	return ExternalRef{Provider: ProviderSuperwall, ID: s.SuperwallSubscriptionID}
}

// Validate checks if the Subscription has valid data.
func (s *Subscription) Validate() error {
	if s.UserID == uuid.Nil {
		return ErrSubscriptionUserIDEmpty
	}
	if !s.Platform.Valid() {
		return ErrInvalidPlatform
	}
	if !s.Status.Valid() {
		return ErrInvalidSubscriptionState
	}
	if s.StripeSubscriptionID == "" && s.SuperwallSubscriptionID == "" {
		return ErrMissingExternalRef
	}
	if s.CurrentPeriodEnd.Before(s.CurrentPeriodStart) {
		return ErrInvalidPeriod
	}
	return nil
}

// SubscriptionEvent is an immutable audit row written on every transition.
type SubscriptionEvent struct {
	ID             uuid.UUID             `json:"id"`
	UserID         uuid.UUID             `json:"user_id"`
	SubscriptionID uuid.UUID             `json:"subscription_id"`
	EventType      SubscriptionEventType `json:"event_type"`
	Platform       Platform              `json:"platform"`
	PreviousStatus *SubscriptionStatus   `json:"previous_status,omitempty"`
	NewStatus      SubscriptionStatus    `json:"new_status"`
	Metadata       json.RawMessage       `json:"metadata,omitempty"`
	WebhookEventID string                `json:"webhook_event_id,omitempty"`
	Timestamp      time.Time             `json:"timestamp"`
}

// NewSubscriptionEvent builds an audit row for a transition of sub.
func NewSubscriptionEvent(
	sub *Subscription,
	eventType SubscriptionEventType,
	previous *SubscriptionStatus,
	metadata json.RawMessage,
	webhookEventID string,
	now time.Time,
) *SubscriptionEvent {
	return &SubscriptionEvent{
		ID:             uuid.New(),
		UserID:         sub.UserID,
		SubscriptionID: sub.ID,
		EventType:      eventType,
		Platform:       sub.Platform,
		PreviousStatus: previous,
		NewStatus:      sub.Status,
		Metadata:       metadata,
		WebhookEventID: webhookEventID,
		Timestamp:      now.UTC(),
	}
}

// SubscriptionInfo is the gating view returned to clients.
type SubscriptionInfo struct {
	Subscription   *Subscription       `json:"subscription"`
	IsActive       bool                `json:"is_active"`
	IsPremium      bool                `json:"is_premium"`
	DaysRemaining  int                 `json:"days_remaining"`
	HoursRemaining int                 `json:"hours_remaining"`
	IsExpiringSoon bool                `json:"is_expiring_soon"`
	WillRenew      bool                `json:"will_renew"`
	ExpiresAt      *time.Time          `json:"expires_at"`
	Platform       *Platform           `json:"platform"`
	Status         *SubscriptionStatus `json:"status"`
}

// NewSubscriptionInfo computes the gating view of sub at now. A nil
// subscription yields the inactive zero view.
func NewSubscriptionInfo(sub *Subscription, now time.Time) SubscriptionInfo {
	if sub == nil {
		return SubscriptionInfo{}
	}

	remaining := sub.CurrentPeriodEnd.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	hours := int(math.Ceil(remaining.Hours()))
	days := int(math.Ceil(remaining.Hours() / 24))
	active := sub.ActiveAt(now)
	expiresAt := sub.CurrentPeriodEnd
	platform := sub.Platform
	status := sub.Status

	return SubscriptionInfo{
		Subscription:   sub,
		IsActive:       active,
		IsPremium:      active,
		DaysRemaining:  days,
		HoursRemaining: hours,
		IsExpiringSoon: days > 0 && days < expiringSoonDays,
		WillRenew:      sub.AutoRenew && sub.CancelAt == nil,
		ExpiresAt:      &expiresAt,
		Platform:       &platform,
		Status:         &status,
	}
}

// SubscriptionMetrics counts subscriptions for the admin dashboard.
type SubscriptionMetrics struct {
	Total      int                  `json:"total"`
	Active     int                  `json:"active"`
	Expired    int                  `json:"expired"`
	Canceled   int                  `json:"canceled"`
	Trialing   int                  `json:"trialing"`
	ByPlatform map[Platform]int     `json:"by_platform"`
	ByInterval map[PlanInterval]int `json:"by_interval"`
}
