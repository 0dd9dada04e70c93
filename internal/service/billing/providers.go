package billing

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/musaabMD/expoiosweb/internal/domain"
	"github.com/musaabMD/expoiosweb/internal/service"
)

// Action is what a provider event asks the subscription state machine to do.
type Action string

// Possible actions.
const (
	ActionUpsert        Action = "upsert"
	ActionCancel        Action = "cancel"
	ActionPaymentFailed Action = "payment_failed"
	ActionIgnore        Action = "ignore"
)

// defaultProductID is used when the provider does not name a product.
const defaultProductID = "default"

// UpsertCommand carries the provider's view of a subscription lineage.
type UpsertCommand struct {
	// UserExternalID is the identity-provider subject the purchase belongs to.
	UserExternalID          string
	Platform                domain.Platform
	Status                  domain.SubscriptionStatus
	CurrentPeriodStart      time.Time
	CurrentPeriodEnd        time.Time
	CancelAt                *time.Time
	CanceledAt              *time.Time
	TrialEnd                *time.Time
	StripeSubscriptionID    string
	StripeCustomerID        string
	StripePriceID           string
	SuperwallSubscriptionID string
	SuperwallOfferID        string
	ProductID               string
	PlanInterval            domain.PlanInterval
	AutoRenew               bool
}

// Ref returns the lineage key of the command.
func (c *UpsertCommand) Ref() domain.ExternalRef {
	if c.StripeSubscriptionID != "" {
		return domain.ExternalRef{Provider: domain.ProviderStripe, ID: c.StripeSubscriptionID}
	}
	return domain.ExternalRef{Provider: domain.ProviderSuperwall, ID: c.SuperwallSubscriptionID}
}

// Command is a provider event translated to the service's vocabulary.
type Command struct {
	Provider  domain.WebhookProvider
	EventID   string
	EventType string
	Action    Action

	// Upsert is set for ActionUpsert.
	Upsert *UpsertCommand

	// Ref names the lineage for ActionCancel and ActionPaymentFailed.
	Ref domain.ExternalRef

	// CancelImmediately ends access now; otherwise CancelAt schedules the end.
	CancelImmediately bool
	CancelAt          *time.Time

	Metadata json.RawMessage
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", service.ErrMalformedEvent, fmt.Sprintf(format, args...))
}

// ParseEvent decodes a raw delivery from provider.
func ParseEvent(provider domain.WebhookProvider, payload []byte, now time.Time) (*Command, error) {
	switch provider {
	case domain.ProviderStripe:
		return ParseStripeEvent(payload)
	case domain.ProviderSuperwall:
		return ParseSuperwallEvent(payload, now)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidProvider, provider)
	}
}

type stripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type stripeSubscription struct {
	ID                 string            `json:"id"`
	Customer           string            `json:"customer"`
	Status             string            `json:"status"`
	CurrentPeriodStart int64             `json:"current_period_start"`
	CurrentPeriodEnd   int64             `json:"current_period_end"`
	CancelAt           *int64            `json:"cancel_at"`
	CanceledAt         *int64            `json:"canceled_at"`
	CancelAtPeriodEnd  bool              `json:"cancel_at_period_end"`
	TrialEnd           *int64            `json:"trial_end"`
	Metadata           map[string]string `json:"metadata"`
	Items              struct {
		Data []struct {
			Price *struct {
				ID        string `json:"id"`
				Recurring *struct {
					Interval string `json:"interval"`
				} `json:"recurring"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

type stripeInvoice struct {
	ID           string `json:"id"`
	Subscription string `json:"subscription"`
}

// ParseStripeEvent decodes a Stripe-style event.
func ParseStripeEvent(payload []byte) (*Command, error) {
	var ev stripeEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, malformed("invalid JSON: %v", err)
	}
	if ev.ID == "" || ev.Type == "" {
		return nil, malformed("event id and type are required")
	}

	cmd := &Command{
		Provider:  domain.ProviderStripe,
		EventID:   ev.ID,
		EventType: ev.Type,
		Action:    ActionIgnore,
		Metadata:  metadata("stripe_event", ev.Type, nil),
	}

	switch ev.Type {
	case "customer.subscription.created", "customer.subscription.updated":
		var sub stripeSubscription
		if err := json.Unmarshal(ev.Data.Object, &sub); err != nil {
			return nil, malformed("invalid subscription object: %v", err)
		}
		if sub.ID == "" {
			return nil, malformed("subscription id is required")
		}
		userID := sub.Metadata["user_id"]
		if userID == "" {
			return nil, malformed("subscription metadata has no user_id")
		}

		up := &UpsertCommand{
			UserExternalID:       userID,
			Platform:             domain.PlatformWebStripe,
			Status:               mapStripeStatus(sub.Status),
			CurrentPeriodStart:   fromUnix(sub.CurrentPeriodStart),
			CurrentPeriodEnd:     fromUnix(sub.CurrentPeriodEnd),
			CancelAt:             fromUnixPtr(sub.CancelAt),
			CanceledAt:           fromUnixPtr(sub.CanceledAt),
			TrialEnd:             fromUnixPtr(sub.TrialEnd),
			StripeSubscriptionID: sub.ID,
			StripeCustomerID:     sub.Customer,
			ProductID:            sub.Metadata["product_id"],
			PlanInterval:         domain.IntervalMonth,
			AutoRenew:            !sub.CancelAtPeriodEnd,
		}
		if up.ProductID == "" {
			up.ProductID = defaultProductID
		}
		if len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
			price := sub.Items.Data[0].Price
			up.StripePriceID = price.ID
			if price.Recurring != nil {
				up.PlanInterval = mapStripeInterval(price.Recurring.Interval)
			}
		}
		cmd.Action = ActionUpsert
		cmd.Upsert = up

	case "customer.subscription.deleted":
		var sub stripeSubscription
		if err := json.Unmarshal(ev.Data.Object, &sub); err != nil {
			return nil, malformed("invalid subscription object: %v", err)
		}
		if sub.ID == "" {
			return nil, malformed("subscription id is required")
		}
		cmd.Action = ActionCancel
		cmd.CancelImmediately = true
		cmd.Ref = domain.ExternalRef{Provider: domain.ProviderStripe, ID: sub.ID}

	case "invoice.payment_failed":
		var inv stripeInvoice
		if err := json.Unmarshal(ev.Data.Object, &inv); err != nil {
			return nil, malformed("invalid invoice object: %v", err)
		}
		if inv.Subscription != "" {
			cmd.Action = ActionPaymentFailed
			cmd.Ref = domain.ExternalRef{Provider: domain.ProviderStripe, ID: inv.Subscription}
			cmd.Metadata = metadata("stripe_event", ev.Type, map[string]string{"invoice_id": inv.ID})
		}
	}

	return cmd, nil
}

func mapStripeStatus(status string) domain.SubscriptionStatus {
	switch status {
	case "active":
		return domain.SubscriptionActive
	case "trialing":
		return domain.SubscriptionTrialing
	case "past_due":
		return domain.SubscriptionPastDue
	case "canceled", "unpaid":
		return domain.SubscriptionCanceled
	case "incomplete", "incomplete_expired":
		return domain.SubscriptionIncomplete
	default:
		return domain.SubscriptionExpired
	}
}

func mapStripeInterval(interval string) domain.PlanInterval {
	if interval == "year" {
		return domain.IntervalYear
	}
	return domain.IntervalMonth
}

func fromUnix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

func fromUnixPtr(sec *int64) *time.Time {
	if sec == nil || *sec == 0 {
		return nil
	}
	t := fromUnix(*sec)
	return &t
}

type superwallProduct struct {
	TransactionID      string          `json:"transaction_id"`
	ProductID          string          `json:"product_id"`
	PurchaseDate       json.RawMessage `json:"purchase_date"`
	ExpirationDate     json.RawMessage `json:"expiration_date"`
	SubscriptionPeriod string          `json:"subscription_period"`
	AutoRenewStatus    *bool           `json:"auto_renew_status"`
}

type superwallEvent struct {
	ID    string `json:"id"`
	Event string `json:"event"`
	User  *struct {
		ID string `json:"id"`
	} `json:"user"`
	UserID string `json:"user_id"`
	Device *struct {
		Platform string `json:"platform"`
	} `json:"device"`
	Subscription *superwallProduct `json:"subscription"`
	Product      *superwallProduct `json:"product"`
	Paywall      *struct {
		Identifier string `json:"identifier"`
	} `json:"paywall"`
}

// ParseSuperwallEvent decodes a Superwall-style event. Events without an id are
// keyed by the receive time.
func ParseSuperwallEvent(payload []byte, now time.Time) (*Command, error) {
	var ev superwallEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, malformed("invalid JSON: %v", err)
	}
	if ev.Event == "" {
		return nil, malformed("event type is required")
	}

	eventID := ev.ID
	if eventID == "" {
		eventID = "superwall_" + strconv.FormatInt(now.UnixMilli(), 10)
	}

	userID := ev.UserID
	if ev.User != nil && ev.User.ID != "" {
		userID = ev.User.ID
	}
	if userID == "" {
		return nil, malformed("event has no user id")
	}

	platform := domain.PlatformAndroidSuperwall
	if ev.Device != nil && ev.Device.Platform == "ios" {
		platform = domain.PlatformIOSSuperwall
	}

	product := ev.Subscription
	if product == nil {
		product = ev.Product
	}
	if product == nil {
		product = &superwallProduct{}
	}
	lineage := product.TransactionID
	if lineage == "" {
		lineage = eventID
	}
	ref := domain.ExternalRef{Provider: domain.ProviderSuperwall, ID: lineage}

	cmd := &Command{
		Provider:  domain.ProviderSuperwall,
		EventID:   eventID,
		EventType: ev.Event,
		Action:    ActionIgnore,
		Ref:       ref,
		Metadata:  metadata("superwall_event", ev.Event, nil),
	}

	switch ev.Event {
	case "subscription_start", "transaction_complete", "subscription_renew":
		up := &UpsertCommand{
			UserExternalID:          userID,
			Platform:                platform,
			Status:                  domain.SubscriptionActive,
			CurrentPeriodStart:      parseSuperwallDate(product.PurchaseDate, now),
			CurrentPeriodEnd:        parseSuperwallDate(product.ExpirationDate, now),
			SuperwallSubscriptionID: lineage,
			ProductID:               product.ProductID,
			PlanInterval:            mapSuperwallInterval(product.SubscriptionPeriod),
			AutoRenew:               product.AutoRenewStatus == nil || *product.AutoRenewStatus,
		}
		if up.ProductID == "" {
			up.ProductID = defaultProductID
		}
		if ev.Paywall != nil {
			up.SuperwallOfferID = ev.Paywall.Identifier
		}
		cmd.Action = ActionUpsert
		cmd.Upsert = up

	case "subscription_cancel":
		at := parseSuperwallDate(product.ExpirationDate, now)
		cmd.Action = ActionCancel
		cmd.CancelAt = &at

	case "subscription_expire":
		cmd.Action = ActionCancel
		cmd.CancelImmediately = true

	case "transaction_fail", "subscription_billing_retry":
		cmd.Action = ActionPaymentFailed
	}

	return cmd, nil
}

func mapSuperwallInterval(period string) domain.PlanInterval {
	lower := strings.ToLower(period)
	switch {
	case strings.Contains(lower, "year"), strings.Contains(lower, "annual"):
		return domain.IntervalYear
	case strings.Contains(lower, "lifetime"), strings.Contains(lower, "forever"):
		return domain.IntervalLifetime
	default:
		return domain.IntervalMonth
	}
}

// parseSuperwallDate accepts an RFC 3339 string or epoch milliseconds. Missing
// or unreadable values fall back to now.
func parseSuperwallDate(raw json.RawMessage, now time.Time) time.Time {
	if len(raw) == 0 || string(raw) == "null" {
		return now.UTC()
	}

	var ms int64
	if err := json.Unmarshal(raw, &ms); err == nil {
		if ms == 0 {
			return now.UTC()
		}
		return time.UnixMilli(ms).UTC()
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.UTC()
		}
	}
	return now.UTC()
}

func metadata(key, eventType string, extra map[string]string) json.RawMessage {
	m := map[string]string{key: eventType}
	for k, v := range extra {
		m[k] = v
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return b
}

// ErrMissingSignature rejects Stripe-style deliveries without a signature header.
var ErrMissingSignature = errors.New("missing webhook signature")

// SignatureVerifier authenticates a raw delivery.
type SignatureVerifier interface {
	Verify(provider domain.WebhookProvider, payload []byte, signature string) error
}

// RequireStripeSignature only checks that Stripe deliveries carry a signature.
type RequireStripeSignature struct{}

// Verify implements SignatureVerifier.
func (RequireStripeSignature) Verify(provider domain.WebhookProvider, _ []byte, signature string) error {
	if provider == domain.ProviderStripe && signature == "" {
		return ErrMissingSignature
	}
	return nil
}
