package billing

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/musaabMD/expoiosweb/internal/domain"
	"github.com/musaabMD/expoiosweb/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var parseNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func TestParseStripeEvent_SubscriptionUpsert(t *testing.T) {
	t.Parallel()

	payload := []byte(`{
		"id": "evt_1",
		"type": "customer.subscription.updated",
		"data": {"object": {
			"id": "sub_123",
			"customer": "cus_9",
			"status": "trialing",
			"current_period_start": 1740819600,
			"current_period_end": 1772355600,
			"cancel_at_period_end": true,
			"trial_end": 1741424400,
			"metadata": {"user_id": "user_abc"},
			"items": {"data": [{"price": {"id": "price_1", "recurring": {"interval": "year"}}}]}
		}}
	}`)

	cmd, err := ParseStripeEvent(payload)
	require.NoError(t, err)
	assert.Equal(t, ActionUpsert, cmd.Action)
	assert.Equal(t, "evt_1", cmd.EventID)
	require.NotNil(t, cmd.Upsert)

	up := cmd.Upsert
	assert.Equal(t, "user_abc", up.UserExternalID)
	assert.Equal(t, domain.PlatformWebStripe, up.Platform)
	assert.Equal(t, domain.SubscriptionTrialing, up.Status)
	assert.Equal(t, time.Unix(1740819600, 0).UTC(), up.CurrentPeriodStart)
	assert.Equal(t, time.Unix(1772355600, 0).UTC(), up.CurrentPeriodEnd)
	require.NotNil(t, up.TrialEnd)
	assert.Nil(t, up.CancelAt)
	assert.Equal(t, "sub_123", up.StripeSubscriptionID)
	assert.Equal(t, "cus_9", up.StripeCustomerID)
	assert.Equal(t, "price_1", up.StripePriceID)
	assert.Equal(t, "default", up.ProductID)
	assert.Equal(t, domain.IntervalYear, up.PlanInterval)
	assert.False(t, up.AutoRenew)
	assert.Equal(t, domain.ExternalRef{Provider: domain.ProviderStripe, ID: "sub_123"}, up.Ref())

	var meta map[string]string
	require.NoError(t, json.Unmarshal(cmd.Metadata, &meta))
	assert.Equal(t, "customer.subscription.updated", meta["stripe_event"])
}

func TestParseStripeEvent_Actions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		payload    string
		wantAction Action
		wantRef    string
		immediate  bool
	}{
		{
			name:       "deleted cancels immediately",
			payload:    `{"id":"evt_2","type":"customer.subscription.deleted","data":{"object":{"id":"sub_1"}}}`,
			wantAction: ActionCancel,
			wantRef:    "sub_1",
			immediate:  true,
		},
		{
			name:       "payment failed with subscription",
			payload:    `{"id":"evt_3","type":"invoice.payment_failed","data":{"object":{"id":"in_1","subscription":"sub_1"}}}`,
			wantAction: ActionPaymentFailed,
			wantRef:    "sub_1",
		},
		{
			name:       "payment failed without subscription",
			payload:    `{"id":"evt_4","type":"invoice.payment_failed","data":{"object":{"id":"in_2"}}}`,
			wantAction: ActionIgnore,
		},
		{
			name:       "payment succeeded is acknowledged",
			payload:    `{"id":"evt_5","type":"invoice.payment_succeeded","data":{"object":{}}}`,
			wantAction: ActionIgnore,
		},
		{
			name:       "unknown type is acknowledged",
			payload:    `{"id":"evt_6","type":"charge.refunded","data":{"object":{}}}`,
			wantAction: ActionIgnore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cmd, err := ParseStripeEvent([]byte(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.wantAction, cmd.Action)
			assert.Equal(t, tt.wantRef, cmd.Ref.ID)
			assert.Equal(t, tt.immediate, cmd.CancelImmediately)
		})
	}
}

func TestParseStripeEvent_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
	}{
		{name: "invalid json", payload: `{"id":`},
		{name: "missing id", payload: `{"type":"customer.subscription.created"}`},
		{
			name:    "missing user id",
			payload: `{"id":"evt_1","type":"customer.subscription.created","data":{"object":{"id":"sub_1","metadata":{}}}}`,
		},
		{
			name:    "missing subscription id",
			payload: `{"id":"evt_1","type":"customer.subscription.deleted","data":{"object":{}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseStripeEvent([]byte(tt.payload))
			assert.ErrorIs(t, err, service.ErrMalformedEvent)
		})
	}
}

func TestMapStripeStatus(t *testing.T) {
	t.Parallel()

	tests := map[string]domain.SubscriptionStatus{
		"active":             domain.SubscriptionActive,
		"trialing":           domain.SubscriptionTrialing,
		"past_due":           domain.SubscriptionPastDue,
		"canceled":           domain.SubscriptionCanceled,
		"unpaid":             domain.SubscriptionCanceled,
		"incomplete":         domain.SubscriptionIncomplete,
		"incomplete_expired": domain.SubscriptionIncomplete,
		"paused":             domain.SubscriptionExpired,
	}
	for in, want := range tests {
		assert.Equal(t, want, mapStripeStatus(in), in)
	}
	assert.Equal(t, domain.IntervalMonth, mapStripeInterval("week"))
	assert.Equal(t, domain.IntervalYear, mapStripeInterval("year"))
}

func TestParseSuperwallEvent_Upsert(t *testing.T) {
	t.Parallel()

	payload := []byte(`{
		"id": "sw_1",
		"event": "subscription_start",
		"user": {"id": "user_abc"},
		"device": {"platform": "ios"},
		"subscription": {
			"transaction_id": "txn_1",
			"product_id": "premium_annual",
			"purchase_date": "2025-03-01T09:00:00Z",
			"expiration_date": 1772355600000,
			"subscription_period": "Annual"
		},
		"paywall": {"identifier": "spring_offer"}
	}`)

	cmd, err := ParseSuperwallEvent(payload, parseNow)
	require.NoError(t, err)
	assert.Equal(t, ActionUpsert, cmd.Action)
	assert.Equal(t, "sw_1", cmd.EventID)

	up := cmd.Upsert
	require.NotNil(t, up)
	assert.Equal(t, "user_abc", up.UserExternalID)
	assert.Equal(t, domain.PlatformIOSSuperwall, up.Platform)
	assert.Equal(t, domain.SubscriptionActive, up.Status)
	assert.Equal(t, parseNow, up.CurrentPeriodStart)
	assert.Equal(t, time.UnixMilli(1772355600000).UTC(), up.CurrentPeriodEnd)
	assert.Equal(t, "txn_1", up.SuperwallSubscriptionID)
	assert.Equal(t, "spring_offer", up.SuperwallOfferID)
	assert.Equal(t, "premium_annual", up.ProductID)
	assert.Equal(t, domain.IntervalYear, up.PlanInterval)
	assert.True(t, up.AutoRenew)
	assert.Equal(t, domain.ExternalRef{Provider: domain.ProviderSuperwall, ID: "txn_1"}, up.Ref())
}

func TestParseSuperwallEvent_Fallbacks(t *testing.T) {
	t.Parallel()

	payload := []byte(`{
		"event": "subscription_renew",
		"user_id": "user_xyz",
		"product": {"auto_renew_status": false, "purchase_date": "not a date"}
	}`)

	cmd, err := ParseSuperwallEvent(payload, parseNow)
	require.NoError(t, err)
	assert.Equal(t, "superwall_1740819600000", cmd.EventID)

	up := cmd.Upsert
	require.NotNil(t, up)
	assert.Equal(t, "user_xyz", up.UserExternalID)
	assert.Equal(t, domain.PlatformAndroidSuperwall, up.Platform)
	assert.Equal(t, parseNow, up.CurrentPeriodStart)
	assert.Equal(t, parseNow, up.CurrentPeriodEnd)
	assert.Equal(t, cmd.EventID, up.SuperwallSubscriptionID)
	assert.Equal(t, "default", up.ProductID)
	assert.Equal(t, domain.IntervalMonth, up.PlanInterval)
	assert.False(t, up.AutoRenew)
}

func TestParseSuperwallEvent_Actions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		event        string
		wantAction   Action
		immediate    bool
		wantCancelAt bool
	}{
		{name: "cancel is scheduled", event: "subscription_cancel", wantAction: ActionCancel, wantCancelAt: true},
		{name: "expire is immediate", event: "subscription_expire", wantAction: ActionCancel, immediate: true},
		{name: "transaction failure", event: "transaction_fail", wantAction: ActionPaymentFailed},
		{name: "billing retry", event: "subscription_billing_retry", wantAction: ActionPaymentFailed},
		{name: "unknown", event: "paywall_open", wantAction: ActionIgnore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			payload := []byte(`{"id":"sw_2","event":"` + tt.event + `","user_id":"u1",` +
				`"subscription":{"transaction_id":"txn_9","expiration_date":"2025-04-01T00:00:00Z"}}`)

			cmd, err := ParseSuperwallEvent(payload, parseNow)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAction, cmd.Action)
			assert.Equal(t, tt.immediate, cmd.CancelImmediately)
			assert.Equal(t, "txn_9", cmd.Ref.ID)
			if tt.wantCancelAt {
				require.NotNil(t, cmd.CancelAt)
				assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), *cmd.CancelAt)
			} else {
				assert.Nil(t, cmd.CancelAt)
			}
		})
	}
}

func TestParseSuperwallEvent_MissingUser(t *testing.T) {
	t.Parallel()

	_, err := ParseSuperwallEvent([]byte(`{"id":"sw_3","event":"subscription_start"}`), parseNow)
	assert.ErrorIs(t, err, service.ErrMalformedEvent)
}

func TestMapSuperwallInterval(t *testing.T) {
	t.Parallel()

	assert.Equal(t, domain.IntervalYear, mapSuperwallInterval("P1Y yearly"))
	assert.Equal(t, domain.IntervalLifetime, mapSuperwallInterval("Lifetime"))
	assert.Equal(t, domain.IntervalLifetime, mapSuperwallInterval("forever"))
	assert.Equal(t, domain.IntervalMonth, mapSuperwallInterval("weekly"))
	assert.Equal(t, domain.IntervalMonth, mapSuperwallInterval(""))
}

func TestRequireStripeSignature(t *testing.T) {
	t.Parallel()

	v := RequireStripeSignature{}
	assert.True(t, errors.Is(v.Verify(domain.ProviderStripe, nil, ""), ErrMissingSignature))
	assert.NoError(t, v.Verify(domain.ProviderStripe, nil, "t=1,v1=abc"))
	assert.NoError(t, v.Verify(domain.ProviderSuperwall, nil, ""))
}

func TestParseEvent_UnknownProvider(t *testing.T) {
	t.Parallel()

	_, err := ParseEvent("paddle", []byte(`{}`), parseNow)
	assert.ErrorIs(t, err, domain.ErrInvalidProvider)
}
