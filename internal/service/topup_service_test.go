package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/EmielEDW/chiro-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_test_secret"

func newTopUpFixture() (*fakeAccounts, *fakeTopUps, TopUpService) {
	accounts := &fakeAccounts{accounts: map[int64]domain.Account{
		1: {ID: 1, Name: "Member", Role: domain.RoleOrdinary, Active: true},
		3: {ID: 3, Name: "Frozen", Role: domain.RoleOrdinary, Active: false},
	}}
	topups := &fakeTopUps{topups: map[int64]domain.TopUp{}}
	svc := TopUpService{
		Accounts:      accounts,
		TopUps:        topups,
		WebhookSecret: testWebhookSecret,
		Logger:        discardLogger(),
	}
	return accounts, topups, svc
}

// stripeSignature builds the Stripe-Signature header the same way Stripe
// signs outgoing webhooks: HMAC-SHA256 over "<timestamp>.<payload>".
func stripeSignature(payload []byte, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	fmt.Fprintf(mac, "%d.", at.Unix())
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func paymentIntentEvent(eventType, intentID string, amount int64) []byte {
	return []byte(fmt.Sprintf(
		`{"id":"evt_test","type":%q,"data":{"object":{"id":%q,"amount":%d,"object":"payment_intent"}}}`,
		eventType, intentID, amount))
}

func TestInitiateStripeCreatesPendingTopUp(t *testing.T) {
	_, topups, svc := newTopUpFixture()

	topup, err := svc.InitiateStripe(context.Background(), 1, 2500, "pi_123")
	require.NoError(t, err)
	assert.Equal(t, domain.TopUpPending, topup.Status)
	assert.Equal(t, "pi_123", topup.ProviderReference)

	stored, err := topups.GetByReference(context.Background(), domain.ProviderStripe, "pi_123")
	require.NoError(t, err)
	assert.Equal(t, int64(2500), stored.Amount)
}

func TestInitiateStripeRejectsNonPositiveAmount(t *testing.T) {
	_, _, svc := newTopUpFixture()

	_, err := svc.InitiateStripe(context.Background(), 1, 0, "pi_123")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.InitiateStripe(context.Background(), 1, -100, "pi_123")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestInitiateStripeRejectsInactiveAccount(t *testing.T) {
	_, _, svc := newTopUpFixture()

	_, err := svc.InitiateStripe(context.Background(), 3, 2500, "pi_123")
	assert.ErrorIs(t, err, domain.ErrAccountInactive)
}

func TestRecordManualIsPaidImmediately(t *testing.T) {
	_, _, svc := newTopUpFixture()

	topup, err := svc.RecordManual(context.Background(), 1, 1000, domain.ProviderCash, "")
	require.NoError(t, err)
	assert.Equal(t, domain.TopUpPaid, topup.Status)
	assert.NotEmpty(t, topup.ProviderReference, "a reference is generated when none is given")
}

func TestRecordManualRejectsStripeProvider(t *testing.T) {
	_, _, svc := newTopUpFixture()

	_, err := svc.RecordManual(context.Background(), 1, 1000, domain.ProviderStripe, "pi_123")
	assert.Error(t, err, "stripe top-ups must go through the payment flow")
}

func TestWebhookConfirmsPayment(t *testing.T) {
	_, topups, svc := newTopUpFixture()
	_, err := svc.InitiateStripe(context.Background(), 1, 2500, "pi_123")
	require.NoError(t, err)

	payload := paymentIntentEvent("payment_intent.succeeded", "pi_123", 2500)
	err = svc.HandleStripeWebhook(context.Background(), payload, stripeSignature(payload, time.Now()))
	require.NoError(t, err)

	stored, err := topups.GetByReference(context.Background(), domain.ProviderStripe, "pi_123")
	require.NoError(t, err)
	assert.Equal(t, domain.TopUpPaid, stored.Status)
}

func TestWebhookRetryIsIdempotent(t *testing.T) {
	_, topups, svc := newTopUpFixture()
	_, err := svc.InitiateStripe(context.Background(), 1, 2500, "pi_123")
	require.NoError(t, err)

	payload := paymentIntentEvent("payment_intent.succeeded", "pi_123", 2500)
	require.NoError(t, svc.HandleStripeWebhook(context.Background(), payload, stripeSignature(payload, time.Now())))
	require.NoError(t, svc.HandleStripeWebhook(context.Background(), payload, stripeSignature(payload, time.Now())),
		"a webhook retry after settlement must succeed without a second credit")

	assert.Len(t, topups.transitions, 1)
}

func TestWebhookAmountMismatchFailsTopUp(t *testing.T) {
	_, topups, svc := newTopUpFixture()
	_, err := svc.InitiateStripe(context.Background(), 1, 2500, "pi_123")
	require.NoError(t, err)

	payload := paymentIntentEvent("payment_intent.succeeded", "pi_123", 9999)
	err = svc.HandleStripeWebhook(context.Background(), payload, stripeSignature(payload, time.Now()))
	require.Error(t, err)

	stored, err := topups.GetByReference(context.Background(), domain.ProviderStripe, "pi_123")
	require.NoError(t, err)
	assert.Equal(t, domain.TopUpFailed, stored.Status, "a mismatched payment never counts toward the balance")
}

func TestWebhookPaymentFailedSettlesTopUp(t *testing.T) {
	_, topups, svc := newTopUpFixture()
	_, err := svc.InitiateStripe(context.Background(), 1, 2500, "pi_123")
	require.NoError(t, err)

	payload := paymentIntentEvent("payment_intent.payment_failed", "pi_123", 2500)
	require.NoError(t, svc.HandleStripeWebhook(context.Background(), payload, stripeSignature(payload, time.Now())))

	stored, err := topups.GetByReference(context.Background(), domain.ProviderStripe, "pi_123")
	require.NoError(t, err)
	assert.Equal(t, domain.TopUpFailed, stored.Status)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	_, _, svc := newTopUpFixture()

	payload := paymentIntentEvent("payment_intent.succeeded", "pi_123", 2500)
	err := svc.HandleStripeWebhook(context.Background(), payload, "t=1,v1=deadbeef")
	assert.Error(t, err)
}

func TestWebhookIgnoresUnknownEventTypes(t *testing.T) {
	_, _, svc := newTopUpFixture()

	payload := []byte(`{"id":"evt_test","type":"charge.refunded","data":{"object":{}}}`)
	err := svc.HandleStripeWebhook(context.Background(), payload, stripeSignature(payload, time.Now()))
	assert.NoError(t, err)
}

func TestWebhookForUnknownIntentIsIgnoredOnFailure(t *testing.T) {
	_, _, svc := newTopUpFixture()

	payload := paymentIntentEvent("payment_intent.payment_failed", "pi_unknown", 100)
	err := svc.HandleStripeWebhook(context.Background(), payload, stripeSignature(payload, time.Now()))
	assert.NoError(t, err, "a failure event for a top-up we never recorded is not an error")
}
