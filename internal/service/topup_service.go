package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/EmielEDW/chiro-sub000/internal/domain"
	"github.com/EmielEDW/chiro-sub000/internal/metrics"
	"github.com/EmielEDW/chiro-sub000/internal/repository"
	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// TopUpStore persists top-ups and their status transitions.
type TopUpStore interface {
	Create(ctx context.Context, in repository.CreateTopUpInput) (*domain.TopUp, error)
	GetByReference(ctx context.Context, provider domain.TopUpProvider, reference string) (*domain.TopUp, error)
	Transition(ctx context.Context, id int64, from, to domain.TopUpStatus) (*domain.TopUp, error)
}

// TopUpService creates top-ups and confirms Stripe payments. A Stripe
// top-up starts pending and only counts toward the balance after the
// webhook verifies the payment and the amounts match.
type TopUpService struct {
	Accounts      AccountReader
	TopUps        TopUpStore
	WebhookSecret string
	Logger        *slog.Logger
}

var ErrInvalidAmount = errors.New("amount must be positive")

// InitiateStripe records a pending top-up keyed by the payment intent id.
func (s TopUpService) InitiateStripe(ctx context.Context, accountID, amount int64, paymentIntentID string) (*domain.TopUp, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	account, err := s.Accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !account.Active {
		return nil, domain.ErrAccountInactive
	}
	return s.TopUps.Create(ctx, repository.CreateTopUpInput{
		AccountID:         account.ID,
		Amount:            amount,
		Provider:          domain.ProviderStripe,
		ProviderReference: paymentIntentID,
		Status:            domain.TopUpPending,
	})
}

// RecordManual records a cash or bank-transfer top-up taken by a treasurer;
// it is paid immediately.
func (s TopUpService) RecordManual(ctx context.Context, accountID, amount int64, provider domain.TopUpProvider, reference string) (*domain.TopUp, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if provider != domain.ProviderCash && provider != domain.ProviderBankTransfer {
		return nil, fmt.Errorf("unsupported manual provider %q", provider)
	}
	account, err := s.Accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if reference == "" {
		reference = uuid.NewString()
	}
	topup, err := s.TopUps.Create(ctx, repository.CreateTopUpInput{
		AccountID:         account.ID,
		Amount:            amount,
		Provider:          provider,
		ProviderReference: reference,
		Status:            domain.TopUpPaid,
	})
	if err != nil {
		return nil, err
	}
	metrics.TopUpsPaidTotal.Inc()
	return topup, nil
}

// HandleStripeWebhook verifies the event signature and applies payment
// intent outcomes to the matching pending top-up. The stored amount must
// equal Stripe's confirmed amount before the top-up is marked paid.
func (s TopUpService) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return fmt.Errorf("verify webhook signature: %w", err)
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		return s.confirmPayment(ctx, event.Data.Raw)
	case stripe.EventTypePaymentIntentPaymentFailed:
		return s.settleTerminal(ctx, event.Data.Raw, domain.TopUpFailed)
	case stripe.EventTypePaymentIntentCanceled:
		return s.settleTerminal(ctx, event.Data.Raw, domain.TopUpCancelled)
	default:
		// Other event types are none of our business.
		return nil
	}
}

func (s TopUpService) confirmPayment(ctx context.Context, raw json.RawMessage) error {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(raw, &intent); err != nil {
		return fmt.Errorf("decode payment intent: %w", err)
	}
	topup, err := s.TopUps.GetByReference(ctx, domain.ProviderStripe, intent.ID)
	if err != nil {
		return fmt.Errorf("top-up for intent %s: %w", intent.ID, err)
	}

	if intent.Amount != topup.Amount {
		if _, err := s.TopUps.Transition(ctx, topup.ID, domain.TopUpPending, domain.TopUpFailed); err != nil && !errors.Is(err, domain.ErrConflict) {
			return err
		}
		s.Logger.Error("top-up amount mismatch",
			"topup", topup.ID, "stored", topup.Amount, "confirmed", intent.Amount)
		return fmt.Errorf("amount mismatch for top-up %d: stored %d, confirmed %d", topup.ID, topup.Amount, intent.Amount)
	}

	if _, err := s.TopUps.Transition(ctx, topup.ID, domain.TopUpPending, domain.TopUpPaid); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Webhook retry after a successful transition.
			s.Logger.Info("top-up already settled", "topup", topup.ID)
			return nil
		}
		return err
	}
	metrics.TopUpsPaidTotal.Inc()
	s.Logger.Info("top-up paid", "topup", topup.ID, "account", topup.AccountID, "amount", topup.Amount)
	return nil
}

func (s TopUpService) settleTerminal(ctx context.Context, raw json.RawMessage, status domain.TopUpStatus) error {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(raw, &intent); err != nil {
		return fmt.Errorf("decode payment intent: %w", err)
	}
	topup, err := s.TopUps.GetByReference(ctx, domain.ProviderStripe, intent.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if _, err := s.TopUps.Transition(ctx, topup.ID, domain.TopUpPending, status); err != nil && !errors.Is(err, domain.ErrConflict) {
		return err
	}
	return nil
}
