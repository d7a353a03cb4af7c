package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	stripe "github.com/stripe/stripe-go/v84"

	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/storage"
)

// HandleWebhook processes a Stripe webhook event. Returns the HTTP status
// code to respond with and any error. Verifies the webhook signature, then
// dispatches based on event type. Credits are granted here and nowhere else;
// the success redirect carries no trust.
func (s *Service) HandleWebhook(ctx context.Context, body []byte, sigHeader string) (int, error) {
	event, err := stripe.ConstructEvent(body, sigHeader, s.webhookSecret)
	if err != nil {
		return http.StatusBadRequest, fmt.Errorf("billing: invalid webhook signature: %w", err)
	}

	switch event.Type {
	case "checkout.session.completed":
		return s.handleCheckoutCompleted(ctx, event)
	case "checkout.session.expired":
		return s.handleCheckoutExpired(ctx, event)
	case "invoice.payment_failed":
		return s.handlePaymentFailed(ctx, event)
	default:
		return http.StatusOK, nil
	}
}

func (s *Service) handleCheckoutCompleted(ctx context.Context, event stripe.Event) (int, error) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return http.StatusBadRequest, fmt.Errorf("billing: unmarshal checkout session: %w", err)
	}

	switch sess.Metadata["kind"] {
	case "credit_pack":
		return s.completePackPurchase(ctx, sess)
	case "subscription":
		return s.activateSubscription(ctx, sess)
	default:
		s.logger.Warn("billing: checkout completed with unknown kind",
			"session_id", sess.ID, "kind", sess.Metadata["kind"])
		return http.StatusOK, nil
	}
}

// completePackPurchase marks the purchase completed and credits the balance.
// CompletePurchase is idempotent, so webhook redeliveries grant nothing twice.
func (s *Service) completePackPurchase(ctx context.Context, sess stripe.CheckoutSession) (int, error) {
	paymentID := ""
	if sess.PaymentIntent != nil {
		paymentID = sess.PaymentIntent.ID
	}

	purchase, err := s.db.CompletePurchase(ctx, sess.ID, paymentID, storage.AuditEntry{
		EntityType:  "ticket_purchase",
		EntityID:    sess.ID,
		Action:      "completed",
		PerformedBy: "stripe_webhook",
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("billing: completed session has no purchase row", "session_id", sess.ID)
			return http.StatusOK, nil
		}
		return http.StatusInternalServerError, fmt.Errorf("billing: complete purchase: %w", err)
	}

	s.logger.Info("billing: credit pack purchase completed",
		"purchase_id", purchase.ID,
		"user_id", purchase.UserID,
		"credits", purchase.Credits,
	)
	return http.StatusOK, nil
}

func (s *Service) activateSubscription(ctx context.Context, sess stripe.CheckoutSession) (int, error) {
	sub, err := s.db.ActivateSubscriptionBySession(ctx, sess.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("billing: completed session has no subscription row", "session_id", sess.ID)
			return http.StatusOK, nil
		}
		return http.StatusInternalServerError, fmt.Errorf("billing: activate subscription: %w", err)
	}

	s.logger.Info("billing: subscription activated",
		"subscription_id", sub.ID,
		"user_id", sub.UserID,
		"plan", sub.Plan,
	)
	return http.StatusOK, nil
}

func (s *Service) handleCheckoutExpired(ctx context.Context, event stripe.Event) (int, error) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return http.StatusBadRequest, fmt.Errorf("billing: unmarshal checkout session: %w", err)
	}

	if sess.Metadata["kind"] != "credit_pack" {
		return http.StatusOK, nil
	}

	if err := s.db.FailPurchase(ctx, sess.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return http.StatusInternalServerError, fmt.Errorf("billing: fail purchase: %w", err)
	}

	s.logger.Info("billing: checkout session expired", "session_id", sess.ID)
	return http.StatusOK, nil
}

func (s *Service) handlePaymentFailed(ctx context.Context, event stripe.Event) (int, error) {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return http.StatusBadRequest, fmt.Errorf("billing: unmarshal invoice: %w", err)
	}

	customerID := ""
	if invoice.Customer != nil {
		customerID = invoice.Customer.ID
	}
	s.logger.Warn("billing: payment failed",
		"customer_id", customerID,
		"amount_due", invoice.AmountDue,
		"attempt_count", invoice.AttemptCount,
	)

	return http.StatusOK, nil
}
