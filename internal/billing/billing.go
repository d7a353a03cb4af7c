// Package billing integrates Stripe for ticket credit pack purchases and
// subscription checkout. If Stripe is not configured (no secret key), billing
// endpoints return 503 and no checkout sessions can be created.
package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v84"

	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/model"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/storage"
)

// Sentinel errors for billing operations.
var (
	ErrBillingDisabled = errors.New("billing not configured")
	ErrUnknownPack     = errors.New("unknown credit pack")
	ErrUnknownPlan     = errors.New("unknown subscription plan")
)

// creditPacks is the fixed credit pack catalog. Prices are in cents.
var creditPacks = []model.CreditPack{
	{ID: "single", Name: "Single Ticket", Credits: 1, AmountCents: 2500},
	{ID: "pack_5", Name: "5-Ticket Pack", Credits: 5, AmountCents: 10000},
	{ID: "pack_10", Name: "10-Ticket Pack", Credits: 10, AmountCents: 18000},
	{ID: "pack_25", Name: "25-Ticket Pack", Credits: 25, AmountCents: 40000},
}

// PlanPricing defines a subscription tier's monthly price and Stripe price ID.
type PlanPricing struct {
	Plan       model.SubscriptionPlan
	Name       string
	PriceCents int
	PriceID    string // empty for free and custom-quoted tiers
}

// Service wraps Stripe API calls for checkout and webhook processing.
type Service struct {
	client        *stripe.Client
	db            *storage.DB
	logger        *slog.Logger
	plans         map[model.SubscriptionPlan]PlanPricing
	webhookSecret string
	successURL    string
	cancelURL     string
	enabled       bool
}

// Config holds Stripe configuration.
type Config struct {
	SecretKey          string
	WebhookSecret      string
	PriceIDIndividual  string
	PriceIDSmallBiz    string
	PriceIDLawFirmPro  string
	PriceIDCorpLegal   string
	CheckoutSuccessURL string
	CheckoutCancelURL  string
}

// New creates a billing service. If cfg.SecretKey is empty, the service
// operates in disabled mode. Returns an error if billing is enabled but the
// webhook secret is missing.
func New(db *storage.DB, cfg Config, logger *slog.Logger) (*Service, error) {
	enabled := cfg.SecretKey != ""

	if enabled && cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("billing: STRIPE_WEBHOOK_SECRET is required when billing is enabled")
	}

	var client *stripe.Client
	if enabled {
		client = stripe.NewClient(cfg.SecretKey)
	}

	return &Service{
		client: client,
		db:     db,
		logger: logger,
		plans: map[model.SubscriptionPlan]PlanPricing{
			model.PlanFree: {
				Plan: model.PlanFree,
				Name: "Free",
			},
			model.PlanIndividual: {
				Plan:       model.PlanIndividual,
				Name:       "Individual",
				PriceCents: 4900,
				PriceID:    cfg.PriceIDIndividual,
			},
			model.PlanSmallBusiness: {
				Plan:       model.PlanSmallBusiness,
				Name:       "Small Business",
				PriceCents: 19900,
				PriceID:    cfg.PriceIDSmallBiz,
			},
			model.PlanLawFirmPro: {
				Plan:       model.PlanLawFirmPro,
				Name:       "Law Firm Professional",
				PriceCents: 49900,
				PriceID:    cfg.PriceIDLawFirmPro,
			},
			model.PlanCorporateLegal: {
				Plan:       model.PlanCorporateLegal,
				Name:       "Corporate Legal",
				PriceCents: 99900,
				PriceID:    cfg.PriceIDCorpLegal,
			},
			model.PlanEnterprise: {
				Plan: model.PlanEnterprise,
				Name: "Enterprise", // custom-quoted, no self-serve checkout
			},
		},
		webhookSecret: cfg.WebhookSecret,
		successURL:    cfg.CheckoutSuccessURL,
		cancelURL:     cfg.CheckoutCancelURL,
		enabled:       enabled,
	}, nil
}

// Enabled returns true if Stripe is configured.
func (s *Service) Enabled() bool { return s.enabled }

// CreditPacks returns the purchasable pack catalog.
func (s *Service) CreditPacks() []model.CreditPack {
	packs := make([]model.CreditPack, len(creditPacks))
	copy(packs, creditPacks)
	return packs
}

// Pack returns a credit pack by ID.
func (s *Service) Pack(id string) (model.CreditPack, bool) {
	for _, p := range creditPacks {
		if p.ID == id {
			return p, true
		}
	}
	return model.CreditPack{}, false
}

// Pricing returns the pricing for a subscription tier.
func (s *Service) Pricing(plan model.SubscriptionPlan) (PlanPricing, bool) {
	p, ok := s.plans[plan]
	return p, ok
}

// customerEmail prefills the checkout email for users that have one.
// Open_id-only accounts may carry no email; Stripe then collects it on the
// checkout page instead.
func customerEmail(user model.User) *string {
	if user.Email == nil || *user.Email == "" {
		return nil
	}
	return stripe.String(*user.Email)
}

// CreatePackCheckout creates a pending purchase row and a Stripe Checkout
// session in payment mode for a credit pack. The purchase is completed by
// the checkout.session.completed webhook, never by the client redirect.
func (s *Service) CreatePackCheckout(ctx context.Context, user model.User, packID string) (model.CheckoutResponse, error) {
	if !s.enabled {
		return model.CheckoutResponse{}, ErrBillingDisabled
	}

	pack, ok := s.Pack(packID)
	if !ok {
		return model.CheckoutResponse{}, fmt.Errorf("%w: %q", ErrUnknownPack, packID)
	}

	purchase, err := s.db.CreatePurchase(ctx, model.TicketPurchase{
		ID:          "tp_" + uuid.NewString(),
		UserID:      user.ID,
		Credits:     pack.Credits,
		AmountCents: pack.AmountCents,
		Status:      model.PurchasePending,
	})
	if err != nil {
		return model.CheckoutResponse{}, err
	}

	sess, err := s.client.V1CheckoutSessions.Create(ctx, &stripe.CheckoutSessionCreateParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail: customerEmail(user),
		SuccessURL:    stripe.String(s.successURL),
		CancelURL:     stripe.String(s.cancelURL),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
					Currency:   stripe.String("usd"),
					UnitAmount: stripe.Int64(int64(pack.AmountCents)),
					ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
						Name: stripe.String(pack.Name),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{
			"kind":        "credit_pack",
			"purchase_id": purchase.ID,
			"user_id":     user.ID.String(),
			"pack_id":     pack.ID,
		},
	})
	if err != nil {
		return model.CheckoutResponse{}, fmt.Errorf("billing: create pack checkout session: %w", err)
	}

	if err := s.db.AttachPurchaseSession(ctx, purchase.ID, sess.ID); err != nil {
		return model.CheckoutResponse{}, err
	}

	return model.CheckoutResponse{
		SessionID:   sess.ID,
		CheckoutURL: sess.URL,
		PurchaseID:  purchase.ID,
	}, nil
}

// CreateSubscriptionCheckout creates a trial subscription row and a Stripe
// Checkout session in subscription mode for a paid tier.
func (s *Service) CreateSubscriptionCheckout(ctx context.Context, user model.User, plan model.SubscriptionPlan) (model.CheckoutResponse, error) {
	if !s.enabled {
		return model.CheckoutResponse{}, ErrBillingDisabled
	}

	pricing, ok := s.plans[plan]
	if !ok || pricing.PriceID == "" {
		return model.CheckoutResponse{}, fmt.Errorf("%w: %q", ErrUnknownPlan, plan)
	}

	sess, err := s.client.V1CheckoutSessions.Create(ctx, &stripe.CheckoutSessionCreateParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		CustomerEmail: customerEmail(user),
		SuccessURL:    stripe.String(s.successURL),
		CancelURL:     stripe.String(s.cancelURL),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				Price:    stripe.String(pricing.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{
			"kind":    "subscription",
			"user_id": user.ID.String(),
			"plan":    string(plan),
		},
	})
	if err != nil {
		return model.CheckoutResponse{}, fmt.Errorf("billing: create subscription checkout session: %w", err)
	}

	sessID := sess.ID
	_, err = s.db.CreateSubscription(ctx, model.Subscription{
		ID:              "sub_" + uuid.NewString(),
		UserID:          user.ID,
		Plan:            plan,
		PriceCents:      pricing.PriceCents,
		BillingCycle:    model.CycleMonthly,
		Status:          model.SubTrial,
		StripeSessionID: &sessID,
	})
	if err != nil {
		return model.CheckoutResponse{}, err
	}

	return model.CheckoutResponse{
		SessionID:   sess.ID,
		CheckoutURL: sess.URL,
	}, nil
}

// CreatePortalSession creates a Stripe billing portal session for subscription management.
func (s *Service) CreatePortalSession(ctx context.Context, stripeCustomerID, returnURL string) (string, error) {
	if !s.enabled {
		return "", ErrBillingDisabled
	}

	sess, err := s.client.V1BillingPortalSessions.Create(ctx, &stripe.BillingPortalSessionCreateParams{
		Customer:  stripe.String(stripeCustomerID),
		ReturnURL: stripe.String(returnURL),
	})
	if err != nil {
		return "", fmt.Errorf("billing: create portal session: %w", err)
	}
	return sess.URL, nil
}
