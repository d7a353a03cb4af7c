package model

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionPlan is a service tier.
type SubscriptionPlan string

const (
	PlanFree           SubscriptionPlan = "FREE"
	PlanIndividual     SubscriptionPlan = "INDIVIDUAL"
	PlanSmallBusiness  SubscriptionPlan = "SMALL_BUSINESS"
	PlanEnterprise     SubscriptionPlan = "ENTERPRISE"
	PlanLawFirmPro     SubscriptionPlan = "LAW_FIRM_PROFESSIONAL"
	PlanCorporateLegal SubscriptionPlan = "CORPORATE_LEGAL"
)

// ValidSubscriptionPlan reports whether p is a recognized tier.
func ValidSubscriptionPlan(p SubscriptionPlan) bool {
	switch p {
	case PlanFree, PlanIndividual, PlanSmallBusiness, PlanEnterprise,
		PlanLawFirmPro, PlanCorporateLegal:
		return true
	}
	return false
}

// SubscriptionStatus is the billing state of a subscription.
type SubscriptionStatus string

const (
	SubTrial     SubscriptionStatus = "trial"
	SubActive    SubscriptionStatus = "active"
	SubCancelled SubscriptionStatus = "cancelled"
	SubExpired   SubscriptionStatus = "expired"
)

// BillingCycle is the renewal interval of a subscription.
type BillingCycle string

const (
	CycleMonthly BillingCycle = "monthly"
	CycleAnnual  BillingCycle = "annual"
)

// Subscription is a user's service-tier record.
type Subscription struct {
	ID              string             `json:"id"`
	UserID          uuid.UUID          `json:"user_id"`
	Plan            SubscriptionPlan   `json:"plan"`
	PriceCents      int                `json:"price_cents"`
	BillingCycle    BillingCycle       `json:"billing_cycle"`
	Status          SubscriptionStatus `json:"status"`
	StripeSessionID *string            `json:"stripe_session_id,omitempty"`
	TrialEndsAt     *time.Time         `json:"trial_ends_at,omitempty"`
	PeriodStart     *time.Time         `json:"period_start,omitempty"`
	PeriodEnd       *time.Time         `json:"period_end,omitempty"`
	CancelledAt     *time.Time         `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// CreditPack is a purchasable bundle of ticket submission credits.
type CreditPack struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Credits     int    `json:"credits"`
	AmountCents int    `json:"amount_cents"`
}

// CheckoutResponse carries a hosted checkout URL back to the client.
type CheckoutResponse struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
	PurchaseID  string `json:"purchase_id,omitempty"`
}
