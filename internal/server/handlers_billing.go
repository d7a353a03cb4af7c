package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/billing"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/model"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/storage"
)

// HandleCurrentSubscription handles GET /v1/subscriptions/current.
// Users without a subscription row are on the free plan; that is a normal
// response, not a 404.
func (h *Handlers) HandleCurrentSubscription(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := userIDFromClaims(w, r)
	if !ok {
		return
	}
	sub, err := h.db.GetCurrentSubscription(r.Context(), userID)
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, r, http.StatusOK, model.Subscription{
			UserID: userID,
			Plan:   model.PlanFree,
			Status: model.SubActive,
		})
		return
	}
	if err != nil {
		writeStorageError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sub)
}

// HandleListSubscriptions handles GET /v1/subscriptions (admin).
func (h *Handlers) HandleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.db.ListSubscriptions(r.Context(), queryLimit(r, defaultQueryLimit))
	if err != nil {
		h.logger.Warn("list subscriptions degraded to empty", "error", err)
		subs = []model.Subscription{}
	}
	writeJSON(w, r, http.StatusOK, subs)
}

// HandleBillingCheckout handles POST /billing/checkout. Creates a
// subscription-mode Stripe Checkout session for a self-serve paid tier.
func (h *Handlers) HandleBillingCheckout(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := userIDFromClaims(w, r)
	if !ok {
		return
	}

	if h.billingSvc == nil || !h.billingSvc.Enabled() {
		writeError(w, r, http.StatusServiceUnavailable, model.ErrCodeDependencyFailed, "billing is not configured")
		return
	}

	var req struct {
		Tier model.SubscriptionPlan `json:"tier"`
	}
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if !model.ValidSubscriptionPlan(req.Tier) {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "invalid subscription tier")
		return
	}

	user, err := h.db.GetUser(r.Context(), userID)
	if err != nil {
		writeStorageError(w, r, h.logger, err)
		return
	}

	resp, err := h.billingSvc.CreateSubscriptionCheckout(r.Context(), user, req.Tier)
	switch {
	case errors.Is(err, billing.ErrUnknownPlan):
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "tier is not available for self-serve checkout")
	case err != nil:
		h.logger.Error("subscription checkout", "error", err, "user_id", userID)
		writeError(w, r, http.StatusBadGateway, model.ErrCodeDependencyFailed, "payment provider error")
	default:
		writeJSON(w, r, http.StatusOK, resp)
	}
}

// HandleCancelSubscription handles POST /v1/subscriptions/{id}/cancel.
func (h *Handlers) HandleCancelSubscription(w http.ResponseWriter, r *http.Request) {
	userID, claims, ok := userIDFromClaims(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if claims.Role != model.RoleAdmin {
		sub, err := h.db.GetCurrentSubscription(r.Context(), userID)
		if err != nil {
			writeStorageError(w, r, h.logger, err)
			return
		}
		if sub.ID != id {
			writeError(w, r, http.StatusForbidden, model.ErrCodeForbidden, "not your subscription")
			return
		}
	}

	cancelled, err := h.db.CancelSubscription(r.Context(), id)
	if err != nil {
		writeStorageError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusOK, cancelled)
}

// HandleBillingWebhook handles POST /billing/webhooks. Signature
// verification happens inside the billing service; this handler just moves
// bytes. Credits are only ever granted here, never on the client redirect.
func (h *Handlers) HandleBillingWebhook(w http.ResponseWriter, r *http.Request) {
	if h.billingSvc == nil || !h.billingSvc.Enabled() {
		writeError(w, r, http.StatusServiceUnavailable, model.ErrCodeDependencyFailed, "billing is not configured")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxRequestBodyBytes))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "failed to read webhook body")
		return
	}

	status, err := h.billingSvc.HandleWebhook(r.Context(), body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.Error("webhook processing", "error", err, "status", status)
		writeError(w, r, status, model.ErrCodeDependencyFailed, "webhook processing failed")
		return
	}
	writeJSON(w, r, status, map[string]string{"received": "true"})
}
