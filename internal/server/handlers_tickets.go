package server

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/auth"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/billing"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/model"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/storage"
)

// userIDFromClaims extracts the authenticated user's UUID, writing a 401 on
// failure. Returns uuid.Nil and false when the response has been written.
func userIDFromClaims(w http.ResponseWriter, r *http.Request) (uuid.UUID, *auth.Claims, bool) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorized, "authentication required")
		return uuid.Nil, nil, false
	}
	userID, err := claims.UserID()
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorized, "malformed token subject")
		return uuid.Nil, nil, false
	}
	return userID, claims, true
}

// HandleTicketCredits handles GET /v1/tickets/credits.
func (h *Handlers) HandleTicketCredits(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := userIDFromClaims(w, r)
	if !ok {
		return
	}
	credits, err := h.db.GetTicketCredits(r.Context(), userID)
	if err != nil {
		writeStorageError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusOK, credits)
}

// HandleTicketPricing handles GET /v1/tickets/pricing.
func (h *Handlers) HandleTicketPricing(w http.ResponseWriter, r *http.Request) {
	if h.billingSvc == nil {
		writeError(w, r, http.StatusServiceUnavailable, model.ErrCodeDependencyFailed, "billing is not configured")
		return
	}
	writeJSON(w, r, http.StatusOK, h.billingSvc.CreditPacks())
}

// HandleTicketCheckout handles POST /v1/tickets/checkout.
func (h *Handlers) HandleTicketCheckout(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := userIDFromClaims(w, r)
	if !ok {
		return
	}

	var req struct {
		PackID string `json:"pack_id"`
	}
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}

	user, err := h.db.GetUser(r.Context(), userID)
	if err != nil {
		writeStorageError(w, r, h.logger, err)
		return
	}

	resp, err := h.billingSvc.CreatePackCheckout(r.Context(), user, req.PackID)
	switch {
	case errors.Is(err, billing.ErrUnknownPack):
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "unknown credit pack")
	case errors.Is(err, billing.ErrBillingDisabled):
		writeError(w, r, http.StatusServiceUnavailable, model.ErrCodeDependencyFailed, "billing is not configured")
	case err != nil:
		h.logger.Error("pack checkout", "error", err, "user_id", userID)
		writeError(w, r, http.StatusBadGateway, model.ErrCodeDependencyFailed, "payment provider error")
	default:
		writeJSON(w, r, http.StatusOK, resp)
	}
}

// HandleSubmitTicket handles POST /v1/tickets. Submission consumes exactly
// one credit; an empty balance rejects with 402 and no state change.
func (h *Handlers) HandleSubmitTicket(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := userIDFromClaims(w, r)
	if !ok {
		return
	}

	var req model.SubmitTicketRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	ticket, err := h.ticketSvc.Submit(r.Context(), userID, req)
	if err != nil {
		writeStorageError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, ticket)
}

// HandleListTickets handles GET /v1/tickets (own tickets only).
func (h *Handlers) HandleListTickets(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := userIDFromClaims(w, r)
	if !ok {
		return
	}
	tickets, err := h.db.ListTicketsByUser(r.Context(), userID)
	if err != nil {
		h.logger.Warn("list tickets degraded to empty", "error", err, "user_id", userID)
		tickets = []model.TrafficTicket{}
	}
	writeJSON(w, r, http.StatusOK, tickets)
}

// HandleListAllTickets handles GET /v1/tickets/all (admin).
func (h *Handlers) HandleListAllTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.db.ListAllTickets(r.Context(), queryLimit(r, defaultQueryLimit))
	if err != nil {
		h.logger.Warn("list all tickets degraded to empty", "error", err)
		tickets = []model.TrafficTicket{}
	}
	writeJSON(w, r, http.StatusOK, tickets)
}

// HandleUpdateTicketStatus handles PATCH /v1/tickets/{id}/status (admin).
func (h *Handlers) HandleUpdateTicketStatus(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	ticketID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "invalid ticket id")
		return
	}

	var req model.UpdateTicketStatusRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if !model.ValidTicketStatus(req.Status) {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "invalid ticket status")
		return
	}

	ticket, err := h.db.UpdateTicketStatus(r.Context(), ticketID, req, storage.AuditEntry{
		EntityType:  "traffic_ticket",
		EntityID:    ticketID.String(),
		Action:      "status_" + string(req.Status),
		PerformedBy: claims.Subject,
	})
	if err != nil {
		writeStorageError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusOK, ticket)
}

// HandleTicketDiscussions handles GET /v1/tickets/{id}/discussions.
func (h *Handlers) HandleTicketDiscussions(w http.ResponseWriter, r *http.Request) {
	ticketID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "invalid ticket id")
		return
	}
	discussions, err := h.db.ListDiscussionsByTicket(r.Context(), ticketID)
	if err != nil {
		h.logger.Warn("list ticket discussions degraded to empty", "error", err, "ticket_id", ticketID)
		discussions = []model.TicketDiscussion{}
	}
	writeJSON(w, r, http.StatusOK, discussions)
}

// HandleListDiscussions handles GET /v1/discussions (admin).
func (h *Handlers) HandleListDiscussions(w http.ResponseWriter, r *http.Request) {
	discussions, err := h.db.ListDiscussions(r.Context(), queryLimit(r, defaultQueryLimit))
	if err != nil {
		h.logger.Warn("list discussions degraded to empty", "error", err)
		discussions = []model.TicketDiscussion{}
	}
	writeJSON(w, r, http.StatusOK, discussions)
}

// HandleCreateDiscussion handles POST /v1/discussions (admin).
func (h *Handlers) HandleCreateDiscussion(w http.ResponseWriter, r *http.Request) {
	var req model.CreateDiscussionRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	created, err := h.db.InsertDiscussion(r.Context(), model.TicketDiscussion{
		TicketID:         req.TicketID,
		FromAgentID:      req.FromAgentID,
		ToAgentID:        req.ToAgentID,
		Message:          req.Message,
		MessageType:      req.MessageType,
		Priority:         req.Priority,
		RequiresResponse: req.RequiresResponse,
	})
	if err != nil {
		writeStorageError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, created)
}

// HandleListPurchases handles GET /v1/tickets/purchases.
func (h *Handlers) HandleListPurchases(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := userIDFromClaims(w, r)
	if !ok {
		return
	}
	purchases, err := h.db.ListPurchasesByUser(r.Context(), userID)
	if err != nil {
		h.logger.Warn("list purchases degraded to empty", "error", err, "user_id", userID)
		purchases = []model.TicketPurchase{}
	}
	writeJSON(w, r, http.StatusOK, purchases)
}
