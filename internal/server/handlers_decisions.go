package server

import (
	"net/http"

	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/model"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/storage"
)

// HandleListPendingDecisions handles GET /v1/decisions/pending.
func (h *Handlers) HandleListPendingDecisions(w http.ResponseWriter, r *http.Request) {
	decisions, err := h.db.ListPendingDecisions(r.Context(), queryLimit(r, defaultQueryLimit))
	if err != nil {
		h.logger.Warn("list pending decisions degraded to empty", "error", err)
		decisions = []model.AgentDecision{}
	}
	writeJSON(w, r, http.StatusOK, decisions)
}

// HandleListDecisions handles GET /v1/decisions?agent_id=.
func (h *Handlers) HandleListDecisions(w http.ResponseWriter, r *http.Request) {
	agentID := r.URL.Query().Get("agent_id")
	if agentID == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "agent_id query parameter is required")
		return
	}
	decisions, err := h.db.ListDecisionsByAgent(r.Context(), agentID, queryLimit(r, defaultQueryLimit))
	if err != nil {
		h.logger.Warn("list decisions degraded to empty", "error", err, "agent_id", agentID)
		decisions = []model.AgentDecision{}
	}
	writeJSON(w, r, http.StatusOK, decisions)
}

// HandleCreateDecision handles POST /v1/decisions.
func (h *Handlers) HandleCreateDecision(w http.ResponseWriter, r *http.Request) {
	var req model.CreateDecisionRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	decision := model.AgentDecision{
		ID:                         req.ID,
		AgentID:                    req.AgentID,
		Decision:                   req.Decision,
		Description:                req.Description,
		Status:                     model.DecisionPending,
		Priority:                   req.Priority,
		RequiresRegulatoryApproval: req.RequiresRegulatoryApproval,
	}
	if req.Recommendation != "" {
		decision.Recommendation = &req.Recommendation
	}

	created, err := h.db.CreateDecision(r.Context(), decision)
	if err != nil {
		writeStorageError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, created)
}

// HandleApproveDecision handles POST /v1/decisions/{id}/approve.
func (h *Handlers) HandleApproveDecision(w http.ResponseWriter, r *http.Request) {
	h.resolveDecision(w, r, model.DecisionApproved)
}

// HandleRejectDecision handles POST /v1/decisions/{id}/reject.
func (h *Handlers) HandleRejectDecision(w http.ResponseWriter, r *http.Request) {
	h.resolveDecision(w, r, model.DecisionRejected)
}

// resolveDecision transitions a pending decision to its terminal status.
// Re-resolving returns CONFLICT; the stored resolution is never overwritten.
func (h *Handlers) resolveDecision(w http.ResponseWriter, r *http.Request, status model.DecisionStatus) {
	claims := ClaimsFromContext(r.Context())
	id := r.PathValue("id")

	resolved, err := h.db.ResolveDecision(r.Context(), id, status, claims.Subject, storage.AuditEntry{
		EntityType:  "agent_decision",
		Action:      "decision_" + string(status),
		PerformedBy: claims.Subject,
	})
	if err != nil {
		writeStorageError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resolved)
}
