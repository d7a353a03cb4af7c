package server

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/model"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/service/knowledge"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/storage"
)

// HandleCreateConsultation handles POST /v1/consultations.
func (h *Handlers) HandleCreateConsultation(w http.ResponseWriter, r *http.Request) {
	userID, claims, ok := userIDFromClaims(w, r)
	if !ok {
		return
	}

	var req model.CreateConsultationRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	// The agent must exist before a session is booked against it.
	if _, err := h.db.GetLegalAgent(r.Context(), req.AgentID); err != nil {
		writeStorageError(w, r, h.logger, err)
		return
	}

	created, err := h.db.CreateConsultation(r.Context(), model.Consultation{
		ID:           "cons_" + uuid.NewString(),
		UserID:       userID,
		LegalAgentID: req.AgentID,
		CaseType:     req.CaseType,
		Status:       model.ConsultScheduled,
	}, storage.AuditEntry{
		EntityType:  "consultation",
		Action:      "created",
		PerformedBy: claims.Subject,
	})
	if err != nil {
		writeStorageError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, created)
}

// HandleListConsultations handles GET /v1/consultations (own only).
func (h *Handlers) HandleListConsultations(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := userIDFromClaims(w, r)
	if !ok {
		return
	}
	consultations, err := h.db.ListConsultationsByUser(r.Context(), userID)
	if err != nil {
		h.logger.Warn("list consultations degraded to empty", "error", err, "user_id", userID)
		consultations = []model.Consultation{}
	}
	writeJSON(w, r, http.StatusOK, consultations)
}

// getOwnedConsultation loads a consultation and enforces owner-or-admin
// access. Returns false when the response has been written.
func (h *Handlers) getOwnedConsultation(w http.ResponseWriter, r *http.Request) (model.Consultation, bool) {
	userID, claims, ok := userIDFromClaims(w, r)
	if !ok {
		return model.Consultation{}, false
	}

	c, err := h.db.GetConsultation(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStorageError(w, r, h.logger, err)
		return model.Consultation{}, false
	}
	if c.UserID != userID && claims.Role != model.RoleAdmin {
		writeError(w, r, http.StatusForbidden, model.ErrCodeForbidden, "not your consultation")
		return model.Consultation{}, false
	}
	return c, true
}

// HandleGetConsultation handles GET /v1/consultations/{id}.
func (h *Handlers) HandleGetConsultation(w http.ResponseWriter, r *http.Request) {
	c, ok := h.getOwnedConsultation(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, c)
}

// HandleConsultationMessage handles POST /v1/consultations/{id}/messages.
// The reply is generated against the consulting agent's persona and
// knowledge base. Provider failures surface as DEPENDENCY_FAILED; there is
// no canned fallback reply.
func (h *Handlers) HandleConsultationMessage(w http.ResponseWriter, r *http.Request) {
	c, ok := h.getOwnedConsultation(w, r)
	if !ok {
		return
	}

	var req model.ConsultationMessageRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if req.Message == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "message is required")
		return
	}
	if !h.knowledgeSvc.CompletionConfigured() {
		writeError(w, r, http.StatusServiceUnavailable, model.ErrCodeDependencyFailed, "completion provider is not configured")
		return
	}

	agent, err := h.db.GetLegalAgent(r.Context(), c.LegalAgentID)
	if err != nil {
		writeStorageError(w, r, h.logger, err)
		return
	}

	reply, err := h.knowledgeSvc.Respond(r.Context(), knowledge.PersonaForLegalAgent(agent), req.Message, req.History)
	if err != nil {
		h.logger.Error("consultation reply", "error", err, "consultation_id", c.ID)
		writeError(w, r, http.StatusBadGateway, model.ErrCodeDependencyFailed, "reply generation failed")
		return
	}

	writeJSON(w, r, http.StatusOK, model.ConsultationMessageResponse{
		Reply:   reply,
		AgentID: agent.ID,
	})
}

// HandleUpdateConsultation handles PATCH /v1/consultations/{id}.
func (h *Handlers) HandleUpdateConsultation(w http.ResponseWriter, r *http.Request) {
	c, ok := h.getOwnedConsultation(w, r)
	if !ok {
		return
	}

	var req struct {
		Status       model.ConsultationStatus `json:"status"`
		Transcript   string                   `json:"transcript,omitempty"`
		DurationSecs *int                     `json:"duration_secs,omitempty"`
	}
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if !model.ValidConsultationStatus(req.Status) {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "invalid consultation status")
		return
	}

	updated, err := h.db.UpdateConsultationStatus(r.Context(), c.ID, req.Status, req.Transcript, req.DurationSecs)
	if err != nil {
		writeStorageError(w, r, h.logger, err)
		return
	}

	// A completed session counts toward the agent's track record.
	if req.Status == model.ConsultCompleted && c.Status != model.ConsultCompleted {
		if err := h.db.IncrementAgentCaseload(r.Context(), c.LegalAgentID); err != nil {
			h.logger.Warn("increment agent caseload", "error", err, "agent_id", c.LegalAgentID)
		}
	}

	writeJSON(w, r, http.StatusOK, updated)
}

// HandleRateConsultation handles POST /v1/consultations/{id}/rate.
func (h *Handlers) HandleRateConsultation(w http.ResponseWriter, r *http.Request) {
	c, ok := h.getOwnedConsultation(w, r)
	if !ok {
		return
	}

	var req struct {
		Rating   int    `json:"rating"`
		Feedback string `json:"feedback,omitempty"`
	}
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "rating must be between 1 and 5")
		return
	}

	rated, err := h.db.RateConsultation(r.Context(), c.ID, req.Rating, req.Feedback)
	if err != nil {
		writeStorageError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rated)
}
