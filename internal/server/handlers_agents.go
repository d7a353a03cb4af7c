package server

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/model"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/storage"
)

// HandleListLegalAgents handles GET /v1/agents/legal.
// Without a specialization filter the directory lists active agents by
// caseload; with one it ranks the practice area by success rate. Directory
// reads degrade to an empty list if storage is down.
func (h *Handlers) HandleListLegalAgents(w http.ResponseWriter, r *http.Request) {
	var (
		agents []model.LegalAgent
		err    error
	)
	if raw := r.URL.Query().Get("specialization"); raw != "" {
		spec := model.Specialization(raw)
		if !model.ValidSpecialization(spec) {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "invalid specialization")
			return
		}
		agents, err = h.db.ListLegalAgentsBySpecialization(r.Context(), spec)
	} else {
		agents, err = h.db.ListLegalAgents(r.Context())
	}
	if err != nil {
		h.logger.Warn("list legal agents degraded to empty", "error", err)
		agents = []model.LegalAgent{}
	}
	writeJSON(w, r, http.StatusOK, agents)
}

// HandleLegalAgentStats handles GET /v1/agents/legal/stats.
func (h *Handlers) HandleLegalAgentStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.LegalAgentStats(r.Context())
	if err != nil {
		h.logger.Warn("legal agent stats degraded to zero values", "error", err)
		stats = model.LegalAgentStats{}
	}
	writeJSON(w, r, http.StatusOK, stats)
}

// HandleGetLegalAgent handles GET /v1/agents/legal/{agent_id}.
func (h *Handlers) HandleGetLegalAgent(w http.ResponseWriter, r *http.Request) {
	agent, err := h.db.GetLegalAgent(r.Context(), r.PathValue("agent_id"))
	if err != nil {
		writeStorageError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusOK, agent)
}

// HandleListManagementAgents handles GET /v1/agents/management.
func (h *Handlers) HandleListManagementAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := h.db.ListManagementAgents(r.Context())
	if err != nil {
		h.logger.Warn("list management agents degraded to empty", "error", err)
		agents = []model.ManagementAgent{}
	}
	writeJSON(w, r, http.StatusOK, agents)
}

// HandleGetManagementAgent handles GET /v1/agents/management/{agent_id}.
func (h *Handlers) HandleGetManagementAgent(w http.ResponseWriter, r *http.Request) {
	agent, err := h.db.GetManagementAgent(r.Context(), r.PathValue("agent_id"))
	if err != nil {
		writeStorageError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusOK, agent)
}

// HandleCreateManagementAgent handles POST /v1/agents/management.
// The new seat is created pending, with an initialization decision that must
// be approved on the SIGMA dashboard before the persona goes active.
func (h *Handlers) HandleCreateManagementAgent(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	var req model.CreateManagementAgentRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	agent := model.ManagementAgent{
		ID:          req.ID,
		Name:        req.Name,
		Role:        req.Role,
		Title:       req.Title,
		Avatar:      req.Avatar,
		Description: req.Description,
	}
	if req.Recommendation != "" {
		agent.Recommendation = &req.Recommendation
	}
	if req.Education != "" {
		agent.Education = &req.Education
	}
	if req.Knowledge != "" {
		agent.Knowledge = &req.Knowledge
	}
	if req.Experience != "" {
		agent.Experience = &req.Experience
	}

	decision := model.AgentDecision{
		ID:          "dec_" + uuid.NewString(),
		AgentID:     req.ID,
		Decision:    "Initialize management agent " + req.Name,
		Description: "Approve activation of the new " + string(req.Role) + " seat.",
		Status:      model.DecisionPending,
		Priority:    model.PriorityHigh,
	}

	created, err := h.db.CreateManagementAgent(r.Context(), agent, decision, storage.AuditEntry{
		EntityType:  "management_agent",
		Action:      "created",
		PerformedBy: claims.Subject,
	})
	if err != nil {
		writeStorageError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, created)
}

// HandleListBoard handles GET /v1/board.
func (h *Handlers) HandleListBoard(w http.ResponseWriter, r *http.Request) {
	members, err := h.db.ListRegulatoryBoard(r.Context())
	if err != nil {
		h.logger.Warn("list regulatory board degraded to empty", "error", err)
		members = []model.RegulatoryBoardMember{}
	}
	writeJSON(w, r, http.StatusOK, members)
}

// HandleListCommunications handles GET /v1/communications.
func (h *Handlers) HandleListCommunications(w http.ResponseWriter, r *http.Request) {
	comms, err := h.db.ListCommunications(r.Context(), queryLimit(r, defaultQueryLimit))
	if err != nil {
		h.logger.Warn("list communications degraded to empty", "error", err)
		comms = []model.AgentCommunication{}
	}
	writeJSON(w, r, http.StatusOK, comms)
}

// HandleCreateCommunication handles POST /v1/communications.
func (h *Handlers) HandleCreateCommunication(w http.ResponseWriter, r *http.Request) {
	var req model.CreateCommunicationRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	created, err := h.db.InsertCommunication(r.Context(), model.AgentCommunication{
		FromAgentID: req.FromAgentID,
		ToAgentID:   req.ToAgentID,
		Message:     req.Message,
		MessageType: req.MessageType,
		Priority:    req.Priority,
		Status:      "sent",
	})
	if err != nil {
		writeStorageError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, created)
}
