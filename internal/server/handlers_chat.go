package server

import (
	"net/http"

	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/model"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/service/knowledge"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/service/tickets"
)

// HandleChatHistory handles GET /v1/chat/ceo.
func (h *Handlers) HandleChatHistory(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := userIDFromClaims(w, r)
	if !ok {
		return
	}
	messages, err := h.db.ListChatHistory(r.Context(), userID, queryLimit(r, defaultQueryLimit))
	if err != nil {
		h.logger.Warn("chat history degraded to empty", "error", err, "user_id", userID)
		messages = []model.ChatMessage{}
	}
	writeJSON(w, r, http.StatusOK, messages)
}

// HandleChatMessage handles POST /v1/chat/ceo. Replies come from the
// addressed management persona (the coordinator by default), grounded in
// that agent's knowledge base. The exchange is persisted as a pair so a
// reply never appears without its prompt.
func (h *Handlers) HandleChatMessage(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := userIDFromClaims(w, r)
	if !ok {
		return
	}

	var req model.ChatRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}
	if !h.knowledgeSvc.CompletionConfigured() {
		writeError(w, r, http.StatusServiceUnavailable, model.ErrCodeDependencyFailed, "completion provider is not configured")
		return
	}

	agentID := req.AgentID
	if agentID == "" {
		agentID = tickets.CoordinatorAgentID
	}
	agent, err := h.db.GetManagementAgent(r.Context(), agentID)
	if err != nil {
		writeStorageError(w, r, h.logger, err)
		return
	}

	// Replay recent history so the persona keeps conversational context.
	// Failure to load history degrades to a fresh conversation.
	var history []model.ChatTurn
	if recent, err := h.db.ListChatHistory(r.Context(), userID, 20); err == nil {
		for _, m := range recent {
			history = append(history, model.ChatTurn{Role: m.Role, Content: m.Message})
		}
	} else {
		h.logger.Warn("chat history unavailable, replying without context", "error", err, "user_id", userID)
	}

	reply, err := h.knowledgeSvc.Respond(r.Context(), knowledge.PersonaForManagementAgent(agent), req.Message, history)
	if err != nil {
		h.logger.Error("chat reply", "error", err, "agent_id", agentID)
		writeError(w, r, http.StatusBadGateway, model.ErrCodeDependencyFailed, "reply generation failed")
		return
	}

	if err := h.db.InsertChatPair(r.Context(), userID, req.Message, reply, agent.ID); err != nil {
		h.logger.Error("persist chat pair", "error", err, "user_id", userID)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "failed to persist chat exchange")
		return
	}
	if err := h.db.TouchManagementAgent(r.Context(), agent.ID); err != nil {
		h.logger.Warn("touch management agent", "error", err, "agent_id", agent.ID)
	}

	writeJSON(w, r, http.StatusOK, model.ChatResponse{
		Reply:   reply,
		AgentID: agent.ID,
	})
}
