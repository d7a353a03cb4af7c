package server

import (
	"net/http"

	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/model"
)

// HandleListKnowledge handles GET /v1/knowledge/{agent_id}.
func (h *Handlers) HandleListKnowledge(w http.ResponseWriter, r *http.Request) {
	agentID := r.PathValue("agent_id")
	docs, err := h.db.ListKnowledgeByAgent(r.Context(), agentID)
	if err != nil {
		h.logger.Warn("list knowledge degraded to empty", "error", err, "agent_id", agentID)
		docs = []model.KnowledgeDocument{}
	}
	writeJSON(w, r, http.StatusOK, docs)
}

// HandleAddKnowledge handles POST /v1/knowledge/{agent_id}.
func (h *Handlers) HandleAddKnowledge(w http.ResponseWriter, r *http.Request) {
	agentID := r.PathValue("agent_id")
	if err := model.ValidateAgentID(agentID); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	var req model.AddKnowledgeRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	doc, err := h.knowledgeSvc.Index(r.Context(), agentID, req)
	if err != nil {
		writeStorageError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, doc)
}

// HandleDeleteKnowledge handles DELETE /v1/knowledge/{agent_id}/{doc_id}.
// The document must belong to the agent in the path; a mismatch is
// indistinguishable from a missing document.
func (h *Handlers) HandleDeleteKnowledge(w http.ResponseWriter, r *http.Request) {
	agentID := r.PathValue("agent_id")
	docID := r.PathValue("doc_id")

	doc, err := h.db.GetKnowledgeDocument(r.Context(), docID)
	if err != nil {
		writeStorageError(w, r, h.logger, err)
		return
	}
	if doc.AgentID != agentID {
		writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "resource not found")
		return
	}

	if err := h.knowledgeSvc.Delete(r.Context(), docID); err != nil {
		writeStorageError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"deleted": docID})
}

// HandleKnowledgeContext handles GET /v1/knowledge/{agent_id}/context.
func (h *Handlers) HandleKnowledgeContext(w http.ResponseWriter, r *http.Request) {
	context, err := h.knowledgeSvc.ContextForAgent(r.Context(), r.PathValue("agent_id"))
	if err != nil {
		writeStorageError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"context": context})
}

// HandleSearchKnowledge handles POST /v1/knowledge/{agent_id}/search.
func (h *Handlers) HandleSearchKnowledge(w http.ResponseWriter, r *http.Request) {
	agentID := r.PathValue("agent_id")

	var req model.KnowledgeSearchRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if req.Query == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "query is required")
		return
	}

	results, err := h.knowledgeSvc.Retrieve(r.Context(), agentID, req.Query, req.TopK)
	if err != nil {
		h.logger.Error("knowledge search", "error", err, "agent_id", agentID)
		writeError(w, r, http.StatusBadGateway, model.ErrCodeDependencyFailed, "knowledge retrieval failed")
		return
	}
	writeJSON(w, r, http.StatusOK, results)
}
