package server

import (
	"net/http"

	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/model"
)

// HandleListMetrics handles GET /v1/metrics?category=&limit=.
func (h *Handlers) HandleListMetrics(w http.ResponseWriter, r *http.Request) {
	category := model.MetricCategory(r.URL.Query().Get("category"))
	if category != "" && !model.ValidMetricCategory(category) {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "invalid metric category")
		return
	}

	metrics, err := h.db.ListMetrics(r.Context(), category, queryLimit(r, defaultQueryLimit))
	if err != nil {
		h.logger.Warn("list metrics degraded to empty", "error", err)
		metrics = []model.BusinessMetric{}
	}
	writeJSON(w, r, http.StatusOK, metrics)
}

// HandleRecordMetric handles POST /v1/metrics (admin).
func (h *Handlers) HandleRecordMetric(w http.ResponseWriter, r *http.Request) {
	var req model.RecordMetricRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	metric, err := h.db.RecordMetric(r.Context(), model.BusinessMetric{
		MetricName: req.MetricName,
		Value:      req.Value,
		Category:   req.Category,
	})
	if err != nil {
		writeStorageError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, metric)
}

// HandleListAuditLogs handles GET /v1/audit?entity_id=&limit= (admin).
func (h *Handlers) HandleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.db.ListAuditLogs(r.Context(), r.URL.Query().Get("entity_id"), queryLimit(r, defaultQueryLimit))
	if err != nil {
		writeStorageError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusOK, logs)
}
