package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MetricCategory groups business metrics for dashboard queries.
type MetricCategory string

const (
	MetricRevenue       MetricCategory = "revenue"
	MetricUsers         MetricCategory = "users"
	MetricAgents        MetricCategory = "agents"
	MetricConsultations MetricCategory = "consultations"
	MetricSatisfaction  MetricCategory = "satisfaction"
)

// ValidMetricCategory reports whether c is a recognized category.
func ValidMetricCategory(c MetricCategory) bool {
	switch c {
	case MetricRevenue, MetricUsers, MetricAgents, MetricConsultations,
		MetricSatisfaction:
		return true
	}
	return false
}

// BusinessMetric is one recorded dashboard data point.
type BusinessMetric struct {
	ID         uuid.UUID      `json:"id"`
	MetricName string         `json:"metric_name"`
	Value      float64        `json:"value"`
	Category   MetricCategory `json:"category"`
	RecordedAt time.Time      `json:"recorded_at"`
}

// RecordMetricRequest is the request body for POST /v1/metrics.
type RecordMetricRequest struct {
	MetricName string         `json:"metric_name"`
	Value      float64        `json:"value"`
	Category   MetricCategory `json:"category"`
}

// Validate checks required metric fields.
func (r RecordMetricRequest) Validate() error {
	if r.MetricName == "" {
		return fmt.Errorf("metric_name is required")
	}
	if !ValidMetricCategory(r.Category) {
		return fmt.Errorf("invalid category %q", r.Category)
	}
	return nil
}

// AuditLog is an append-only record of a state-changing operation.
type AuditLog struct {
	ID          uuid.UUID `json:"id"`
	EntityType  string    `json:"entity_type"`
	EntityID    string    `json:"entity_id"`
	Action      string    `json:"action"`
	PerformedBy string    `json:"performed_by"`
	Details     *string   `json:"details,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
