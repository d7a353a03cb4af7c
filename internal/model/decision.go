package model

import (
	"fmt"
	"time"
)

// DecisionStatus is the lifecycle state of an agent decision.
// Decisions are terminal once approved or rejected.
type DecisionStatus string

const (
	DecisionPending     DecisionStatus = "pending"
	DecisionApproved    DecisionStatus = "approved"
	DecisionRejected    DecisionStatus = "rejected"
	DecisionImplemented DecisionStatus = "implemented"
)

// Resolved reports whether the status is past the pending stage.
func (s DecisionStatus) Resolved() bool {
	return s != DecisionPending
}

// DecisionPriority orders decisions in review queues.
type DecisionPriority string

const (
	PriorityLow      DecisionPriority = "low"
	PriorityMedium   DecisionPriority = "medium"
	PriorityHigh     DecisionPriority = "high"
	PriorityCritical DecisionPriority = "critical"
)

// ValidDecisionPriority reports whether p is a recognized priority.
func ValidDecisionPriority(p DecisionPriority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// AgentDecision is a proposal raised by an agent persona for human review.
type AgentDecision struct {
	ID                         string           `json:"id"`
	AgentID                    string           `json:"agent_id"`
	Decision                   string           `json:"decision"`
	Description                string           `json:"description"`
	Recommendation             *string          `json:"recommendation,omitempty"`
	Status                     DecisionStatus   `json:"status"`
	Priority                   DecisionPriority `json:"priority"`
	RequiresRegulatoryApproval bool             `json:"requires_regulatory_approval"`
	RegulatoryStatus           *string          `json:"regulatory_status,omitempty"`
	ApprovedBy                 *string          `json:"approved_by,omitempty"`
	ApprovedAt                 *time.Time       `json:"approved_at,omitempty"`
	CreatedAt                  time.Time        `json:"created_at"`
	UpdatedAt                  time.Time        `json:"updated_at"`
}

// CreateDecisionRequest is the request body for POST /v1/decisions.
type CreateDecisionRequest struct {
	ID                         string           `json:"id"`
	AgentID                    string           `json:"agent_id"`
	Decision                   string           `json:"decision"`
	Description                string           `json:"description,omitempty"`
	Recommendation             string           `json:"recommendation,omitempty"`
	Priority                   DecisionPriority `json:"priority,omitempty"`
	RequiresRegulatoryApproval bool             `json:"requires_regulatory_approval,omitempty"`
}

// Validate checks required decision fields. Priority defaults to medium.
func (r *CreateDecisionRequest) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("id is required")
	}
	if err := ValidateAgentID(r.AgentID); err != nil {
		return err
	}
	if r.Decision == "" {
		return fmt.Errorf("decision is required")
	}
	if r.Priority == "" {
		r.Priority = PriorityMedium
	}
	if !ValidDecisionPriority(r.Priority) {
		return fmt.Errorf("invalid priority %q", r.Priority)
	}
	return nil
}
