package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ConsultationStatus is the lifecycle state of a consultation session.
type ConsultationStatus string

const (
	ConsultScheduled  ConsultationStatus = "scheduled"
	ConsultInProgress ConsultationStatus = "in_progress"
	ConsultCompleted  ConsultationStatus = "completed"
	ConsultCancelled  ConsultationStatus = "cancelled"
)

// ValidConsultationStatus reports whether s is a recognized state.
func ValidConsultationStatus(s ConsultationStatus) bool {
	switch s {
	case ConsultScheduled, ConsultInProgress, ConsultCompleted, ConsultCancelled:
		return true
	}
	return false
}

// Consultation is a session between a user and a legal agent persona.
type Consultation struct {
	ID           string             `json:"id"`
	UserID       uuid.UUID          `json:"user_id"`
	LegalAgentID string             `json:"legal_agent_id"`
	CaseType     string             `json:"case_type"`
	Status       ConsultationStatus `json:"status"`
	Transcript   *string            `json:"transcript,omitempty"`
	DurationSecs *int               `json:"duration_secs,omitempty"`
	Rating       *int               `json:"rating,omitempty"`
	Feedback     *string            `json:"feedback,omitempty"`
	ScheduledAt  time.Time          `json:"scheduled_at"`
	CompletedAt  *time.Time         `json:"completed_at,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}

// CreateConsultationRequest is the request body for POST /v1/consultations.
type CreateConsultationRequest struct {
	AgentID  string `json:"agent_id"`
	CaseType string `json:"case_type"`
}

// Validate checks required consultation fields.
func (r CreateConsultationRequest) Validate() error {
	if err := ValidateAgentID(r.AgentID); err != nil {
		return fmt.Errorf("agent_id: %w", err)
	}
	if r.CaseType == "" {
		return fmt.Errorf("case_type is required")
	}
	return nil
}

// ConsultationMessageRequest is one turn of a consultation conversation.
type ConsultationMessageRequest struct {
	Message string     `json:"message"`
	History []ChatTurn `json:"history,omitempty"`
}

// ConsultationMessageResponse is the agent's reply.
type ConsultationMessageResponse struct {
	Reply   string `json:"reply"`
	AgentID string `json:"agent_id"`
}
