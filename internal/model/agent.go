package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Specialization is a legal practice area served by a legal agent.
type Specialization string

const (
	SpecTraffic              Specialization = "TRAFFIC"
	SpecFamily               Specialization = "FAMILY"
	SpecCorporate            Specialization = "CORPORATE"
	SpecCriminal             Specialization = "CRIMINAL"
	SpecBenefits             Specialization = "BENEFITS"
	SpecImmigration          Specialization = "IMMIGRATION"
	SpecRealEstate           Specialization = "REAL_ESTATE"
	SpecEmployment           Specialization = "EMPLOYMENT"
	SpecPersonalInjury       Specialization = "PERSONAL_INJURY"
	SpecIntellectualProperty Specialization = "INTELLECTUAL_PROPERTY"
)

// Specializations lists every recognized practice area.
var Specializations = []Specialization{
	SpecTraffic, SpecFamily, SpecCorporate, SpecCriminal, SpecBenefits,
	SpecImmigration, SpecRealEstate, SpecEmployment, SpecPersonalInjury,
	SpecIntellectualProperty,
}

// ValidSpecialization reports whether s is a recognized practice area.
func ValidSpecialization(s Specialization) bool {
	for _, v := range Specializations {
		if s == v {
			return true
		}
	}
	return false
}

// LegalAgentStatus is the lifecycle state of a legal agent persona.
type LegalAgentStatus string

const (
	AgentActive   LegalAgentStatus = "active"
	AgentInactive LegalAgentStatus = "inactive"
	AgentTraining LegalAgentStatus = "training"
)

// LegalAgent is a client-facing AI attorney persona.
type LegalAgent struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Specialization Specialization   `json:"specialization"`
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	SuccessRate    float64          `json:"success_rate"`
	CasesHandled   int              `json:"cases_handled"`
	Status         LegalAgentStatus `json:"status"`
	Avatar         string           `json:"avatar"`
	State          *string          `json:"state,omitempty"`
	TrainedBy      *string          `json:"trained_by,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// LegalAgentStats are computed directory-level aggregates.
type LegalAgentStats struct {
	TotalAgents         int     `json:"total_agents"`
	ActiveAgents        int     `json:"active_agents"`
	TotalCases          int     `json:"total_cases"`
	AverageSuccessRate  float64 `json:"average_success_rate"`
	ActiveConsultations int     `json:"active_consultations"`
}

// ManagementRole is a seat in the management hierarchy.
type ManagementRole string

const (
	MgmtCEO       ManagementRole = "CEO"
	MgmtCTO       ManagementRole = "CTO"
	MgmtPM        ManagementRole = "PM"
	MgmtMarketing ManagementRole = "MARKETING"
	MgmtBilling   ManagementRole = "BILLING"
	MgmtLegal     ManagementRole = "LEGAL"
)

// ValidManagementRole reports whether r is a recognized management seat.
func ValidManagementRole(r ManagementRole) bool {
	switch r {
	case MgmtCEO, MgmtCTO, MgmtPM, MgmtMarketing, MgmtBilling, MgmtLegal:
		return true
	}
	return false
}

// ManagementAgentStatus is the lifecycle state of a management agent.
type ManagementAgentStatus string

const (
	MgmtActive   ManagementAgentStatus = "active"
	MgmtInactive ManagementAgentStatus = "inactive"
	MgmtPending  ManagementAgentStatus = "pending"
)

// ManagementAgent is an internal executive-suite AI persona.
type ManagementAgent struct {
	ID             string                `json:"id"`
	Name           string                `json:"name"`
	Role           ManagementRole        `json:"role"`
	Title          string                `json:"title"`
	Status         ManagementAgentStatus `json:"status"`
	Avatar         string                `json:"avatar"`
	Description    string                `json:"description"`
	Recommendation *string               `json:"recommendation,omitempty"`
	Education      *string               `json:"education,omitempty"`
	Knowledge      *string               `json:"knowledge,omitempty"`
	Experience     *string               `json:"experience,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	LastSeen       time.Time             `json:"last_seen"`
}

// CreateManagementAgentRequest is the request body for POST /v1/agents/management.
type CreateManagementAgentRequest struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Role           ManagementRole `json:"role"`
	Title          string         `json:"title"`
	Avatar         string         `json:"avatar,omitempty"`
	Description    string         `json:"description,omitempty"`
	Recommendation string         `json:"recommendation,omitempty"`
	Education      string         `json:"education,omitempty"`
	Knowledge      string         `json:"knowledge,omitempty"`
	Experience     string         `json:"experience,omitempty"`
}

// Validate checks required creation fields.
func (r CreateManagementAgentRequest) Validate() error {
	if err := ValidateAgentID(r.ID); err != nil {
		return err
	}
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if r.Title == "" {
		return fmt.Errorf("title is required")
	}
	if !ValidManagementRole(r.Role) {
		return fmt.Errorf("invalid management role %q", r.Role)
	}
	return nil
}

// RegulatoryBoardMember is an oversight-board persona.
type RegulatoryBoardMember struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Position       string    `json:"position"`
	Specialization string    `json:"specialization"`
	Status         string    `json:"status"`
	Avatar         string    `json:"avatar"`
	CreatedAt      time.Time `json:"created_at"`
}

// CommunicationType classifies inter-agent messages.
type CommunicationType string

const (
	CommText     CommunicationType = "text"
	CommVoice    CommunicationType = "voice"
	CommDecision CommunicationType = "decision"
	CommAlert    CommunicationType = "alert"
)

// AgentCommunication is a message between two agent personas.
type AgentCommunication struct {
	ID          uuid.UUID         `json:"id"`
	FromAgentID string            `json:"from_agent_id"`
	ToAgentID   string            `json:"to_agent_id"`
	Message     string            `json:"message"`
	MessageType CommunicationType `json:"message_type"`
	Priority    string            `json:"priority"`
	Status      string            `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
}

// CreateCommunicationRequest posts an inter-agent message to the feed.
type CreateCommunicationRequest struct {
	FromAgentID string            `json:"from_agent_id"`
	ToAgentID   string            `json:"to_agent_id"`
	Message     string            `json:"message"`
	MessageType CommunicationType `json:"message_type"`
	Priority    string            `json:"priority,omitempty"`
}

// Validate checks required fields. MessageType defaults to text and
// priority to medium.
func (r *CreateCommunicationRequest) Validate() error {
	if err := ValidateAgentID(r.FromAgentID); err != nil {
		return fmt.Errorf("from_agent_id: %w", err)
	}
	if err := ValidateAgentID(r.ToAgentID); err != nil {
		return fmt.Errorf("to_agent_id: %w", err)
	}
	if strings.TrimSpace(r.Message) == "" {
		return fmt.Errorf("message is required")
	}
	if r.MessageType == "" {
		r.MessageType = CommText
	}
	switch r.MessageType {
	case CommText, CommVoice, CommDecision, CommAlert:
	default:
		return fmt.Errorf("invalid message_type %q", r.MessageType)
	}
	if r.Priority == "" {
		r.Priority = "medium"
	}
	return nil
}

// ValidateAgentID checks that an agent ID conforms to the allowed format.
// Agent IDs are 1-64 ASCII characters: alphanumeric, hyphens, and
// underscores (e.g. TRAFFIC-DUI-001, SIGMA-1, agent_traffic_sarah).
func ValidateAgentID(id string) error {
	if len(id) == 0 {
		return fmt.Errorf("agent id is required")
	}
	if len(id) > 64 {
		return fmt.Errorf("agent id must be at most 64 characters")
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') && (c < '0' || c > '9') &&
			c != '-' && c != '_' {
			return fmt.Errorf("agent id contains invalid character at position %d: %q", i, c)
		}
	}
	return nil
}
