package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ViolationType classifies a traffic citation.
type ViolationType string

const (
	ViolationSpeeding        ViolationType = "SPEEDING"
	ViolationRedLight        ViolationType = "RED_LIGHT"
	ViolationStopSign        ViolationType = "STOP_SIGN"
	ViolationParking         ViolationType = "PARKING"
	ViolationCarelessDriving ViolationType = "CARELESS_DRIVING"
	ViolationRecklessDriving ViolationType = "RECKLESS_DRIVING"
	ViolationDUIDWI          ViolationType = "DUI_DWI"
	ViolationLicenseIssue    ViolationType = "LICENSE_ISSUE"
	ViolationRegistration    ViolationType = "REGISTRATION_ISSUE"
	ViolationOther           ViolationType = "OTHER"
)

// ValidViolationType reports whether v is a recognized violation.
func ValidViolationType(v ViolationType) bool {
	switch v {
	case ViolationSpeeding, ViolationRedLight, ViolationStopSign,
		ViolationParking, ViolationCarelessDriving, ViolationRecklessDriving,
		ViolationDUIDWI, ViolationLicenseIssue, ViolationRegistration,
		ViolationOther:
		return true
	}
	return false
}

// TicketStatus is the workflow state of a traffic ticket case.
type TicketStatus string

const (
	TicketSubmitted     TicketStatus = "submitted"
	TicketUnderReview   TicketStatus = "under_review"
	TicketStrategyReady TicketStatus = "strategy_ready"
	TicketInProgress    TicketStatus = "in_progress"
	TicketResolved      TicketStatus = "resolved"
	TicketClosed        TicketStatus = "closed"
)

// ValidTicketStatus reports whether s is a recognized workflow state.
func ValidTicketStatus(s TicketStatus) bool {
	switch s {
	case TicketSubmitted, TicketUnderReview, TicketStrategyReady,
		TicketInProgress, TicketResolved, TicketClosed:
		return true
	}
	return false
}

// Terminal reports whether the ticket has reached a final state.
func (s TicketStatus) Terminal() bool {
	return s == TicketResolved || s == TicketClosed
}

// TrafficTicket is a citation submitted for specialist handling. Submission
// consumes exactly one ticket credit.
type TrafficTicket struct {
	ID               uuid.UUID     `json:"id"`
	ConsultationID   *string       `json:"consultation_id,omitempty"`
	UserID           uuid.UUID     `json:"user_id"`
	TicketNumber     string        `json:"ticket_number"`
	ViolationType    ViolationType `json:"violation_type"`
	IssueDate        time.Time     `json:"issue_date"`
	Location         string        `json:"location"`
	FineAmountCents  int           `json:"fine_amount_cents"`
	CourtDate        *time.Time    `json:"court_date,omitempty"`
	OfficerName      *string       `json:"officer_name,omitempty"`
	Description      string        `json:"description"`
	PhotoURL         *string       `json:"photo_url,omitempty"`
	Status           TicketStatus  `json:"status"`
	AssignedAgentID  *string       `json:"assigned_agent_id,omitempty"`
	StrategyDocument *string       `json:"strategy_document,omitempty"`
	Outcome          *string       `json:"outcome,omitempty"`
	SavingsCents     *int          `json:"savings_cents,omitempty"`
	ResolvedAt       *time.Time    `json:"resolved_at,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// Minimum field lengths for ticket submissions.
const (
	MinTicketLocationLen    = 5
	MinTicketDescriptionLen = 20
)

// SubmitTicketRequest is the request body for POST /v1/tickets.
type SubmitTicketRequest struct {
	TicketNumber    string        `json:"ticket_number"`
	ViolationType   ViolationType `json:"violation_type"`
	IssueDate       time.Time     `json:"issue_date"`
	Location        string        `json:"location"`
	FineAmountCents int           `json:"fine_amount_cents"`
	CourtDate       *time.Time    `json:"court_date,omitempty"`
	OfficerName     string        `json:"officer_name,omitempty"`
	Description     string        `json:"description"`
	PhotoURL        string        `json:"photo_url,omitempty"`
	ConsultationID  string        `json:"consultation_id,omitempty"`
}

// Validate checks submission fields against the intake requirements.
func (r SubmitTicketRequest) Validate() error {
	if strings.TrimSpace(r.TicketNumber) == "" {
		return fmt.Errorf("ticket_number is required")
	}
	if !ValidViolationType(r.ViolationType) {
		return fmt.Errorf("invalid violation_type %q", r.ViolationType)
	}
	if r.IssueDate.IsZero() {
		return fmt.Errorf("issue_date is required")
	}
	if len(strings.TrimSpace(r.Location)) < MinTicketLocationLen {
		return fmt.Errorf("location must be at least %d characters", MinTicketLocationLen)
	}
	if len(strings.TrimSpace(r.Description)) < MinTicketDescriptionLen {
		return fmt.Errorf("description must be at least %d characters", MinTicketDescriptionLen)
	}
	if r.FineAmountCents <= 0 {
		return fmt.Errorf("fine_amount_cents must be positive")
	}
	return nil
}

// UpdateTicketStatusRequest is the request body for PATCH /v1/tickets/{id}/status.
type UpdateTicketStatusRequest struct {
	Status           TicketStatus `json:"status"`
	StrategyDocument string       `json:"strategy_document,omitempty"`
	Outcome          string       `json:"outcome,omitempty"`
	SavingsCents     *int         `json:"savings_cents,omitempty"`
}

// DiscussionType classifies a ticket workroom message.
type DiscussionType string

const (
	DiscussionAssignment      DiscussionType = "assignment"
	DiscussionStrategy        DiscussionType = "strategy_discussion"
	DiscussionStatusUpdate    DiscussionType = "status_update"
	DiscussionApprovalRequest DiscussionType = "approval_request"
	DiscussionResolution      DiscussionType = "resolution"
	DiscussionEscalation      DiscussionType = "escalation"
)

// ValidDiscussionType reports whether t is a recognized message type.
func ValidDiscussionType(t DiscussionType) bool {
	switch t {
	case DiscussionAssignment, DiscussionStrategy, DiscussionStatusUpdate,
		DiscussionApprovalRequest, DiscussionResolution, DiscussionEscalation:
		return true
	}
	return false
}

// DiscussionPriority orders workroom messages.
type DiscussionPriority string

const (
	DiscussionLow    DiscussionPriority = "low"
	DiscussionMedium DiscussionPriority = "medium"
	DiscussionHigh   DiscussionPriority = "high"
	DiscussionUrgent DiscussionPriority = "urgent"
)

// ValidDiscussionPriority reports whether p is a recognized priority.
func ValidDiscussionPriority(p DiscussionPriority) bool {
	switch p {
	case DiscussionLow, DiscussionMedium, DiscussionHigh, DiscussionUrgent:
		return true
	}
	return false
}

// TicketDiscussion is an inter-agent message attached to a ticket case.
type TicketDiscussion struct {
	ID               uuid.UUID          `json:"id"`
	TicketID         uuid.UUID          `json:"ticket_id"`
	FromAgentID      string             `json:"from_agent_id"`
	ToAgentID        string             `json:"to_agent_id"`
	Message          string             `json:"message"`
	MessageType      DiscussionType     `json:"message_type"`
	Priority         DiscussionPriority `json:"priority"`
	RequiresResponse bool               `json:"requires_response"`
	CreatedAt        time.Time          `json:"created_at"`
}

// CreateDiscussionRequest is the request body for POST /v1/discussions.
type CreateDiscussionRequest struct {
	TicketID         uuid.UUID          `json:"ticket_id"`
	FromAgentID      string             `json:"from_agent_id"`
	ToAgentID        string             `json:"to_agent_id"`
	Message          string             `json:"message"`
	MessageType      DiscussionType     `json:"message_type"`
	Priority         DiscussionPriority `json:"priority,omitempty"`
	RequiresResponse bool               `json:"requires_response,omitempty"`
}

// Validate checks required discussion fields. Priority defaults to medium.
func (r *CreateDiscussionRequest) Validate() error {
	if r.TicketID == uuid.Nil {
		return fmt.Errorf("ticket_id is required")
	}
	if err := ValidateAgentID(r.FromAgentID); err != nil {
		return fmt.Errorf("from_agent_id: %w", err)
	}
	if err := ValidateAgentID(r.ToAgentID); err != nil {
		return fmt.Errorf("to_agent_id: %w", err)
	}
	if strings.TrimSpace(r.Message) == "" {
		return fmt.Errorf("message is required")
	}
	if !ValidDiscussionType(r.MessageType) {
		return fmt.Errorf("invalid message_type %q", r.MessageType)
	}
	if r.Priority == "" {
		r.Priority = DiscussionMedium
	}
	if !ValidDiscussionPriority(r.Priority) {
		return fmt.Errorf("invalid priority %q", r.Priority)
	}
	return nil
}

// TicketCredits is a user's prepaid submission balance.
type TicketCredits struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	Balance        int       `json:"balance"`
	TotalPurchased int       `json:"total_purchased"`
	TotalUsed      int       `json:"total_used"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PurchaseStatus is the payment state of a credit purchase.
type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "pending"
	PurchaseCompleted PurchaseStatus = "completed"
	PurchaseFailed    PurchaseStatus = "failed"
	PurchaseRefunded  PurchaseStatus = "refunded"
)

// TicketPurchase records a credit pack checkout.
type TicketPurchase struct {
	ID              string         `json:"id"`
	UserID          uuid.UUID      `json:"user_id"`
	Credits         int            `json:"credits"`
	AmountCents     int            `json:"amount_cents"`
	StripeSessionID *string        `json:"stripe_session_id,omitempty"`
	StripePaymentID *string        `json:"stripe_payment_id,omitempty"`
	Status          PurchaseStatus `json:"status"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}
