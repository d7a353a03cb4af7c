// Package tickets provides the intake workflow for traffic ticket submissions:
// credit consumption, specialist routing, and workroom notifications.
package tickets

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/model"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/storage"
)

// SystemAgentID is the sender for platform-generated workroom messages.
const SystemAgentID = "SYSTEM"

// CoordinatorAgentID receives the intake notification for every new ticket.
const CoordinatorAgentID = "SIGMA-1"

// FallbackAgentID handles violations with no dedicated specialist.
const FallbackAgentID = "agent_traffic_sarah"

// specialistByViolation routes each violation type to its specialist persona.
var specialistByViolation = map[model.ViolationType]string{
	model.ViolationSpeeding:        "TRAFFIC-SPEED-001",
	model.ViolationRedLight:        "TRAFFIC-SIGNAL-001",
	model.ViolationStopSign:        "TRAFFIC-SIGNAL-001",
	model.ViolationParking:         "TRAFFIC-PARKING-001",
	model.ViolationCarelessDriving: "TRAFFIC-RECKLESS-001",
	model.ViolationRecklessDriving: "TRAFFIC-RECKLESS-001",
	model.ViolationDUIDWI:          "TRAFFIC-DUI-001",
	model.ViolationLicenseIssue:    "TRAFFIC-LICENSE-001",
	model.ViolationRegistration:    "TRAFFIC-LICENSE-001",
}

// AssignedAgent returns the specialist persona for a violation type.
// Routing is deterministic so resubmissions and retries land on the same desk.
func AssignedAgent(v model.ViolationType) string {
	if id, ok := specialistByViolation[v]; ok {
		return id
	}
	return FallbackAgentID
}

// IntakePriority returns the workroom priority for a violation type.
// DUI and reckless driving carry court deadlines measured in days, so they
// escalate to urgent; everything else opens at high.
func IntakePriority(v model.ViolationType) model.DiscussionPriority {
	if v == model.ViolationDUIDWI || v == model.ViolationRecklessDriving {
		return model.DiscussionUrgent
	}
	return model.DiscussionHigh
}

// Service coordinates ticket intake across storage and the agent workroom.
type Service struct {
	db     *storage.DB
	logger *slog.Logger
}

// New creates a ticket intake Service.
func New(db *storage.DB, logger *slog.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// Submit files a traffic ticket for review. It consumes one ticket credit,
// routes the case to the specialist for the violation type, and opens the
// intake discussions, all in a single transaction. Returns
// storage.ErrInsufficientCredits when the user's balance is empty; in that
// case nothing is written.
func (s *Service) Submit(ctx context.Context, userID uuid.UUID, req model.SubmitTicketRequest) (model.TrafficTicket, error) {
	agentID := AssignedAgent(req.ViolationType)
	priority := IntakePriority(req.ViolationType)

	ticket := model.TrafficTicket{
		UserID:          userID,
		TicketNumber:    req.TicketNumber,
		ViolationType:   req.ViolationType,
		IssueDate:       req.IssueDate,
		Location:        req.Location,
		FineAmountCents: req.FineAmountCents,
		CourtDate:       req.CourtDate,
		Description:     req.Description,
		Status:          model.TicketUnderReview,
		AssignedAgentID: &agentID,
	}
	if req.OfficerName != "" {
		ticket.OfficerName = &req.OfficerName
	}
	if req.PhotoURL != "" {
		ticket.PhotoURL = &req.PhotoURL
	}
	if req.ConsultationID != "" {
		ticket.ConsultationID = &req.ConsultationID
	}

	discussions := []model.TicketDiscussion{
		{
			FromAgentID: SystemAgentID,
			ToAgentID:   CoordinatorAgentID,
			Message: fmt.Sprintf("New ticket %s submitted: %s at %s. Fine: $%.2f. Assigned to %s.",
				req.TicketNumber, req.ViolationType, req.Location,
				float64(req.FineAmountCents)/100, agentID),
			MessageType:      model.DiscussionStatusUpdate,
			Priority:         priority,
			RequiresResponse: false,
		},
		{
			FromAgentID: SystemAgentID,
			ToAgentID:   agentID,
			Message: fmt.Sprintf("You have been assigned ticket %s (%s). Review the details and prepare a defense strategy.",
				req.TicketNumber, req.ViolationType),
			MessageType:      model.DiscussionAssignment,
			Priority:         priority,
			RequiresResponse: true,
		},
	}

	var created model.TrafficTicket
	err := storage.WithRetry(ctx, 3, 50*time.Millisecond, func() error {
		var err error
		created, err = s.db.SubmitTicket(ctx, storage.SubmitTicketParams{
			Ticket:      ticket,
			Discussions: discussions,
			Audit: storage.AuditEntry{
				EntityType:  "traffic_ticket",
				EntityID:    req.TicketNumber,
				Action:      "submitted",
				PerformedBy: userID.String(),
			},
		})
		return err
	})
	if err != nil {
		return model.TrafficTicket{}, err
	}

	s.logger.Info("ticket submitted",
		"ticket_id", created.ID,
		"user_id", userID,
		"violation_type", req.ViolationType,
		"assigned_agent", agentID,
	)
	return created, nil
}
