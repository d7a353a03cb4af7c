package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/model"
)

const ticketColumns = `id, consultation_id, user_id, ticket_number, violation_type,
	issue_date, location, fine_amount_cents, court_date, officer_name,
	description, photo_url, status, assigned_agent_id, strategy_document,
	outcome, savings_cents, resolved_at, created_at, updated_at`

func scanTicket(row pgx.Row) (model.TrafficTicket, error) {
	var t model.TrafficTicket
	err := row.Scan(&t.ID, &t.ConsultationID, &t.UserID, &t.TicketNumber,
		&t.ViolationType, &t.IssueDate, &t.Location, &t.FineAmountCents,
		&t.CourtDate, &t.OfficerName, &t.Description, &t.PhotoURL, &t.Status,
		&t.AssignedAgentID, &t.StrategyDocument, &t.Outcome, &t.SavingsCents,
		&t.ResolvedAt, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// SubmitTicketParams carries everything the submission transaction writes:
// the ticket row, the workroom messages announcing it, and the audit entry.
type SubmitTicketParams struct {
	Ticket      model.TrafficTicket
	Discussions []model.TicketDiscussion
	Audit       AuditEntry
}

// SubmitTicket atomically consumes one ticket credit and files the ticket.
//
// The guarded UPDATE on user_ticket_credits only matches rows with a
// positive balance, so a submission can never overdraw: when no row
// matches, the transaction rolls back with ErrInsufficientCredits and the
// balance is unchanged. The ticket insert, its workroom discussions, and
// the audit row all commit together or not at all.
func (db *DB) SubmitTicket(ctx context.Context, p SubmitTicketParams) (model.TrafficTicket, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return model.TrafficTicket{}, fmt.Errorf("storage: begin submit ticket tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE user_ticket_credits
		 SET balance = balance - 1, total_used = total_used + 1, updated_at = now()
		 WHERE user_id = $1 AND balance >= 1`,
		p.Ticket.UserID,
	)
	if err != nil {
		return model.TrafficTicket{}, fmt.Errorf("storage: deduct ticket credit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.TrafficTicket{}, ErrInsufficientCredits
	}

	t := p.Ticket
	row := tx.QueryRow(ctx,
		`INSERT INTO traffic_tickets (consultation_id, user_id, ticket_number,
		     violation_type, issue_date, location, fine_amount_cents, court_date,
		     officer_name, description, photo_url, status, assigned_agent_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING `+ticketColumns,
		t.ConsultationID, t.UserID, t.TicketNumber, string(t.ViolationType),
		t.IssueDate, t.Location, t.FineAmountCents, t.CourtDate, t.OfficerName,
		t.Description, t.PhotoURL, string(t.Status), t.AssignedAgentID,
	)
	created, err := scanTicket(row)
	if err != nil {
		return model.TrafficTicket{}, fmt.Errorf("storage: insert ticket: %w", err)
	}

	for _, d := range p.Discussions {
		if _, err := tx.Exec(ctx,
			`INSERT INTO ticket_discussions (ticket_id, from_agent_id, to_agent_id,
			     message, message_type, priority, requires_response)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			created.ID, d.FromAgentID, d.ToAgentID, d.Message,
			string(d.MessageType), string(d.Priority), d.RequiresResponse,
		); err != nil {
			return model.TrafficTicket{}, fmt.Errorf("storage: insert ticket discussion: %w", err)
		}
	}

	p.Audit.EntityID = created.ID.String()
	if err := InsertAuditTx(ctx, tx, p.Audit); err != nil {
		return model.TrafficTicket{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return model.TrafficTicket{}, fmt.Errorf("storage: commit submit ticket tx: %w", err)
	}
	return created, nil
}

// GetTicket returns one ticket by ID.
func (db *DB) GetTicket(ctx context.Context, id uuid.UUID) (model.TrafficTicket, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM traffic_tickets WHERE id = $1`, id)
	t, err := scanTicket(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.TrafficTicket{}, ErrNotFound
	}
	if err != nil {
		return model.TrafficTicket{}, fmt.Errorf("storage: get ticket: %w", err)
	}
	return t, nil
}

// ListTicketsByUser returns a user's tickets, newest first.
func (db *DB) ListTicketsByUser(ctx context.Context, userID uuid.UUID) ([]model.TrafficTicket, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+ticketColumns+` FROM traffic_tickets
		 WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("storage: list tickets by user: %w", err)
	}
	defer rows.Close()
	return collectTickets(rows)
}

// ListAllTickets returns every ticket, newest first. Admin dashboards only.
func (db *DB) ListAllTickets(ctx context.Context, limit int) ([]model.TrafficTicket, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+ticketColumns+` FROM traffic_tickets
		 ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: list all tickets: %w", err)
	}
	defer rows.Close()
	return collectTickets(rows)
}

func collectTickets(rows pgx.Rows) ([]model.TrafficTicket, error) {
	tickets := []model.TrafficTicket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate tickets: %w", err)
	}
	return tickets, nil
}

// UpdateTicketStatus transitions a ticket's workflow state and writes an
// audit row in the same transaction. Resolved and closed set resolved_at;
// a ticket already in a terminal state returns ErrAlreadyResolved.
func (db *DB) UpdateTicketStatus(ctx context.Context, id uuid.UUID, req model.UpdateTicketStatusRequest, audit AuditEntry) (model.TrafficTicket, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return model.TrafficTicket{}, fmt.Errorf("storage: begin update ticket status tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx,
		`UPDATE traffic_tickets
		 SET status = $2,
		     strategy_document = COALESCE(NULLIF($3, ''), strategy_document),
		     outcome = COALESCE(NULLIF($4, ''), outcome),
		     savings_cents = COALESCE($5, savings_cents),
		     resolved_at = CASE WHEN $2 IN ('resolved', 'closed') THEN now() ELSE resolved_at END,
		     updated_at = now()
		 WHERE id = $1 AND status NOT IN ('resolved', 'closed')
		 RETURNING `+ticketColumns,
		id, string(req.Status), req.StrategyDocument, req.Outcome, req.SavingsCents,
	)
	t, err := scanTicket(row)
	if errors.Is(err, pgx.ErrNoRows) {
		var existing string
		lookupErr := tx.QueryRow(ctx,
			`SELECT status FROM traffic_tickets WHERE id = $1`, id).Scan(&existing)
		if errors.Is(lookupErr, pgx.ErrNoRows) {
			return model.TrafficTicket{}, ErrNotFound
		}
		if lookupErr != nil {
			return model.TrafficTicket{}, fmt.Errorf("storage: update ticket status lookup: %w", lookupErr)
		}
		return model.TrafficTicket{}, ErrAlreadyResolved
	}
	if err != nil {
		return model.TrafficTicket{}, fmt.Errorf("storage: update ticket status: %w", err)
	}

	audit.EntityID = id.String()
	if err := InsertAuditTx(ctx, tx, audit); err != nil {
		return model.TrafficTicket{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.TrafficTicket{}, fmt.Errorf("storage: commit update ticket status tx: %w", err)
	}
	return t, nil
}

const discussionColumns = `id, ticket_id, from_agent_id, to_agent_id, message,
	message_type, priority, requires_response, created_at`

func scanDiscussion(row pgx.Row) (model.TicketDiscussion, error) {
	var d model.TicketDiscussion
	err := row.Scan(&d.ID, &d.TicketID, &d.FromAgentID, &d.ToAgentID,
		&d.Message, &d.MessageType, &d.Priority, &d.RequiresResponse, &d.CreatedAt)
	return d, err
}

// InsertDiscussion records a workroom message for an existing ticket.
func (db *DB) InsertDiscussion(ctx context.Context, d model.TicketDiscussion) (model.TicketDiscussion, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO ticket_discussions (ticket_id, from_agent_id, to_agent_id,
		     message, message_type, priority, requires_response)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+discussionColumns,
		d.TicketID, d.FromAgentID, d.ToAgentID, d.Message,
		string(d.MessageType), string(d.Priority), d.RequiresResponse,
	)
	created, err := scanDiscussion(row)
	if err != nil {
		return model.TicketDiscussion{}, fmt.Errorf("storage: insert discussion: %w", err)
	}
	return created, nil
}

// ListDiscussionsByTicket returns a ticket's workroom thread in order.
func (db *DB) ListDiscussionsByTicket(ctx context.Context, ticketID uuid.UUID) ([]model.TicketDiscussion, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+discussionColumns+` FROM ticket_discussions
		 WHERE ticket_id = $1 ORDER BY created_at`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("storage: list discussions by ticket: %w", err)
	}
	defer rows.Close()
	return collectDiscussions(rows)
}

// ListDiscussions returns recent workroom messages across all tickets,
// newest first. Admin dashboards only.
func (db *DB) ListDiscussions(ctx context.Context, limit int) ([]model.TicketDiscussion, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+discussionColumns+` FROM ticket_discussions
		 ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: list discussions: %w", err)
	}
	defer rows.Close()
	return collectDiscussions(rows)
}

func collectDiscussions(rows pgx.Rows) ([]model.TicketDiscussion, error) {
	discussions := []model.TicketDiscussion{}
	for rows.Next() {
		d, err := scanDiscussion(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan discussion: %w", err)
		}
		discussions = append(discussions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate discussions: %w", err)
	}
	return discussions, nil
}
