package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/model"
)

const legalAgentColumns = `id, name, specialization, title, description,
	success_rate, cases_handled, status, avatar, state, trained_by,
	created_at, updated_at`

func scanLegalAgent(row pgx.Row) (model.LegalAgent, error) {
	var a model.LegalAgent
	err := row.Scan(&a.ID, &a.Name, &a.Specialization, &a.Title, &a.Description,
		&a.SuccessRate, &a.CasesHandled, &a.Status, &a.Avatar, &a.State,
		&a.TrainedBy, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// ListLegalAgents returns active legal agents ordered by caseload.
func (db *DB) ListLegalAgents(ctx context.Context) ([]model.LegalAgent, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+legalAgentColumns+` FROM legal_agents
		 WHERE status = 'active'
		 ORDER BY cases_handled DESC`)
	if err != nil {
		return nil, fmt.Errorf("storage: list legal agents: %w", err)
	}
	defer rows.Close()
	return collectLegalAgents(rows)
}

// ListLegalAgentsBySpecialization returns active agents in one practice
// area ordered by success rate.
func (db *DB) ListLegalAgentsBySpecialization(ctx context.Context, spec model.Specialization) ([]model.LegalAgent, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+legalAgentColumns+` FROM legal_agents
		 WHERE status = 'active' AND specialization = $1
		 ORDER BY success_rate DESC`,
		string(spec))
	if err != nil {
		return nil, fmt.Errorf("storage: list legal agents by specialization: %w", err)
	}
	defer rows.Close()
	return collectLegalAgents(rows)
}

func collectLegalAgents(rows pgx.Rows) ([]model.LegalAgent, error) {
	agents := []model.LegalAgent{}
	for rows.Next() {
		a, err := scanLegalAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan legal agent: %w", err)
		}
		agents = append(agents, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate legal agents: %w", err)
	}
	return agents, nil
}

// GetLegalAgent returns one legal agent by ID regardless of status.
func (db *DB) GetLegalAgent(ctx context.Context, id string) (model.LegalAgent, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+legalAgentColumns+` FROM legal_agents WHERE id = $1`, id)
	a, err := scanLegalAgent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.LegalAgent{}, ErrNotFound
	}
	if err != nil {
		return model.LegalAgent{}, fmt.Errorf("storage: get legal agent: %w", err)
	}
	return a, nil
}

// UpsertLegalAgent inserts or refreshes a legal agent persona. Used by the
// seeding path; live agent rows keep their caseload counters.
func (db *DB) UpsertLegalAgent(ctx context.Context, a model.LegalAgent) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO legal_agents (id, name, specialization, title, description,
		     success_rate, cases_handled, status, avatar, state, trained_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (id) DO UPDATE SET
		     name = EXCLUDED.name,
		     specialization = EXCLUDED.specialization,
		     title = EXCLUDED.title,
		     description = EXCLUDED.description,
		     status = EXCLUDED.status,
		     avatar = EXCLUDED.avatar,
		     state = EXCLUDED.state,
		     trained_by = EXCLUDED.trained_by,
		     updated_at = now()`,
		a.ID, a.Name, string(a.Specialization), a.Title, a.Description,
		a.SuccessRate, a.CasesHandled, string(a.Status), a.Avatar, a.State, a.TrainedBy,
	)
	if err != nil {
		return fmt.Errorf("storage: upsert legal agent: %w", err)
	}
	return nil
}

// IncrementAgentCaseload bumps cases_handled for an assigned agent.
func (db *DB) IncrementAgentCaseload(ctx context.Context, id string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE legal_agents SET cases_handled = cases_handled + 1, updated_at = now()
		 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("storage: increment caseload: %w", err)
	}
	return nil
}

// LegalAgentStats computes directory-level aggregates. The success rate is
// weighted by caseload; the consultation count reflects live sessions.
func (db *DB) LegalAgentStats(ctx context.Context) (model.LegalAgentStats, error) {
	var s model.LegalAgentStats
	err := db.pool.QueryRow(ctx,
		`SELECT count(*),
		        count(*) FILTER (WHERE status = 'active'),
		        COALESCE(sum(cases_handled), 0),
		        COALESCE(sum(success_rate * cases_handled) / NULLIF(sum(cases_handled), 0), 0)
		 FROM legal_agents`).
		Scan(&s.TotalAgents, &s.ActiveAgents, &s.TotalCases, &s.AverageSuccessRate)
	if err != nil {
		return model.LegalAgentStats{}, fmt.Errorf("storage: legal agent stats: %w", err)
	}

	err = db.pool.QueryRow(ctx,
		`SELECT count(*) FROM consultations WHERE status = 'in_progress'`).
		Scan(&s.ActiveConsultations)
	if err != nil {
		return model.LegalAgentStats{}, fmt.Errorf("storage: active consultation count: %w", err)
	}
	return s, nil
}

const mgmtAgentColumns = `id, name, role, title, status, avatar, description,
	recommendation, education, knowledge, experience, created_at, last_seen`

func scanManagementAgent(row pgx.Row) (model.ManagementAgent, error) {
	var a model.ManagementAgent
	err := row.Scan(&a.ID, &a.Name, &a.Role, &a.Title, &a.Status, &a.Avatar,
		&a.Description, &a.Recommendation, &a.Education, &a.Knowledge,
		&a.Experience, &a.CreatedAt, &a.LastSeen)
	return a, err
}

// ListManagementAgents returns the management hierarchy, oldest seat first.
func (db *DB) ListManagementAgents(ctx context.Context) ([]model.ManagementAgent, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+mgmtAgentColumns+` FROM management_agents ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("storage: list management agents: %w", err)
	}
	defer rows.Close()

	agents := []model.ManagementAgent{}
	for rows.Next() {
		a, err := scanManagementAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan management agent: %w", err)
		}
		agents = append(agents, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate management agents: %w", err)
	}
	return agents, nil
}

// GetManagementAgent returns one management agent by ID.
func (db *DB) GetManagementAgent(ctx context.Context, id string) (model.ManagementAgent, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+mgmtAgentColumns+` FROM management_agents WHERE id = $1`, id)
	a, err := scanManagementAgent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ManagementAgent{}, ErrNotFound
	}
	if err != nil {
		return model.ManagementAgent{}, fmt.Errorf("storage: get management agent: %w", err)
	}
	return a, nil
}

// CreateManagementAgent inserts a pending management agent together with its
// initialization decision and an audit row, all in one transaction. The new
// seat stays pending until the decision is approved.
func (db *DB) CreateManagementAgent(ctx context.Context, a model.ManagementAgent, d model.AgentDecision, audit AuditEntry) (model.ManagementAgent, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return model.ManagementAgent{}, fmt.Errorf("storage: begin create management agent tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	a.Status = model.MgmtPending
	a.CreatedAt = now
	a.LastSeen = now

	if _, err := tx.Exec(ctx,
		`INSERT INTO management_agents (id, name, role, title, status, avatar,
		     description, recommendation, education, knowledge, experience)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID, a.Name, string(a.Role), a.Title, string(a.Status), a.Avatar,
		a.Description, a.Recommendation, a.Education, a.Knowledge, a.Experience,
	); err != nil {
		if isUniqueViolation(err) {
			return model.ManagementAgent{}, ErrDuplicate
		}
		return model.ManagementAgent{}, fmt.Errorf("storage: create management agent: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO agent_decisions (id, agent_id, decision, description,
		     recommendation, status, priority, requires_regulatory_approval)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		d.ID, d.AgentID, d.Decision, d.Description, d.Recommendation,
		string(d.Status), string(d.Priority), d.RequiresRegulatoryApproval,
	); err != nil {
		return model.ManagementAgent{}, fmt.Errorf("storage: create initialization decision: %w", err)
	}

	audit.EntityID = a.ID
	if err := InsertAuditTx(ctx, tx, audit); err != nil {
		return model.ManagementAgent{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return model.ManagementAgent{}, fmt.Errorf("storage: commit create management agent tx: %w", err)
	}
	return a, nil
}

// UpsertManagementAgent inserts or refreshes a management agent directly,
// bypassing the pending-decision workflow. Used by seeding.
func (db *DB) UpsertManagementAgent(ctx context.Context, a model.ManagementAgent) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO management_agents (id, name, role, title, status, avatar,
		     description, recommendation, education, knowledge, experience)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (id) DO UPDATE SET
		     name = EXCLUDED.name,
		     role = EXCLUDED.role,
		     title = EXCLUDED.title,
		     status = EXCLUDED.status,
		     avatar = EXCLUDED.avatar,
		     description = EXCLUDED.description`,
		a.ID, a.Name, string(a.Role), a.Title, string(a.Status), a.Avatar,
		a.Description, a.Recommendation, a.Education, a.Knowledge, a.Experience,
	)
	if err != nil {
		return fmt.Errorf("storage: upsert management agent: %w", err)
	}
	return nil
}

// TouchManagementAgent refreshes last_seen for a responding persona.
func (db *DB) TouchManagementAgent(ctx context.Context, id string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE management_agents SET last_seen = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("storage: touch management agent: %w", err)
	}
	return nil
}

// ListRegulatoryBoard returns the oversight board roster.
func (db *DB) ListRegulatoryBoard(ctx context.Context) ([]model.RegulatoryBoardMember, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, name, position, specialization, status, avatar, created_at
		 FROM regulatory_board ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("storage: list regulatory board: %w", err)
	}
	defer rows.Close()

	members := []model.RegulatoryBoardMember{}
	for rows.Next() {
		var m model.RegulatoryBoardMember
		if err := rows.Scan(&m.ID, &m.Name, &m.Position, &m.Specialization,
			&m.Status, &m.Avatar, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan board member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate regulatory board: %w", err)
	}
	return members, nil
}

// UpsertRegulatoryBoardMember inserts or refreshes a board seat.
func (db *DB) UpsertRegulatoryBoardMember(ctx context.Context, m model.RegulatoryBoardMember) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO regulatory_board (id, name, position, specialization, status, avatar)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET
		     name = EXCLUDED.name,
		     position = EXCLUDED.position,
		     specialization = EXCLUDED.specialization,
		     status = EXCLUDED.status,
		     avatar = EXCLUDED.avatar`,
		m.ID, m.Name, m.Position, m.Specialization, m.Status, m.Avatar,
	)
	if err != nil {
		return fmt.Errorf("storage: upsert board member: %w", err)
	}
	return nil
}

// InsertCommunication records an inter-agent message.
func (db *DB) InsertCommunication(ctx context.Context, c model.AgentCommunication) (model.AgentCommunication, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO agent_communications (from_agent_id, to_agent_id, message,
		     message_type, priority, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		c.FromAgentID, c.ToAgentID, c.Message, string(c.MessageType), c.Priority, c.Status,
	)
	if err := row.Scan(&c.ID, &c.CreatedAt); err != nil {
		return model.AgentCommunication{}, fmt.Errorf("storage: insert communication: %w", err)
	}
	return c, nil
}

// ListCommunications returns recent inter-agent messages, newest first.
func (db *DB) ListCommunications(ctx context.Context, limit int) ([]model.AgentCommunication, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, from_agent_id, to_agent_id, message, message_type, priority, status, created_at
		 FROM agent_communications ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: list communications: %w", err)
	}
	defer rows.Close()

	comms := []model.AgentCommunication{}
	for rows.Next() {
		var c model.AgentCommunication
		if err := rows.Scan(&c.ID, &c.FromAgentID, &c.ToAgentID, &c.Message,
			&c.MessageType, &c.Priority, &c.Status, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan communication: %w", err)
		}
		comms = append(comms, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate communications: %w", err)
	}
	return comms, nil
}
