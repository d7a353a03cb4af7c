package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/service/knowledge"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/storage"
)

// Apply upserts the full persona roster: legal agents, management agents,
// and the regulatory board. Safe to run on every startup.
func Apply(ctx context.Context, db *storage.DB, logger *slog.Logger) error {
	for _, a := range LegalAgents() {
		if err := db.UpsertLegalAgent(ctx, a); err != nil {
			return fmt.Errorf("seed: legal agent %s: %w", a.ID, err)
		}
	}
	for _, a := range ManagementAgents() {
		if err := db.UpsertManagementAgent(ctx, a); err != nil {
			return fmt.Errorf("seed: management agent %s: %w", a.ID, err)
		}
	}
	for _, m := range BoardMembers() {
		if err := db.UpsertRegulatoryBoardMember(ctx, m); err != nil {
			return fmt.Errorf("seed: board member %s: %w", m.ID, err)
		}
	}
	logger.Info("persona roster seeded",
		"legal_agents", len(LegalAgents()),
		"management_agents", len(ManagementAgents()),
		"board_members", len(BoardMembers()))
	return nil
}

// IndexKnowledge loads the starter knowledge base for any agent that has no
// documents yet. Agents with existing documents are left alone, so reruns
// never duplicate or overwrite operator-curated content.
func IndexKnowledge(ctx context.Context, db *storage.DB, svc *knowledge.Service, logger *slog.Logger) error {
	for agentID, docs := range StarterKnowledge() {
		n, err := db.CountKnowledgeByAgent(ctx, agentID)
		if err != nil {
			return fmt.Errorf("seed: count knowledge for %s: %w", agentID, err)
		}
		if n > 0 {
			continue
		}
		for _, req := range docs {
			if _, err := svc.Index(ctx, agentID, req); err != nil {
				return fmt.Errorf("seed: index %q for %s: %w", req.Title, agentID, err)
			}
		}
		logger.Info("starter knowledge indexed", "agent_id", agentID, "documents", len(docs))
	}
	return nil
}
