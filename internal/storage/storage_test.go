package storage_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/model"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/seed"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/storage"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/testutil"
)

var testDB *storage.DB

func TestMain(m *testing.M) {
	tc := testutil.MustStartPostgres()
	defer tc.Terminate()

	ctx := context.Background()
	logger := testutil.TestLogger()

	db, err := tc.NewTestDB(ctx, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "storage_test: %v\n", err)
		tc.Terminate()
		os.Exit(1)
	}
	testDB = db

	// Tickets and consultations reference legal agent rows, so the roster
	// has to be in place before any test files a ticket.
	if err := seed.Apply(ctx, testDB, logger); err != nil {
		fmt.Fprintf(os.Stderr, "storage_test: seed: %v\n", err)
		tc.Terminate()
		os.Exit(1)
	}

	code := m.Run()
	testDB.Close()
	tc.Terminate()
	os.Exit(code)
}

func newTestUser(t *testing.T, openID string) model.User {
	t.Helper()
	u, err := testDB.UpsertUser(context.Background(), model.LoginRequest{
		OpenID:      openID,
		Name:        "Test User",
		Email:       openID + "@example.com",
		LoginMethod: "google",
	}, model.RoleCustomer)
	require.NoError(t, err)
	return u
}

func submitParams(userID uuid.UUID, violation model.ViolationType) storage.SubmitTicketParams {
	agent := "TRAFFIC-SPEED-001"
	return storage.SubmitTicketParams{
		Ticket: model.TrafficTicket{
			UserID:          userID,
			TicketNumber:    "TKT-" + uuid.NewString()[:8],
			ViolationType:   violation,
			IssueDate:       time.Now().AddDate(0, 0, -3),
			Location:        "Woodward Ave & 9 Mile Rd, Ferndale MI",
			FineAmountCents: 15000,
			Description:     "Clocked at 45 in a 30 zone by stationary radar near a school crossing.",
			Status:          model.TicketUnderReview,
			AssignedAgentID: &agent,
		},
		Discussions: []model.TicketDiscussion{
			{
				FromAgentID:      "SYSTEM",
				ToAgentID:        "SIGMA-1",
				Message:          "New ticket submitted for triage.",
				MessageType:      model.DiscussionAssignment,
				Priority:         model.DiscussionHigh,
				RequiresResponse: true,
			},
			{
				FromAgentID: "SIGMA-1",
				ToAgentID:   agent,
				Message:     "Assigning speeding case for strategy preparation.",
				MessageType: model.DiscussionAssignment,
				Priority:    model.DiscussionMedium,
			},
		},
		Audit: storage.AuditEntry{
			EntityType:  "traffic_ticket",
			Action:      "ticket_submitted",
			PerformedBy: userID.String(),
		},
	}
}

func TestSubmitTicketConsumesOneCredit(t *testing.T) {
	ctx := context.Background()
	user := newTestUser(t, "open-submit-ok")

	_, err := testDB.AddTicketCredits(ctx, user.ID, 2)
	require.NoError(t, err)

	ticket, err := testDB.SubmitTicket(ctx, submitParams(user.ID, model.ViolationSpeeding))
	require.NoError(t, err)
	assert.Equal(t, model.TicketUnderReview, ticket.Status)
	require.NotNil(t, ticket.AssignedAgentID)
	assert.Equal(t, "TRAFFIC-SPEED-001", *ticket.AssignedAgentID)

	credits, err := testDB.GetTicketCredits(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, credits.Balance)
	assert.Equal(t, 2, credits.TotalPurchased)
	assert.Equal(t, 1, credits.TotalUsed)

	discussions, err := testDB.ListDiscussionsByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, discussions, 2)
	for _, d := range discussions {
		assert.Equal(t, ticket.ID, d.TicketID)
	}

	logs, err := testDB.ListAuditLogs(ctx, ticket.ID.String(), 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "ticket_submitted", logs[0].Action)
	assert.Equal(t, user.ID.String(), logs[0].PerformedBy)
}

func TestSubmitTicketInsufficientCredits(t *testing.T) {
	ctx := context.Background()
	user := newTestUser(t, "open-submit-broke")

	_, err := testDB.SubmitTicket(ctx, submitParams(user.ID, model.ViolationParking))
	require.ErrorIs(t, err, storage.ErrInsufficientCredits)

	// The rollback leaves no trace: no ticket, no credit row mutation.
	tickets, err := testDB.ListTicketsByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, tickets)

	credits, err := testDB.GetTicketCredits(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, credits.Balance)
	assert.Equal(t, 0, credits.TotalUsed)
}

func TestSubmitTicketDrainsToZeroThenRejects(t *testing.T) {
	ctx := context.Background()
	user := newTestUser(t, "open-submit-drain")

	_, err := testDB.AddTicketCredits(ctx, user.ID, 1)
	require.NoError(t, err)

	_, err = testDB.SubmitTicket(ctx, submitParams(user.ID, model.ViolationDUIDWI))
	require.NoError(t, err)

	_, err = testDB.SubmitTicket(ctx, submitParams(user.ID, model.ViolationDUIDWI))
	require.ErrorIs(t, err, storage.ErrInsufficientCredits)

	credits, err := testDB.GetTicketCredits(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, credits.Balance)
	assert.Equal(t, 1, credits.TotalUsed)
}

func TestUpdateTicketStatusTerminal(t *testing.T) {
	ctx := context.Background()
	user := newTestUser(t, "open-ticket-status")

	_, err := testDB.AddTicketCredits(ctx, user.ID, 1)
	require.NoError(t, err)
	ticket, err := testDB.SubmitTicket(ctx, submitParams(user.ID, model.ViolationRedLight))
	require.NoError(t, err)

	savings := 12000
	resolved, err := testDB.UpdateTicketStatus(ctx, ticket.ID, model.UpdateTicketStatusRequest{
		Status:       model.TicketResolved,
		Outcome:      "Fine reduced to a non-moving violation.",
		SavingsCents: &savings,
	}, storage.AuditEntry{EntityType: "traffic_ticket", Action: "ticket_resolved", PerformedBy: "admin"})
	require.NoError(t, err)
	assert.Equal(t, model.TicketResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)
	require.NotNil(t, resolved.SavingsCents)
	assert.Equal(t, 12000, *resolved.SavingsCents)

	_, err = testDB.UpdateTicketStatus(ctx, ticket.ID, model.UpdateTicketStatusRequest{
		Status: model.TicketInProgress,
	}, storage.AuditEntry{EntityType: "traffic_ticket", Action: "ticket_reopened", PerformedBy: "admin"})
	require.ErrorIs(t, err, storage.ErrAlreadyResolved)

	_, err = testDB.UpdateTicketStatus(ctx, uuid.New(), model.UpdateTicketStatusRequest{
		Status: model.TicketInProgress,
	}, storage.AuditEntry{EntityType: "traffic_ticket", Action: "ticket_updated", PerformedBy: "admin"})
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetTicketCreditsUnknownUser(t *testing.T) {
	ctx := context.Background()
	user := newTestUser(t, "open-credits-none")

	credits, err := testDB.GetTicketCredits(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, credits.UserID)
	assert.Equal(t, 0, credits.Balance)
	assert.Equal(t, 0, credits.TotalPurchased)
}

func TestCompletePurchaseIdempotent(t *testing.T) {
	ctx := context.Background()
	user := newTestUser(t, "open-purchase-ok")

	session := "cs_test_" + uuid.NewString()
	_, err := testDB.CreatePurchase(ctx, model.TicketPurchase{
		ID:              "purchase_" + uuid.NewString(),
		UserID:          user.ID,
		Credits:         5,
		AmountCents:     10000,
		StripeSessionID: &session,
		Status:          model.PurchasePending,
	})
	require.NoError(t, err)

	audit := storage.AuditEntry{
		EntityType:  "ticket_purchase",
		Action:      "purchase_completed",
		PerformedBy: "stripe_webhook",
	}

	first, err := testDB.CompletePurchase(ctx, session, "pi_test_1", audit)
	require.NoError(t, err)
	assert.Equal(t, model.PurchaseCompleted, first.Status)

	// Webhook redelivery: same session again must not credit twice.
	second, err := testDB.CompletePurchase(ctx, session, "pi_test_1", audit)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, model.PurchaseCompleted, second.Status)

	credits, err := testDB.GetTicketCredits(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, credits.Balance)
	assert.Equal(t, 5, credits.TotalPurchased)

	logs, err := testDB.ListAuditLogs(ctx, first.ID, 10)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestCompletePurchaseUnknownSession(t *testing.T) {
	_, err := testDB.CompletePurchase(context.Background(), "cs_missing_"+uuid.NewString(), "pi_x",
		storage.AuditEntry{EntityType: "ticket_purchase", Action: "purchase_completed", PerformedBy: "stripe_webhook"})
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFailPurchaseLeavesBalanceUntouched(t *testing.T) {
	ctx := context.Background()
	user := newTestUser(t, "open-purchase-fail")

	session := "cs_test_" + uuid.NewString()
	purchase, err := testDB.CreatePurchase(ctx, model.TicketPurchase{
		ID:              "purchase_" + uuid.NewString(),
		UserID:          user.ID,
		Credits:         1,
		AmountCents:     2500,
		StripeSessionID: &session,
		Status:          model.PurchasePending,
	})
	require.NoError(t, err)

	require.NoError(t, testDB.FailPurchase(ctx, session))

	history, err := testDB.ListPurchasesByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, purchase.ID, history[0].ID)
	assert.Equal(t, model.PurchaseFailed, history[0].Status)

	credits, err := testDB.GetTicketCredits(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, credits.Balance)
}

func TestAttachPurchaseSession(t *testing.T) {
	ctx := context.Background()
	user := newTestUser(t, "open-purchase-attach")

	p, err := testDB.CreatePurchase(ctx, model.TicketPurchase{
		ID:          "purchase_" + uuid.NewString(),
		UserID:      user.ID,
		Credits:     10,
		AmountCents: 18000,
		Status:      model.PurchasePending,
	})
	require.NoError(t, err)

	session := "cs_test_" + uuid.NewString()
	require.NoError(t, testDB.AttachPurchaseSession(ctx, p.ID, session))
	require.ErrorIs(t, testDB.AttachPurchaseSession(ctx, "purchase_missing", session), storage.ErrNotFound)

	completed, err := testDB.CompletePurchase(ctx, session, "pi_test_2",
		storage.AuditEntry{EntityType: "ticket_purchase", Action: "purchase_completed", PerformedBy: "stripe_webhook"})
	require.NoError(t, err)
	assert.Equal(t, p.ID, completed.ID)
}

func TestResolveDecisionTerminal(t *testing.T) {
	ctx := context.Background()

	created, err := testDB.CreateDecision(ctx, model.AgentDecision{
		ID:          "decision_" + uuid.NewString(),
		AgentID:     "mgmt_cto_zade",
		Decision:    "Adopt managed vector store",
		Description: "Move semantic search off the pgvector fallback for production traffic.",
		Status:      model.DecisionPending,
		Priority:    model.PriorityHigh,
	})
	require.NoError(t, err)

	audit := storage.AuditEntry{
		EntityType:  "agent_decision",
		Action:      "decision_approved",
		PerformedBy: "admin",
	}

	resolved, err := testDB.ResolveDecision(ctx, created.ID, model.DecisionApproved, "admin", audit)
	require.NoError(t, err)
	assert.Equal(t, model.DecisionApproved, resolved.Status)
	require.NotNil(t, resolved.ApprovedBy)
	assert.Equal(t, "admin", *resolved.ApprovedBy)
	assert.NotNil(t, resolved.ApprovedAt)

	// Approved is terminal; a second resolution must not flip it.
	_, err = testDB.ResolveDecision(ctx, created.ID, model.DecisionRejected, "admin", audit)
	require.ErrorIs(t, err, storage.ErrAlreadyResolved)

	after, err := testDB.GetDecision(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DecisionApproved, after.Status)

	_, err = testDB.ResolveDecision(ctx, "decision_missing", model.DecisionApproved, "admin", audit)
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = testDB.ResolveDecision(ctx, created.ID, model.DecisionPending, "admin", audit)
	require.Error(t, err)
}

func TestCreateDecisionDuplicateID(t *testing.T) {
	ctx := context.Background()

	d := model.AgentDecision{
		ID:          "decision_dup_" + uuid.NewString(),
		AgentID:     "mgmt_pm_maya",
		Decision:    "Ship intake form revamp",
		Description: "Shorter intake form with photo upload moved to the first step.",
		Status:      model.DecisionPending,
		Priority:    model.PriorityMedium,
	}
	_, err := testDB.CreateDecision(ctx, d)
	require.NoError(t, err)

	_, err = testDB.CreateDecision(ctx, d)
	require.ErrorIs(t, err, storage.ErrDuplicate)
}

func TestKnowledgeAgentScoping(t *testing.T) {
	ctx := context.Background()

	embed := func(idx int) []float32 {
		v := make([]float32, 1536)
		v[idx] = 1
		return v
	}

	agentA := "scope-test-agent-a"
	agentB := "scope-test-agent-b"

	docA, err := testDB.InsertKnowledgeDocument(ctx, model.KnowledgeDocument{
		ID:         "doc_" + uuid.NewString(),
		AgentID:    agentA,
		Title:      "Radar calibration records",
		Content:    "Request calibration logs for the radar unit within 30 days of the stop.",
		Category:   model.KnowledgeStrategy,
		SourceType: model.SourceManual,
		Importance: 9,
	}, embed(0))
	require.NoError(t, err)

	_, err = testDB.InsertKnowledgeDocument(ctx, model.KnowledgeDocument{
		ID:         "doc_" + uuid.NewString(),
		AgentID:    agentA,
		Title:      "School zone enforcement windows",
		Content:    "Reduced limits apply only during posted hours on school days.",
		Category:   model.KnowledgeCaseStudy,
		SourceType: model.SourceManual,
		Importance: 5,
	}, embed(1))
	require.NoError(t, err)

	_, err = testDB.InsertKnowledgeDocument(ctx, model.KnowledgeDocument{
		ID:         "doc_" + uuid.NewString(),
		AgentID:    agentB,
		Title:      "Meter dispute procedure",
		Content:    "Photograph the meter fault before contesting a parking citation.",
		Category:   model.KnowledgeStrategy,
		SourceType: model.SourceManual,
		Importance: 7,
	}, embed(0))
	require.NoError(t, err)

	// No embedding: reachable via listing, invisible to vector search.
	unembedded, err := testDB.InsertKnowledgeDocument(ctx, model.KnowledgeDocument{
		ID:         "doc_" + uuid.NewString(),
		AgentID:    agentA,
		Title:      "Court appearance checklist",
		Content:    "Bring the citation, calibration request response, and photographs.",
		Category:   model.KnowledgeCurriculum,
		SourceType: model.SourceManual,
		Importance: 3,
	}, nil)
	require.NoError(t, err)

	results, err := testDB.SearchKnowledgeByEmbedding(ctx, agentA, embed(0), 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, docA.ID, results[0].DocumentID)
	for _, r := range results {
		assert.NotEqual(t, unembedded.ID, r.DocumentID)
	}

	listed, err := testDB.ListKnowledgeByAgent(ctx, agentA)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, docA.ID, listed[0].ID, "listing orders by importance")

	n, err := testDB.CountKnowledgeByAgent(ctx, agentB)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, testDB.DeleteKnowledgeDocument(ctx, unembedded.ID))
	require.ErrorIs(t, testDB.DeleteKnowledgeDocument(ctx, unembedded.ID), storage.ErrNotFound)

	_, err = testDB.GetKnowledgeDocument(ctx, unembedded.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpsertUserKeepsAdminRole(t *testing.T) {
	ctx := context.Background()

	u, err := testDB.UpsertUser(ctx, model.LoginRequest{
		OpenID: "open-admin-sticky",
		Name:   "Ada Admin",
		Email:  "ada@example.com",
	}, model.RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, model.RoleCustomer, u.Role)

	promoted, err := testDB.SetUserRole(ctx, u.ID, model.RoleAdmin, storage.AuditEntry{
		EntityType:  "user",
		Action:      "role_admin_granted",
		PerformedBy: "make-admin",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, promoted.Role)

	// A routine login never downgrades an admin.
	again, err := testDB.UpsertUser(ctx, model.LoginRequest{
		OpenID: "open-admin-sticky",
		Name:   "Ada A.",
	}, model.RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
	assert.Equal(t, model.RoleAdmin, again.Role)
	require.NotNil(t, again.Name)
	assert.Equal(t, "Ada A.", *again.Name)
	require.NotNil(t, again.Email, "blank login fields keep stored values")
	assert.Equal(t, "ada@example.com", *again.Email)
}

func TestChatHistoryChronological(t *testing.T) {
	ctx := context.Background()
	user := newTestUser(t, "open-chat")

	require.NoError(t, testDB.InsertChatPair(ctx, user.ID,
		"What is our ticket win rate this quarter?",
		"Across all specialists we are at 89% favorable outcomes.",
		"SIGMA-1"))
	require.NoError(t, testDB.InsertChatPair(ctx, user.ID,
		"And refunds?",
		"Two refunds issued, both for duplicate purchases.",
		"SIGMA-1"))

	history, err := testDB.ListChatHistory(ctx, user.ID, 50)
	require.NoError(t, err)
	require.Len(t, history, 4)
	// Both rows of a pair share a transaction timestamp, so only assert
	// ordering across pairs.
	assert.Equal(t, "What is our ticket win rate this quarter?", history[0].Message)
	assert.Equal(t, "And refunds?", history[2].Message)
	for _, msg := range history {
		require.NotNil(t, msg.AgentID)
		assert.Equal(t, "SIGMA-1", *msg.AgentID)
	}

	recent, err := testDB.ListChatHistory(ctx, user.ID, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Contains(t, []string{"And refunds?", "Two refunds issued, both for duplicate purchases."}, recent[0].Message)
}

func TestConsultationLifecycle(t *testing.T) {
	ctx := context.Background()
	user := newTestUser(t, "open-consult")

	created, err := testDB.CreateConsultation(ctx, model.Consultation{
		ID:           "consultation_" + uuid.NewString(),
		UserID:       user.ID,
		LegalAgentID: "agent_traffic_sarah",
		CaseType:     "Traffic Violations",
		Status:       model.ConsultScheduled,
	}, storage.AuditEntry{EntityType: "consultation", Action: "consultation_scheduled", PerformedBy: user.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, model.ConsultScheduled, created.Status)

	fetched, err := testDB.GetConsultation(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)

	duration := 1800
	completed, err := testDB.UpdateConsultationStatus(ctx, created.ID, model.ConsultCompleted,
		"Discussed dismissal strategy based on officer availability.", &duration)
	require.NoError(t, err)
	assert.Equal(t, model.ConsultCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)
	require.NotNil(t, completed.DurationSecs)
	assert.Equal(t, 1800, *completed.DurationSecs)

	rated, err := testDB.RateConsultation(ctx, created.ID, 5, "Clear and practical advice.")
	require.NoError(t, err)
	require.NotNil(t, rated.Rating)
	assert.Equal(t, 5, *rated.Rating)

	_, err = testDB.RateConsultation(ctx, created.ID, 6, "")
	require.Error(t, err)

	_, err = testDB.GetConsultation(ctx, "consultation_missing")
	require.ErrorIs(t, err, storage.ErrNotFound)

	mine, err := testDB.ListConsultationsByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
}

func TestSubscriptionLifecycle(t *testing.T) {
	ctx := context.Background()
	user := newTestUser(t, "open-subscription")

	_, err := testDB.GetCurrentSubscription(ctx, user.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	session := "cs_sub_" + uuid.NewString()
	trialEnd := time.Now().AddDate(0, 0, 14)
	created, err := testDB.CreateSubscription(ctx, model.Subscription{
		ID:              "subscription_" + uuid.NewString(),
		UserID:          user.ID,
		Plan:            model.PlanIndividual,
		PriceCents:      2900,
		BillingCycle:    model.CycleMonthly,
		Status:          model.SubTrial,
		StripeSessionID: &session,
		TrialEndsAt:     &trialEnd,
	})
	require.NoError(t, err)

	current, err := testDB.GetCurrentSubscription(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, current.ID)
	assert.Equal(t, model.SubTrial, current.Status)

	active, err := testDB.ActivateSubscriptionBySession(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, model.SubActive, active.Status)
	assert.NotNil(t, active.PeriodStart)

	// Redelivered checkout webhook: activation stays active.
	again, err := testDB.ActivateSubscriptionBySession(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, model.SubActive, again.Status)

	cancelled, err := testDB.CancelSubscription(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)

	_, err = testDB.CancelSubscription(ctx, created.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = testDB.GetCurrentSubscription(ctx, user.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAuditLogFiltering(t *testing.T) {
	ctx := context.Background()

	entity := "audit-filter-" + uuid.NewString()
	for i := 0; i < 3; i++ {
		require.NoError(t, testDB.InsertAudit(ctx, storage.AuditEntry{
			EntityType:  "test_entity",
			EntityID:    entity,
			Action:      fmt.Sprintf("action_%d", i),
			PerformedBy: "tester",
		}))
	}

	logs, err := testDB.ListAuditLogs(ctx, entity, 10)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	for _, l := range logs {
		assert.Equal(t, entity, l.EntityID)
	}

	all, err := testDB.ListAuditLogs(ctx, "", 500)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(all), 3)
}

func TestSearchOutboxEnqueueIsIdempotent(t *testing.T) {
	ctx := context.Background()

	docID := "doc_" + uuid.NewString()
	require.NoError(t, testDB.EnqueueSearchIndex(ctx, docID, storage.SearchOpUpsert))

	entries, err := testDB.ClaimSearchOutbox(ctx, 100)
	require.NoError(t, err)
	entry := findOutboxEntry(t, entries, docID)
	require.NoError(t, testDB.RetrySearchOutbox(ctx, []int64{entry.ID}, "qdrant down"))

	// Re-enqueueing resets the row: attempts back to zero, lock cleared,
	// same primary key. The queue never holds two rows for one operation.
	require.NoError(t, testDB.EnqueueSearchIndex(ctx, docID, storage.SearchOpUpsert))

	entries, err = testDB.ClaimSearchOutbox(ctx, 100)
	require.NoError(t, err)
	reset := findOutboxEntry(t, entries, docID)
	assert.Equal(t, entry.ID, reset.ID)
	assert.Equal(t, 0, reset.Attempts)

	require.NoError(t, testDB.CompleteSearchOutbox(ctx, []int64{reset.ID}))
}

func TestSearchOutboxClaimLocksEntries(t *testing.T) {
	ctx := context.Background()

	docID := "doc_" + uuid.NewString()
	require.NoError(t, testDB.EnqueueSearchIndex(ctx, docID, storage.SearchOpDelete))

	entries, err := testDB.ClaimSearchOutbox(ctx, 100)
	require.NoError(t, err)
	entry := findOutboxEntry(t, entries, docID)

	// Claimed entries are locked; a second claim must not return them.
	entries, err = testDB.ClaimSearchOutbox(ctx, 100)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotEqual(t, entry.ID, e.ID, "locked entry reclaimed")
	}

	require.NoError(t, testDB.CompleteSearchOutbox(ctx, []int64{entry.ID}))
}

func TestSearchOutboxRetryDefersAndDeadLetters(t *testing.T) {
	ctx := context.Background()

	docID := "doc_" + uuid.NewString()
	require.NoError(t, testDB.EnqueueSearchIndex(ctx, docID, storage.SearchOpUpsert))

	entries, err := testDB.ClaimSearchOutbox(ctx, 100)
	require.NoError(t, err)
	entry := findOutboxEntry(t, entries, docID)

	// Exhaust the retry budget. Each retry pushes locked_until into the
	// future, so intermediate claims never see the entry either.
	for i := 0; i < storage.MaxSearchOutboxAttempts; i++ {
		require.NoError(t, testDB.RetrySearchOutbox(ctx, []int64{entry.ID}, "still down"))
	}

	entries, err = testDB.ClaimSearchOutbox(ctx, 100)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotEqual(t, entry.ID, e.ID, "dead-lettered entry reclaimed")
	}

	// Dead letters no longer count toward the pending depth gauge.
	before, err := testDB.CountSearchOutboxPending(ctx)
	require.NoError(t, err)
	require.NoError(t, testDB.EnqueueSearchIndex(ctx, "doc_"+uuid.NewString(), storage.SearchOpUpsert))
	after, err := testDB.CountSearchOutboxPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)

	// The dead letter is inside the retention window, so purge keeps it.
	_, err = testDB.PurgeSearchOutbox(ctx, 7*24*time.Hour)
	require.NoError(t, err)
	n, err := testDB.PurgeSearchOutbox(ctx, 0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))
}

func TestListKnowledgeDocumentsByIDs(t *testing.T) {
	ctx := context.Background()

	doc, err := testDB.InsertKnowledgeDocument(ctx, model.KnowledgeDocument{
		ID:         "doc_" + uuid.NewString(),
		AgentID:    "outbox-fetch-agent",
		Title:      "Right-turn-on-red exceptions",
		Content:    "A posted sign overrides the default permission to turn right on red.",
		Category:   model.KnowledgeStrategy,
		SourceType: model.SourceManual,
		Importance: 4,
	}, nil)
	require.NoError(t, err)

	docs, err := testDB.ListKnowledgeDocumentsByIDs(ctx, []string{doc.ID, "doc_missing"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, doc.ID, docs[0].ID)
	assert.Equal(t, doc.Title, docs[0].Title)
}

func findOutboxEntry(t *testing.T, entries []storage.SearchOutboxEntry, docID string) storage.SearchOutboxEntry {
	t.Helper()
	for _, e := range entries {
		if e.DocumentID == docID {
			return e
		}
	}
	t.Fatalf("outbox entry for %s not claimed", docID)
	return storage.SearchOutboxEntry{}
}
