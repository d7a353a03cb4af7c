package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/auth"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/model"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/service/embedding"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/service/knowledge"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/service/tickets"
)

// testHandlers builds Handlers with no storage attached. Only validation
// paths that fail before reaching storage may be exercised through it.
func testHandlers() *Handlers {
	return NewHandlers(HandlersDeps{
		Logger:              discardLogger(),
		KnowledgeSvc:        knowledge.New(nil, embedding.NewNoopProvider(8), nil, nil, discardLogger()),
		TicketSvc:           tickets.New(nil, discardLogger()),
		MaxRequestBodyBytes: 1 << 20,
	})
}

func TestHandleListLegalAgents_InvalidSpecialization(t *testing.T) {
	h := testHandlers()
	req := httptest.NewRequest(http.MethodGet, "/v1/agents/legal?specialization=ASTROLOGY", nil)
	rec := httptest.NewRecorder()
	h.HandleListLegalAgents(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, model.ErrCodeInvalidInput, decodeAPIError(t, rec.Body).Error.Code)
}

func TestHandleSubmitTicket_Validation(t *testing.T) {
	h := testHandlers()

	valid := `{
		"ticket_number": "TX-12345",
		"violation_type": "SPEEDING",
		"issue_date": "2026-08-01T10:00:00Z",
		"location": "I-35 North, Austin TX",
		"fine_amount_cents": 25000,
		"description": "Clocked at 80 in a 65 zone by radar on the highway."
	}`

	cases := []struct {
		name   string
		mutate func(string) string
	}{
		{"description under 20 chars", func(s string) string {
			return strings.Replace(s, "Clocked at 80 in a 65 zone by radar on the highway.", "too short", 1)
		}},
		{"location under 5 chars", func(s string) string {
			return strings.Replace(s, "I-35 North, Austin TX", "I-35", 1)
		}},
		{"zero fine", func(s string) string {
			return strings.Replace(s, "25000", "0", 1)
		}},
		{"unknown violation type", func(s string) string {
			return strings.Replace(s, "SPEEDING", "JAYWALKING", 1)
		}},
		{"empty ticket number", func(s string) string {
			return strings.Replace(s, "TX-12345", "", 1)
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/tickets", strings.NewReader(tc.mutate(valid)))
			req = withClaims(req, testClaims(model.RoleCustomer))
			rec := httptest.NewRecorder()
			h.HandleSubmitTicket(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, model.ErrCodeInvalidInput, decodeAPIError(t, rec.Body).Error.Code)
		})
	}
}

func TestHandleSubmitTicket_ValidRequestPassesValidation(t *testing.T) {
	// Validation alone, via the model, so no storage is needed.
	req := model.SubmitTicketRequest{
		TicketNumber:    "TX-12345",
		ViolationType:   model.ViolationSpeeding,
		IssueDate:       time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		Location:        "I-35 North, Austin TX",
		FineAmountCents: 25000,
		Description:     "Clocked at 80 in a 65 zone by radar on the highway.",
	}
	assert.NoError(t, req.Validate())

	req.Description = strings.Repeat("x", model.MinTicketDescriptionLen)
	assert.NoError(t, req.Validate(), "description at the minimum length is accepted")

	req.Description = strings.Repeat("x", model.MinTicketDescriptionLen-1)
	assert.Error(t, req.Validate(), "one char under the minimum is rejected")
}

func TestHandleTicketPricing_BillingNotConfigured(t *testing.T) {
	h := testHandlers()
	req := withClaims(httptest.NewRequest(http.MethodGet, "/v1/tickets/pricing", nil), testClaims(model.RoleCustomer))
	rec := httptest.NewRecorder()
	h.HandleTicketPricing(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, model.ErrCodeDependencyFailed, decodeAPIError(t, rec.Body).Error.Code)
}

func TestHandleUpdateTicketStatus_InvalidID(t *testing.T) {
	h := testHandlers()
	req := httptest.NewRequest(http.MethodPatch, "/v1/tickets/not-a-uuid/status", strings.NewReader(`{"status":"resolved"}`))
	req.SetPathValue("id", "not-a-uuid")
	req = withClaims(req, testClaims(model.RoleAdmin))
	rec := httptest.NewRecorder()
	h.HandleUpdateTicketStatus(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleChatMessage_CompletionNotConfigured(t *testing.T) {
	h := testHandlers()
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/ceo", strings.NewReader(`{"message":"hello"}`))
	req = withClaims(req, testClaims(model.RoleCustomer))
	rec := httptest.NewRecorder()
	h.HandleChatMessage(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, model.ErrCodeDependencyFailed, decodeAPIError(t, rec.Body).Error.Code)
}

// TestRouterAuthorization drives requests through the full middleware chain
// and route table, asserting the authentication tiers without touching
// storage: admin-gated routes reject before their handlers run.
func TestRouterAuthorization(t *testing.T) {
	mgr, err := auth.NewJWTManager("", "", time.Hour)
	require.NoError(t, err)

	srv := New(ServerConfig{
		JWTMgr:              mgr,
		KnowledgeSvc:        knowledge.New(nil, embedding.NewNoopProvider(8), nil, nil, discardLogger()),
		TicketSvc:           tickets.New(nil, discardLogger()),
		Logger:              discardLogger(),
		Version:             "test",
		MaxRequestBodyBytes: 1 << 20,
	})

	customerToken, _, err := mgr.IssueToken(model.User{ID: uuid.New(), OpenID: "cust", Role: model.RoleCustomer})
	require.NoError(t, err)

	adminOnlyRoutes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/v1/audit"},
		{http.MethodGet, "/v1/discussions"},
		{http.MethodGet, "/v1/tickets/all"},
		{http.MethodGet, "/v1/subscriptions"},
		{http.MethodPost, "/v1/metrics"},
		{http.MethodGet, "/v1/knowledge/TRAFFIC-SPEED-001"},
	}

	for _, route := range adminOnlyRoutes {
		t.Run("customer forbidden "+route.method+" "+route.path, func(t *testing.T) {
			req := httptest.NewRequest(route.method, route.path, nil)
			req.Header.Set("Authorization", "Bearer "+customerToken)
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.Equal(t, model.ErrCodeForbidden, decodeAPIError(t, rec.Body).Error.Code)
		})

		t.Run("anonymous unauthorized "+route.method+" "+route.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(route.method, route.path, nil))

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}

	t.Run("protected route rejects anonymous", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/tickets/credits", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed token rejected even on public route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/board", nil)
		req.Header.Set("Authorization", "Bearer bogus")
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
