package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/api"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/auth"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/billing"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/model"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/ratelimit"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/search"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/service/knowledge"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/service/tickets"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/storage"
)

// Server is the TDAI HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	handlers   *Handlers
	logger     *slog.Logger
}

// Handler returns the root HTTP handler for use in tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ServerConfig holds all dependencies and configuration for creating a Server.
// Optional fields (nil-safe): BillingSvc, Limiter, Searcher.
type ServerConfig struct {
	// Required dependencies.
	DB           *storage.DB
	JWTMgr       *auth.JWTManager
	KnowledgeSvc *knowledge.Service
	TicketSvc    *tickets.Service
	Logger       *slog.Logger

	// Optional dependencies (nil = disabled).
	BillingSvc *billing.Service
	Limiter    ratelimit.Limiter
	Searcher   search.Searcher

	// HTTP server settings.
	Port                int
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	Version             string
	OwnerOpenID         string
	MaxRequestBodyBytes int64
}

// New creates a new HTTP server with all routes configured.
func New(cfg ServerConfig) *Server {
	h := NewHandlers(HandlersDeps{
		DB:                  cfg.DB,
		JWTMgr:              cfg.JWTMgr,
		KnowledgeSvc:        cfg.KnowledgeSvc,
		TicketSvc:           cfg.TicketSvc,
		BillingSvc:          cfg.BillingSvc,
		Searcher:            cfg.Searcher,
		Logger:              cfg.Logger,
		Version:             cfg.Version,
		OwnerOpenID:         cfg.OwnerOpenID,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
	})

	// Request ID extractor for rate limit error responses.
	reqIDFunc := func(r *http.Request) string {
		return RequestIDFromContext(r.Context())
	}

	// Rate limit wrappers. Auth endpoints are keyed by IP; chat and
	// retrieval endpoints by authenticated user, admins exempt.
	authRL := ratelimit.Middleware(cfg.Limiter, ratelimit.IPKeyFunc, reqIDFunc)
	userRL := ratelimit.Middleware(cfg.Limiter, userKeyFunc, reqIDFunc)

	mux := http.NewServeMux()

	// Auth (public, IP rate limited).
	mux.Handle("POST /auth/login", authRL(http.HandlerFunc(h.HandleLogin)))
	mux.Handle("POST /auth/token", authRL(http.HandlerFunc(h.HandleAuthToken)))

	// Legal agent directory (public).
	mux.HandleFunc("GET /v1/agents/legal", h.HandleListLegalAgents)
	mux.HandleFunc("GET /v1/agents/legal/stats", h.HandleLegalAgentStats)
	mux.HandleFunc("GET /v1/agents/legal/{agent_id}", h.HandleGetLegalAgent)

	// Management agents and oversight (public reads, protected create).
	mux.HandleFunc("GET /v1/agents/management", h.HandleListManagementAgents)
	mux.HandleFunc("GET /v1/agents/management/{agent_id}", h.HandleGetManagementAgent)
	mux.Handle("POST /v1/agents/management", requireAuth(http.HandlerFunc(h.HandleCreateManagementAgent)))
	mux.HandleFunc("GET /v1/board", h.HandleListBoard)
	mux.HandleFunc("GET /v1/communications", h.HandleListCommunications)
	mux.Handle("POST /v1/communications", requireAdmin(http.HandlerFunc(h.HandleCreateCommunication)))

	// Decisions (public reads, protected resolution).
	mux.HandleFunc("GET /v1/decisions/pending", h.HandleListPendingDecisions)
	mux.HandleFunc("GET /v1/decisions", h.HandleListDecisions)
	mux.Handle("POST /v1/decisions", requireAdmin(http.HandlerFunc(h.HandleCreateDecision)))
	mux.Handle("POST /v1/decisions/{id}/approve", requireAuth(http.HandlerFunc(h.HandleApproveDecision)))
	mux.Handle("POST /v1/decisions/{id}/reject", requireAuth(http.HandlerFunc(h.HandleRejectDecision)))

	// Consultations (protected; replies rate limited per user).
	mux.Handle("POST /v1/consultations", requireAuth(http.HandlerFunc(h.HandleCreateConsultation)))
	mux.Handle("GET /v1/consultations", requireAuth(http.HandlerFunc(h.HandleListConsultations)))
	mux.Handle("GET /v1/consultations/{id}", requireAuth(http.HandlerFunc(h.HandleGetConsultation)))
	mux.Handle("POST /v1/consultations/{id}/messages", userRL(requireAuth(http.HandlerFunc(h.HandleConsultationMessage))))
	mux.Handle("PATCH /v1/consultations/{id}", requireAuth(http.HandlerFunc(h.HandleUpdateConsultation)))
	mux.Handle("POST /v1/consultations/{id}/rate", requireAuth(http.HandlerFunc(h.HandleRateConsultation)))

	// Traffic tickets (protected; lifecycle admin).
	mux.Handle("GET /v1/tickets/credits", requireAuth(http.HandlerFunc(h.HandleTicketCredits)))
	mux.Handle("GET /v1/tickets/pricing", requireAuth(http.HandlerFunc(h.HandleTicketPricing)))
	mux.Handle("POST /v1/tickets/checkout", requireAuth(http.HandlerFunc(h.HandleTicketCheckout)))
	mux.Handle("GET /v1/tickets/purchases", requireAuth(http.HandlerFunc(h.HandleListPurchases)))
	mux.Handle("POST /v1/tickets", requireAuth(http.HandlerFunc(h.HandleSubmitTicket)))
	mux.Handle("GET /v1/tickets", requireAuth(http.HandlerFunc(h.HandleListTickets)))
	mux.Handle("GET /v1/tickets/all", requireAdmin(http.HandlerFunc(h.HandleListAllTickets)))
	mux.Handle("PATCH /v1/tickets/{id}/status", requireAdmin(http.HandlerFunc(h.HandleUpdateTicketStatus)))
	mux.Handle("GET /v1/tickets/{id}/discussions", requireAuth(http.HandlerFunc(h.HandleTicketDiscussions)))
	mux.Handle("GET /v1/discussions", requireAdmin(http.HandlerFunc(h.HandleListDiscussions)))
	mux.Handle("POST /v1/discussions", requireAdmin(http.HandlerFunc(h.HandleCreateDiscussion)))

	// Knowledge base (admin management, authenticated retrieval).
	mux.Handle("GET /v1/knowledge/{agent_id}", requireAdmin(http.HandlerFunc(h.HandleListKnowledge)))
	mux.Handle("POST /v1/knowledge/{agent_id}", requireAdmin(http.HandlerFunc(h.HandleAddKnowledge)))
	mux.Handle("DELETE /v1/knowledge/{agent_id}/{doc_id}", requireAdmin(http.HandlerFunc(h.HandleDeleteKnowledge)))
	mux.Handle("GET /v1/knowledge/{agent_id}/context", requireAdmin(http.HandlerFunc(h.HandleKnowledgeContext)))
	mux.Handle("POST /v1/knowledge/{agent_id}/search", userRL(requireAuth(http.HandlerFunc(h.HandleSearchKnowledge))))

	// Executive chat (protected, rate limited per user).
	mux.Handle("GET /v1/chat/ceo", requireAuth(http.HandlerFunc(h.HandleChatHistory)))
	mux.Handle("POST /v1/chat/ceo", userRL(requireAuth(http.HandlerFunc(h.HandleChatMessage))))

	// Subscriptions and billing (webhook unauthenticated, Stripe-signed).
	mux.Handle("GET /v1/subscriptions/current", requireAuth(http.HandlerFunc(h.HandleCurrentSubscription)))
	mux.Handle("GET /v1/subscriptions", requireAdmin(http.HandlerFunc(h.HandleListSubscriptions)))
	mux.Handle("POST /v1/subscriptions/{id}/cancel", requireAuth(http.HandlerFunc(h.HandleCancelSubscription)))
	mux.Handle("POST /billing/checkout", requireAuth(http.HandlerFunc(h.HandleBillingCheckout)))
	mux.HandleFunc("POST /billing/webhooks", h.HandleBillingWebhook)

	// Metrics and audit.
	mux.HandleFunc("GET /v1/metrics", h.HandleListMetrics)
	mux.Handle("POST /v1/metrics", requireAdmin(http.HandlerFunc(h.HandleRecordMetric)))
	mux.Handle("GET /v1/audit", requireAdmin(http.HandlerFunc(h.HandleListAuditLogs)))

	// Health and API reference (no auth, no rate limit).
	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET /openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(api.OpenAPISpec)
	})

	// Middleware chain (outermost executes first):
	// request ID → security headers → tracing → logging → auth → recovery → handler.
	var handler http.Handler = mux
	handler = recoveryMiddleware(cfg.Logger, handler)
	handler = authMiddleware(cfg.JWTMgr, handler)
	handler = loggingMiddleware(cfg.Logger, handler)
	handler = tracingMiddleware(handler)
	handler = securityHeadersMiddleware(handler)
	handler = requestIDMiddleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		handler:  handler,
		handlers: h,
		logger:   cfg.Logger,
	}
}

// userKeyFunc keys rate limits by authenticated user. Returns empty string
// for unauthenticated requests and admins (exempt).
func userKeyFunc(r *http.Request) string {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		return ""
	}
	if claims.Role == model.RoleAdmin {
		return ""
	}
	return "user:" + claims.Subject
}

// Handlers returns the underlying Handlers for access to SeedAdmin etc.
func (s *Server) Handlers() *Handlers {
	return s.handlers
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}
