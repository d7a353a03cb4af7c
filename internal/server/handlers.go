package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/auth"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/billing"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/model"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/search"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/service/knowledge"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/service/tickets"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/storage"
)

// adminOpenID identifies the provisioned service-account admin. It exists
// outside the OAuth proxy and authenticates with an API key.
const adminOpenID = "tdai-admin"

// Handlers holds HTTP handler dependencies.
type Handlers struct {
	db                  *storage.DB
	jwtMgr              *auth.JWTManager
	knowledgeSvc        *knowledge.Service
	ticketSvc           *tickets.Service
	billingSvc          *billing.Service
	searcher            search.Searcher
	logger              *slog.Logger
	startedAt           time.Time
	version             string
	ownerOpenID         string
	maxRequestBodyBytes int64
}

// HandlersDeps holds all dependencies for constructing Handlers.
// Optional (nil-safe): BillingSvc, Searcher.
type HandlersDeps struct {
	DB                  *storage.DB
	JWTMgr              *auth.JWTManager
	KnowledgeSvc        *knowledge.Service
	TicketSvc           *tickets.Service
	BillingSvc          *billing.Service
	Searcher            search.Searcher
	Logger              *slog.Logger
	Version             string
	OwnerOpenID         string
	MaxRequestBodyBytes int64
}

// NewHandlers creates a new Handlers with all dependencies.
func NewHandlers(d HandlersDeps) *Handlers {
	return &Handlers{
		db:                  d.DB,
		jwtMgr:              d.JWTMgr,
		knowledgeSvc:        d.KnowledgeSvc,
		ticketSvc:           d.TicketSvc,
		billingSvc:          d.BillingSvc,
		searcher:            d.Searcher,
		logger:              d.Logger,
		startedAt:           time.Now(),
		version:             d.Version,
		ownerOpenID:         d.OwnerOpenID,
		maxRequestBodyBytes: d.MaxRequestBodyBytes,
	}
}

// handleDecodeError writes the standard response for a bad request body.
func handleDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		writeError(w, r, http.StatusRequestEntityTooLarge, model.ErrCodeInvalidInput,
			fmt.Sprintf("request body exceeds %d bytes", maxBytesErr.Limit))
		return
	}
	writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "invalid request body: "+err.Error())
}

// HandleLogin handles POST /auth/login. The open_id arrives pre-verified
// from the platform's OAuth proxy; this endpoint upserts the account and
// issues a session token. The configured owner open_id is promoted to admin.
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	role := model.RoleCustomer
	if h.ownerOpenID != "" && req.OpenID == h.ownerOpenID {
		role = model.RoleAdmin
	}

	user, err := h.db.UpsertUser(r.Context(), req, role)
	if err != nil {
		writeStorageError(w, r, h.logger, err)
		return
	}

	token, expiresAt, err := h.jwtMgr.IssueToken(user)
	if err != nil {
		h.logger.Error("issue token", "error", err, "user_id", user.ID)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "failed to issue token")
		return
	}

	writeJSON(w, r, http.StatusOK, model.TokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	})
}

// HandleAuthToken handles POST /auth/token. Exchanges an email plus
// provisioned API key for a session token. Unknown emails and accounts
// without a key burn a dummy Argon2id verification so response timing does
// not reveal which emails exist.
func (h *Handlers) HandleAuthToken(w http.ResponseWriter, r *http.Request) {
	var req model.TokenRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if req.Email == "" || req.APIKey == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "email and api_key are required")
		return
	}

	user, err := h.db.GetUserByEmail(r.Context(), req.Email)
	if err != nil || user.APIKeyHash == nil {
		auth.DummyVerify()
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorized, "invalid credentials")
		return
	}

	valid, err := auth.VerifyAPIKey(req.APIKey, *user.APIKeyHash)
	if err != nil || !valid {
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorized, "invalid credentials")
		return
	}

	token, expiresAt, err := h.jwtMgr.IssueToken(user)
	if err != nil {
		h.logger.Error("issue token", "error", err, "user_id", user.ID)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "failed to issue token")
		return
	}

	// Audit key-based token issuance. Best-effort: failure to audit must
	// not block the token response.
	if auditErr := h.db.InsertAudit(r.Context(), storage.AuditEntry{
		EntityType:  "user",
		EntityID:    user.ID.String(),
		Action:      "token_issued",
		PerformedBy: user.ID.String(),
	}); auditErr != nil {
		h.logger.Error("audit token issuance", "error", auditErr, "user_id", user.ID)
	}

	writeJSON(w, r, http.StatusOK, model.TokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	})
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	pgStatus := "connected"
	status := "healthy"
	httpStatus := http.StatusOK

	if err := h.db.Ping(r.Context()); err != nil {
		pgStatus = "disconnected"
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	resp := model.HealthResponse{
		Status:   status,
		Version:  h.version,
		Postgres: pgStatus,
		Uptime:   int64(time.Since(h.startedAt).Seconds()),
	}

	if h.searcher != nil {
		if err := h.searcher.Healthy(r.Context()); err == nil {
			resp.Qdrant = "connected"
		} else {
			resp.Qdrant = "disconnected"
			if status == "healthy" {
				resp.Status = "degraded"
			}
		}
	}

	if h.knowledgeSvc != nil {
		if h.knowledgeSvc.CompletionConfigured() {
			resp.Completion = "configured"
		} else {
			resp.Completion = "disabled"
		}
	}

	writeJSON(w, r, httpStatus, resp)
}

// SeedAdmin provisions the service-account admin when an API key is
// configured. Idempotent: re-running refreshes the key hash.
func (h *Handlers) SeedAdmin(ctx context.Context, adminAPIKey string) error {
	if adminAPIKey == "" {
		count, err := h.db.CountUsers(ctx)
		if err != nil {
			return fmt.Errorf("seed admin: count users: %w", err)
		}
		if count == 0 {
			h.logger.Warn("no admin API key configured and no users exist; set TDAI_ADMIN_API_KEY to bootstrap admin access")
		}
		return nil
	}

	user, err := h.db.UpsertUser(ctx, model.LoginRequest{
		OpenID:      adminOpenID,
		Name:        "Platform Admin",
		Email:       "admin@tdai.internal",
		LoginMethod: "api_key",
	}, model.RoleAdmin)
	if err != nil {
		return fmt.Errorf("seed admin: upsert user: %w", err)
	}

	hash, err := auth.HashAPIKey(adminAPIKey)
	if err != nil {
		return fmt.Errorf("seed admin: hash key: %w", err)
	}
	if err := h.db.SetUserAPIKeyHash(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("seed admin: store key hash: %w", err)
	}

	h.logger.Info("seeded admin service account", "user_id", user.ID)
	return nil
}
