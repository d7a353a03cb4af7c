package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/auth"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testClaims builds claims for a user with the given role, injected directly
// into the request context the way authMiddleware would.
func testClaims(role model.UserRole) *auth.Claims {
	return &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.NewString()},
		OpenID:           "open-" + uuid.NewString(),
		Role:             role,
	}
}

func withClaims(r *http.Request, claims *auth.Claims) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), contextKeyClaims, claims))
}

func decodeAPIError(t *testing.T, body io.Reader) model.APIError {
	t.Helper()
	var apiErr model.APIError
	require.NoError(t, json.NewDecoder(body).Decode(&apiErr))
	return apiErr
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	t.Run("echoes provided id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "req-abc")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "req-abc", seen)
		assert.Equal(t, "req-abc", rec.Header().Get("X-Request-ID"))
	})

	t.Run("generates id when absent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, seen)
		_, err := uuid.Parse(seen)
		assert.NoError(t, err)
	})
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	handler := securityHeadersMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestAuthMiddleware(t *testing.T) {
	mgr, err := auth.NewJWTManager("", "", time.Hour)
	require.NoError(t, err)

	var gotClaims *auth.Claims
	handler := authMiddleware(mgr, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims = ClaimsFromContext(r.Context())
	}))

	t.Run("no header passes through unauthenticated", func(t *testing.T) {
		gotClaims = nil
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/board", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, gotClaims)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/board", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, model.ErrCodeUnauthorized, decodeAPIError(t, rec.Body).Error.Code)
	})

	t.Run("malformed scheme rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/board", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token populates claims", func(t *testing.T) {
		user := model.User{ID: uuid.New(), OpenID: "u-1", Role: model.RoleCustomer}
		token, _, err := mgr.IssueToken(user)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/v1/board", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.NotNil(t, gotClaims)
		assert.Equal(t, user.ID.String(), gotClaims.Subject)
		assert.Equal(t, model.RoleCustomer, gotClaims.Role)
	})
}

func TestRequireAuth(t *testing.T) {
	handler := requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, withClaims(httptest.NewRequest(http.MethodGet, "/", nil), testClaims(model.RoleCustomer)))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	handler := requireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("unauthenticated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("customer forbidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, withClaims(httptest.NewRequest(http.MethodGet, "/", nil), testClaims(model.RoleCustomer)))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, model.ErrCodeForbidden, decodeAPIError(t, rec.Body).Error.Code)
	})

	t.Run("user forbidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, withClaims(httptest.NewRequest(http.MethodGet, "/", nil), testClaims(model.RoleUser)))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin allowed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, withClaims(httptest.NewRequest(http.MethodGet, "/", nil), testClaims(model.RoleAdmin)))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := recoveryMiddleware(discardLogger(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, model.ErrCodeInternalError, decodeAPIError(t, rec.Body).Error.Code)
}

func TestWriteErrorEnvelope(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), contextKeyRequestID, "req-42"))
	rec := httptest.NewRecorder()

	writeError(rec, req, http.StatusConflict, model.ErrCodeConflict, "already resolved")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	apiErr := decodeAPIError(t, rec.Body)
	assert.Equal(t, model.ErrCodeConflict, apiErr.Error.Code)
	assert.Equal(t, "already resolved", apiErr.Error.Message)
	assert.Equal(t, "req-42", apiErr.Meta.RequestID)
	assert.False(t, apiErr.Meta.Timestamp.IsZero())
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	t.Run("valid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
		var p payload
		require.NoError(t, decodeJSON(httptest.NewRecorder(), req, &p, 1024))
		assert.Equal(t, "x", p.Name)
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","extra":1}`))
		var p payload
		assert.Error(t, decodeJSON(httptest.NewRecorder(), req, &p, 1024))
	})

	t.Run("oversized body rejected with 413", func(t *testing.T) {
		big := `{"name":"` + strings.Repeat("a", 100) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
		rec := httptest.NewRecorder()
		var p payload
		err := decodeJSON(rec, req, &p, 16)
		require.Error(t, err)

		handleDecodeError(rec, req, err)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}

func TestQueryLimit(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"", defaultQueryLimit},
		{"10", 10},
		{"0", defaultQueryLimit},
		{"-5", defaultQueryLimit},
		{"junk", defaultQueryLimit},
		{"99999", maxQueryLimit},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/?limit="+tc.raw, nil)
		assert.Equal(t, tc.want, queryLimit(req, defaultQueryLimit), "limit=%q", tc.raw)
	}
}
