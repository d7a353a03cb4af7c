package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserRole represents the platform role assigned to a user account.
type UserRole string

const (
	RoleUser     UserRole = "user"
	RoleAdmin    UserRole = "admin"
	RoleCustomer UserRole = "customer"
)

// ValidUserRole reports whether r is a recognized role.
func ValidUserRole(r UserRole) bool {
	switch r {
	case RoleUser, RoleAdmin, RoleCustomer:
		return true
	}
	return false
}

// User is a platform account. Accounts are created on first login and
// default to the customer role.
type User struct {
	ID           uuid.UUID `json:"id"`
	OpenID       string    `json:"open_id"`
	Name         *string   `json:"name,omitempty"`
	Email        *string   `json:"email,omitempty"`
	LoginMethod  *string   `json:"login_method,omitempty"`
	Role         UserRole  `json:"role"`
	APIKeyHash   *string   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	LastSignedIn time.Time `json:"last_signed_in"`
}

// LoginRequest is the request body for POST /auth/login. The OpenID value
// comes from the upstream identity provider.
type LoginRequest struct {
	OpenID      string `json:"open_id"`
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	LoginMethod string `json:"login_method,omitempty"`
}

// Validate checks required login fields.
func (r LoginRequest) Validate() error {
	if strings.TrimSpace(r.OpenID) == "" {
		return fmt.Errorf("open_id is required")
	}
	if len(r.OpenID) > 255 {
		return fmt.Errorf("open_id must be at most 255 characters")
	}
	return nil
}

// TokenRequest is the request body for POST /auth/token. Used by admin and
// service callers holding a provisioned API key.
type TokenRequest struct {
	Email  string `json:"email"`
	APIKey string `json:"api_key"`
}

// TokenResponse carries an issued session token.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}
