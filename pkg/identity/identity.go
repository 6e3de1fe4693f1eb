// Package identity delegates token verification to the external identity
// provider. This engine never sees credentials; it only exchanges an opaque
// session token for an opaque user identifier and a role.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Verifier exchanges an opaque session token for the authenticated user.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}

// Principal is the identity provider's answer for a valid token.
type Principal struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
}

// ErrInvalidToken is returned for unknown, malformed or expired tokens.
var ErrInvalidToken = fmt.Errorf("invalid or expired token")

// HTTPVerifier verifies tokens against the identity provider's introspection
// endpoint.
type HTTPVerifier struct {
	baseURL string
	client  *http.Client
}

func NewHTTPVerifier(baseURL string, timeout time.Duration) *HTTPVerifier {
	return &HTTPVerifier{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (v *HTTPVerifier) Verify(ctx context.Context, token string) (*Principal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/v1/introspect", nil)
	if err != nil {
		return nil, fmt.Errorf("build introspect request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call identity provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrInvalidToken
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity provider returned %d", resp.StatusCode)
	}

	var principal Principal
	if err := json.NewDecoder(resp.Body).Decode(&principal); err != nil {
		return nil, fmt.Errorf("decode identity response: %w", err)
	}
	if principal.UserID == uuid.Nil {
		return nil, ErrInvalidToken
	}

	return &principal, nil
}
