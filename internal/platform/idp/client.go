// Package idp wraps the hosted identity provider's HTTP API. Two clients are
// exposed: a Verifier bound to nothing but the caller's own bearer token, and
// an Admin client holding the service-role key. The Admin client must only be
// constructed behind a passed authorization check.
package idp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/audithub/audithub/internal/shared"
)

var (
	// ErrInvalidToken indicates the provider rejected the bearer token.
	ErrInvalidToken = errors.New("idp: invalid token")
	// ErrNotFound indicates the identity does not exist on the provider.
	ErrNotFound = errors.New("idp: identity not found")
)

// Identity is the provider-side view of an authenticable principal.
type Identity struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// Verifier validates bearer tokens with no ambient privilege.
type Verifier struct {
	baseURL string
	client  *http.Client
}

// NewVerifier constructs a Verifier for the given provider base URL.
func NewVerifier(baseURL string) *Verifier {
	return &Verifier{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// UserForToken resolves the identity that owns the token. The request carries
// only the caller's token, so a forged or expired credential cannot reach
// anything beyond its own identity record.
func (v *Verifier) UserForToken(ctx context.Context, token string) (Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return Identity{}, fmt.Errorf("idp: build user request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := v.client.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("idp: verify token: %w", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusOK:
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return Identity{}, ErrInvalidToken
	default:
		return Identity{}, fmt.Errorf("idp: verify token: unexpected status %d", res.StatusCode)
	}

	var ident Identity
	if err := json.NewDecoder(res.Body).Decode(&ident); err != nil {
		return Identity{}, fmt.Errorf("idp: decode identity: %w", err)
	}
	if ident.ID == uuid.Nil {
		return Identity{}, ErrInvalidToken
	}
	return ident, nil
}

// Admin performs identity lifecycle operations with the service-role key.
type Admin struct {
	baseURL    string
	serviceKey string
	client     *http.Client
}

// NewAdmin constructs an Admin client. The service key is required; handlers
// fail hard when it is absent rather than degrading to anonymous access.
func NewAdmin(baseURL, serviceKey string) (*Admin, error) {
	if serviceKey == "" {
		return nil, shared.ErrServiceKeyMissing
	}
	return &Admin{
		baseURL:    baseURL,
		serviceKey: serviceKey,
		client:     &http.Client{Timeout: 15 * time.Second},
	}, nil
}

type createUserRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	EmailConfirm bool   `json:"email_confirm"`
}

// CreateUser registers a new identity and returns its id.
func (a *Admin) CreateUser(ctx context.Context, email, password string) (uuid.UUID, error) {
	body, err := json.Marshal(createUserRequest{Email: email, Password: password, EmailConfirm: true})
	if err != nil {
		return uuid.Nil, fmt.Errorf("idp: encode create user: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/auth/v1/admin/users", bytes.NewReader(body))
	if err != nil {
		return uuid.Nil, fmt.Errorf("idp: build create user request: %w", err)
	}
	a.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	res, err := a.client.Do(req)
	if err != nil {
		return uuid.Nil, fmt.Errorf("idp: create user: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
		return uuid.Nil, fmt.Errorf("idp: create user: unexpected status %d", res.StatusCode)
	}
	var ident Identity
	if err := json.NewDecoder(res.Body).Decode(&ident); err != nil {
		return uuid.Nil, fmt.Errorf("idp: decode created identity: %w", err)
	}
	if ident.ID == uuid.Nil {
		return uuid.Nil, errors.New("idp: provider returned no identity id")
	}
	return ident.ID, nil
}

// DeleteUser revokes the identity's credential on the provider.
func (a *Admin) DeleteUser(ctx context.Context, id uuid.UUID) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, a.baseURL+"/auth/v1/admin/users/"+id.String(), nil)
	if err != nil {
		return fmt.Errorf("idp: build delete user request: %w", err)
	}
	a.authorize(req)

	res, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("idp: delete user: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("idp: delete user: unexpected status %d", res.StatusCode)
	}
}

type listUsersResponse struct {
	Users []Identity `json:"users"`
}

// ListUsers returns one page of identities. Pages are 1-based.
func (a *Admin) ListUsers(ctx context.Context, page, perPage int) ([]Identity, error) {
	endpoint, err := url.Parse(a.baseURL + "/auth/v1/admin/users")
	if err != nil {
		return nil, fmt.Errorf("idp: parse list url: %w", err)
	}
	q := endpoint.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("idp: build list users request: %w", err)
	}
	a.authorize(req)

	res, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("idp: list users: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("idp: list users: unexpected status %d", res.StatusCode)
	}
	var payload listUsersResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("idp: decode users page: %w", err)
	}
	return payload.Users, nil
}

func (a *Admin) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+a.serviceKey)
	req.Header.Set("apikey", a.serviceKey)
}
