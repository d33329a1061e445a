// Package authclient is a typed client for the userhub API. It mirrors the
// browser auth provider: successful login/register responses populate a
// session store, and any Unauthorized/Forbidden answer from the server
// clears that store unconditionally so the caller re-routes to login.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/userhub/pkg/session"
)

var (
	ErrNoToken      = errors.New("no token cached")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// APIError carries the server's {message} body for everything that is not
// an auth failure.
type APIError struct {
	Status  int
	Message string
}

func (e APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return fmt.Sprintf("api request failed (%d): %s", e.Status, e.Message)
}

type Provider struct {
	baseURL    string
	httpClient *http.Client
	store      *session.Store
}

// Option customises provider instantiation.
type Option func(*Provider)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(p *Provider) {
		if h != nil {
			p.httpClient = h
		}
	}
}

// New constructs a Provider pointing at the API base URL (the part before
// /api).
func New(base string, store *session.Store, opts ...Option) *Provider {
	if store == nil {
		store = session.NewStore()
	}

	p := &Provider{
		baseURL:    strings.TrimRight(strings.TrimSpace(base), "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		store:      store,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Store exposes the backing session store.
func (p *Provider) Store() *session.Store {
	return p.store
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

// Login exchanges credentials for a token and caches token/role/email.
func (p *Provider) Login(ctx context.Context, creds Credentials) error {
	var out sessionResponse

	if err := p.do(ctx, http.MethodPost, "/api/login", creds, false, &out); err != nil {
		return err
	}

	p.store.Set(out.Token, out.Role, creds.Email)
	return nil
}

// Register self-registers and caches the new session, like the web client
// does after signup.
func (p *Provider) Register(ctx context.Context, creds Credentials) error {
	var out sessionResponse

	if err := p.do(ctx, http.MethodPost, "/api/register", creds, false, &out); err != nil {
		return err
	}

	p.store.Set(out.Token, out.Role, creds.Email)
	return nil
}

// Logout tells the server best-effort and clears the cache regardless of
// the outcome; there is nothing durable to tear down server-side.
func (p *Provider) Logout(ctx context.Context) error {
	err := p.do(ctx, http.MethodPost, "/api/logout", nil, true, nil)

	p.store.Clear()

	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden) {
		return nil
	}

	return err
}

// CheckAuth re-validates the cached token against the server. On rejection
// the cache is already cleared and the caller should route to login.
func (p *Provider) CheckAuth(ctx context.Context) error {
	if !p.store.Authenticated() {
		return ErrNoToken
	}

	return p.do(ctx, http.MethodGet, "/api/check-auth", nil, true, nil)
}

// Permissions returns the cached role without a server round-trip; that is
// what gates which actions the UI offers.
func (p *Provider) Permissions() (string, error) {
	role := p.store.Role()

	if role == "" {
		return "", ErrNoToken
	}

	return role, nil
}

type Identity struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// GetIdentity fetches the current profile from the server.
func (p *Provider) GetIdentity(ctx context.Context) (Identity, error) {
	if !p.store.Authenticated() {
		return Identity{}, ErrNoToken
	}

	var id Identity

	if err := p.do(ctx, http.MethodGet, "/api/me", nil, true, &id); err != nil {
		return Identity{}, err
	}

	return id, nil
}

func (p *Provider) do(ctx context.Context, method, path string, body any, withToken bool, v any) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if withToken {
		token := p.store.Token()

		if token == "" {
			return ErrNoToken
		}

		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// 401/403 from anywhere means the session is done: wipe the cache.
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		p.store.Clear()
		return ErrUnauthorized
	case http.StatusForbidden:
		p.store.Clear()
		return ErrForbidden
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var body struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &body)

		return APIError{Status: resp.StatusCode, Message: body.Message}
	}

	if v != nil && len(data) > 0 {
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}
