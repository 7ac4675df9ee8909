// Package remote implements the store contract as an HTTP proxy against a
// directory server. Every operation maps onto one endpoint; domain outcomes
// (ErrNotFound, ErrAlreadyExists, ErrConflict) travel the wire as coded
// error envelopes and are reconstructed here, so callers cannot tell this
// driver apart from the sqlite one. Transport faults surface as
// *TransportError, never as a domain sentinel.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/crewdir/crewdir/internal/directory/domain"
	"github.com/crewdir/crewdir/internal/directory/store"
	"github.com/crewdir/crewdir/pkg/dirapi"
	"github.com/crewdir/crewdir/pkg/jwtx"
)

// TransportError reports a failure to complete the round trip or an
// unexpected response: network errors, auth rejections, 5xx. It is
// deliberately distinct from the store sentinels so "absent" can never be
// confused with "unreachable".
type TransportError struct {
	Status int    // zero when the request never completed
	Code   string // wire error code when one was decoded
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("remote store: status %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("remote store: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Config carries the proxy settings. Signer is optional; when set every
// request carries a freshly minted service token for Subject.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Signer     *jwtx.Signer
	Subject    string
	TokenTTL   time.Duration
}

// Store is the HTTP proxy driver.
type Store struct {
	baseURL string
	http    *http.Client
	signer  *jwtx.Signer
	subject string
	ttl     time.Duration

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

func NewStore(cfg Config) *Store {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	ttl := cfg.TokenTTL
	if ttl == 0 {
		ttl = 5 * time.Minute
	}

	return &Store{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		http:    httpClient,
		signer:  cfg.Signer,
		subject: cfg.Subject,
		ttl:     ttl,
	}
}

func (s *Store) Users() store.Users   { return &usersRepo{s: s} }
func (s *Store) Roles() store.Roles   { return &rolesRepo{s: s} }
func (s *Store) Claims() store.Claims { return &claimsRepo{s: s} }
func (s *Store) Logins() store.Logins { return &loginsRepo{s: s} }

// Ping hits the readiness probe; any non-200 answer means the remote
// directory cannot serve.
func (s *Store) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/readyz", nil)
	if err != nil {
		return &TransportError{Err: err}
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &TransportError{
			Status: resp.StatusCode,
			Err:    fmt.Errorf("remote directory not ready"),
		}
	}
	return nil
}

func (s *Store) Close() error {
	s.http.CloseIdleConnections()
	return nil
}

// serviceToken returns a cached bearer token, minting a fresh one when the
// current one is within 30 seconds of expiry.
func (s *Store) serviceToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && time.Until(s.tokenExp) > 30*time.Second {
		return s.token, nil
	}

	token, err := s.signer.Sign(s.subject, []string{jwtx.ScopeRead, jwtx.ScopeWrite}, s.ttl)
	if err != nil {
		return "", fmt.Errorf("mint service token: %w", err)
	}
	s.token = token
	s.tokenExp = time.Now().Add(s.ttl)
	return token, nil
}

// do runs one round trip: marshal in (when non-nil), decode into out (when
// non-nil) on expect, otherwise reconstruct the wire error.
func (s *Store) do(ctx context.Context, method, path string, in, out any, expect int) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return &TransportError{Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return &TransportError{Err: err}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.signer != nil {
		token, err := s.serviceToken()
		if err != nil {
			return &TransportError{Err: err}
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode != expect {
		return decodeError(resp.StatusCode, raw)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return &TransportError{
				Status: resp.StatusCode,
				Err:    fmt.Errorf("decode response: %w", err),
			}
		}
	}
	return nil
}

func usersToDomain(users []dirapi.User) []domain.User {
	if len(users) == 0 {
		return nil
	}
	out := make([]domain.User, len(users))
	for i, u := range users {
		out[i] = u.ToDomain()
	}
	return out
}

// decodeError maps a coded error envelope back onto the store sentinels.
// Anything without a recognised code, auth failures included, is a
// transport fault.
func decodeError(status int, raw []byte) error {
	var envelope dirapi.ErrorResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return &TransportError{
			Status: status,
			Err:    fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(raw))),
		}
	}

	// A sentinel is reconstructed only from the exact status+code pair the
	// server emits; a recognised code on the wrong status (a proxy error
	// page, a stale cache) stays a transport fault.
	switch {
	case status == http.StatusNotFound && envelope.Error == dirapi.ErrorCodeNotFound:
		return store.ErrNotFound
	case status == http.StatusConflict && envelope.Error == dirapi.ErrorCodeAlreadyExists:
		return store.ErrAlreadyExists
	case status == http.StatusConflict && envelope.Error == dirapi.ErrorCodeConflict:
		return fmt.Errorf("%w: %s", store.ErrConflict, envelope.ErrorDescription)
	default:
		return &TransportError{
			Status: status,
			Code:   envelope.Error,
			Err:    fmt.Errorf("%s", envelope.ErrorDescription),
		}
	}
}
