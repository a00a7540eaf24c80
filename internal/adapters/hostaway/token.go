// internal/adapters/hostaway/token.go
package hostaway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"owner_portal/internal/adapters/observability"
	"owner_portal/internal/domain"
)

// safetyMargin forces a refresh before the token's true expiry.
const safetyMargin = 5 * time.Minute

// TokenSource caches the single process-wide vendor access token. A cached,
// unexpired token is reused by all concurrent requests; concurrent refreshes
// are coalesced into one client-credentials exchange via singleflight.
type TokenSource struct {
	base         string
	clientID     string
	clientSecret string
	hc           *http.Client
	now          func() time.Time

	sf singleflight.Group

	mu        sync.Mutex
	value     string
	expiresAt time.Time
}

func NewTokenSource(base, clientID, clientSecret string) *TokenSource {
	return &TokenSource{
		base:         strings.TrimRight(base, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		hc:           &http.Client{Timeout: 30 * time.Second},
		now:          time.Now,
	}
}

// Token returns the cached access token, refreshing it first when absent or
// within the safety margin of expiry.
func (t *TokenSource) Token(ctx context.Context) (string, error) {
	if v, ok := t.cached(); ok {
		return v, nil
	}
	v, err, _ := t.sf.Do("token", func() (any, error) {
		// another waiter may have refreshed while we queued
		if v, ok := t.cached(); ok {
			return v, nil
		}
		// the exchange outcome is shared by every coalesced waiter, so it
		// must not die with the initiating request's context
		return t.refresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate clears the cached token, forcing the next Token call to perform
// a fresh exchange. Called by the executor on a 401.
func (t *TokenSource) Invalidate() {
	t.mu.Lock()
	t.value = ""
	t.expiresAt = time.Time{}
	t.mu.Unlock()
}

func (t *TokenSource) cached() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.value != "" && t.now().Before(t.expiresAt) {
		return t.value, true
	}
	return "", false
}

// refresh performs the client-credentials exchange. A failed exchange caches
// nothing; the error is an auth-kind VendorError.
func (t *TokenSource) refresh(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", t.clientID)
	form.Set("client_secret", t.clientSecret)
	form.Set("scope", "general")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.base+"/accessTokens", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := t.hc.Do(req)
	if err != nil {
		observability.ObserveTokenRefresh("error")
		return "", domain.NewVendorError(domain.VendorAuth, 0, "",
			"vendor authentication failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		observability.ObserveTokenRefresh("error")
		return "", domain.NewVendorError(domain.VendorAuth, resp.StatusCode, strings.TrimSpace(string(b)),
			"vendor authentication failed with status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
		TokenType   string `json:"token_type"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		observability.ObserveTokenRefresh("error")
		return "", domain.NewVendorError(domain.VendorAuth, resp.StatusCode, "",
			"vendor authentication failed: malformed token response: %v", err)
	}
	if body.AccessToken == "" {
		observability.ObserveTokenRefresh("error")
		return "", domain.NewVendorError(domain.VendorAuth, resp.StatusCode, "",
			"vendor authentication failed: empty access token")
	}

	lifetime := time.Duration(body.ExpiresIn) * time.Second
	expires := t.now().Add(lifetime - safetyMargin)
	if lifetime <= safetyMargin {
		// degenerate lifetime from the vendor; keep the token for one call
		expires = t.now().Add(time.Second)
	}

	t.mu.Lock()
	t.value = body.AccessToken
	t.expiresAt = expires
	t.mu.Unlock()

	observability.ObserveTokenRefresh("ok")
	return body.AccessToken, nil
}

// expiry snapshot, used in tests and debug logs
func (t *TokenSource) expiry() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.expiresAt
}

var _ fmt.Stringer = (*TokenSource)(nil)

// String renders cache state without leaking the token value.
func (t *TokenSource) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.value == "" {
		return "hostaway token: empty"
	}
	return fmt.Sprintf("hostaway token: cached, expires %s", t.expiresAt.Format(time.RFC3339))
}
