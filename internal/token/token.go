// Package token implements the refreshing OAuth client-credentials token
// holder Twitch requests depend on (spec §4.3, component C3).
package token

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Juliapixel/twitch-emote-api/internal/logger"
	"github.com/Juliapixel/twitch-emote-api/internal/platform"
	"go.uber.org/zap"
)

// tokenEndpoint is a var rather than a const so tests can point it at a
// local httptest.Server.
var tokenEndpoint = "https://id.twitch.tv/oauth2/token"

// Holder holds a Twitch app access token obtained via the client
// credentials grant, refreshing it on demand when expired.
type Holder struct {
	client       *http.Client
	clientID     string
	clientSecret string
	endpoint     string

	mu        sync.RWMutex
	token     string
	expiresAt time.Time

	group singleflight.Group
}

// New acquires a token synchronously at construction, mirroring the
// original's TwitchRefreshingToken::new.
func New(client *http.Client, clientID, clientSecret string) (*Holder, error) {
	return NewWithEndpoint(client, clientID, clientSecret, tokenEndpoint)
}

// NewWithEndpoint is New with an overridable token endpoint, so other
// packages' tests can point a Holder at a local httptest.Server without
// reaching into this package's internals.
func NewWithEndpoint(client *http.Client, clientID, clientSecret, endpoint string) (*Holder, error) {
	h := &Holder{client: client, clientID: clientID, clientSecret: clientSecret, endpoint: endpoint}
	if err := h.refresh(); err != nil {
		return nil, err
	}
	return h, nil
}

// Get returns a currently-valid bearer token, refreshing first if it has
// expired. Concurrent callers racing through an expired token are
// collapsed onto a single upstream refresh via singleflight, rather than
// each firing their own POST; correctness never depended on this (the
// endpoint returns independently-valid tokens either way), it just
// avoids redundant requests under load.
func (h *Holder) Get() (string, error) {
	h.mu.RLock()
	valid := time.Now().Before(h.expiresAt)
	tok := h.token
	h.mu.RUnlock()

	if valid {
		return tok, nil
	}

	if err := h.refresh(); err != nil {
		return "", err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token, nil
}

// refresh posts to the OAuth token endpoint and stores the result.
// Concurrent calls are coalesced onto a single in-flight POST via
// group.Do; every caller still observes the refreshed token once it
// lands.
func (h *Holder) refresh() error {
	_, err, _ := h.group.Do("refresh", func() (any, error) {
		form := url.Values{
			"client_id":     {h.clientID},
			"client_secret": {h.clientSecret},
			"grant_type":    {"client_credentials"},
		}

		resp, err := h.client.PostForm(h.endpoint, form)
		if err != nil {
			return nil, platform.New(platform.RequestFailure, platform.Twitch, fmt.Errorf("posting to oauth token endpoint: %w", err))
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized {
			return nil, platform.New(platform.Unauthorized, platform.Twitch, fmt.Errorf("invalid client credentials"))
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, platform.New(platform.PlatformUpstreamError, platform.Twitch, fmt.Errorf("oauth token endpoint returned status %d", resp.StatusCode))
		}

		var body struct {
			AccessToken string `json:"access_token"`
			ExpiresIn   int    `json:"expires_in"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, platform.New(platform.PlatformUpstreamError, platform.Twitch, fmt.Errorf("decoding oauth response: %w", err))
		}

		h.mu.Lock()
		h.token = body.AccessToken
		h.expiresAt = time.Now().Add(time.Duration(body.ExpiresIn) * time.Second)
		h.mu.Unlock()

		logger.Debug("refreshed twitch app access token", zap.Time("expires_at", h.expiresAt))
		return nil, nil
	})
	return err
}

// String never prints the secret or the token, matching the original's
// redacted Debug impl.
func (h *Holder) String() string {
	return fmt.Sprintf("token.Holder{client_id: %s, client_secret: %s, access_token: %s}",
		redact(h.clientID), "<redacted>", "<redacted>")
}

func redact(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
