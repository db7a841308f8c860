package oauth

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// DefaultOpenSkyTokenURL is the OpenSky identity provider token endpoint.
const DefaultOpenSkyTokenURL = "https://auth.opensky-network.org/auth/realms/opensky-network/protocol/openid-connect/token"

// refreshRatio is the share of the issued lifetime a token is trusted for.
const refreshRatio = 0.9

type Token struct {
	AccessToken string
	Expiry      time.Time
}

// TokenCache hands out a client-credentials bearer token, re-exchanging it once 90% of the
// issued lifetime has passed. It returns nil whenever no token is available.
type TokenCache struct {
	cfg   *clientcredentials.Config
	httpc *http.Client
	now   func() time.Time

	mu    sync.Mutex
	token *Token
}

func New(tokenURL, clientID, clientSecret string) *TokenCache {
	c := &TokenCache{
		httpc: &http.Client{Timeout: 10 * time.Second},
		now:   time.Now,
	}
	if clientID == "" || clientSecret == "" {
		return c
	}
	if tokenURL == "" {
		tokenURL = DefaultOpenSkyTokenURL
	}
	c.cfg = &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	return c
}

func (c *TokenCache) WithClock(now func() time.Time) *TokenCache {
	if now != nil {
		c.now = now
	}
	return c
}

// Enabled reports whether credentials were configured.
func (c *TokenCache) Enabled() bool {
	return c != nil && c.cfg != nil
}

// Token never fails: exchange errors are logged and reported as nil.
func (c *TokenCache) Token(ctx context.Context) *Token {
	if !c.Enabled() {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.token != nil && now.Before(c.token.Expiry) {
		return c.token
	}

	tok, err := c.cfg.Token(context.WithValue(ctx, oauth2.HTTPClient, c.httpc))
	if err != nil {
		slog.Warn("oauth token exchange failed, continuing unauthenticated", "token_url", c.cfg.TokenURL, "error", err.Error())
		c.token = nil
		return nil
	}

	out := &Token{AccessToken: tok.AccessToken}
	lifetime := time.Duration(0)
	if !tok.Expiry.IsZero() {
		lifetime = tok.Expiry.Sub(now)
	}
	if lifetime <= 0 {
		// No usable lifetime: use it for this call only.
		c.token = nil
		out.Expiry = now
		return out
	}
	out.Expiry = now.Add(time.Duration(float64(lifetime) * refreshRatio))
	c.token = out
	slog.Debug("oauth token refreshed", "expires_at", out.Expiry)
	return out
}
