// Package auth provides the platform token source. Tokens are cached and
// refreshed on expiry; concurrent callers may race to refresh, which is
// fine since a refresh is idempotent.
package auth

import (
	"context"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/osdu-tools/dataload/errors"
)

// Config holds the client-credentials settings read from configuration.
type Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scope        string
}

// NewTokenSource returns a cached client-credentials token source. ctx
// governs the HTTP client used for refresh requests.
func NewTokenSource(ctx context.Context, cfg Config) (oauth2.TokenSource, error) {
	if cfg.TokenURL == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New(errors.ErrConfig, "token-url, client-id and client-secret are required")
	}
	scope := cfg.Scope
	if scope == "" {
		scope = cfg.ClientID + "/.default"
	}
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       []string{scope},
	}
	return oauth2.ReuseTokenSource(nil, cc.TokenSource(ctx)), nil
}

// StaticTokenSource returns a source that always yields tok. Used by tests
// and by runs where a token is provided out of band.
func StaticTokenSource(tok string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: tok})
}
