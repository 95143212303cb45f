// Package oauth implements the authorization-code-plus-PKCE negotiation:
// discovery, dual silent-vs-redirect dispatch, code-for-token exchange, and
// token caching. It is used standalone or as the continuation of a journey
// that terminated in an external-IdP redirect.
package oauth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// WellKnown is the subset of the OIDC discovery document this SDK consumes.
// It is consumed, never produced.
type WellKnown struct {
	Issuer                        string   `json:"issuer"`
	AuthorizationEndpoint         string   `json:"authorization_endpoint"`
	TokenEndpoint                 string   `json:"token_endpoint"`
	EndSessionEndpoint            string   `json:"end_session_endpoint"`
	JWKSURI                       string   `json:"jwks_uri"`
	ResponseModesSupported        []string `json:"response_modes_supported"`
	CodeChallengeMethodsSupported []string `json:"code_challenge_methods_supported"`
}

// SupportsResponseMode reports whether the server advertises the given
// response mode.
func (w WellKnown) SupportsResponseMode(mode string) bool {
	for _, m := range w.ResponseModesSupported {
		if m == mode {
			return true
		}
	}
	return false
}

// Provider wraps the discovered (or manually supplied) server metadata plus
// the machinery to verify ID tokens it issues.
type Provider struct {
	oidc      *oidc.Provider
	wellKnown WellKnown
	endpoint  oauth2.Endpoint
}

// Discover fetches and validates the issuer's discovery document. A non-nil
// hc overrides the HTTP client used for discovery and JWKS fetches.
func Discover(ctx context.Context, issuer string, hc *http.Client) (*Provider, error) {
	if hc != nil {
		ctx = oidc.ClientContext(ctx, hc)
	}
	p, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oauth: discover %s: %w", issuer, err)
	}
	var wk WellKnown
	if err := p.Claims(&wk); err != nil {
		return nil, fmt.Errorf("oauth: decode discovery document: %w", err)
	}
	return &Provider{oidc: p, wellKnown: wk, endpoint: p.Endpoint()}, nil
}

// StaticProvider builds a Provider from manually supplied metadata, for
// servers without a discovery document. ID-token verification requires the
// manual verifier in that case.
func StaticProvider(wk WellKnown) *Provider {
	return &Provider{
		wellKnown: wk,
		endpoint: oauth2.Endpoint{
			AuthURL:  wk.AuthorizationEndpoint,
			TokenURL: wk.TokenEndpoint,
		},
	}
}

// WellKnown returns the discovery metadata.
func (p *Provider) WellKnown() WellKnown { return p.wellKnown }

// Endpoint returns the authorization and token endpoints in x/oauth2 form.
func (p *Provider) Endpoint() oauth2.Endpoint { return p.endpoint }

// VerifyIDToken validates an ID token against the provider's JWKS and the
// given client ID. It requires a discovery-backed Provider.
func (p *Provider) VerifyIDToken(ctx context.Context, clientID, rawIDToken string) (*oidc.IDToken, error) {
	if p.oidc == nil {
		return nil, fmt.Errorf("oauth: ID token verification requires discovery; use NewManualVerifier")
	}
	return p.oidc.Verifier(&oidc.Config{ClientID: clientID}).Verify(ctx, rawIDToken)
}

// EndSessionURL builds the RP-initiated logout URL. idTokenHint and
// postLogoutRedirectURI are optional and omitted when empty.
func (p *Provider) EndSessionURL(idTokenHint, postLogoutRedirectURI string) (string, error) {
	if p.wellKnown.EndSessionEndpoint == "" {
		return "", fmt.Errorf("oauth: server does not advertise an end_session_endpoint")
	}
	u, err := url.Parse(p.wellKnown.EndSessionEndpoint)
	if err != nil {
		return "", fmt.Errorf("oauth: parse end_session_endpoint: %w", err)
	}
	q := u.Query()
	if idTokenHint != "" {
		q.Set("id_token_hint", idTokenHint)
	}
	if postLogoutRedirectURI != "" {
		q.Set("post_logout_redirect_uri", postLogoutRedirectURI)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
