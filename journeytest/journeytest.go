// Package journeytest provides an in-process mock of the remote
// authentication service: a scripted step server, an OIDC discovery
// document, and authorize/token endpoints that mint signed ID tokens. It
// exists so the orchestrator and negotiator can be exercised end to end
// without a real server.
package journeytest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/google/uuid"
)

// StepCookie is the cookie the scripted step server uses to key replay
// position.
const StepCookie = "mock-step-index"

// Config controls the mock server's behavior.
type Config struct {
	// Steps are the journey payloads replayed in order for authenticate
	// calls. The last entry is sticky.
	Steps []string
	// FlowNodes are the flow-dialect payloads replayed in order for flow
	// calls.
	FlowNodes []string
	// ResponseModes advertised in the discovery document.
	ResponseModes []string
	// ClientID accepted at the token endpoint and set as ID token audience.
	ClientID string
	// AuthorizeDelay stalls the authorize endpoint, for timeout tests.
	AuthorizeDelay time.Duration
	// InteractionRequired makes the authorize endpoint answer 200 HTML
	// instead of completing, as a live login page would.
	InteractionRequired bool
	// AuthorizeError makes the authorize endpoint fail with the given OAuth
	// error code.
	AuthorizeError string
	// RejectExchange makes the token endpoint answer invalid_grant.
	RejectExchange bool
}

// Server is the running mock.
type Server struct {
	cfg Config
	ts  *httptest.Server

	signer jose.Signer
	jwks   jose.JSONWebKeySet

	mu          sync.Mutex
	issuedCodes map[string]bool
}

// New starts a mock server. Callers must Close it.
func New(cfg Config) (*Server, error) {
	if cfg.ClientID == "" {
		cfg.ClientID = "test-client"
	}

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("journeytest: generate signing key: %w", err)
	}
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.RS256, Key: priv}, (&jose.SignerOptions{}).WithType("JWT").WithHeader("kid", "mock-key"))
	if err != nil {
		return nil, fmt.Errorf("journeytest: build signer: %w", err)
	}

	s := &Server{
		cfg:         cfg,
		signer:      signer,
		issuedCodes: map[string]bool{},
		jwks: jose.JSONWebKeySet{Keys: []jose.JSONWebKey{{
			Key:       priv.Public(),
			KeyID:     "mock-key",
			Algorithm: string(jose.RS256),
			Use:       "sig",
		}}},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", s.handleDiscovery)
	mux.HandleFunc("/authorize", s.handleAuthorize)
	mux.HandleFunc("/token", s.handleToken)
	mux.HandleFunc("/jwks.json", s.handleJWKS)
	mux.HandleFunc("/endSession", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	mux.HandleFunc("/json/realms/", s.handleJourney)
	mux.HandleFunc("/flows/", s.handleFlow)

	s.ts = httptest.NewServer(mux)
	return s, nil
}

// Close shuts the mock down.
func (s *Server) Close() { s.ts.Close() }

// URL returns the server's base URL, which doubles as the issuer.
func (s *Server) URL() string { return s.ts.URL }

// Client returns an HTTP client wired to the mock.
func (s *Server) Client() *http.Client { return s.ts.Client() }

// handleJourney replays the scripted step payloads keyed by the step-index
// cookie: each response advances the cookie so the next submission gets the
// next payload.
func (s *Server) handleJourney(w http.ResponseWriter, r *http.Request) {
	if strings.Contains(r.URL.Path, "/sessions") {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"result":"Session invalidated"}`)
		return
	}

	idx := 0
	if c, err := r.Cookie(StepCookie); err == nil {
		if n, err := strconv.Atoi(c.Value); err == nil {
			idx = n
		}
	}
	if idx >= len(s.cfg.Steps) {
		idx = len(s.cfg.Steps) - 1
	}
	if idx < 0 {
		http.Error(w, `{"code":500,"reason":"Server Error","message":"no steps scripted"}`, http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{Name: StepCookie, Value: strconv.Itoa(idx + 1), Path: "/"})
	w.Header().Set("Content-Type", "application/json")

	payload := s.cfg.Steps[idx]
	status := http.StatusOK
	// Failure payloads ride on 401 like the real server.
	if strings.Contains(payload, `"reason"`) && !strings.Contains(payload, `"callbacks"`) {
		status = http.StatusUnauthorized
	}
	w.WriteHeader(status)
	fmt.Fprint(w, payload)
}

// handleFlow replays the scripted flow-dialect payloads with the same
// cookie mechanism.
func (s *Server) handleFlow(w http.ResponseWriter, r *http.Request) {
	idx := 0
	if c, err := r.Cookie(StepCookie); err == nil {
		if n, err := strconv.Atoi(c.Value); err == nil {
			idx = n
		}
	}
	if idx >= len(s.cfg.FlowNodes) {
		idx = len(s.cfg.FlowNodes) - 1
	}
	if idx < 0 {
		http.Error(w, `{"status":"error","error":{"code":"server_error","message":"no nodes scripted"}}`, http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{Name: StepCookie, Value: strconv.Itoa(idx + 1), Path: "/"})
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, s.cfg.FlowNodes[idx])
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	doc := map[string]any{
		"issuer":                                s.ts.URL,
		"authorization_endpoint":                s.ts.URL + "/authorize",
		"token_endpoint":                        s.ts.URL + "/token",
		"jwks_uri":                              s.ts.URL + "/jwks.json",
		"end_session_endpoint":                  s.ts.URL + "/endSession",
		"response_types_supported":              []string{"code"},
		"subject_types_supported":               []string{"public"},
		"id_token_signing_alg_values_supported": []string{"RS256"},
		"code_challenge_methods_supported":      []string{"S256"},
	}
	if len(s.cfg.ResponseModes) > 0 {
		doc["response_modes_supported"] = s.cfg.ResponseModes
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(doc)
}

func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	if s.cfg.AuthorizeDelay > 0 {
		select {
		case <-time.After(s.cfg.AuthorizeDelay):
		case <-r.Context().Done():
			return
		}
	}

	q := r.URL.Query()
	state := q.Get("state")
	redirectURI := q.Get("redirect_uri")

	if s.cfg.AuthorizeError != "" {
		s.authorizeError(w, r, redirectURI, state)
		return
	}
	if s.cfg.InteractionRequired {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body>login required</body></html>")
		return
	}

	code := "mock-code-" + uuid.NewString()
	s.mu.Lock()
	s.issuedCodes[code] = true
	s.mu.Unlock()

	if q.Get("response_mode") == "pi.flow" {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"authorizeResponse": map[string]string{"code": code, "state": state},
		})
		return
	}

	http.Redirect(w, r, redirectURI+"?code="+code+"&state="+state, http.StatusFound)
}

func (s *Server) authorizeError(w http.ResponseWriter, r *http.Request, redirectURI, state string) {
	if r.URL.Query().Get("response_mode") == "pi.flow" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":             s.cfg.AuthorizeError,
			"error_description": "scripted authorize error",
		})
		return
	}
	http.Redirect(w, r, redirectURI+"?error="+s.cfg.AuthorizeError+"&error_description=scripted+authorize+error&state="+state, http.StatusFound)
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, `{"error":"invalid_request"}`, http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")

	if s.cfg.RejectExchange {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":             "invalid_grant",
			"error_description": "scripted exchange rejection",
		})
		return
	}

	code := r.PostFormValue("code")
	s.mu.Lock()
	known := s.issuedCodes[code]
	delete(s.issuedCodes, code)
	s.mu.Unlock()
	if !known && !strings.HasPrefix(code, "mock-code") {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
		return
	}

	idToken, err := s.mintIDToken()
	if err != nil {
		http.Error(w, `{"error":"server_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token":  "mock-access-" + uuid.NewString(),
		"refresh_token": "mock-refresh-" + uuid.NewString(),
		"id_token":      idToken,
		"token_type":    "Bearer",
		"expires_in":    3600,
		"scope":         "openid profile",
	})
}

func (s *Server) handleJWKS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.jwks)
}

// MintIDToken signs a minimal ID token for the configured client, outside
// any token-endpoint exchange. Useful for exercising verifiers directly.
func (s *Server) MintIDToken() (string, error) { return s.mintIDToken() }

// mintIDToken signs a minimal ID token for the configured client.
func (s *Server) mintIDToken() (string, error) {
	now := time.Now()
	claims := map[string]any{
		"iss": s.ts.URL,
		"aud": s.cfg.ClientID,
		"sub": "user-1",
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	sig, err := s.signer.Sign(payload)
	if err != nil {
		return "", err
	}
	return sig.CompactSerialize()
}
