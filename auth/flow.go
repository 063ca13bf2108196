// Package auth implements the client side of the OAuth2 Authorization Code
// Grant with PKCE (RFC 7636). It owns the verifier/challenge artifacts, the
// authorization redirect URL, and the code-for-token exchange on return.
package auth

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/acheron-labs/voidmarket/auth/flowrepo"
	"github.com/acheron-labs/voidmarket/auth/sessionrepo"
	errs "github.com/acheron-labs/voidmarket/internal/errors"
)

// defaultVerifierTTL bounds a pending login attempt when no TTL is configured.
const defaultVerifierTTL = 15 * time.Minute

// Config holds the fixed client registration for the storefront. The client
// is public: there is no secret, and PKCE binds the two legs of the flow.
type Config struct {
	AuthServerURL string // e.g. "http://localhost:9000"
	ClientID      string
	RedirectURI   string // absolute URL of the storefront callback
	Scopes        []string
	// VerifierTTL is how long a pending login may wait for the redirect
	// back before it is rejected as stale. Zero means the default.
	VerifierTTL time.Duration
}

// Repos holds the storage dependencies for the Flow
type Repos struct {
	Pending  flowrepo.Repo    // one-shot pending-login state (verifier, state)
	Sessions sessionrepo.Repo // access-token cell per browser session
}

// Flow drives the two-leg redirect protocol: StartLogin hands control to the
// authorization server, HandleReturn resumes from the redirect back.
type Flow struct {
	cfg        Config
	repos      Repos
	oauth      *oauth2.Config
	origin     string // scheme://host of the storefront, for post-logout redirect
	httpClient *http.Client
	nowTime    func() time.Time
}

// FlowOption defines a function type to modify the Flow instance.
type FlowOption func(*Flow)

// WithHTTPClient sets the HTTP client used for the token exchange
// (primarily for testing).
func WithHTTPClient(client *http.Client) FlowOption {
	return func(f *Flow) {
		f.httpClient = client
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) FlowOption {
	return func(f *Flow) {
		f.nowTime = nowFunc
	}
}

// NewFlow initializes a Flow with required dependencies.
func NewFlow(cfg Config, repos Repos, options ...FlowOption) (*Flow, error) {
	if cfg.AuthServerURL == "" {
		return nil, errors.New("[NewFlow] AuthServerURL is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("[NewFlow] ClientID is required")
	}
	if cfg.RedirectURI == "" {
		return nil, errors.New("[NewFlow] RedirectURI is required")
	}
	if repos.Pending == nil {
		return nil, errors.New("[NewFlow] Pending repo is required")
	}
	if repos.Sessions == nil {
		return nil, errors.New("[NewFlow] Sessions repo is required")
	}

	redirect, err := url.Parse(cfg.RedirectURI)
	if err != nil {
		return nil, errors.Wrap(err, "[NewFlow] invalid RedirectURI")
	}

	if cfg.VerifierTTL == 0 {
		cfg.VerifierTTL = defaultVerifierTTL
	}

	f := &Flow{
		cfg:   cfg,
		repos: repos,
		oauth: &oauth2.Config{
			ClientID:    cfg.ClientID,
			RedirectURL: cfg.RedirectURI,
			Scopes:      cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthServerURL + "/oauth2/authorize",
				TokenURL: cfg.AuthServerURL + "/oauth2/token",
				// Public client: client_id travels in the form body
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		origin:  redirect.Scheme + "://" + redirect.Host,
		nowTime: time.Now,
	}

	for _, opt := range options {
		opt(f)
	}

	return f, nil
}

// StartLogin begins a new login attempt for the given browser session. It
// generates a fresh verifier/challenge pair, stores the verifier alongside a
// per-attempt state token, and returns the authorization URL the caller must
// redirect the whole document to. Any previously pending login for the
// session is overwritten.
func (f *Flow) StartLogin(sessionID string) (string, error) {
	verifier, err := GenerateVerifier()
	if err != nil {
		return "", errors.Wrap(err, "[Flow.StartLogin] GenerateVerifier")
	}

	state := uuid.New().String()
	pending := &flowrepo.PendingLogin{
		Verifier:  verifier,
		State:     state,
		CreatedAt: f.nowTime(),
	}
	if err := f.repos.Pending.Upsert(sessionID, pending); err != nil {
		return "", errors.Wrap(err, "[Flow.StartLogin] Pending.Upsert")
	}

	authURL := f.oauth.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", ChallengeS256(verifier)),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
	return authURL, nil
}

// HandleReturn resumes a login attempt from the redirect back. When the URL
// carries no authorization code this is not a callback invocation and the
// call is a no-op: no storage is touched, no request is made.
//
// The stored verifier is consumed exactly once, and only honored within the
// verifier TTL; a stale attempt is rejected before any exchange. If the
// verifier is already gone the exchange is still attempted with an empty
// verifier, which the authorization server rejects; that is an authentication
// failure, not a local fault. A non-nil error is informational for logging:
// the caller observes the outcome through Authenticated alone.
func (f *Flow) HandleReturn(ctx context.Context, sessionID string, requestURL *url.URL) error {
	query := requestURL.Query()
	code := query.Get("code")
	if code == "" {
		return nil
	}

	var verifier string
	pending, err := f.repos.Pending.Consume(sessionID)
	if err == nil {
		// Correlate the redirect with the attempt that produced it. A
		// mismatched state means this code belongs to some other attempt;
		// the verifier is already gone, so the attempt is dead either way.
		if query.Get("state") != pending.State {
			return errors.Wrap(errs.ErrInvalidState, "[Flow.HandleReturn]")
		}
		// Redis expires pending entries by TTL; the in-memory backing
		// relies on this check for the same bound.
		if f.nowTime().Sub(pending.CreatedAt) > f.cfg.VerifierTTL {
			return errors.Wrap(errs.ErrNoPendingLogin, "[Flow.HandleReturn] login attempt expired")
		}
		verifier = pending.Verifier
	} else if !errs.Is(err, errs.ErrNoPendingLogin) {
		return errors.Wrap(err, "[Flow.HandleReturn] Pending.Consume")
	}

	if f.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, f.httpClient)
	}
	token, err := f.oauth.Exchange(ctx, code,
		oauth2.SetAuthURLParam("code_verifier", verifier),
	)
	if err != nil {
		return errors.Wrap(err, "[Flow.HandleReturn] token exchange")
	}

	if err := f.repos.Sessions.Set(sessionID, token.AccessToken); err != nil {
		return errors.Wrap(err, "[Flow.HandleReturn] Sessions.Set")
	}
	return nil
}

// Logout clears the stored session token and returns the authorization
// server's end-session URL with a post-logout redirect back to the
// storefront origin.
func (f *Flow) Logout(sessionID string) string {
	if err := f.repos.Sessions.Clear(sessionID); err != nil {
		log.Warn().Err(err).Msg("failed to clear session on logout")
	}
	return f.cfg.AuthServerURL + "/connect/logout?post_logout_redirect_uri=" + url.QueryEscape(f.origin)
}

// Authenticated reports whether a session token is present. No network call,
// no validation of token freshness.
func (f *Flow) Authenticated(sessionID string) bool {
	_, err := f.repos.Sessions.Get(sessionID)
	return err == nil
}

// AuthHeader returns the Authorization header value for resource requests,
// or false when the session holds no token.
func (f *Flow) AuthHeader(sessionID string) (string, bool) {
	token, err := f.repos.Sessions.Get(sessionID)
	if err != nil {
		return "", false
	}
	return "Bearer " + token, true
}
