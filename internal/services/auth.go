package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotwidget/internal/pkce"
	"github.com/desertthunder/spotwidget/internal/shared"
	"github.com/desertthunder/spotwidget/internal/store"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"

	// DefaultVerifierKey is the store key holding the code verifier of the pending login.
	DefaultVerifierKey = "widget_code_verifier"
)

// redirectParams are stripped from the redirect URL once a login attempt has been handled.
var redirectParams = []string{"code", "state", "error", "error_description"}

// AuthenticatorOpts configures [NewAuthenticator].
type AuthenticatorOpts struct {
	Config shared.SpotifyConfig
	// Store keeps the code verifier between [Authenticator.BeginLogin] and [Authenticator.HandleRedirect].
	Store store.Store
	// VerifierKey defaults to [DefaultVerifierKey].
	VerifierKey string
	// Session receives the access token. A new one is created when nil.
	Session    *Session
	HTTPClient *http.Client
	Logger     *log.Logger
}

// Authenticator runs the authorization code flow with PKCE for a public client.
//
// There is no client secret and no state parameter.
type Authenticator struct {
	config  *oauth2.Config
	store   store.Store
	key     string
	session *Session
	client  *http.Client
	logger  *log.Logger
}

// NewAuthenticator creates an [Authenticator]. Empty endpoints fall back to Spotify's accounts service.
func NewAuthenticator(opts AuthenticatorOpts) *Authenticator {
	authURL := opts.Config.AuthURL
	if authURL == "" {
		authURL = spotifyAuthURL
	}
	tokenURL := opts.Config.TokenURL
	if tokenURL == "" {
		tokenURL = spotifyTokenURL
	}

	key := opts.VerifierKey
	if key == "" {
		key = DefaultVerifierKey
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	session := opts.Session
	if session == nil {
		session = NewSession(opts.Config.APIBaseURL, opts.HTTPClient)
	}

	st := opts.Store
	if st == nil {
		st = store.NewMemoryStore()
	}

	return &Authenticator{
		config: &oauth2.Config{
			ClientID:    opts.Config.ClientID,
			RedirectURL: opts.Config.RedirectURI,
			Scopes:      opts.Config.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		store:   st,
		key:     key,
		session: session,
		client:  opts.HTTPClient,
		logger:  logger,
	}
}

// Session returns the session that receives the access token.
func (a *Authenticator) Session() *Session {
	return a.session
}

// Authenticated reports whether the session holds an access token.
func (a *Authenticator) Authenticated() bool {
	return a.session.Authenticated()
}

// BeginLogin generates and persists a fresh code verifier, then hands the authorization URL to nav.
//
// Any verifier left by an earlier attempt is overwritten.
func (a *Authenticator) BeginLogin(ctx context.Context, nav Navigator) error {
	challenge, err := pkce.New(pkce.DefaultVerifierLength)
	if err != nil {
		return fmt.Errorf("failed to generate code verifier: %w", err)
	}

	if err := a.store.Set(ctx, a.key, challenge.Verifier); err != nil {
		return fmt.Errorf("failed to persist code verifier: %w", err)
	}

	authURL := a.AuthURL(challenge.Challenge)
	a.logger.Debug("starting login", "client_id", a.config.ClientID, "redirect_uri", a.config.RedirectURL)

	return nav.Navigate(ctx, authURL)
}

// AuthURL builds the authorization endpoint URL for challenge.
func (a *Authenticator) AuthURL(challenge string) string {
	params := []struct{ key, value string }{
		{"response_type", "code"},
		{"client_id", a.config.ClientID},
		{"scope", strings.Join(a.config.Scopes, " ")},
		{"redirect_uri", a.config.RedirectURL},
		{"code_challenge_method", pkce.MethodS256},
		{"code_challenge", challenge},
	}

	var b strings.Builder
	b.WriteString(a.config.Endpoint.AuthURL)
	if strings.Contains(a.config.Endpoint.AuthURL, "?") {
		b.WriteByte('&')
	} else {
		b.WriteByte('?')
	}
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(p.key)
		b.WriteByte('=')
		b.WriteString(escapeComponent(p.value))
	}
	return b.String()
}

// HandleRedirect inspects the URL the provider redirected to.
//
// It reports whether a login attempt was present. Without a code or error parameter nothing happens.
// With a code, the stored verifier is sent to the token endpoint and the access token is stored in the
// session. A missing verifier is still sent (empty) and the failure wraps [shared.ErrMissingVerifier].
func (a *Authenticator) HandleRedirect(ctx context.Context, u *url.URL) (bool, error) {
	query := u.Query()

	if providerErr := query.Get("error"); providerErr != "" {
		return false, fmt.Errorf("%w: %s: %s", shared.ErrAuthFailed, providerErr, query.Get("error_description"))
	}

	code := query.Get("code")
	if code == "" {
		return false, nil
	}

	var verifierErr error
	verifier, err := a.store.Get(ctx, a.key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			verifierErr = shared.ErrMissingVerifier
		} else {
			verifierErr = fmt.Errorf("%w: %v", shared.ErrMissingVerifier, err)
		}
		a.logger.Warn("no code verifier for this login attempt, exchanging without one", "key", a.key, "error", err)
		verifier = ""
	}

	if a.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, a.client)
	}

	token, err := a.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		if verifierErr != nil {
			return true, fmt.Errorf("%w: %w: %v", shared.ErrAuthFailed, verifierErr, err)
		}
		return true, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	a.session.SetToken(token)
	a.logger.Info("login complete", "token_type", token.Type())
	return true, nil
}

// CleanURL returns a copy of u without the authorization response parameters.
func CleanURL(u *url.URL) *url.URL {
	clean := *u
	query := clean.Query()
	for _, p := range redirectParams {
		query.Del(p)
	}
	clean.RawQuery = query.Encode()
	clean.ForceQuery = false
	return &clean
}

// RedirectPath returns the path the provider sends the browser back to for redirectURI.
// A redirect URI without a path, such as http://127.0.0.1:3000, returns to "/".
func RedirectPath(redirectURI *url.URL) string {
	if redirectURI.Path == "" {
		return "/"
	}
	return redirectURI.Path
}

// escapeComponent percent-encodes s for use as a query value, with spaces as %20.
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
