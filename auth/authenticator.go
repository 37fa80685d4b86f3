package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"
)

// defaultLifetime is assumed when the token endpoint omits expires_in.
const defaultLifetime = 24 * time.Hour

const renewKey = "renew"

// State is the lifecycle state of an Authenticator's credential.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateValid
	StateRefreshing
	StateRevoked
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateValid:
		return "valid"
	case StateRefreshing:
		return "refreshing"
	case StateRevoked:
		return "revoked"
	default:
		return "unknown"
	}
}

// Store persists the credential of one session.
type Store interface {
	// Load returns nil, nil when nothing is stored
	Load(ctx context.Context) (*Credential, error)
	Save(ctx context.Context, cred Credential) error
	Clear(ctx context.Context) error
}

// Config describes the OAuth application and the grant this session uses.
type Config struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	AuthURL      string
	RedirectURL  string
	Scopes       []Scope
	Grant        GrantKind
}

func (c Config) validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("client id is required")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("client secret is required")
	}
	if c.TokenURL == "" {
		return fmt.Errorf("token url is required")
	}
	switch c.Grant {
	case GrantClientCredentials:
		if s, ok := c.userOnlyScope(); ok {
			return fmt.Errorf("client credentials grant cannot request %q", s)
		}
	case GrantAuthorizationCode:
		if c.AuthURL == "" || c.RedirectURL == "" {
			return fmt.Errorf("authorization code grant requires auth url and redirect url")
		}
	default:
		return fmt.Errorf("grant kind is required")
	}
	return nil
}

// userOnlyScope returns the first requested scope that only a user grant can carry.
func (c Config) userOnlyScope() (Scope, bool) {
	for _, s := range c.Scopes {
		if s == ScopeIdentify || s == ScopeFriendsRead || s == ScopeChatRead {
			return s, true
		}
	}
	return "", false
}

// Authenticator owns one credential and keeps it valid. It is safe for
// concurrent use; grant calls are collapsed so at most one is in flight.
type Authenticator struct {
	cfg    Config
	oauth  *oauth2.Config
	store  Store
	logger zerolog.Logger
	opts   options

	mu      sync.RWMutex
	state   State
	cred    *Credential
	loaded  bool
	pending string

	group singleflight.Group
}

// New creates an Authenticator. The stored credential, if any, is loaded on first use.
func New(cfg Config, store Store, logger zerolog.Logger, opts ...Option) (*Authenticator, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid auth config: %w", err)
	}
	if store == nil {
		return nil, fmt.Errorf("token store is required")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &Authenticator{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopeStrings(cfg.Scopes),
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		store:  store,
		logger: logger.With().Str("component", "auth").Stringer("grant", cfg.Grant).Logger(),
		opts:   o,
	}, nil
}

// State returns the current lifecycle state.
func (a *Authenticator) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// Grant returns the grant kind this session was configured with.
func (a *Authenticator) Grant() GrantKind {
	return a.cfg.Grant
}

// EnsureValid returns a credential that is not within the skew of its expiry,
// refreshing or re-running the client credentials exchange when needed.
func (a *Authenticator) EnsureValid(ctx context.Context) (Credential, error) {
	if cred, ok := a.cached(); ok {
		return cred, nil
	}
	return a.renew(ctx, nil)
}

// ForceRefresh renews the credential after the API rejected stale. When a
// concurrent caller already replaced stale, the current credential is returned
// without another grant call.
func (a *Authenticator) ForceRefresh(ctx context.Context, stale Credential) (Credential, error) {
	return a.renew(ctx, &stale)
}

func (a *Authenticator) cached() (Credential, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.state != StateValid || a.cred == nil {
		return Credential{}, false
	}
	if a.cred.Expired(a.opts.now(), a.opts.skew) {
		return Credential{}, false
	}
	return *a.cred, true
}

func (a *Authenticator) renew(ctx context.Context, stale *Credential) (Credential, error) {
	for attempt := 0; ; attempt++ {
		ch := a.group.DoChan(renewKey, func() (any, error) {
			return a.doRenew(ctx, stale)
		})

		select {
		case <-ctx.Done():
			return Credential{}, ctx.Err()
		case res := <-ch:
			if res.Err != nil {
				// The shared call ran under another caller's context; retry under ours.
				if attempt == 0 && isContextErr(res.Err) && ctx.Err() == nil {
					continue
				}
				return Credential{}, res.Err
			}
			return res.Val.(Credential), nil
		}
	}
}

func (a *Authenticator) doRenew(ctx context.Context, stale *Credential) (Credential, error) {
	if err := a.restore(ctx); err != nil {
		return Credential{}, err
	}

	a.mu.Lock()
	current := a.cred
	previous := a.state

	if previous == StateRevoked && a.cfg.Grant != GrantClientCredentials {
		a.mu.Unlock()
		return Credential{}, &AuthExpiredError{Grant: a.cfg.Grant, Reason: "credential was revoked"}
	}
	if current != nil && !current.Expired(a.opts.now(), a.opts.skew) &&
		(stale == nil || stale.AccessToken != current.AccessToken) {
		a.state = StateValid
		a.mu.Unlock()
		return *current, nil
	}

	refresh := current != nil && current.RefreshToken != ""
	switch {
	case refresh:
		a.state = StateRefreshing
	case a.cfg.Grant == GrantClientCredentials:
		a.state = StateAuthenticating
	default:
		a.mu.Unlock()
		return Credential{}, &AuthExpiredError{
			Grant:  a.cfg.Grant,
			Reason: "no refresh token; interactive authorization required",
		}
	}
	a.mu.Unlock()

	var (
		next Credential
		err  error
	)
	if refresh {
		next, err = a.refresh(ctx, *current)
	} else {
		next, err = a.exchangeClientCredentials(ctx)
	}
	if err != nil {
		if isInvalidGrant(err) {
			a.revoke(ctx)
			return Credential{}, &AuthExpiredError{Grant: a.cfg.Grant, Reason: "provider rejected grant", Err: err}
		}
		a.mu.Lock()
		a.state = previous
		a.mu.Unlock()
		a.logger.Warn().Err(err).Stringer("state", previous).Msg("Token renewal failed")
		return Credential{}, fmt.Errorf("renew token: %w", err)
	}

	return a.commit(ctx, next)
}

func (a *Authenticator) restore(ctx context.Context) error {
	a.mu.RLock()
	loaded := a.loaded
	a.mu.RUnlock()
	if loaded {
		return nil
	}

	stored, err := a.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load credential: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.loaded {
		return nil
	}
	a.loaded = true
	if stored == nil {
		return nil
	}
	if err := stored.Validate(); err != nil || stored.Grant != a.cfg.Grant {
		a.logger.Warn().Err(err).Stringer("stored_grant", stored.Grant).Msg("Ignoring stored credential")
		return nil
	}
	a.cred = stored
	a.state = StateValid
	a.logger.Debug().Time("expires_at", stored.ExpiresAt).Msg("Restored stored credential")
	return nil
}

func (a *Authenticator) commit(ctx context.Context, next Credential) (Credential, error) {
	a.mu.Lock()
	a.cred = &next
	a.state = StateValid
	a.loaded = true
	a.mu.Unlock()

	if err := a.store.Save(ctx, next); err != nil {
		return Credential{}, fmt.Errorf("persist credential: %w", err)
	}

	a.logger.Info().
		Time("expires_at", next.ExpiresAt).
		Strs("scopes", scopeStrings(next.Scopes)).
		Msg("Credential issued")
	return next, nil
}

func (a *Authenticator) revoke(ctx context.Context) {
	a.mu.Lock()
	a.cred = nil
	a.state = StateRevoked
	a.mu.Unlock()

	if err := a.store.Clear(ctx); err != nil {
		a.logger.Error().Err(err).Msg("Failed to clear revoked credential")
	}
	a.logger.Warn().Msg("Credential revoked by provider")
}

// AuthorizeURL returns the redirect URL for the authorization code grant and
// the state value the redirect must carry back.
func (a *Authenticator) AuthorizeURL() (string, string, error) {
	if a.cfg.Grant != GrantAuthorizationCode {
		return "", "", fmt.Errorf("authorize url: %w", ErrWrongGrant)
	}

	state := uuid.NewString()
	a.mu.Lock()
	a.pending = state
	a.mu.Unlock()

	return a.oauth.AuthCodeURL(state), state, nil
}

// Authorize exchanges an authorization code for a credential and persists it.
func (a *Authenticator) Authorize(ctx context.Context, code, state string) (Credential, error) {
	if a.cfg.Grant != GrantAuthorizationCode {
		return Credential{}, fmt.Errorf("authorize: %w", ErrWrongGrant)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return Credential{}, fmt.Errorf("authorization code is required")
	}

	a.mu.Lock()
	if a.pending != "" && a.pending != state {
		a.mu.Unlock()
		return Credential{}, ErrStateMismatch
	}
	previous := a.state
	a.state = StateAuthenticating
	a.mu.Unlock()

	tok, err := a.oauth.Exchange(a.oauthContext(ctx), code)
	if err != nil {
		a.mu.Lock()
		a.state = previous
		a.mu.Unlock()
		if isInvalidGrant(err) {
			return Credential{}, &AuthExpiredError{Grant: a.cfg.Grant, Reason: "authorization code rejected", Err: err}
		}
		return Credential{}, fmt.Errorf("exchange authorization code: %w", err)
	}

	a.mu.Lock()
	a.pending = ""
	a.mu.Unlock()

	return a.commit(ctx, a.toCredential(tok, GrantAuthorizationCode))
}

// AuthorizeInteractive runs the whole authorization code flow. prompt shows the
// URL to the user and returns the code the redirect delivered.
func (a *Authenticator) AuthorizeInteractive(ctx context.Context, prompt func(ctx context.Context, authURL string) (string, error)) (Credential, error) {
	authURL, state, err := a.AuthorizeURL()
	if err != nil {
		return Credential{}, err
	}
	code, err := prompt(ctx, authURL)
	if err != nil {
		return Credential{}, fmt.Errorf("read authorization code: %w", err)
	}
	return a.Authorize(ctx, code, state)
}

// Logout forgets the credential in memory and in the store.
func (a *Authenticator) Logout(ctx context.Context) error {
	a.mu.Lock()
	a.cred = nil
	a.state = StateUnauthenticated
	a.loaded = true
	a.mu.Unlock()

	if err := a.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

func (a *Authenticator) exchangeClientCredentials(ctx context.Context) (Credential, error) {
	cc := clientcredentials.Config{
		ClientID:     a.cfg.ClientID,
		ClientSecret: a.cfg.ClientSecret,
		TokenURL:     a.cfg.TokenURL,
		Scopes:       scopeStrings(a.cfg.Scopes),
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	tok, err := cc.Token(a.oauthContext(ctx))
	if err != nil {
		return Credential{}, err
	}
	return a.toCredential(tok, GrantClientCredentials), nil
}

func (a *Authenticator) refresh(ctx context.Context, current Credential) (Credential, error) {
	// An empty access token forces the token source to use the refresh grant.
	src := a.oauth.TokenSource(a.oauthContext(ctx), &oauth2.Token{RefreshToken: current.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return Credential{}, err
	}
	next := a.toCredential(tok, current.Grant)
	if len(next.Scopes) == 0 {
		next.Scopes = current.Scopes
	}
	return next, nil
}

func (a *Authenticator) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, a.opts.httpClient)
}

func (a *Authenticator) toCredential(tok *oauth2.Token, grant GrantKind) Credential {
	cred := Credential{
		AccessToken: tok.AccessToken,
		ExpiresAt:   tok.Expiry.UTC(),
		Grant:       grant,
	}
	if cred.ExpiresAt.IsZero() {
		cred.ExpiresAt = a.opts.now().Add(defaultLifetime)
	}
	if grant == GrantAuthorizationCode {
		cred.RefreshToken = tok.RefreshToken
	}
	if raw, ok := tok.Extra("scope").(string); ok && raw != "" {
		cred.Scopes = ParseScopes(raw)
	} else {
		cred.Scopes = append([]Scope(nil), a.cfg.Scopes...)
	}
	return cred
}

func isInvalidGrant(err error) bool {
	var re *oauth2.RetrieveError
	return errors.As(err, &re) && re.ErrorCode == "invalid_grant"
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
