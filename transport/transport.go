package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/s0up4200/osuapi/auth"
)

// CredentialSource hands out bearer credentials. *auth.Authenticator satisfies it.
type CredentialSource interface {
	EnsureValid(ctx context.Context) (auth.Credential, error)
	ForceRefresh(ctx context.Context, stale auth.Credential) (auth.Credential, error)
}

// Transport issues authenticated requests against the API base URL with a
// uniform retry policy and error classification. Safe for concurrent use.
type Transport struct {
	baseURL    string
	creds      CredentialSource
	httpClient *http.Client
	logger     zerolog.Logger
	apiVersion string
	userAgent  string

	maxRateLimitAttempts int
	maxServerAttempts    int
	initialBackoff       time.Duration
	maxBackoff           time.Duration

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Transport for baseURL, e.g. "https://osu.ppy.sh/api/v2".
func New(baseURL string, creds CredentialSource, logger zerolog.Logger, opts ...Option) (*Transport, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("osu API base URL is required")
	}
	if creds == nil {
		return nil, fmt.Errorf("credential source is required")
	}

	t := &Transport{
		baseURL:              strings.TrimRight(baseURL, "/"),
		creds:                creds,
		httpClient:           &http.Client{Timeout: DefaultTimeout},
		logger:               logger.With().Str("component", "transport").Logger(),
		userAgent:            "osuapi-go",
		maxRateLimitAttempts: DefaultRateLimitAttempts,
		maxServerAttempts:    DefaultServerAttempts,
		initialBackoff:       time.Second,
		maxBackoff:           30 * time.Second,
		now:                  time.Now,
		sleep:                sleepContext,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Send obtains a valid credential and performs the request.
func (t *Transport) Send(ctx context.Context, spec RequestSpec) (json.RawMessage, error) {
	cred, err := t.creds.EnsureValid(ctx)
	if err != nil {
		return nil, err
	}
	return t.Do(ctx, spec, cred)
}

// Do performs the request with cred, retrying 429 and 5xx responses and
// refreshing the credential once on 401. The body of a 2xx response is
// returned as is; an empty body comes back as JSON null.
func (t *Transport) Do(ctx context.Context, spec RequestSpec, cred auth.Credential) (json.RawMessage, error) {
	if missing := cred.Missing(spec.Scopes...); len(missing) > 0 {
		return nil, &InsufficientScopeError{
			Required: spec.Scopes,
			Missing:  missing,
			Granted:  cred.Scopes,
		}
	}

	var payload []byte
	if spec.Body != nil {
		var err error
		payload, err = json.Marshal(spec.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
	}

	var (
		rateAttempts   int
		serverAttempts int
		refreshed      bool
	)
	for {
		resp, err := t.attempt(ctx, spec, cred, payload)
		if err != nil {
			return nil, err
		}

		switch {
		case resp.status >= 200 && resp.status < 300:
			if len(bytes.TrimSpace(resp.body)) == 0 {
				return json.RawMessage("null"), nil
			}
			return json.RawMessage(resp.body), nil

		case resp.status == http.StatusTooManyRequests:
			rateAttempts++
			env := parseEnvelope(resp.status, resp.body)
			wait, hinted := retryAfter(resp.header, t.now())
			if rateAttempts >= t.maxRateLimitAttempts {
				return nil, &RateLimitedError{ErrorEnvelope: env, Attempts: rateAttempts, RetryAfter: wait}
			}
			if !hinted {
				wait = backoff(rateAttempts, t.initialBackoff, t.maxBackoff)
			}
			if err := t.wait(ctx, spec, resp.status, rateAttempts, wait); err != nil {
				return nil, err
			}

		case resp.status >= 500:
			serverAttempts++
			env := parseEnvelope(resp.status, resp.body)
			if serverAttempts >= t.maxServerAttempts {
				return nil, &RemoteServerError{ErrorEnvelope: env, Attempts: serverAttempts}
			}
			wait := backoff(serverAttempts, t.initialBackoff, t.maxBackoff)
			if err := t.wait(ctx, spec, resp.status, serverAttempts, wait); err != nil {
				return nil, err
			}

		case resp.status == http.StatusUnauthorized && !refreshed:
			refreshed = true
			t.logger.Debug().Str("path", spec.Path).Msg("Unauthorized, forcing credential refresh")
			cred, err = t.creds.ForceRefresh(ctx, cred)
			if err != nil {
				return nil, err
			}
			if missing := cred.Missing(spec.Scopes...); len(missing) > 0 {
				return nil, &InsufficientScopeError{Required: spec.Scopes, Missing: missing, Granted: cred.Scopes}
			}

		case resp.status == http.StatusNotFound:
			return nil, &NotFoundError{
				ErrorEnvelope: parseEnvelope(resp.status, resp.body),
				Method:        spec.Method,
				Path:          spec.Path,
			}

		default:
			env := parseEnvelope(resp.status, resp.body)
			if resp.status == http.StatusForbidden && mentionsScope(env) {
				return nil, &InsufficientScopeError{
					Required: spec.Scopes,
					Granted:  cred.Scopes,
					Remote:   true,
					Envelope: &env,
				}
			}
			return nil, &RequestError{ErrorEnvelope: env, Method: spec.Method, Path: spec.Path}
		}
	}
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func (t *Transport) attempt(ctx context.Context, spec RequestSpec, cred auth.Credential, payload []byte) (*response, error) {
	endpoint := t.baseURL + "/" + strings.TrimLeft(spec.Path, "/")
	if len(spec.Query) > 0 {
		endpoint += "?" + spec.Query.Encode()
	}

	method := spec.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", t.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if t.apiVersion != "" {
		req.Header.Set("x-api-version", t.apiVersion)
	}

	start := t.now()
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s failed: %w", method, spec.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	t.logger.Debug().
		Str("method", method).
		Str("path", spec.Path).
		Int("status", resp.StatusCode).
		Dur("elapsed", t.now().Sub(start)).
		Msg("osu API request")

	return &response{status: resp.StatusCode, header: resp.Header, body: data}, nil
}

func (t *Transport) wait(ctx context.Context, spec RequestSpec, status, attempt int, delay time.Duration) error {
	t.logger.Warn().
		Str("path", spec.Path).
		Int("status", status).
		Int("attempt", attempt).
		Dur("delay", delay).
		Msg("Retrying osu API request")
	return t.sleep(ctx, delay)
}

func mentionsScope(env ErrorEnvelope) bool {
	return strings.Contains(strings.ToLower(env.Message), "scope")
}
