package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/osuapi/auth"
	"github.com/s0up4200/osuapi/tokenstore"
)

type fakeCreds struct {
	mu           sync.Mutex
	cred         auth.Credential
	next         auth.Credential
	refreshErr   error
	refreshCalls atomic.Int32
}

func (f *fakeCreds) EnsureValid(context.Context) (auth.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cred, nil
}

func (f *fakeCreds) ForceRefresh(_ context.Context, stale auth.Credential) (auth.Credential, error) {
	f.refreshCalls.Add(1)
	if f.refreshErr != nil {
		return auth.Credential{}, f.refreshErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cred = f.next
	return f.cred, nil
}

func publicCreds() *fakeCreds {
	return &fakeCreds{cred: auth.Credential{
		AccessToken: "token-1",
		ExpiresAt:   time.Now().Add(time.Hour),
		Scopes:      []auth.Scope{auth.ScopePublic},
		Grant:       auth.GrantClientCredentials,
	}}
}

type recordedSleeps struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordedSleeps) sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return nil
}

func (r *recordedSleeps) all() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}

func newTestTransport(t *testing.T, url string, creds CredentialSource, opts ...Option) (*Transport, *recordedSleeps) {
	t.Helper()
	tr, err := New(url, creds, zerolog.Nop(), opts...)
	require.NoError(t, err)
	sleeps := &recordedSleeps{}
	tr.sleep = sleeps.sleep
	return tr, sleeps
}

func TestNew(t *testing.T) {
	_, err := New("", publicCreds(), zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base URL is required")

	_, err = New("http://localhost", nil, zerolog.Nop())
	require.Error(t, err)

	tr, err := New("http://localhost/api/v2/", publicCreds(), zerolog.Nop(),
		WithTimeout(5*time.Second), WithRetryBudget(2, 1), WithAPIVersion("20220705"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost/api/v2", tr.baseURL)
	assert.Equal(t, 5*time.Second, tr.httpClient.Timeout)
	assert.Equal(t, 2, tr.maxRateLimitAttempts)
	assert.Equal(t, 1, tr.maxServerAttempts)
	assert.Equal(t, "20220705", tr.apiVersion)
}

func TestSend_RequestShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v2/forums/topics", r.URL.Path)
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "20220705", r.Header.Get("x-api-version"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body["title"])

		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	creds := publicCreds()
	creds.cred.Scopes = append(creds.cred.Scopes, auth.ScopeForumWrite)
	tr, _ := newTestTransport(t, server.URL+"/api/v2", creds, WithAPIVersion("20220705"))

	spec := Post("/forums/topics", map[string]string{"title": "hello"}, auth.ScopeForumWrite).WithQuery("page", "1")
	raw, err := tr.Send(context.Background(), spec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(raw))
}

func TestSend_InsufficientScopeNeverSent(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	tr, _ := newTestTransport(t, server.URL, publicCreds())
	_, err := tr.Send(context.Background(), Post("/forums/topics", map[string]string{}, auth.ScopeForumWrite))

	require.Error(t, err)
	var scopeErr *InsufficientScopeError
	require.ErrorAs(t, err, &scopeErr)
	assert.ErrorIs(t, err, ErrInsufficientScope)
	assert.False(t, scopeErr.Remote)
	assert.Equal(t, []auth.Scope{auth.ScopeForumWrite}, scopeErr.Missing)
	assert.Equal(t, []auth.Scope{auth.ScopePublic}, scopeErr.Granted)
	assert.Equal(t, int32(0), hits.Load())
}

func TestSend_RateLimitRetryAfter(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"id":2}`))
	}))
	defer server.Close()

	tr, sleeps := newTestTransport(t, server.URL, publicCreds())
	raw, err := tr.Send(context.Background(), Get("/users/2", nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":2}`, string(raw))

	assert.Equal(t, int32(2), hits.Load())
	delays := sleeps.all()
	require.Len(t, delays, 1)
	assert.GreaterOrEqual(t, delays[0], 2*time.Second)
}

func TestSend_RateLimitBackoffWithoutHint(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	tr, sleeps := newTestTransport(t, server.URL, publicCreds(), WithBackoff(100*time.Millisecond, time.Second))
	_, err := tr.Send(context.Background(), Get("/events", nil))
	require.NoError(t, err)

	delays := sleeps.all()
	require.Len(t, delays, 2)
	assert.GreaterOrEqual(t, delays[0], 50*time.Millisecond)
	assert.LessOrEqual(t, delays[0], 100*time.Millisecond)
	assert.GreaterOrEqual(t, delays[1], 100*time.Millisecond)
	assert.LessOrEqual(t, delays[1], 200*time.Millisecond)
}

func TestSend_RateLimitBudgetExhausted(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"Too Many Attempts."}`))
	}))
	defer server.Close()

	tr, sleeps := newTestTransport(t, server.URL, publicCreds())
	_, err := tr.Send(context.Background(), Get("/users/2", nil))

	var rateErr *RateLimitedError
	require.ErrorAs(t, err, &rateErr)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.True(t, IsRetryable(err))
	assert.Equal(t, DefaultRateLimitAttempts, rateErr.Attempts)
	assert.Equal(t, "Too Many Attempts.", rateErr.Message)
	assert.Equal(t, time.Second, rateErr.RetryAfter)
	assert.Equal(t, int32(DefaultRateLimitAttempts), hits.Load())
	assert.Len(t, sleeps.all(), DefaultRateLimitAttempts-1)
}

func TestSend_ServerErrors(t *testing.T) {
	t.Run("recovers", func(t *testing.T) {
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		tr, sleeps := newTestTransport(t, server.URL, publicCreds())
		_, err := tr.Send(context.Background(), Get("/beatmaps/1", nil))
		require.NoError(t, err)
		assert.Len(t, sleeps.all(), 1)
	})

	t.Run("budget exhausted", func(t *testing.T) {
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		tr, _ := newTestTransport(t, server.URL, publicCreds())
		_, err := tr.Send(context.Background(), Get("/beatmaps/1", nil))

		var serverErr *RemoteServerError
		require.ErrorAs(t, err, &serverErr)
		assert.Equal(t, DefaultServerAttempts, serverErr.Attempts)
		assert.Equal(t, http.StatusServiceUnavailable, serverErr.StatusCode)
		assert.Equal(t, "Service Unavailable", serverErr.Message)
		assert.Equal(t, int32(DefaultServerAttempts), hits.Load())
	})
}

func TestSend_UnauthorizedRefreshesOnce(t *testing.T) {
	t.Run("retry succeeds", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer token-2" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"authentication":"basic"}`))
				return
			}
			w.Write([]byte(`{"id":1}`))
		}))
		defer server.Close()

		creds := publicCreds()
		creds.next = creds.cred
		creds.next.AccessToken = "token-2"
		tr, _ := newTestTransport(t, server.URL, creds)

		raw, err := tr.Send(context.Background(), Get("/me", nil))
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":1}`, string(raw))
		assert.Equal(t, int32(1), creds.refreshCalls.Load())
	})

	t.Run("second 401 is surfaced", func(t *testing.T) {
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		creds := publicCreds()
		creds.next = creds.cred
		tr, _ := newTestTransport(t, server.URL, creds)

		_, err := tr.Send(context.Background(), Get("/me", nil))
		var reqErr *RequestError
		require.ErrorAs(t, err, &reqErr)
		assert.True(t, reqErr.IsUnauthorized())
		assert.Equal(t, int32(2), hits.Load())
		assert.Equal(t, int32(1), creds.refreshCalls.Load())
	})

	t.Run("refresh failure propagates", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		creds := publicCreds()
		creds.refreshErr = &auth.AuthExpiredError{Grant: auth.GrantAuthorizationCode, Reason: "gone"}
		tr, _ := newTestTransport(t, server.URL, creds)

		_, err := tr.Send(context.Background(), Get("/me", nil))
		assert.ErrorIs(t, err, auth.ErrAuthExpired)
	})
}

func TestSend_UnauthorizedRefreshesThroughAuthenticator(t *testing.T) {
	var grants []string
	var grantsMu sync.Mutex
	tokens := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		grantsMu.Lock()
		grants = append(grants, r.PostForm.Get("grant_type")+":"+r.PostForm.Get("refresh_token"))
		grantsMu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "fresh",
			"refresh_token": "refresh-2",
			"token_type":    "Bearer",
			"expires_in":    86400,
		})
	}))
	defer tokens.Close()

	var apiHits atomic.Int32
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiHits.Add(1)
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"authentication":"basic"}`))
			return
		}
		w.Write([]byte(`{"id":2,"username":"peppy"}`))
	}))
	defer api.Close()

	store := tokenstore.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), auth.Credential{
		AccessToken:  "revoked-server-side",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(time.Hour),
		Scopes:       []auth.Scope{auth.ScopePublic, auth.ScopeIdentify},
		Grant:        auth.GrantAuthorizationCode,
	}))

	authenticator, err := auth.New(auth.Config{
		ClientID:     "1234",
		ClientSecret: "secret",
		TokenURL:     tokens.URL + "/oauth/token",
		AuthURL:      tokens.URL + "/oauth/authorize",
		RedirectURL:  "http://localhost:3914/callback",
		Scopes:       []auth.Scope{auth.ScopePublic, auth.ScopeIdentify},
		Grant:        auth.GrantAuthorizationCode,
	}, store, zerolog.Nop())
	require.NoError(t, err)

	tr, _ := newTestTransport(t, api.URL, authenticator)

	raw, err := tr.Send(context.Background(), Get("/me", nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":2,"username":"peppy"}`, string(raw))
	assert.Equal(t, int32(2), apiHits.Load())

	grantsMu.Lock()
	assert.Equal(t, []string{"refresh_token:refresh-1"}, grants)
	grantsMu.Unlock()

	saved, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "fresh", saved.AccessToken)
	assert.Equal(t, "refresh-2", saved.RefreshToken)
	assert.Equal(t, auth.StateValid, authenticator.State())
}

func TestSend_ClientErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		check    func(t *testing.T, err error)
		wantHits int32
	}{
		{
			name:   "not found",
			status: http.StatusNotFound,
			body:   `{"error":"Specified beatmap couldn't be found."}`,
			check: func(t *testing.T, err error) {
				var nf *NotFoundError
				require.ErrorAs(t, err, &nf)
				assert.True(t, IsNotFound(err))
				assert.Equal(t, "Specified beatmap couldn't be found.", nf.Message)
				assert.Equal(t, "/beatmaps/1", nf.Path)
			},
			wantHits: 1,
		},
		{
			name:   "bad request",
			status: http.StatusBadRequest,
			body:   `{"error":"invalid_request","error_description":"mode is invalid"}`,
			check: func(t *testing.T, err error) {
				var reqErr *RequestError
				require.ErrorAs(t, err, &reqErr)
				assert.ErrorIs(t, err, ErrRequest)
				assert.Equal(t, "invalid_request", reqErr.Code)
				assert.Equal(t, "mode is invalid", reqErr.Message)
				assert.False(t, IsNotFound(err))
			},
			wantHits: 1,
		},
		{
			name:   "remote scope rejection",
			status: http.StatusForbidden,
			body:   `{"error":"A required scope is missing."}`,
			check: func(t *testing.T, err error) {
				var scopeErr *InsufficientScopeError
				require.ErrorAs(t, err, &scopeErr)
				assert.True(t, scopeErr.Remote)
				env, ok := Envelope(err)
				require.True(t, ok)
				assert.Equal(t, http.StatusForbidden, env.StatusCode)
			},
			wantHits: 1,
		},
		{
			name:   "plain forbidden",
			status: http.StatusForbidden,
			body:   `not json`,
			check: func(t *testing.T, err error) {
				var reqErr *RequestError
				require.ErrorAs(t, err, &reqErr)
				assert.Equal(t, "Forbidden", reqErr.Message)
			},
			wantHits: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			tr, sleeps := newTestTransport(t, server.URL, publicCreds())
			_, err := tr.Send(context.Background(), Get("/beatmaps/1", nil))
			require.Error(t, err)
			tt.check(t, err)
			assert.Equal(t, tt.wantHits, hits.Load())
			assert.Empty(t, sleeps.all())
		})
	}
}

func TestSend_EmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	tr, _ := newTestTransport(t, server.URL, publicCreds())
	raw, err := tr.Send(context.Background(), RequestSpec{Method: http.MethodDelete, Path: "/chat/channels/1"})
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))
}

func TestSend_CancelDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	tr, err := New(server.URL, publicCreds(), zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = tr.Send(ctx, Get("/users/2", nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRetryAfter(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		value  string
		want   time.Duration
		wantOK bool
	}{
		{"seconds", "2", 2 * time.Second, true},
		{"zero", "0", 0, true},
		{"missing", "", 0, false},
		{"garbage", "soon", 0, false},
		{"negative", "-3", 0, false},
		{"http date", now.Add(90 * time.Second).Format(http.TimeFormat), 90 * time.Second, true},
		{"http date in the past", now.Add(-time.Minute).Format(http.TimeFormat), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.value != "" {
				h.Set("Retry-After", tt.value)
			}
			got, ok := retryAfter(h, now)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBackoffBounds(t *testing.T) {
	for attempt := 1; attempt <= 10; attempt++ {
		d := backoff(attempt, time.Second, 8*time.Second)
		ceiling := min(time.Second<<(attempt-1), 8*time.Second)
		assert.GreaterOrEqual(t, d, ceiling/2, "attempt %d", attempt)
		assert.LessOrEqual(t, d, ceiling, "attempt %d", attempt)
	}
}

func TestRequestSpecWithQueryCopies(t *testing.T) {
	base := Get("/events", url.Values{"sort": {"id_desc"}})
	next := base.WithQuery("cursor_string", "abc")

	assert.Empty(t, base.Query.Get("cursor_string"))
	assert.Equal(t, "abc", next.Query.Get("cursor_string"))
	assert.Equal(t, "id_desc", next.Query.Get("sort"))
}
