package auth

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialScopes(t *testing.T) {
	cred := Credential{Scopes: []Scope{ScopePublic, ScopeIdentify}}

	assert.True(t, cred.Has())
	assert.True(t, cred.Has(ScopePublic))
	assert.True(t, cred.Has(ScopePublic, ScopeIdentify))
	assert.False(t, cred.Has(ScopeForumWrite))
	assert.Equal(t, []Scope{ScopeForumWrite, ScopeChatWrite}, cred.Missing(ScopePublic, ScopeForumWrite, ScopeChatWrite))
}

func TestCredentialExpired(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt time.Time
		expected  bool
	}{
		{"well before expiry", now.Add(time.Hour), false},
		{"inside skew", now.Add(20 * time.Second), true},
		{"exactly at skew boundary", now.Add(30 * time.Second), true},
		{"past", now.Add(-time.Second), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cred := Credential{ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.expected, cred.Expired(now, 30*time.Second))
		})
	}
}

func TestCredentialValidate(t *testing.T) {
	expires := time.Now().Add(time.Hour)

	require.NoError(t, Credential{AccessToken: "a", ExpiresAt: expires, Grant: GrantClientCredentials}.Validate())
	require.NoError(t, Credential{AccessToken: "a", RefreshToken: "r", ExpiresAt: expires, Grant: GrantAuthorizationCode}.Validate())

	assert.Error(t, Credential{ExpiresAt: expires, Grant: GrantClientCredentials}.Validate())
	assert.Error(t, Credential{AccessToken: "a", Grant: GrantClientCredentials}.Validate())
	assert.Error(t, Credential{AccessToken: "a", RefreshToken: "r", ExpiresAt: expires, Grant: GrantClientCredentials}.Validate())
	assert.Error(t, Credential{AccessToken: "a", ExpiresAt: expires}.Validate())
}

func TestGrantKindJSON(t *testing.T) {
	cred := Credential{AccessToken: "a", Grant: GrantAuthorizationCode}
	data, err := json.Marshal(cred)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"grant":"authorization_code"`)

	var decoded Credential
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, GrantAuthorizationCode, decoded.Grant)

	assert.Error(t, json.Unmarshal([]byte(`{"grant":"password"}`), &decoded))
}

func TestParseScopes(t *testing.T) {
	assert.Equal(t, []Scope{ScopePublic, ScopeIdentify}, ParseScopes(" public  identify "))
	assert.Empty(t, ParseScopes(""))
}
