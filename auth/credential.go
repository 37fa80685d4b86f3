package auth

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Scope is an OAuth scope understood by the osu! API.
type Scope string

const (
	ScopePublic          Scope = "public"
	ScopeIdentify        Scope = "identify"
	ScopeFriendsRead     Scope = "friends.read"
	ScopeForumWrite      Scope = "forum.write"
	ScopeDelegate        Scope = "delegate"
	ScopeChatRead        Scope = "chat.read"
	ScopeChatWrite       Scope = "chat.write"
	ScopeChatWriteManage Scope = "chat.write_manage"
	ScopeLazer           Scope = "lazer"
)

// ParseScopes splits a space separated scope string as returned by the token endpoint.
func ParseScopes(raw string) []Scope {
	fields := strings.Fields(raw)
	scopes := make([]Scope, 0, len(fields))
	for _, f := range fields {
		scopes = append(scopes, Scope(f))
	}
	return scopes
}

func scopeStrings(scopes []Scope) []string {
	out := make([]string, 0, len(scopes))
	for _, s := range scopes {
		out = append(out, string(s))
	}
	return out
}

// GrantKind identifies the OAuth grant a credential was issued under.
type GrantKind int

const (
	// GrantUnknown is the zero value and never issued
	GrantUnknown GrantKind = iota
	// GrantClientCredentials is the app-only grant
	GrantClientCredentials
	// GrantAuthorizationCode is the user grant obtained through a redirect
	GrantAuthorizationCode
)

// String returns the OAuth grant_type spelling
func (g GrantKind) String() string {
	switch g {
	case GrantClientCredentials:
		return "client_credentials"
	case GrantAuthorizationCode:
		return "authorization_code"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler
func (g GrantKind) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (g *GrantKind) UnmarshalText(text []byte) error {
	parsed, err := ParseGrantKind(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// ParseGrantKind parses the grant_type spelling of a grant.
func ParseGrantKind(s string) (GrantKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "client_credentials":
		return GrantClientCredentials, nil
	case "authorization_code":
		return GrantAuthorizationCode, nil
	default:
		return GrantUnknown, fmt.Errorf("unknown grant kind: %q", s)
	}
}

// Credential is one issued OAuth token together with what it grants.
type Credential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	Scopes       []Scope   `json:"scopes"`
	Grant        GrantKind `json:"grant"`
}

// Has reports whether every required scope was granted.
func (c Credential) Has(required ...Scope) bool {
	return len(c.Missing(required...)) == 0
}

// Missing returns the required scopes the credential was not granted.
func (c Credential) Missing(required ...Scope) []Scope {
	var missing []Scope
	for _, s := range required {
		if !slices.Contains(c.Scopes, s) {
			missing = append(missing, s)
		}
	}
	return missing
}

// Expired reports whether the credential is expired at now, treating the
// last skew before ExpiresAt as already expired.
func (c Credential) Expired(now time.Time, skew time.Duration) bool {
	return !now.Before(c.ExpiresAt.Add(-skew))
}

// Validate checks the invariants a stored or freshly issued credential must hold.
func (c Credential) Validate() error {
	if c.AccessToken == "" {
		return fmt.Errorf("credential has no access token")
	}
	if c.ExpiresAt.IsZero() {
		return fmt.Errorf("credential has no expiry")
	}
	switch c.Grant {
	case GrantClientCredentials:
		if c.RefreshToken != "" {
			return fmt.Errorf("client credentials grant cannot carry a refresh token")
		}
	case GrantAuthorizationCode:
	default:
		return fmt.Errorf("credential has unknown grant kind")
	}
	return nil
}
