package transport

import (
	"net/url"

	"github.com/s0up4200/osuapi/auth"
)

// RequestSpec describes one API call. It is built per call by an endpoint
// method and never modified by the Transport.
type RequestSpec struct {
	Method string
	// Path is relative to the API base URL, e.g. "/users/2/osu"
	Path  string
	Query url.Values
	// Body is encoded as JSON when non-nil
	Body   any
	Scopes []auth.Scope
}

// Get builds a GET spec
func Get(path string, query url.Values, scopes ...auth.Scope) RequestSpec {
	return RequestSpec{Method: "GET", Path: path, Query: query, Scopes: scopes}
}

// Post builds a POST spec with a JSON body
func Post(path string, body any, scopes ...auth.Scope) RequestSpec {
	return RequestSpec{Method: "POST", Path: path, Body: body, Scopes: scopes}
}

// WithQuery returns a copy of the spec with key set to value in its query.
func (r RequestSpec) WithQuery(key, value string) RequestSpec {
	q := url.Values{}
	for k, v := range r.Query {
		q[k] = append([]string(nil), v...)
	}
	q.Set(key, value)
	r.Query = q
	return r
}
