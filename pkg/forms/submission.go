package forms

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
)

// Submission is the multi-valued, string keyed wire data of one form post.
// Keys follow the dash delimited naming produced by composite prefixes, for
// example "addresses-0-street".
type Submission interface {
	Has(key string) bool
	GetAll(key string) []string
	Keys() []string
}

// Values is the default Submission implementation.
type Values map[string][]string

var _ Submission = Values(nil)

// Has reports whether key was submitted, even with no values.
func (v Values) Has(key string) bool {
	_, ok := v[key]
	return ok
}

// GetAll returns a copy of the ordered values recorded under key.
func (v Values) GetAll(key string) []string {
	values, ok := v[key]
	if !ok {
		return nil
	}
	return append([]string{}, values...)
}

// Keys returns every submitted key in lexical order.
func (v Values) Keys() []string {
	keys := make([]string, 0, len(v))
	for key := range v {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Add appends value under key.
func (v Values) Add(key, value string) {
	v[key] = append(v[key], value)
}

// Set replaces the values recorded under key.
func (v Values) Set(key string, values ...string) {
	v[key] = append([]string{}, values...)
}

// FromURLValues copies url.Values into a Values submission.
func FromURLValues(in url.Values) Values {
	out := make(Values, len(in))
	for key, values := range in {
		out[key] = append([]string{}, values...)
	}
	return out
}

// ParseQuery decodes a URL encoded body or query string.
func ParseQuery(raw string) (Values, error) {
	parsed, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("forms: parse submission: %w", err)
	}
	return FromURLValues(parsed), nil
}

// FromRequest parses the request body and query string. Multipart bodies are
// parsed with a 32 MiB memory limit; uploaded files are not part of the
// submission.
func FromRequest(r *http.Request) (Values, error) {
	if r == nil {
		return nil, nil
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, fmt.Errorf("forms: parse request: %w", err)
	}
	return FromURLValues(r.Form), nil
}

func hasKeys(sub Submission) bool {
	return sub != nil && len(sub.Keys()) > 0
}
