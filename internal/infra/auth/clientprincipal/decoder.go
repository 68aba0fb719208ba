// Package clientprincipal decodes the principal header injected by the
// hosting platform's built-in authentication (base64-encoded JSON).
package clientprincipal

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strings"

	"mspportal/internal/domain"

	"github.com/gin-gonic/gin"
)

const DefaultHeader = "x-ms-client-principal"

// payload keeps fields raw so a mistyped field is dropped on its own
// instead of rejecting the whole principal.
type payload struct {
	IdentityProvider json.RawMessage `json:"identityProvider"`
	UserID           json.RawMessage `json:"userId"`
	UserDetails      json.RawMessage `json:"userDetails"`
	UserRoles        json.RawMessage `json:"userRoles"`
}

var encodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

// Decode parses a raw header value. Any failure (empty value, bad base64,
// bad JSON, non-object JSON) reports ok=false; the cause is not exposed.
func Decode(header string) (domain.Principal, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return domain.Principal{}, false
	}
	raw, ok := decodeBase64(header)
	if !ok {
		return domain.Principal{}, false
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return domain.Principal{}, false
	}
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.Principal{}, false
	}
	return domain.Principal{
		IdentityProvider: optionalString(p.IdentityProvider),
		UserID:           optionalString(p.UserID),
		UserDetails:      optionalString(p.UserDetails),
		UserRoles:        stringList(p.UserRoles),
	}, true
}

// optionalString returns nil for absent, null or non-string values.
func optionalString(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}
	var v *string
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

// stringList keeps the string elements of a JSON array. Anything else
// yields an empty list.
func stringList(raw json.RawMessage) []string {
	out := []string{}
	if len(raw) == 0 {
		return out
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return out
	}
	for _, item := range items {
		if v := optionalString(item); v != nil {
			out = append(out, *v)
		}
	}
	return out
}

func decodeBase64(value string) ([]byte, bool) {
	for _, enc := range encodings {
		if out, err := enc.DecodeString(value); err == nil {
			return out, true
		}
	}
	return nil, false
}

// HeaderAuthenticator reads the principal from a request header.
type HeaderAuthenticator struct {
	header string
}

func NewHeaderAuthenticator(header string) *HeaderAuthenticator {
	header = strings.TrimSpace(header)
	if header == "" {
		header = DefaultHeader
	}
	return &HeaderAuthenticator{header: header}
}

func (h *HeaderAuthenticator) Header() string {
	return h.header
}

func (h *HeaderAuthenticator) Authenticate(c *gin.Context) (domain.Principal, error) {
	principal, ok := Decode(c.GetHeader(h.header))
	if !ok {
		return domain.Principal{}, domain.ErrUnauthenticated
	}
	return principal, nil
}
