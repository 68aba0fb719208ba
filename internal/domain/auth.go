package domain

import "context"

// Principal is the identity injected by the hosting platform's auth layer.
// Absent string fields stay nil so they can be rendered as JSON null.
type Principal struct {
	IdentityProvider *string
	UserID           *string
	UserDetails      *string
	UserRoles        []string
}

func (p Principal) DisplayName() string {
	if p.UserDetails == nil {
		return ""
	}
	return *p.UserDetails
}

type AccessResolver interface {
	Resolve(ctx context.Context, roles []string) (AccessDecision, error)
}
