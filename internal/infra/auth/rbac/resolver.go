package rbac

import (
	"context"
	"strings"

	"mspportal/internal/domain"
)

const (
	DefaultAdminRole    = "admin"
	DefaultTenantPrefix = "tenant-"
)

// Resolver maps role names to an access decision: the admin role grants
// everything, "tenant-<code>" roles grant the uppercased <code>.
type Resolver struct {
	adminRole    string
	tenantPrefix string
}

func NewResolver() *Resolver {
	return &Resolver{
		adminRole:    DefaultAdminRole,
		tenantPrefix: DefaultTenantPrefix,
	}
}

func (r *Resolver) Resolve(_ context.Context, roles []string) (domain.AccessDecision, error) {
	return r.Decide(NormalizeRoles(roles)), nil
}

// Decide expects roles already passed through NormalizeRoles.
func (r *Resolver) Decide(roles []string) domain.AccessDecision {
	if hasRole(roles, r.adminRole) {
		return domain.AdminAccess()
	}
	return domain.ScopedAccess(r.Shortcodes(roles)...)
}

// Shortcodes only accepts roles strictly longer than the prefix, so a bare
// "tenant-" contributes nothing.
func (r *Resolver) Shortcodes(roles []string) []string {
	out := make([]string, 0, len(roles))
	for _, role := range roles {
		if len(role) > len(r.tenantPrefix) && strings.HasPrefix(role, r.tenantPrefix) {
			out = append(out, strings.ToUpper(role[len(r.tenantPrefix):]))
		}
	}
	return out
}

// NormalizeRoles trims and lowercases roles, dropping empties and duplicates.
func NormalizeRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	seen := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		role = strings.ToLower(strings.TrimSpace(role))
		if role == "" {
			continue
		}
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		out = append(out, role)
	}
	return out
}

func hasRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

var _ domain.AccessResolver = (*Resolver)(nil)
