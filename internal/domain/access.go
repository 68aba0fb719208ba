package domain

import "sort"

type AccessKind int

const (
	AccessDenied AccessKind = iota
	AccessAdmin
	AccessScoped
)

func (k AccessKind) String() string {
	switch k {
	case AccessAdmin:
		return "admin"
	case AccessScoped:
		return "scoped"
	default:
		return "denied"
	}
}

// AccessDecision is derived from a normalized role set. Shortcodes are
// uppercase and only meaningful for AccessScoped.
type AccessDecision struct {
	Kind       AccessKind
	Shortcodes map[string]struct{}
}

func AdminAccess() AccessDecision {
	return AccessDecision{Kind: AccessAdmin}
}

func DeniedAccess() AccessDecision {
	return AccessDecision{Kind: AccessDenied}
}

func ScopedAccess(shortcodes ...string) AccessDecision {
	set := make(map[string]struct{}, len(shortcodes))
	for _, code := range shortcodes {
		if code == "" {
			continue
		}
		set[code] = struct{}{}
	}
	if len(set) == 0 {
		return DeniedAccess()
	}
	return AccessDecision{Kind: AccessScoped, Shortcodes: set}
}

func (d AccessDecision) IsAdmin() bool {
	return d.Kind == AccessAdmin
}

func (d AccessDecision) IsDenied() bool {
	return d.Kind == AccessDenied
}

// Allows reports whether the decision grants access to an uppercase shortcode.
func (d AccessDecision) Allows(shortcode string) bool {
	switch d.Kind {
	case AccessAdmin:
		return true
	case AccessScoped:
		_, ok := d.Shortcodes[shortcode]
		return ok
	default:
		return false
	}
}

func (d AccessDecision) SortedShortcodes() []string {
	out := make([]string, 0, len(d.Shortcodes))
	for code := range d.Shortcodes {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
