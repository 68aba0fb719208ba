package http

import (
	"context"

	"mspportal/internal/domain"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const principalContextKey = "principal"

type Authenticator interface {
	Authenticate(c *gin.Context) (domain.Principal, error)
}

type TenantLister interface {
	List(ctx context.Context, decision domain.AccessDecision) ([]domain.TenantRecord, error)
}

// requirePrincipal writes a 401 and returns false when the request carries
// no usable principal.
func (s *Server) requirePrincipal(c *gin.Context) (domain.Principal, bool) {
	principal, err := s.authenticator.Authenticate(c)
	if err != nil {
		s.writeError(c, err)
		return domain.Principal{}, false
	}
	c.Set(principalContextKey, principal)
	return principal, true
}

// requireAccess resolves the principal's roles and rejects callers with no
// admin or tenant role.
func (s *Server) requireAccess(c *gin.Context, principal domain.Principal) (domain.AccessDecision, bool) {
	if s.resolver == nil {
		s.logger.Error("access resolver not configured", zapRequestID(c))
		s.writeError(c, domain.ErrUpstream)
		return domain.AccessDecision{}, false
	}
	decision, err := s.resolver.Resolve(c.Request.Context(), principal.UserRoles)
	if err != nil {
		s.logger.Error("resolve access", zapRequestID(c), zap.Error(err))
		s.writeError(c, err)
		return domain.AccessDecision{}, false
	}
	if decision.IsDenied() {
		s.metrics.IncTenantQuery(decision.Kind.String(), "forbidden")
		s.writeError(c, domain.ErrForbidden)
		return domain.AccessDecision{}, false
	}
	return decision, true
}

func getPrincipal(c *gin.Context) (domain.Principal, bool) {
	raw, ok := c.Get(principalContextKey)
	if !ok {
		return domain.Principal{}, false
	}
	principal, ok := raw.(domain.Principal)
	return principal, ok
}
