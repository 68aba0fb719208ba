package http

import (
	"errors"
	"net/http"

	"mspportal/internal/domain"
	"mspportal/internal/infra/auth/rbac"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	msgUnauthorized = "Unauthorized: missing client principal."
	msgForbidden    = "Forbidden: no tenant access roles assigned."
	msgInternal     = "Internal server error."
	msgNotFound     = "Not found."

	adminWildcard = "*"
)

type errorResponse struct {
	Error string `json:"error"`
}

type whoAmIResponse struct {
	BuildSource      string   `json:"buildSource"`
	IdentityProvider *string  `json:"identityProvider"`
	UserID           *string  `json:"userId"`
	UserDetails      *string  `json:"userDetails"`
	UserRoles        []string `json:"userRoles"`
}

type tenantResponse struct {
	Shortcode        string  `json:"shortcode"`
	CustomerName     *string `json:"customerName,omitempty"`
	CustomerTenantID *string `json:"customerTenantId,omitempty"`
	DefaultDomain    *string `json:"defaultDomain,omitempty"`
	Enabled          bool    `json:"enabled"`
}

type tenantsResponse struct {
	Tenants []tenantResponse `json:"tenants"`
}

type placeholderResponse struct {
	BuildSource                string   `json:"buildSource"`
	User                       *string  `json:"user"`
	Roles                      []string `json:"roles"`
	AuthorizedTenantShortcodes []string `json:"authorizedTenantShortcodes"`
}

func (s *Server) handleWhoAmI(c *gin.Context) {
	principal, ok := s.requirePrincipal(c)
	if !ok {
		return
	}
	roles := principal.UserRoles
	if roles == nil {
		roles = []string{}
	}
	c.JSON(http.StatusOK, whoAmIResponse{
		BuildSource:      s.cfg.BuildSource,
		IdentityProvider: principal.IdentityProvider,
		UserID:           principal.UserID,
		UserDetails:      principal.UserDetails,
		UserRoles:        roles,
	})
}

func (s *Server) handleTenants(c *gin.Context) {
	principal, ok := s.requirePrincipal(c)
	if !ok {
		return
	}
	decision, ok := s.requireAccess(c, principal)
	if !ok {
		return
	}
	roles := rbac.NormalizeRoles(principal.UserRoles)

	if !s.cfg.EnableTenantDirectoryLookup {
		shortcodes := []string{adminWildcard}
		if !decision.IsAdmin() {
			shortcodes = decision.SortedShortcodes()
		}
		c.JSON(http.StatusOK, placeholderResponse{
			BuildSource:                s.cfg.BuildSource,
			User:                       principal.UserDetails,
			Roles:                      roles,
			AuthorizedTenantShortcodes: shortcodes,
		})
		return
	}

	if s.directory == nil {
		s.logger.Error("tenant directory not configured", zapRequestID(c))
		s.writeError(c, domain.ErrUpstream)
		return
	}
	records, err := s.directory.List(c.Request.Context(), decision)
	if err != nil {
		s.metrics.IncTenantQuery(decision.Kind.String(), "error")
		s.logger.Error("list tenants", zapRequestID(c), zap.Error(err))
		s.writeError(c, err)
		return
	}
	s.metrics.IncTenantQuery(decision.Kind.String(), "ok")
	s.metrics.ObserveTenantsReturned(len(records))
	s.logger.Info("tenants",
		zapRequestID(c),
		zap.String("user", principal.DisplayName()),
		zap.Strings("roles", roles),
		zap.Int("returned", len(records)),
	)

	out := make([]tenantResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, tenantResponse{
			Shortcode:        rec.Shortcode,
			CustomerName:     rec.CustomerName,
			CustomerTenantID: rec.CustomerTenantID,
			DefaultDomain:    rec.DefaultDomain,
			Enabled:          rec.Enabled,
		})
	}
	c.JSON(http.StatusOK, tenantsResponse{Tenants: out})
}

func (s *Server) handleNoRoute(c *gin.Context) {
	s.writeError(c, domain.ErrNotFound)
}

// writeError maps domain errors to the fixed client-facing bodies. Anything
// unrecognised is reported as an internal error without detail.
func (s *Server) writeError(c *gin.Context, err error) {
	status, message := http.StatusInternalServerError, msgInternal
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		status, message = http.StatusUnauthorized, msgUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		status, message = http.StatusForbidden, msgForbidden
	case errors.Is(err, domain.ErrNotFound):
		status, message = http.StatusNotFound, msgNotFound
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: message})
}
