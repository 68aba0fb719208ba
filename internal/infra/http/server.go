package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"mspportal/internal/config"
	"mspportal/internal/domain"
	"mspportal/internal/infra/auth/clientprincipal"
	"mspportal/internal/infra/auth/rbac"
	"mspportal/internal/infra/aztable"
	"mspportal/internal/infra/db"
	"mspportal/internal/infra/metrics"
	"mspportal/internal/infra/policyopa"
	"mspportal/internal/infra/redistable"
	"mspportal/internal/infra/tablemem"
	"mspportal/internal/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	cfg     config.Config
	r       *gin.Engine
	logger  *zap.Logger
	metrics metrics.Metrics

	authenticator Authenticator
	resolver      domain.AccessResolver
	directory     TenantLister
	backend       string

	closers []func() error
	initErr error
}

type ServerDeps struct {
	Authenticator Authenticator
	Resolver      domain.AccessResolver
	Directory     TenantLister
	Table         usecase.TenantTable
	Backend       string
	Logger        *zap.Logger
	Metrics       metrics.Metrics
}

// NewServer wires the server from configuration. Construction errors are
// kept and returned by Run.
func NewServer(cfg config.Config, logger *zap.Logger) *Server {
	s := &Server{cfg: cfg, logger: logger}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if cfg.MetricsEnabled {
		s.metrics = metrics.NewProm("mspportal", nil)
	} else {
		s.metrics = metrics.Noop{}
	}
	s.initDeps()
	s.r = s.newEngine()
	s.routes()
	return s
}

func NewServerWithDeps(cfg config.Config, deps ServerDeps) *Server {
	s := &Server{
		cfg:           cfg,
		logger:        deps.Logger,
		metrics:       deps.Metrics,
		authenticator: deps.Authenticator,
		resolver:      deps.Resolver,
		directory:     deps.Directory,
		backend:       deps.Backend,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.metrics == nil {
		s.metrics = metrics.Noop{}
	}
	if s.authenticator == nil {
		s.authenticator = clientprincipal.NewHeaderAuthenticator(cfg.PrincipalHeader)
	}
	if s.resolver == nil {
		s.resolver = rbac.NewResolver()
	}
	if s.directory == nil && deps.Table != nil {
		s.directory = usecase.NewTenantDirectory(deps.Table, cfg.TenantsPartitionKey)
	}
	if s.backend == "" {
		s.backend = cfg.TableBackend
	}
	s.r = s.newEngine()
	s.routes()
	return s
}

func (s *Server) newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(s.accessLog())
	r.Use(s.observeRequests())
	return r
}

func (s *Server) initDeps() {
	s.authenticator = clientprincipal.NewHeaderAuthenticator(s.cfg.PrincipalHeader)
	s.backend = s.cfg.TableBackend

	resolver, err := buildResolver(s.cfg)
	if err != nil {
		s.initErr = err
		return
	}
	s.resolver = resolver

	if !s.cfg.EnableTenantDirectoryLookup {
		return
	}
	table, closer, err := buildTable(s.cfg)
	if err != nil {
		s.initErr = err
		return
	}
	if closer != nil {
		s.closers = append(s.closers, closer)
	}
	s.directory = usecase.NewTenantDirectory(table, s.cfg.TenantsPartitionKey)
}

func buildResolver(cfg config.Config) (domain.AccessResolver, error) {
	switch cfg.AccessPolicyEngine {
	case "", config.PolicyEngineBuiltin:
		return rbac.NewResolver(), nil
	case config.PolicyEngineOPA:
		ctx := context.Background()
		if cfg.AccessPolicyPath != "" {
			return policyopa.NewEngineFromPath(ctx, cfg.AccessPolicyPath)
		}
		return policyopa.NewEngine(ctx)
	default:
		return nil, fmt.Errorf("unsupported ACCESS_POLICY_ENGINE %q", cfg.AccessPolicyEngine)
	}
}

func buildTable(cfg config.Config) (usecase.TenantTable, func() error, error) {
	switch cfg.TableBackend {
	case "", config.BackendAzure:
		table, err := aztable.NewFromConfig(cfg)
		return table, nil, err
	case config.BackendPostgres:
		store, err := db.NewStore(cfg)
		if err != nil {
			return nil, nil, err
		}
		return db.NewTenantEntityRepository(store.DB), store.Close, nil
	case config.BackendRedis:
		table, err := redistable.NewFromAddr(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisKeyPrefix)
		if err != nil {
			return nil, nil, err
		}
		return table, table.Close, nil
	case config.BackendMemory:
		if cfg.TenantsSeedFile == "" {
			return tablemem.New(), nil, nil
		}
		table, err := tablemem.LoadFile(cfg.TenantsSeedFile)
		return table, nil, err
	default:
		return nil, nil, fmt.Errorf("unsupported TABLE_BACKEND %q", cfg.TableBackend)
	}
}

func (s *Server) routes() {
	s.r.GET("/healthz", func(c *gin.Context) {
		backend := s.backend
		if !s.cfg.EnableTenantDirectoryLookup {
			backend = "none"
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"lookup":  s.cfg.EnableTenantDirectoryLookup,
			"backend": backend,
		})
	})
	if s.cfg.MetricsEnabled {
		s.r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	for _, g := range []*gin.RouterGroup{s.r.Group("/"), s.r.Group("/api")} {
		g.GET("/whoami", s.handleWhoAmI)
		g.GET("/tenants", s.handleTenants)
	}

	s.r.NoRoute(s.handleNoRoute)
}

// Handler exposes the engine for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.r
}

func (s *Server) Run() error {
	if s.initErr != nil {
		return s.initErr
	}
	s.logger.Info("portal api listening",
		zap.String("addr", s.cfg.HTTPAddr),
		zap.String("backend", s.backend),
		zap.Bool("lookup", s.cfg.EnableTenantDirectoryLookup),
	)
	return s.r.Run(s.cfg.HTTPAddr)
}

func (s *Server) Close() error {
	var errs []error
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
