// Package server exposes the back office over HTTP. Handlers stay thin:
// parse, authorize, call the domain service, map errors.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	accountingdomain "github.com/weperezh01/isp-core/internal/accounting/domain"
	auditservice "github.com/weperezh01/isp-core/internal/audit/service"
	authdomain "github.com/weperezh01/isp-core/internal/auth/domain"
	"github.com/weperezh01/isp-core/internal/authorization"
	cycledomain "github.com/weperezh01/isp-core/internal/billingcycle/domain"
	"github.com/weperezh01/isp-core/internal/cache"
	clientdomain "github.com/weperezh01/isp-core/internal/client/domain"
	"github.com/weperezh01/isp-core/internal/config"
	connectiondomain "github.com/weperezh01/isp-core/internal/connection/domain"
	dashboarddomain "github.com/weperezh01/isp-core/internal/dashboard/domain"
	invoicedomain "github.com/weperezh01/isp-core/internal/invoice/domain"
	ispdomain "github.com/weperezh01/isp-core/internal/isp/domain"
	"github.com/weperezh01/isp-core/internal/observability/logger"
	"github.com/weperezh01/isp-core/internal/observability/metrics"
	permissiondomain "github.com/weperezh01/isp-core/internal/permission/domain"
	receiptdomain "github.com/weperezh01/isp-core/internal/receipt/domain"
	routerdomain "github.com/weperezh01/isp-core/internal/router/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServerParam struct {
	fx.In

	Cfg config.Config
	DB  *gorm.DB
	Log *zap.Logger

	AuthSvc       authdomain.Service
	ISPSvc        ispdomain.Service
	ClientSvc     clientdomain.Service
	RouterSvc     routerdomain.Service
	ConnectionSvc connectiondomain.Service
	CycleSvc      cycledomain.Service
	InvoiceSvc    invoicedomain.Service
	ReceiptSvc    receiptdomain.Service
	PermissionSvc permissiondomain.Service
	AccountingSvc accountingdomain.Service
	DashboardSvc  dashboarddomain.Service
	AuditSvc      auditservice.Service
	AuthzSvc      authorization.Service

	HTTPMetrics *metrics.HTTPMetrics `optional:"true"`
}

// Server holds every handler dependency.
type Server struct {
	cfg config.Config
	db  *gorm.DB
	log *zap.Logger

	authSvc       authdomain.Service
	ispSvc        ispdomain.Service
	clientSvc     clientdomain.Service
	routerSvc     routerdomain.Service
	connectionSvc connectiondomain.Service
	cycleSvc      cycledomain.Service
	invoiceSvc    invoicedomain.Service
	receiptSvc    receiptdomain.Service
	permissionSvc permissiondomain.Service
	accountingSvc accountingdomain.Service
	dashboardSvc  dashboarddomain.Service
	auditSvc      auditservice.Service
	authzSvc      authorization.Service

	httpMetrics *metrics.HTTPMetrics

	sessionCache *cache.TTLCache[string, sessionCacheEntry]
	idempotency  *cache.TTLCache[string, idempotencyState]
	loginLimiter *rateLimiter
}

type sessionCacheEntry struct {
	User    authdomain.User
	Session authdomain.Session
}

func NewServer(p ServerParam) *Server {
	return &Server{
		cfg: p.Cfg,
		db:  p.DB,
		log: p.Log.Named("server"),

		authSvc:       p.AuthSvc,
		ispSvc:        p.ISPSvc,
		clientSvc:     p.ClientSvc,
		routerSvc:     p.RouterSvc,
		connectionSvc: p.ConnectionSvc,
		cycleSvc:      p.CycleSvc,
		invoiceSvc:    p.InvoiceSvc,
		receiptSvc:    p.ReceiptSvc,
		permissionSvc: p.PermissionSvc,
		accountingSvc: p.AccountingSvc,
		dashboardSvc:  p.DashboardSvc,
		auditSvc:      p.AuditSvc,
		authzSvc:      p.AuthzSvc,

		httpMetrics: p.HTTPMetrics,

		sessionCache: cache.NewTTLCache[string, sessionCacheEntry](),
		idempotency:  cache.NewTTLCache[string, idempotencyState](),
		loginLimiter: newRateLimiter(p.Cfg.LoginRateLimit, p.Cfg.LoginRateWindow),
	}
}

// NewEngine builds the gin engine with the full middleware chain and routes.
func NewEngine(s *Server) *gin.Engine {
	if s.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	if s.httpMetrics != nil {
		engine.Use(metrics.GinMiddleware(s.httpMetrics))
	}

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.registerRoutes(engine)
	return engine
}

// Module provides the HTTP server and runs it under the fx lifecycle.
var Module = fx.Module("server",
	fx.Provide(NewServer),
	fx.Provide(NewEngine),
	fx.Invoke(RunHTTP),
)

// RunHTTP starts the listener and shuts it down with the app.
func RunHTTP(lc fx.Lifecycle, engine *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
