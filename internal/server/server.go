package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	adminstatsdomain "github.com/traffictuner/traffictuner/internal/adminstats/domain"
	analysisdomain "github.com/traffictuner/traffictuner/internal/analysis/domain"
	apikeydomain "github.com/traffictuner/traffictuner/internal/apikey/domain"
	authdomain "github.com/traffictuner/traffictuner/internal/auth/domain"
	"github.com/traffictuner/traffictuner/internal/auth/session"
	"github.com/traffictuner/traffictuner/internal/authorization"
	"github.com/traffictuner/traffictuner/internal/config"
	creditsdomain "github.com/traffictuner/traffictuner/internal/credits/domain"
	domainsdomain "github.com/traffictuner/traffictuner/internal/domains/domain"
	"github.com/traffictuner/traffictuner/internal/observability"
	obslogger "github.com/traffictuner/traffictuner/internal/observability/logger"
	obsmetrics "github.com/traffictuner/traffictuner/internal/observability/metrics"
	obstracing "github.com/traffictuner/traffictuner/internal/observability/tracing"
	"github.com/traffictuner/traffictuner/internal/ratelimit"
	reportdomain "github.com/traffictuner/traffictuner/internal/report/domain"
	trackingdomain "github.com/traffictuner/traffictuner/internal/tracking/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinHTTPMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	db          *gorm.DB
	genID       *snowflake.Node
	authsvc     authdomain.Service
	sessions    *session.Manager
	authzSvc    authorization.Service
	apiKeySvc   apikeydomain.Service
	creditsSvc  creditsdomain.Service
	domainsSvc  domainsdomain.Service
	analysisSvc analysisdomain.Service
	reportsSvc  reportdomain.Service
	trackingSvc trackingdomain.Service
	adminSvc    adminstatsdomain.Service
	guard       *ratelimit.Guard
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	DB          *gorm.DB
	GenID       *snowflake.Node
	Authsvc     authdomain.Service
	Sessions    *session.Manager
	AuthzSvc    authorization.Service
	APIKeySvc   apikeydomain.Service
	CreditsSvc  creditsdomain.Service
	DomainsSvc  domainsdomain.Service
	AnalysisSvc analysisdomain.Service
	ReportsSvc  reportdomain.Service
	TrackingSvc trackingdomain.Service
	AdminSvc    adminstatsdomain.Service
	Guard       *ratelimit.Guard `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		db:          p.DB,
		genID:       p.GenID,
		authsvc:     p.Authsvc,
		sessions:    p.Sessions,
		authzSvc:    p.AuthzSvc,
		apiKeySvc:   p.APIKeySvc,
		creditsSvc:  p.CreditsSvc,
		domainsSvc:  p.DomainsSvc,
		analysisSvc: p.AnalysisSvc,
		reportsSvc:  p.ReportsSvc,
		trackingSvc: p.TrackingSvc,
		adminSvc:    p.AdminSvc,
		guard:       p.Guard,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/signup", s.Signup)
	auth.POST("/login", s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/session", s.SessionInfo)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.APIKeyOrSession())

	// -------- Domains --------
	api.GET("/domains", s.ListDomains)
	api.POST("/domains", s.CreateDomain)
	api.GET("/domains/:id", s.GetDomainByID)
	api.PATCH("/domains/:id", s.UpdateDomain)
	api.POST("/domains/:id/analyze", s.RequireScope(apikeydomain.ScopeAnalyze), s.AnalyzeDomain)
	api.GET("/domains/:id/runs", s.ListDomainRuns)
	api.GET("/domains/:id/reports", s.ListDomainReports)
	api.GET("/domains/:id/score-trend", s.GetDomainScoreTrend)
	api.GET("/domains/:id/tracking-code", s.GetDomainTrackingCode)

	// -------- Reports --------
	api.GET("/reports/:id", s.GetReportByID)
	api.GET("/reports/:id/pdf", s.ExportReportPDF)

	// -------- Credits --------
	api.GET("/credits", s.GetCreditBalance)
	api.GET("/credits/history", s.GetCreditHistory)

	// -------- Tracking --------
	api.GET("/tracking/platforms", s.ListTrackingPlatforms)
	api.GET("/tracking/configs", s.ListTrackingConfigs)
	api.POST("/tracking/configs", s.CreateTrackingConfig)
	api.POST("/tracking/configs/bulk-toggle", s.BulkToggleTrackingConfigs)
	api.GET("/tracking/configs/:id", s.GetTrackingConfigByID)
	api.PATCH("/tracking/configs/:id", s.UpdateTrackingConfig)
	api.DELETE("/tracking/configs/:id", s.DeleteTrackingConfig)
	api.GET("/tracking/configs/:id/code", s.GetTrackingConfigCode)

	// -------- API keys (session only; a key cannot mint keys) --------
	api.GET("/keys", s.SessionOnly(), s.ListAPIKeys)
	api.POST("/keys", s.SessionOnly(), s.CreateAPIKey)
	api.POST("/keys/:key_id/rotate", s.SessionOnly(), s.RotateAPIKey)
	api.DELETE("/keys/:key_id", s.SessionOnly(), s.RevokeAPIKey)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin")

	admin.Use(s.SessionRequired())
	admin.Use(s.RequireAdmin())

	admin.GET("/dashboard", s.GetAdminDashboard)
	admin.POST("/users/:id/credits", s.GrantUserCredits)
}

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(*Server) {}),
	fx.Invoke(run),
)
