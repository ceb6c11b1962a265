package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/weighbill/internal/billing"
	billingdomain "github.com/smallbiznis/weighbill/internal/billing/domain"
	"github.com/smallbiznis/weighbill/internal/cache"
	"github.com/smallbiznis/weighbill/internal/clock"
	"github.com/smallbiznis/weighbill/internal/config"
	"github.com/smallbiznis/weighbill/internal/events"
	"github.com/smallbiznis/weighbill/internal/observability"
	obsmiddleware "github.com/smallbiznis/weighbill/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/weighbill/internal/observability/metrics"
	obstracing "github.com/smallbiznis/weighbill/internal/observability/tracing"
	"github.com/smallbiznis/weighbill/internal/provider"
	providerdomain "github.com/smallbiznis/weighbill/internal/provider/domain"
	"github.com/smallbiznis/weighbill/internal/providers/pdf"
	"github.com/smallbiznis/weighbill/internal/rate"
	ratedomain "github.com/smallbiznis/weighbill/internal/rate/domain"
	"github.com/smallbiznis/weighbill/internal/ratelimit"
	"github.com/smallbiznis/weighbill/internal/truck"
	truckdomain "github.com/smallbiznis/weighbill/internal/truck/domain"
	"github.com/smallbiznis/weighbill/internal/weighing"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	clock.Module,
	cache.Module,
	events.Module,
	ratelimit.Module,
	pdf.Module,
	weighing.Module,
	provider.Module,
	truck.Module,
	rate.Module,
	billing.Module,
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
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
	loc         *time.Location
	db          *gorm.DB
	clock       clock.Clock
	providerSvc providerdomain.Service
	truckSvc    truckdomain.Service
	rateSvc     ratedomain.Service
	billingSvc  billingdomain.Service
	pdf         pdf.Provider
	billLimiter *ratelimit.BillLimiter
	obsMetrics  *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	DB          *gorm.DB
	Clock       clock.Clock
	ProviderSvc providerdomain.Service
	TruckSvc    truckdomain.Service
	RateSvc     ratedomain.Service
	BillingSvc  billingdomain.Service
	PDF         pdf.Provider
	BillLimiter *ratelimit.BillLimiter `optional:"true"`
	ObsMetrics  *obsmetrics.Metrics    `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		loc:         p.Cfg.Location(),
		db:          p.DB,
		clock:       p.Clock,
		providerSvc: p.ProviderSvc,
		truckSvc:    p.TruckSvc,
		rateSvc:     p.RateSvc,
		billingSvc:  p.BillingSvc,
		pdf:         p.PDF,
		billLimiter: p.BillLimiter,
		obsMetrics:  p.ObsMetrics,
	}
	if svc.clock == nil {
		svc.clock = clock.NewSystem()
	}

	svc.registerRoutes()
	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerRoutes() {
	r := s.engine

	r.GET("/health", s.Health)

	r.POST("/provider", s.CreateProvider)
	r.PUT("/provider/:id", s.RenameProvider)
	r.GET("/provider/:id", s.GetProvider)

	r.POST("/truck", s.RegisterTruck)
	r.PUT("/truck/:id", s.UpdateTruck)
	r.GET("/truck/:id", s.GetTruck)

	r.POST("/rates", s.UploadRates)
	r.GET("/rates", s.DownloadRates)

	r.GET("/bill/:id", s.BillRateLimit(), s.GetBill)
}
