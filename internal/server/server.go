package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/projectnest/projectnest/internal/config"
	"github.com/projectnest/projectnest/internal/identity"
	"github.com/projectnest/projectnest/internal/observability"
	obsmiddleware "github.com/projectnest/projectnest/internal/observability/logger"
	obsmetrics "github.com/projectnest/projectnest/internal/observability/metrics"
	paymentdomain "github.com/projectnest/projectnest/internal/payment/domain"
	projectdomain "github.com/projectnest/projectnest/internal/project/domain"
	"github.com/projectnest/projectnest/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, m *obsmetrics.Metrics, registry *prometheus.Registry) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obsmetrics.GinMiddleware(m))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	return r
}

func registerGin(obsCfg observability.Config, m *obsmetrics.Metrics, registry *prometheus.Registry) *gin.Engine {
	return NewEngine(obsCfg, m, registry)
}

type Params struct {
	fx.In

	Engine     *gin.Engine
	Cfg        config.Config
	Log        *zap.Logger
	Identity   identity.Provider
	PaymentSvc paymentdomain.Service
	ProjectSvc projectdomain.Service
	Gateway    paymentdomain.Gateway
	Limiter    *ratelimit.TokenBucket `optional:"true"`
	Metrics    *obsmetrics.Metrics    `optional:"true"`
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	log        *zap.Logger
	identity   identity.Provider
	paymentSvc paymentdomain.Service
	projectSvc projectdomain.Service
	gateway    paymentdomain.Gateway
	limiter    *ratelimit.TokenBucket
	metrics    *obsmetrics.Metrics
}

func NewServer(p Params) *Server {
	s := &Server{
		engine:     p.Engine,
		cfg:        p.Cfg,
		log:        p.Log.Named("http.server"),
		identity:   p.Identity,
		paymentSvc: p.PaymentSvc,
		projectSvc: p.ProjectSvc,
		gateway:    p.Gateway,
		limiter:    p.Limiter,
		metrics:    p.Metrics,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")

	payments := api.Group("/payments")
	payments.POST("/webhook/paystack", s.HandlePaystackWebhook)
	payments.POST("/verify", ratelimit.Middleware(s.limiter, s.log), s.HandleVerifyPayment)
	payments.POST("/checkout", s.IdentityRequired(), s.HandleCheckout)

	projects := api.Group("/projects")
	projects.POST("/:id/claim", s.IdentityRequired(), s.HandleClaimProject)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
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
