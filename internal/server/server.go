// Package server exposes the reconciliation API over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sellerdesk/recond/internal/cache"
	"github.com/sellerdesk/recond/internal/clock"
	"github.com/sellerdesk/recond/internal/config"
	"github.com/sellerdesk/recond/internal/engine"
	ingestdomain "github.com/sellerdesk/recond/internal/ingest/domain"
)

type Params struct {
	fx.In

	Config  config.Config
	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Ingest  ingestdomain.Service
	Engine  *engine.Engine
	Reports *cache.TTLCache[string, engine.Report]
	Router  *gin.Engine
}

type Server struct {
	cfg       config.Config
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	ingestSvc ingestdomain.Service
	engine    *engine.Engine
	reports   *cache.TTLCache[string, engine.Report]
	router    *gin.Engine
	limiter   *rateLimiter
}

// NewEngine builds the gin router in the configured mode.
func NewEngine(cfg config.Config) *gin.Engine {
	mode := cfg.Server.Mode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

func NewServer(p Params) *Server {
	return &Server{
		cfg:       p.Config,
		db:        p.DB,
		log:       p.Log.Named("server.http"),
		clock:     p.Clock,
		ingestSvc: p.Ingest,
		engine:    p.Engine,
		reports:   p.Reports,
		router:    p.Router,
		limiter:   newRateLimiter(ingestRateLimit, time.Minute),
	}
}

func (s *Server) RegisterAPIRoutes() {
	s.router.Use(s.RequestLogger())
	s.router.GET("/healthz", s.Healthz)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.router.Group("/api", s.APIKeyRequired())
	api.POST("/ingest/:schema", s.IngestRateLimited(), s.IngestBatch)
	api.POST("/chargebacks/:id/transition", s.TransitionChargeback)
	api.GET("/report", s.GetReport)
	api.GET("/report/margins", s.GetMarginReport)
	api.GET("/alerts", s.GetAlerts)
	api.GET("/health-score", s.GetHealthScore)
	api.GET("/prices/:sku/changes", s.GetPriceChanges)
}

func (s *Server) Healthz(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RunHTTP starts the listener under the fx lifecycle.
func RunHTTP(lc fx.Lifecycle, s *Server, log *zap.Logger) {
	addr := s.cfg.Server.Addr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", addr))
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

var Module = fx.Module("server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterAPIRoutes() }),
	fx.Invoke(RunHTTP),
)
