package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/coldchain/internal/authorization"
	"github.com/smallbiznis/coldchain/internal/config"
	equipmentdomain "github.com/smallbiznis/coldchain/internal/equipment/domain"
	faultdomain "github.com/smallbiznis/coldchain/internal/faultreport/domain"
	fridgerequestdomain "github.com/smallbiznis/coldchain/internal/fridgerequest/domain"
	inventorydomain "github.com/smallbiznis/coldchain/internal/inventory/domain"
	ledgerdomain "github.com/smallbiznis/coldchain/internal/ledger/domain"
	maintenancedomain "github.com/smallbiznis/coldchain/internal/maintenance/domain"
	notificationdomain "github.com/smallbiznis/coldchain/internal/notification/domain"
	"github.com/smallbiznis/coldchain/internal/observability/logger"
	"github.com/smallbiznis/coldchain/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Param struct {
	fx.In

	Config         config.Config
	Log            *zap.Logger
	Authz          authorization.Service
	Equipment      equipmentdomain.Service
	Faults         faultdomain.Service
	Maintenance    maintenancedomain.Service
	FridgeRequests fridgerequestdomain.Service
	Inventory      inventorydomain.Service
	Ledger         ledgerdomain.Service
	Notifications  notificationdomain.Service
	Metrics        *metrics.Metrics `optional:"true"`
}

type Server struct {
	cfg            config.Config
	log            *zap.Logger
	authz          authorization.Service
	equipment      equipmentdomain.Service
	faults         faultdomain.Service
	maintenance    maintenancedomain.Service
	fridgeRequests fridgerequestdomain.Service
	inventory      inventorydomain.Service
	ledger         ledgerdomain.Service
	notifications  notificationdomain.Service
	metrics        *metrics.Metrics
}

func New(p Param) *Server {
	return &Server{
		cfg:            p.Config,
		log:            p.Log.Named("server"),
		authz:          p.Authz,
		equipment:      p.Equipment,
		faults:         p.Faults,
		maintenance:    p.Maintenance,
		fridgeRequests: p.FridgeRequests,
		inventory:      p.Inventory,
		ledger:         p.Ledger,
		notifications:  p.Notifications,
		metrics:        p.Metrics,
	}
}

func (s *Server) Engine() *gin.Engine {
	if s.cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		Debug: s.cfg.LogLevel == "debug",
		ErrorClassifier: func(err error) (string, string) {
			status, code := mapError(err)
			return http.StatusText(status), code
		},
	}))
	if s.metrics != nil {
		engine.Use(s.metrics.GinMiddleware())
	}
	engine.Use(s.actorMiddleware())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := engine.Group("/v1")
	s.registerEquipmentRoutes(v1)
	s.registerFaultReportRoutes(v1)
	s.registerMaintenanceRoutes(v1)
	s.registerFridgeRequestRoutes(v1)
	s.registerInventoryRoutes(v1)
	s.registerLedgerRoutes(v1)
	s.registerNotificationRoutes(v1)
	return engine
}

var Module = fx.Module("server",
	fx.Provide(New),
	fx.Invoke(run),
)

func run(lc fx.Lifecycle, s *Server) {
	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				s.log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					s.log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
