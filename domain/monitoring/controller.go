package monitoring

import (
	"context"
	"time"

	appconfig "github.com/keylet/waitlist-api/config"
	"github.com/keylet/waitlist-api/config/router"
	"github.com/keylet/waitlist-api/internal/log"
	"github.com/keylet/waitlist-api/pkg/ratelimit"
	"gorm.io/gorm"
)

type Cache interface {
	Ping(ctx context.Context) error
}

type HealthStatus struct {
	Database int `json:"database"` // 1 = healthy, 0 = unhealthy
	Cache    int `json:"cache"`    // 1 = healthy, 0 = unhealthy/not configured
	Uptime   int `json:"uptime"`   // uptime in seconds
}

// ClientConfig is the public, browser-safe store configuration: the
// low-privilege endpoint/key pair. Never includes privileged credentials.
type ClientConfig struct {
	StoreURL     string `json:"store_url"`
	StoreAnonKey string `json:"store_anon_key"`
}

type MonitoringController struct {
	db        *gorm.DB
	logger    *log.Logger
	cache     Cache
	appCfg    *appconfig.AppConfig
	startTime time.Time
}

func NewMonitoringController(db *gorm.DB, logger *log.Logger, cache Cache, appCfg *appconfig.AppConfig) *router.RESTController {
	ctrl := &MonitoringController{
		db:        db,
		logger:    logger,
		cache:     cache,
		appCfg:    appCfg,
		startTime: time.Now(),
	}

	return router.NewRESTController(
		"MonitoringController",
		"/",
		func(routerService *router.RouterService, controller *router.RESTController) {

			monitoringRateLimiter := createMonitoringRateLimiter()

			routerService.AddGetHandler(controller, monitoringRateLimiter, "", func(c *router.RequestContext) *router.ServiceResult {
				return ctrl.monitor(c)
			})

			routerService.AddGetHandler(controller, monitoringRateLimiter, "health", func(c *router.RequestContext) *router.ServiceResult {
				return ctrl.healthCheck(routerService, c)
			})

			routerService.AddGetHandler(controller, nil, "client-config", func(c *router.RequestContext) *router.ServiceResult {
				return ctrl.clientConfig(c)
			})
		},
	)
}

func createMonitoringRateLimiter() ratelimit.RateLimiter {
	const monitoringRequestsPerMinute = 10 // More restrictive than default 100

	config := &ratelimit.RateLimitConfig{
		Requests: monitoringRequestsPerMinute,
		Window:   time.Minute,
		Redis:    nil,
		Logger:   nil,
	}

	return ratelimit.NewRateLimiter(config)
}

func (ctrl *MonitoringController) monitor(c *router.RequestContext) *router.ServiceResult {
	return &router.ServiceResult{
		StatusCode: 200,
		Data:       "Monitoring endpoint is operational.",
		Message:    "Monitoring successful",
	}
}

func (ctrl *MonitoringController) healthCheck(
	routerService *router.RouterService,
	c *router.RequestContext,
) *router.ServiceResult {
	logger := routerService.GetLogger(c)
	logger.Info("Health check endpoint called")

	return &router.ServiceResult{
		StatusCode: 200,
		Data:       ctrl.performHealthChecks(c.Request.Context(), logger),
		Message:    "waitlist-api health check completed",
	}
}

// clientConfig hands the presentation layer the public store pair it needs
// for any client-direct reads. The core operations never use these values.
func (ctrl *MonitoringController) clientConfig(c *router.RequestContext) *router.ServiceResult {
	cfg := ClientConfig{}
	if ctrl.appCfg != nil {
		cfg.StoreURL = ctrl.appCfg.PublicStoreURL
		cfg.StoreAnonKey = ctrl.appCfg.PublicStoreAnonKey
	}

	return &router.ServiceResult{
		StatusCode: 200,
		Data:       cfg,
		Message:    "Client configuration retrieved successfully",
	}
}

func (ctrl *MonitoringController) performHealthChecks(ctx context.Context, logger *log.Logger) HealthStatus {
	status := HealthStatus{
		Uptime: int(time.Since(ctrl.startTime).Seconds()),
	}

	if ctrl.checkDatabase(ctx) {
		status.Database = 1
		logger.Info("Database health check passed")
	} else {
		logger.Error("Database health check failed")
	}

	if ctrl.cache == nil {
		logger.Info("Cache not configured, cache health check skipped")
	} else if ctrl.cache.Ping(ctx) == nil {
		status.Cache = 1
		logger.Info("Cache health check passed")
	} else {
		logger.Error("Cache health check failed")
	}

	return status
}

func (ctrl *MonitoringController) checkDatabase(ctx context.Context) bool {
	sqlDB, err := ctrl.db.DB()
	if err != nil {
		return false
	}

	return sqlDB.PingContext(ctx) == nil
}
