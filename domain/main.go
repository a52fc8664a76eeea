package domain

import (
	"github.com/keylet/waitlist-api/config"
	"github.com/keylet/waitlist-api/domain/admin"
	"github.com/keylet/waitlist-api/domain/monitoring"
	"github.com/keylet/waitlist-api/domain/waitlist"
)

func SetupCoreDomain(appConfig *config.ApplicationConfig) {
	appConfig.RouterService.MountController(monitoring.NewMonitoringController(appConfig.DB, appConfig.Logger, appConfig.Cache, appConfig.Config))
	appConfig.RouterService.MountController(waitlist.NewWaitlistController(appConfig.DB, appConfig.Logger))
	appConfig.RouterService.MountController(admin.NewAdminController(appConfig.DB, appConfig.Logger))
}
