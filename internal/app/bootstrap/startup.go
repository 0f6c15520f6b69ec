// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/visitdesk/internal/app/resources"
	visitstore "github.com/dalemusser/visitdesk/internal/app/store/visits"
	"github.com/dalemusser/visitdesk/internal/app/system/timeouts"
	"github.com/dalemusser/visitdesk/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs after DB connections and schema setup, before the handler
// is built. It registers the shared layout templates and starts the nightly
// auto check-out.
//
// deps is passed by value, so the worker is kept in the package-level
// background set for Shutdown to stop.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	resources.LoadSharedTemplates()

	if appCfg.AutoCheckOutSchedule == "" {
		logger.Info("auto check-out disabled")
		return nil
	}

	loc, err := appCfg.location()
	if err != nil {
		return err
	}
	w := workers.NewAutoCheckOut(visitstore.New(deps.MongoDatabase), logger,
		appCfg.AutoCheckOutSchedule, loc, timeouts.Long())
	if err := w.Start(); err != nil {
		return err
	}
	background.set(w)
	return nil
}
