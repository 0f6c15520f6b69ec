// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"
	"sync"

	"github.com/dalemusser/visitdesk/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// background holds the workers started in Startup.
var background workerSet

type workerSet struct {
	mu           sync.Mutex
	autoCheckOut *workers.AutoCheckOut
}

func (s *workerSet) set(w *workers.AutoCheckOut) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoCheckOut = w
}

// stop stops and forgets every worker. Safe to call more than once.
func (s *workerSet) stop() {
	s.mu.Lock()
	w := s.autoCheckOut
	s.autoCheckOut = nil
	s.mu.Unlock()

	if w != nil {
		w.Stop()
	}
}

// Shutdown stops background workers, then disconnects MongoDB.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	background.stop()

	if deps.MongoClient != nil {
		logger.Info("disconnecting VisitDesk MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
