// internal/service/notification/interfaces/cleanup_worker.go
package interfaces

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"sportshub/internal/service/notification/application"
)

// CleanupWorker 定时删除过期通知
type CleanupWorker struct {
	service  *application.DispatchService
	interval time.Duration
}

func NewCleanupWorker(service *application.DispatchService, interval time.Duration) *CleanupWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &CleanupWorker{service: service, interval: interval}
}

func (w *CleanupWorker) Run(ctx context.Context) error {
	log.Info().Msgf("✅ notification cleanup worker started, running every %v", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := w.service.CleanupExpired(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("notification cleanup failed")
			}
		case <-ctx.Done():
			log.Info().Msg("🛑 notification cleanup worker stopped")
			return nil
		}
	}
}
