// internal/service/promotion/interfaces/expiry_worker.go
package interfaces

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"sportshub/internal/service/promotion/application"
)

// ExpiryWorker 定时把过期的已支付推广标记为 expired，只用于审计
type ExpiryWorker struct {
	service  *application.PromotionService
	interval time.Duration
}

func NewExpiryWorker(service *application.PromotionService, interval time.Duration) *ExpiryWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ExpiryWorker{service: service, interval: interval}
}

// Run 阻塞直到 ctx 被取消
func (w *ExpiryWorker) Run(ctx context.Context) error {
	log.Info().Msgf("✅ promotion expiry worker started, checking every %v", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := w.service.ExpireStale(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("promotion expiry pass failed")
			}
		case <-ctx.Done():
			log.Info().Msg("🛑 promotion expiry worker stopped")
			return nil
		}
	}
}
