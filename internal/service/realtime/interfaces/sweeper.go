// internal/service/realtime/interfaces/sweeper.go
package interfaces

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"sportshub/internal/service/realtime/application"
)

// Sweeper 定期关闭心跳超时的连接
type Sweeper struct {
	gateway  *application.Gateway
	interval time.Duration
}

func NewSweeper(gateway *application.Gateway, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Sweeper{gateway: gateway, interval: interval}
}

func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			if n := s.gateway.Sweep(now); n > 0 {
				log.Info().Int("count", n).Msg("🧹 idle websocket connections swept")
			}
		case <-ctx.Done():
			return nil
		}
	}
}
