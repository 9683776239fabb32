// internal/service/realtime/interfaces/subscriber.go
package interfaces

import (
	"context"

	"github.com/rs/zerolog/log"

	"sportshub/internal/pkg/session"
	"sportshub/internal/service/realtime/application"
)

// NodeSubscriber 订阅本节点的 Redis 频道，把转发来的通知交给 Gateway
type NodeSubscriber struct {
	sessions *session.Manager
	gateway  *application.Gateway
}

func NewNodeSubscriber(sessions *session.Manager, gateway *application.Gateway) *NodeSubscriber {
	return &NodeSubscriber{sessions: sessions, gateway: gateway}
}

func (s *NodeSubscriber) Run(ctx context.Context) error {
	nodeID := s.gateway.NodeID()
	ps := s.sessions.Subscribe(ctx, nodeID)
	defer ps.Close()
	log.Info().Str("channel", session.NodeChannel(nodeID)).Msg("✅ gateway node subscriber started")

	ch := ps.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := s.gateway.Deliver(ctx, []byte(msg.Payload)); err != nil {
				log.Warn().Err(err).Msg("dropping malformed delivery")
			}
		case <-ctx.Done():
			log.Info().Msg("🛑 gateway node subscriber stopped")
			return nil
		}
	}
}
