// internal/pkg/zookeeper/locker.go
package zookeeper

import (
	"context"

	"sportshub/internal/pkg/logger"
)

// Locker 用 ZooKeeper 实现 lock.Locker
type Locker struct {
	conn *Conn
}

func NewLocker(conn *Conn) *Locker {
	return &Locker{conn: conn}
}

func (z *Locker) Lock(ctx context.Context, key string) (func(), error) {
	l, err := NewDistributedLock(z.conn, key)
	if err != nil {
		return nil, err
	}
	if err := l.Lock(ctx); err != nil {
		return nil, err
	}
	return func() {
		if err := l.Unlock(); err != nil {
			logger.Ctx(ctx).Error().Err(err).Str("key", key).Msg("failed to release zookeeper lock")
		}
	}, nil
}
