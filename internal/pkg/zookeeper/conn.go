// internal/pkg/zookeeper/conn.go
package zookeeper

import (
	"fmt"
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/rs/zerolog/log"
)

// Conn 包装 zk.Conn，分布式锁只依赖其中的节点操作
type Conn struct {
	*zk.Conn
}

// Connect 建立会话并等待连接成功
func Connect(servers []string, sessionTimeout time.Duration) (*Conn, error) {
	c, events, err := zk.Connect(servers, sessionTimeout, zk.WithLogInfo(false))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to zookeeper: %w", err)
	}

	timeout := time.After(sessionTimeout)
	for {
		select {
		case ev := <-events:
			if ev.State == zk.StateHasSession {
				log.Info().Strs("servers", servers).Msg("✅ Successfully connected to ZooKeeper.")
				return &Conn{Conn: c}, nil
			}
		case <-timeout:
			c.Close()
			return nil, fmt.Errorf("timeout waiting for zookeeper session after %s", sessionTimeout)
		}
	}
}
