// internal/service/realtime/infrastructure/hub.go
package infrastructure

import (
	"sync"
	"time"

	"sportshub/internal/pkg/metrics"
	"sportshub/internal/service/realtime/domain"
)

// Hub 是进程内的 Registry 实现，同一个接收方可以有多条连接（多设备）
type Hub struct {
	mu    sync.RWMutex
	conns map[string]map[domain.Conn]time.Time // value 为 lastSeen
	now   func() time.Time
}

func NewHub() *Hub {
	return &Hub{
		conns: make(map[string]map[domain.Conn]time.Time),
		now:   time.Now,
	}
}

var _ domain.Registry = (*Hub)(nil)

func (h *Hub) Open(key string, c domain.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[key] == nil {
		h.conns[key] = make(map[domain.Conn]time.Time)
	}
	if _, ok := h.conns[key][c]; !ok {
		metrics.WSConnections.Inc()
	}
	h.conns[key][c] = h.now()
}

func (h *Hub) Close(key string, c domain.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.conns[key]
	if _, ok := set[c]; ok {
		delete(set, c)
		c.Close()
		metrics.WSConnections.Dec()
	}
	if len(set) == 0 {
		delete(h.conns, key)
		return true
	}
	return false
}

func (h *Hub) Touch(key string, c domain.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[key][c]; ok {
		h.conns[key][c] = h.now()
	}
}

func (h *Hub) Send(key string, payload []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := false
	for c := range h.conns[key] {
		if c.Send(payload) {
			delivered = true
		}
	}
	return delivered
}

func (h *Hub) Sweep(idleSince time.Time) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	swept := 0
	for key, set := range h.conns {
		for c, lastSeen := range set {
			if lastSeen.Before(idleSince) {
				delete(set, c)
				c.Close()
				swept++
			}
		}
		if len(set) == 0 {
			delete(h.conns, key)
		}
	}
	if swept > 0 {
		metrics.WSConnections.Sub(float64(swept))
		metrics.WSSwept.Add(float64(swept))
	}
	return swept
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.conns {
		n += len(set)
	}
	return n
}
