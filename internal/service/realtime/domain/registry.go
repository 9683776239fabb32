// internal/service/realtime/domain/registry.go
package domain

import (
	"strings"
	"time"

	"sportshub/internal/pkg/apperr"
)

// Conn 是一条已建立的客户端连接。Send 不能阻塞，队列满或已关闭时返回 false。
type Conn interface {
	Send(payload []byte) bool
	Close()
}

// Registry 是本节点上 "接收方 -> 连接" 的登记表。
// 它不是事实来源：丢失登记只会推迟投递，通知已经落库。
type Registry interface {
	Open(key string, c Conn)
	// Close 移除并关闭连接，返回该接收方是否已没有任何连接
	Close(key string, c Conn) bool
	// Touch 记录连接最近一次活跃的时间
	Touch(key string, c Conn)
	// Send 投递给接收方的所有连接，至少一条接收成功返回 true
	Send(key string, payload []byte) bool
	// Sweep 关闭 idleSince 之后没有活跃过的连接，返回关闭数量
	Sweep(idleSince time.Time) int
	Len() int
}

var recipientKinds = map[string]struct{}{
	"user": {}, "coach": {}, "academy": {}, "turf": {}, "supplier": {},
}

// RecipientKey 校验接收方并返回 "类型:ID"，与通知服务写入会话目录的键一致
func RecipientKey(kind, id string) (string, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	id = strings.TrimSpace(id)
	if _, ok := recipientKinds[kind]; !ok || id == "" {
		return "", apperr.Validation("recipientType and recipientId are required")
	}
	return kind + ":" + id, nil
}
