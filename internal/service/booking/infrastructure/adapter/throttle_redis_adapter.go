// internal/service/booking/infrastructure/adapter/throttle_redis_adapter.go
package adapter

import (
	"context"
	"fmt"
	"time"

	"sportshub/internal/pkg/redis"
)

const throttleScriptName = "booking_throttle"

// ThrottleRedisAdapter 是 port.Throttle 的 Redis 实现：固定窗口计数
type ThrottleRedisAdapter struct {
	redisClient *redis.Client
	limit       int
	window      time.Duration
}

// NewThrottleRedisAdapter 在创建时加载 Lua 脚本
func NewThrottleRedisAdapter(redisClient *redis.Client, limit int, window time.Duration) (*ThrottleRedisAdapter, error) {
	if err := redisClient.LoadScriptFromContent(throttleScriptName, throttleScript); err != nil {
		return nil, fmt.Errorf("failed to load booking throttle script: %w", err)
	}
	return &ThrottleRedisAdapter{redisClient: redisClient, limit: limit, window: window}, nil
}

func (a *ThrottleRedisAdapter) Allow(ctx context.Context, userID string) (bool, error) {
	key := fmt.Sprintf("booking:throttle:{%s}", userID)
	result, err := a.redisClient.RunScript(ctx, throttleScriptName, []string{key}, a.limit, a.window.Milliseconds())
	if err != nil {
		return false, fmt.Errorf("throttle adapter failed to run script: %w", err)
	}
	code, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("unexpected result type from Lua script: %T", result)
	}
	return code == 1, nil
}

var throttleScript = `
-- KEYS[1]: 用户的计数 key
-- ARGV[1]: 窗口内允许的次数
-- ARGV[2]: 窗口长度（毫秒）
local current = redis.call('incr', KEYS[1])
if current == 1 then
    redis.call('pexpire', KEYS[1], ARGV[2])
end
if current > tonumber(ARGV[1]) then
    return 0
end
return 1
`
