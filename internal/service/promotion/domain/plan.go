// internal/service/promotion/domain/plan.go
package domain

import (
	"sort"
	"strings"
	"time"
)

// Plan 是一档推广套餐，优先级、价格和时长都是固定的
type Plan struct {
	Name          string  `json:"name"`
	PriorityValue int     `json:"priorityValue"`
	Amount        float64 `json:"amount"`
	DurationDays  int     `json:"durationDays"`
}

// Duration 返回套餐的有效时长
func (p Plan) Duration() time.Duration {
	return time.Duration(p.DurationDays) * 24 * time.Hour
}

// PlanCatalog 是套餐查找表。所有服务必须使用同一份配置以保证排序一致。
type PlanCatalog map[string]Plan

// DefaultPlans 是内置套餐表
func DefaultPlans() PlanCatalog {
	return PlanCatalog{
		"basic":    {Name: "basic", PriorityValue: 10, Amount: 499, DurationDays: 7},
		"premium":  {Name: "premium", PriorityValue: 50, Amount: 1499, DurationDays: 30},
		"platinum": {Name: "platinum", PriorityValue: 100, Amount: 2999, DurationDays: 90},
	}
}

// Lookup 按名称查找套餐，大小写不敏感
func (c PlanCatalog) Lookup(name string) (Plan, error) {
	p, ok := c[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Plan{}, ErrInvalidPlan
	}
	return p, nil
}

// List 按优先级从低到高返回所有套餐
func (c PlanCatalog) List() []Plan {
	out := make([]Plan, 0, len(c))
	for _, p := range c {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PriorityValue != out[j].PriorityValue {
			return out[i].PriorityValue < out[j].PriorityValue
		}
		return out[i].Name < out[j].Name
	})
	return out
}
