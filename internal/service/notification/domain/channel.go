// internal/service/notification/domain/channel.go
package domain

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// Channel 是持久化之外的投递渠道
type Channel string

const (
	ChannelRealtime Channel = "realtime"
	ChannelPush     Channel = "push"
)

// ChannelRule 把一条 CEL 表达式绑定到一个渠道，表达式中可以引用 notification 变量
type ChannelRule struct {
	Channel Channel
	Expr    string
}

type compiledRule struct {
	channel Channel
	expr    string
	prg     cel.Program
}

// ChannelRouter 根据规则决定一条通知走哪些渠道
type ChannelRouter struct {
	rules []compiledRule
}

// NewChannelRouter 在启动时编译所有规则，任一规则非法即返回错误
func NewChannelRouter(rules []ChannelRule) (*ChannelRouter, error) {
	env, err := cel.NewEnv(cel.Variable("notification", cel.MapType(cel.StringType, cel.DynType)))
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}
	r := &ChannelRouter{}
	for _, rule := range rules {
		switch rule.Channel {
		case ChannelRealtime, ChannelPush:
		default:
			return nil, fmt.Errorf("unknown channel %q", rule.Channel)
		}
		ast, iss := env.Compile(rule.Expr)
		if iss != nil && iss.Err() != nil {
			return nil, fmt.Errorf("compile rule for %s: %w", rule.Channel, iss.Err())
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, fmt.Errorf("rule for %s must evaluate to bool, got %s", rule.Channel, ast.OutputType())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("program rule for %s: %w", rule.Channel, err)
		}
		r.rules = append(r.rules, compiledRule{channel: rule.Channel, expr: rule.Expr, prg: prg})
	}
	return r, nil
}

// Route 返回命中的渠道，同一渠道只出现一次。规则求值出错时跳过该规则并把错误一并返回。
func (r *ChannelRouter) Route(n *Notification) ([]Channel, error) {
	activation := map[string]any{"notification": celView(n)}
	seen := make(map[Channel]bool)
	var (
		out     []Channel
		evalErr error
	)
	for _, rule := range r.rules {
		if seen[rule.channel] {
			continue
		}
		val, _, err := rule.prg.Eval(activation)
		if err != nil {
			evalErr = fmt.Errorf("evaluate %q: %w", rule.expr, err)
			continue
		}
		if ok, _ := val.Value().(bool); ok {
			seen[rule.channel] = true
			out = append(out, rule.channel)
		}
	}
	return out, evalErr
}

func celView(n *Notification) map[string]any {
	data := make(map[string]any, len(n.Data))
	for k, v := range n.Data {
		data[k] = v
	}
	return map[string]any{
		"id":            n.ID,
		"type":          string(n.Type),
		"priority":      string(n.Priority),
		"recipientType": string(n.Recipient.Kind),
		"recipientId":   n.Recipient.ID,
		"title":         n.Title,
		"data":          data,
	}
}
