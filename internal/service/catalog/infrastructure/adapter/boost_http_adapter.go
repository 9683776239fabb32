// internal/service/catalog/infrastructure/adapter/boost_http_adapter.go
package adapter

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"sportshub/internal/pkg/httpclient"
	"sportshub/internal/pkg/listing"
)

// idsPerCall 与 promotion 服务 /promotions/boosts 单次接受的 id 上限一致
const idsPerCall = 500

// PromotionBoostAdapter 通过 promotion 服务的批量接口查询推广加权，实现 port.BoostProvider。
// id 按 idsPerCall 分片并发查询；相同的并发分片被 singleflight 合并为一次下游调用。
type PromotionBoostAdapter struct {
	client   *httpclient.Client
	resolver *httpclient.Resolver
	group    singleflight.Group
}

func NewPromotionBoostAdapter(client *httpclient.Client, resolver *httpclient.Resolver) *PromotionBoostAdapter {
	return &PromotionBoostAdapter{client: client, resolver: resolver}
}

type boostsResponse struct {
	ServiceType string         `json:"serviceType"`
	Boosts      map[string]int `json:"boosts"`
}

func (a *PromotionBoostAdapter) Boosts(ctx context.Context, kind listing.Kind, ids []string) (map[string]int, error) {
	if len(ids) == 0 {
		return map[string]int{}, nil
	}
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	var (
		mu  sync.Mutex
		out = make(map[string]int, len(sorted))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for start := 0; start < len(sorted); start += idsPerCall {
		end := start + idsPerCall
		if end > len(sorted) {
			end = len(sorted)
		}
		chunk := sorted[start:end]
		g.Go(func() error {
			boosts, err := a.fetch(gctx, kind, chunk)
			if err != nil {
				return err
			}
			mu.Lock()
			for id, b := range boosts {
				out[id] = b
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *PromotionBoostAdapter) fetch(ctx context.Context, kind listing.Kind, ids []string) (map[string]int, error) {
	joined := strings.Join(ids, ",")
	v, err, _ := a.group.Do(string(kind)+"|"+joined, func() (interface{}, error) {
		base, err := a.resolver.BaseURL()
		if err != nil {
			return nil, errors.Wrap(err, "resolve promotion service")
		}
		var out boostsResponse
		params := url.Values{"serviceType": {string(kind)}, "ids": {joined}}
		if err := a.client.GetJSON(ctx, base+"/promotions/boosts", params, &out); err != nil {
			return nil, errors.Wrap(err, "fetch promotion boosts")
		}
		if out.Boosts == nil {
			out.Boosts = map[string]int{}
		}
		return out.Boosts, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]int), nil
}
