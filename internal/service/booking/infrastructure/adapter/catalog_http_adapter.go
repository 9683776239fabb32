// internal/service/booking/infrastructure/adapter/catalog_http_adapter.go
package adapter

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"sportshub/internal/pkg/apperr"
	"sportshub/internal/pkg/httpclient"
	"sportshub/internal/pkg/listing"
)

var ErrParentNotFound = apperr.NotFound("parent resource not found")

// CatalogDirectoryAdapter 通过目录服务的 HTTP 接口解析资源所有者，实现 port.ResourceDirectory
type CatalogDirectoryAdapter struct {
	client   *httpclient.Client
	resolver *httpclient.Resolver
}

func NewCatalogDirectoryAdapter(client *httpclient.Client, resolver *httpclient.Resolver) *CatalogDirectoryAdapter {
	return &CatalogDirectoryAdapter{client: client, resolver: resolver}
}

type listingOwner struct {
	ID      string `json:"id"`
	OwnerID string `json:"ownerId"`
}

func (a *CatalogDirectoryAdapter) OwnerOf(ctx context.Context, ref listing.Ref) (string, error) {
	base, err := a.resolver.BaseURL()
	if err != nil {
		return "", errors.Wrap(err, "resolve catalog service")
	}

	var out listingOwner
	endpoint := base + "/listings/" + url.PathEscape(string(ref.Kind)) + "/" + url.PathEscape(ref.ID)
	if err := a.client.GetJSON(ctx, endpoint, nil, &out); err != nil {
		var se *httpclient.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return "", ErrParentNotFound
		}
		return "", errors.Wrapf(err, "lookup owner of %s", ref)
	}
	if out.OwnerID == "" {
		return "", ErrParentNotFound
	}
	return out.OwnerID, nil
}
