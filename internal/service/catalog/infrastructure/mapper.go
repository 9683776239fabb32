// internal/service/catalog/infrastructure/mapper.go
package infrastructure

import (
	"strings"

	"sportshub/internal/pkg/listing"
	"sportshub/internal/service/catalog/domain"
)

func joinSports(sports []string) string {
	if len(sports) == 0 {
		return ""
	}
	return "," + strings.Join(sports, ",") + ","
}

func splitSports(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func toModel(l *domain.Listing) *ListingModel {
	return &ListingModel{
		ID:        l.ID,
		OwnerID:   l.OwnerID,
		Name:      l.Name,
		City:      l.City,
		Sports:    joinSports(l.Sports),
		Price:     l.Price,
		Rating:    l.Rating,
		Latitude:  l.Latitude,
		Longitude: l.Longitude,
		CreatedAt: l.CreatedAt,
	}
}

func toDomain(kind listing.Kind, m *ListingModel) *domain.Listing {
	return &domain.Listing{
		ID:        m.ID,
		Kind:      kind,
		OwnerID:   m.OwnerID,
		Name:      m.Name,
		City:      m.City,
		Sports:    splitSports(m.Sports),
		Price:     m.Price,
		Rating:    m.Rating,
		Latitude:  m.Latitude,
		Longitude: m.Longitude,
		CreatedAt: m.CreatedAt.UTC(),
	}
}
