// internal/service/catalog/interfaces/dto.go
package interfaces

import (
	"time"

	"sportshub/internal/service/catalog/domain"
)

type ListingDTO struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	OwnerID   string    `json:"ownerId"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	Sports    []string  `json:"sports"`
	Price     float64   `json:"price"`
	Rating    float64   `json:"rating"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	CreatedAt time.Time `json:"createdAt"`
}

type RankedListingDTO struct {
	ListingDTO
	Boost    int      `json:"boost"`
	Distance *float64 `json:"distance,omitempty"`
}

type SearchResultDTO struct {
	Items      []RankedListingDTO `json:"items"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"totalPages"`
}

func toListingDTO(l *domain.Listing) ListingDTO {
	sports := l.Sports
	if sports == nil {
		sports = []string{}
	}
	return ListingDTO{
		ID:        l.ID,
		Kind:      string(l.Kind),
		OwnerID:   l.OwnerID,
		Name:      l.Name,
		City:      l.City,
		Sports:    sports,
		Price:     l.Price,
		Rating:    l.Rating,
		Latitude:  l.Latitude,
		Longitude: l.Longitude,
		CreatedAt: l.CreatedAt,
	}
}

func toSearchResultDTO(res *domain.SearchResult) SearchResultDTO {
	items := make([]RankedListingDTO, 0, len(res.Items))
	for i := range res.Items {
		it := &res.Items[i]
		items = append(items, RankedListingDTO{
			ListingDTO: toListingDTO(&it.Listing),
			Boost:      it.Boost,
			Distance:   it.DistanceMeters,
		})
	}
	return SearchResultDTO{
		Items:      items,
		Total:      res.Total,
		Page:       res.Page,
		Limit:      res.Limit,
		TotalPages: res.TotalPages,
	}
}
