// internal/service/catalog/domain/listing.go
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"sportshub/internal/pkg/apperr"
	"sportshub/internal/pkg/listing"
)

// Listing 是目录中的一条供给侧资源：学院、教练、草坪或场地
type Listing struct {
	ID        string
	Kind      listing.Kind
	OwnerID   string
	Name      string
	City      string
	Sports    []string
	Price     float64
	Rating    float64
	Latitude  float64
	Longitude float64
	CreatedAt time.Time
}

// ListingDraft 是创建资源时由调用方提供的字段
type ListingDraft struct {
	Kind      string   `json:"kind"`
	Name      string   `json:"name"`
	City      string   `json:"city"`
	Sports    []string `json:"sports"`
	Price     float64  `json:"price"`
	Rating    float64  `json:"rating"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
}

func NewListing(ownerID string, d ListingDraft, now time.Time) (*Listing, error) {
	kind, err := listing.ParseKind(d.Kind)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(ownerID) == "" {
		return nil, apperr.Validation("owner id is required")
	}
	if strings.TrimSpace(d.Name) == "" {
		return nil, apperr.Validation("name is required")
	}
	if d.Price < 0 {
		return nil, apperr.Validation("price must not be negative")
	}
	if d.Rating < 0 || d.Rating > 5 {
		return nil, apperr.Validation("rating must be between 0 and 5")
	}
	if err := validateCoordinates(d.Latitude, d.Longitude); err != nil {
		return nil, err
	}

	sports := make([]string, 0, len(d.Sports))
	for _, s := range d.Sports {
		if s = normalize(s); s != "" && !strings.Contains(s, ",") {
			sports = append(sports, s)
		}
	}
	return &Listing{
		ID:        uuid.NewString(),
		Kind:      kind,
		OwnerID:   ownerID,
		Name:      strings.TrimSpace(d.Name),
		City:      strings.TrimSpace(d.City),
		Sports:    sports,
		Price:     d.Price,
		Rating:    d.Rating,
		Latitude:  d.Latitude,
		Longitude: d.Longitude,
		CreatedAt: now.UTC(),
	}, nil
}

func (l *Listing) Ref() listing.Ref {
	return listing.Ref{Kind: l.Kind, ID: l.ID}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func validateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return apperr.Validation("latitude must be between -90 and 90")
	}
	if lon < -180 || lon > 180 {
		return apperr.Validation("longitude must be between -180 and 180")
	}
	return nil
}
