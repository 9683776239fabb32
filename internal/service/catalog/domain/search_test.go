package domain

import (
	"fmt"
	"math"
	"net/url"
	"testing"
	"time"

	"sportshub/internal/pkg/apperr"
	"sportshub/internal/pkg/listing"
)

const (
	bangaloreLat = 12.9716
	bangaloreLon = 77.5946
)

// northOf 返回正北方向 meters 米处的纬度
func northOf(lat, meters float64) float64 {
	return lat + meters/EarthRadiusMeters*180/math.Pi
}

func TestHaversine(t *testing.T) {
	d := Haversine(bangaloreLat, bangaloreLon, northOf(bangaloreLat, 10000), bangaloreLon)
	if math.Abs(d-10000) > 1 {
		t.Fatalf("expected ~10000m, got %f", d)
	}
	if Haversine(bangaloreLat, bangaloreLon, bangaloreLat, bangaloreLon) != 0 {
		t.Fatal("same point must be 0")
	}
}

func TestBoundingBoxContainsRadius(t *testing.T) {
	box := BoundsAround(bangaloreLat, bangaloreLon, 5000)
	if box.WrapsLon {
		t.Fatal("box near Bangalore must not wrap")
	}
	edge := northOf(bangaloreLat, 4999)
	if edge < box.MinLat || edge > box.MaxLat {
		t.Fatalf("point inside radius fell outside box %+v", box)
	}
	if !BoundsAround(89.99, 0, 5000).WrapsLon {
		t.Fatal("box touching the pole must skip longitude filtering")
	}
}

func TestRadiusExcludesFarListingDespiteBoost(t *testing.T) {
	now := time.Now().UTC()
	near := &Listing{ID: "near", Kind: listing.KindTurf, Rating: 3, Latitude: northOf(bangaloreLat, 1000), Longitude: bangaloreLon, CreatedAt: now}
	far := &Listing{ID: "far", Kind: listing.KindTurf, Rating: 5, Latitude: northOf(bangaloreLat, 10000), Longitude: bangaloreLon, CreatedAt: now}

	q := SearchQuery{Kind: listing.KindTurf, HasGeo: true, Latitude: bangaloreLat, Longitude: bangaloreLon, Radius: 5000, Page: 1, Limit: 20, SortBy: SortPriority}
	items := WithinRadius([]*Listing{near, far}, q)
	if len(items) != 1 || items[0].ID != "near" {
		t.Fatalf("10km listing must be excluded, got %+v", items)
	}
	if d := *items[0].DistanceMeters; math.Abs(d-1000) > 1 {
		t.Fatalf("expected distance ~1000m, got %f", d)
	}
}

func TestPrioritySortIsDeterministic(t *testing.T) {
	base := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	mk := func(id string, boost int, rating float64, age time.Duration) RankedListing {
		return RankedListing{Listing: Listing{ID: id, Rating: rating, CreatedAt: base.Add(-age)}, Boost: boost}
	}
	for i := 0; i < 5; i++ {
		items := []RankedListing{
			mk("old", 50, 4, 2*time.Hour),
			mk("plain", 0, 5, 0),
			mk("new", 50, 4, time.Hour),
			mk("top", 100, 1, 0),
		}
		Sort(items, SortPriority, false)
		got := fmt.Sprint(items[0].ID, items[1].ID, items[2].ID, items[3].ID)
		if got != fmt.Sprint("top", "new", "old", "plain") {
			t.Fatalf("run %d: unexpected order %s", i, got)
		}
	}
}

func TestNonPrioritySortsIgnoreBoost(t *testing.T) {
	now := time.Now().UTC()
	items := []RankedListing{
		{Listing: Listing{ID: "a", Rating: 3, Price: 100, CreatedAt: now}, Boost: 100},
		{Listing: Listing{ID: "b", Rating: 4, Price: 300, CreatedAt: now}},
		{Listing: Listing{ID: "c", Rating: 5, Price: 200, CreatedAt: now.Add(time.Second)}},
	}
	Sort(items, SortRating, false)
	if items[0].ID != "c" || items[2].ID != "a" {
		t.Fatalf("rating sort must ignore boost: %v %v %v", items[0].ID, items[1].ID, items[2].ID)
	}
	Sort(items, SortPrice, false)
	if items[0].ID != "a" || items[1].ID != "c" {
		t.Fatalf("price sort: %v %v %v", items[0].ID, items[1].ID, items[2].ID)
	}
	Sort(items, SortNewest, false)
	if items[0].ID != "c" || items[1].ID != "a" {
		t.Fatalf("newest sort must fall back to id: %v %v %v", items[0].ID, items[1].ID, items[2].ID)
	}
}

func TestParseSearchQuery(t *testing.T) {
	q, err := ParseSearchQuery(listing.KindCoach, url.Values{
		"latitude": {"12.9716"}, "longitude": {"77.5946"}, "sport": {" Football "}, "sortBy": {"priority"},
	}, QueryDefaults{})
	if err != nil {
		t.Fatal(err)
	}
	if !q.HasGeo || q.Radius != DefaultRadius || q.Limit != DefaultLimit || q.Page != 1 || q.Sport != "football" || q.SortBy != SortPriority {
		t.Fatalf("unexpected query %+v", q)
	}

	q, _ = ParseSearchQuery(listing.KindTurf, url.Values{}, QueryDefaults{})
	if q.SortBy != SortRating || q.HasGeo {
		t.Fatalf("defaults: %+v", q)
	}

	bad := []url.Values{
		{"page": {"0"}},
		{"limit": {"101"}},
		{"limit": {"x"}},
		{"latitude": {"91"}, "longitude": {"0"}},
		{"latitude": {"10"}},
		{"latitude": {"10"}, "longitude": {"10"}, "radius": {"-1"}},
		{"minPrice": {"500"}, "maxPrice": {"100"}},
		{"sortBy": {"distance"}},
		{"rating": {"6"}},
	}
	for _, v := range bad {
		if _, err := ParseSearchQuery(listing.KindTurf, v, QueryDefaults{}); apperr.KindOf(err) != apperr.KindValidation {
			t.Errorf("%v: expected validation error, got %v", v, err)
		}
	}
	if _, err := ParseSearchQuery(listing.KindGround, url.Values{}, QueryDefaults{}); err == nil {
		t.Error("grounds are not searchable")
	}
}

func TestPaginate(t *testing.T) {
	items := make([]RankedListing, 45)
	res := Paginate(items, SearchQuery{Page: 3, Limit: 20})
	if res.Total != 45 || res.TotalPages != 3 || len(res.Items) != 5 {
		t.Fatalf("unexpected page %+v", res)
	}
	res = Paginate(items, SearchQuery{Page: 4, Limit: 20})
	if len(res.Items) != 0 || res.Items == nil {
		t.Fatalf("page past the end must be empty, got %+v", res)
	}
}
