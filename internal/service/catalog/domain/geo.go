// internal/service/catalog/domain/geo.go
package domain

import "math"

// EarthRadiusMeters 是球面距离使用的地球半径
const EarthRadiusMeters = 6371000.0

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

// Haversine 返回两点之间的大圆距离，单位米
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// BoundingBox 是半径查询的粗筛矩形，只用于缩小候选集，精确判定由 Haversine 完成
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
	// WrapsLon 为 true 时经度跨越 ±180，不做经度粗筛
	WrapsLon bool
}

// BoundsAround 计算以 (lat, lon) 为中心、radius 米为半径的外接矩形
func BoundsAround(lat, lon, radius float64) BoundingBox {
	dLat := radius / EarthRadiusMeters * 180 / math.Pi
	box := BoundingBox{
		MinLat: math.Max(lat-dLat, -90),
		MaxLat: math.Min(lat+dLat, 90),
	}
	cos := math.Cos(toRad(lat))
	if box.MinLat == -90 || box.MaxLat == 90 || cos < 1e-9 {
		box.WrapsLon = true
		return box
	}
	dLon := dLat / cos
	box.MinLon, box.MaxLon = lon-dLon, lon+dLon
	if box.MinLon < -180 || box.MaxLon > 180 {
		box.WrapsLon = true
	}
	return box
}
