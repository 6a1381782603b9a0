package geo

import (
	"math"

	"github.com/aman-ray/tradescout/internal/model"
)

const kmPerDegreeLat = 111.0

// GenerateTiles lays a square grid of step tileSizeKm over the bounding box
// of the search disc and keeps every tile whose center lies within
// radiusKm + tileSizeKm/2 of the run center, so corner tiles that only
// partially overlap the disc are still queried. The scan is row-major
// (south to north, west to east), which makes the output order and set
// stable for fixed inputs.
func GenerateTiles(center model.GeoPoint, radiusKm, tileSizeKm float64) []model.Tile {
	latStep := tileSizeKm / kmPerDegreeLat
	// Longitude degrees shrink with latitude
	lngStep := tileSizeKm / (kmPerDegreeLat * math.Cos(center.Lat*math.Pi/180.0))

	steps := int(math.Ceil(radiusKm/tileSizeKm)) + 1

	var tiles []model.Tile
	for rowOff := -steps; rowOff <= steps; rowOff++ {
		lat := center.Lat + float64(rowOff)*latStep
		for colOff := -steps; colOff <= steps; colOff++ {
			lng := center.Lng + float64(colOff)*lngStep
			d := HaversineKm(center.Lat, center.Lng, lat, lng)
			if d > radiusKm+tileSizeKm/2 {
				continue
			}
			tiles = append(tiles, model.Tile{
				Center:      model.GeoPoint{Lat: lat, Lng: lng},
				HalfWidthKM: tileSizeKm / 2,
				Row:         rowOff + steps,
				Col:         colOff + steps,
			})
		}
	}
	return tiles
}

// HaversineKm returns the great-circle distance between two points in km.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusKm = 6371.0
	dLat := (lat2 - lat1) * math.Pi / 180.0
	dLng := (lng2 - lng1) * math.Pi / 180.0
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180.0)*math.Cos(lat2*math.Pi/180.0)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}
