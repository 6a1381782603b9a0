package geo

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/aman-ray/tradescout/internal/model"
)

// LoadRegionPolygon reads a GeoJSON file and merges every polygon feature
// into one MultiPolygon used to restrict a scan to an irregular area.
func LoadRegionPolygon(path string) (orb.MultiPolygon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading region geojson: %w", err)
	}

	fc := &geojson.FeatureCollection{}
	if err := fc.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("parsing region geojson: %w", err)
	}

	var region orb.MultiPolygon
	for _, f := range fc.Features {
		switch g := f.Geometry.(type) {
		case orb.MultiPolygon:
			region = append(region, g...)
		case orb.Polygon:
			region = append(region, g)
		}
	}
	if len(region) == 0 {
		return nil, fmt.Errorf("region geojson %s contains no polygons", path)
	}
	return region, nil
}

// FilterRegionTiles drops tiles whose center falls outside the polygon.
func FilterRegionTiles(tiles []model.Tile, region orb.MultiPolygon) []model.Tile {
	var kept []model.Tile
	for _, t := range tiles {
		point := orb.Point{t.Center.Lng, t.Center.Lat} // orb.Point is [lng, lat]
		if planar.MultiPolygonContains(region, point) {
			kept = append(kept, t)
		}
	}
	return kept
}

// ContainsPoint reports whether a coordinate lies inside the polygon.
func ContainsPoint(region orb.MultiPolygon, lat, lng float64) bool {
	return planar.MultiPolygonContains(region, orb.Point{lng, lat})
}
