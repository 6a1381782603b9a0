package geo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aman-ray/tradescout/internal/model"
)

// A square roughly covering central Dublin.
const dublinSquare = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {},
      "geometry": {
        "type": "Polygon",
        "coordinates": [[
          [-6.32, 53.32],
          [-6.20, 53.32],
          [-6.20, 53.38],
          [-6.32, 53.38],
          [-6.32, 53.32]
        ]]
      }
    }
  ]
}`

func writeRegion(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "region.geojson")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadRegionPolygon(t *testing.T) {
	region, err := LoadRegionPolygon(writeRegion(t, dublinSquare))
	if err != nil {
		t.Fatalf("LoadRegionPolygon: %v", err)
	}
	if len(region) != 1 {
		t.Fatalf("got %d polygons, want 1", len(region))
	}

	if !ContainsPoint(region, 53.3498, -6.2603) {
		t.Error("city center should be inside the region")
	}
	if ContainsPoint(region, 53.5, -6.0) {
		t.Error("point north of the square should be outside")
	}
}

func TestLoadRegionPolygonNoPolygons(t *testing.T) {
	doc := `{"type": "FeatureCollection", "features": []}`
	if _, err := LoadRegionPolygon(writeRegion(t, doc)); err == nil {
		t.Error("empty feature collection should fail")
	}
}

func TestLoadRegionPolygonMissingFile(t *testing.T) {
	if _, err := LoadRegionPolygon(filepath.Join(t.TempDir(), "absent.geojson")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestFilterRegionTiles(t *testing.T) {
	region, err := LoadRegionPolygon(writeRegion(t, dublinSquare))
	if err != nil {
		t.Fatal(err)
	}

	tiles := []model.Tile{
		{Center: model.GeoPoint{Lat: 53.3498, Lng: -6.2603}}, // inside
		{Center: model.GeoPoint{Lat: 53.50, Lng: -6.26}},     // outside
		{Center: model.GeoPoint{Lat: 53.35, Lng: -6.30}},     // inside
	}

	kept := FilterRegionTiles(tiles, region)
	if len(kept) != 2 {
		t.Fatalf("kept %d tiles, want 2", len(kept))
	}
	for _, tile := range kept {
		if tile.Center.Lat > 53.38 {
			t.Errorf("tile %+v should have been dropped", tile.Center)
		}
	}
}
