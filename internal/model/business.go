package model

import "time"

// GeoPoint is a WGS84 coordinate in degrees.
type GeoPoint struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Tile is one square query unit of the search grid. Tiles are generated once
// per run and never mutated.
type Tile struct {
	Center      GeoPoint
	HalfWidthKM float64 // half the tile edge, km
	Row         int
	Col         int
}

// RawListing is the unvalidated output of a Searcher for one listing.
// Textual fields stay as scraped; the normalizer owns interpretation.
type RawListing struct {
	Name        string
	Rating      string
	ReviewCount string
	Website     string
	PhoneText   string
	AddressText string
	Locality    string
	PostalCode  string
	Lat         float64
	Lng         float64
	ProfileURL  string
}

// SourceMapsUI marks records scraped from the public map UI endpoint.
const SourceMapsUI = "maps_ui"

// BusinessRecord is the canonical output unit. It is only constructed from a
// RawListing that survived normalization and is never mutated afterwards.
type BusinessRecord struct {
	PlaceName      string    `json:"place_name"`
	Category       string    `json:"category"`
	Rating         *float64  `json:"rating"`
	ReviewCount    int       `json:"review_count"`
	Website        string    `json:"website"`
	Phone          string    `json:"phone"` // E.164
	AddressFull    string    `json:"address_full"`
	Locality       string    `json:"locality"`
	PostalCode     string    `json:"postal_code"`
	Lat            float64   `json:"lat"`
	Lng            float64   `json:"lng"`
	MapsProfileURL string    `json:"maps_profile_url"`
	Source         string    `json:"source"`
	ScrapedAt      time.Time `json:"scraped_at"`
	DedupeKey      string    `json:"dedupe_key"`
}

// HasCoords reports whether the listing carried usable coordinates.
func (b BusinessRecord) HasCoords() bool {
	return b.Lat != 0 || b.Lng != 0
}
