package scraper

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/aman-ray/tradescout/internal/model"
)

// parseMapPage decodes one tbm=map JSON response page. Malformed entries
// are skipped; an unreadable or empty panel is ErrNoListings so the
// scheduler retries. hasMore reports whether a further offset request may
// return additional listings: the source caps each page at pageSize
// entries, so a full page means the panel was likely truncated.
func parseMapPage(body []byte) (listings []model.RawListing, hasMore bool, err error) {
	// Strip anti-XSS prefix )]}'\n
	if idx := bytes.IndexByte(body, '\n'); idx >= 0 && idx < 10 {
		body = body[idx+1:]
	}

	var root []any
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, false, ErrNoListings
	}

	// Listing entries live at root[0][1][1..N][14]
	items := safeSlice(safeGet(root, 0, 1))
	if len(items) == 0 {
		return nil, false, ErrNoListings
	}

	// Index 0 is search metadata, actual results follow
	for i := 1; i < len(items); i++ {
		entry := safeSlice(safeGet(items, i, 14))
		if len(entry) == 0 {
			continue
		}

		name := safeString(safeGet(entry, 11))
		if name == "" {
			continue
		}

		listings = append(listings, model.RawListing{
			Name:        name,
			Rating:      safeString(safeGet(entry, 4, 7)),
			ReviewCount: safeString(safeGet(entry, 4, 8)),
			Website:     safeString(safeGet(entry, 7, 0)),
			PhoneText:   safeString(safeGet(entry, 178, 0, 0)),
			AddressText: safeString(safeGet(entry, 18)),
			Locality:    safeString(safeGet(entry, 183, 1, 3)),
			PostalCode:  safeString(safeGet(entry, 183, 1, 4)),
			Lat:         safeFloat(safeGet(entry, 9, 2)),
			Lng:         safeFloat(safeGet(entry, 9, 3)),
			ProfileURL:  profileURL(safeString(safeGet(entry, 78))),
		})
	}

	return listings, len(listings) >= pageSize, nil
}

// profileURL constructs a maps profile URL from a place ID.
func profileURL(placeID string) string {
	if placeID == "" {
		return ""
	}
	return "https://www.google.com/maps/place/?q=place_id:" + placeID
}

// safeGet navigates nested []any arrays by index path without panicking.
func safeGet(data any, path ...int) any {
	current := data
	for _, idx := range path {
		slice, ok := current.([]any)
		if !ok || idx < 0 || idx >= len(slice) {
			return nil
		}
		current = slice[idx]
	}
	return current
}

// safeSlice converts any to []any, returns nil if not a slice.
func safeSlice(data any) []any {
	slice, ok := data.([]any)
	if !ok {
		return nil
	}
	return slice
}

// safeString extracts a string from any. Handles string, json.Number and
// float64.
func safeString(data any) string {
	switch v := data.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// safeFloat extracts a float64 from any. Handles float64, json.Number, and
// numeric strings.
func safeFloat(data any) float64 {
	switch v := data.(type) {
	case float64:
		return v
	case json.Number:
		f, _ := v.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f
	}
	return 0
}
