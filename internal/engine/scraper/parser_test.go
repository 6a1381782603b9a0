package scraper

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/aman-ray/tradescout/internal/model"
)

// buildEntry assembles a listing entry shaped like the map response places
// entries at their known field indexes.
func buildEntry(name string) []any {
	entry := make([]any, 184)
	entry[11] = name

	reviews := make([]any, 9)
	reviews[7] = 4.5
	reviews[8] = float64(3)
	entry[4] = reviews

	entry[7] = []any{"http://joes.ie"}
	entry[178] = []any{[]any{"+353 1 234 5678"}}
	entry[18] = "12 Main St, Dublin"

	area := make([]any, 5)
	area[3] = "Dublin"
	area[4] = "D02"
	entry[183] = []any{nil, area}

	coords := make([]any, 4)
	coords[2] = 53.34
	coords[3] = -6.26
	entry[9] = coords

	entry[78] = "ChIJtest123"
	return entry
}

func buildBody(t *testing.T, entries ...[]any) []byte {
	t.Helper()
	items := []any{[]any{"search metadata"}}
	for _, e := range entries {
		wrapper := make([]any, 15)
		wrapper[14] = e
		items = append(items, wrapper)
	}
	root := []any{[]any{nil, items}}
	raw, err := json.Marshal(root)
	if err != nil {
		t.Fatal(err)
	}
	return append([]byte(")]}'\n"), raw...)
}

func collect(seq Listings) []model.RawListing {
	var out []model.RawListing
	for l := range seq {
		out = append(out, l)
	}
	return out
}

func TestParseMapPage(t *testing.T) {
	listings, hasMore, err := parseMapPage(buildBody(t, buildEntry("Joe's Plumbing")))
	if err != nil {
		t.Fatalf("parseMapPage: %v", err)
	}
	if hasMore {
		t.Error("a single entry should not signal more pages")
	}
	if len(listings) != 1 {
		t.Fatalf("got %d listings, want 1", len(listings))
	}

	l := listings[0]
	if l.Name != "Joe's Plumbing" {
		t.Errorf("name = %q", l.Name)
	}
	if l.Rating != "4.5" {
		t.Errorf("rating = %q, want 4.5", l.Rating)
	}
	if l.ReviewCount != "3" {
		t.Errorf("review count = %q, want 3", l.ReviewCount)
	}
	if l.Website != "http://joes.ie" {
		t.Errorf("website = %q", l.Website)
	}
	if l.PhoneText != "+353 1 234 5678" {
		t.Errorf("phone = %q", l.PhoneText)
	}
	if l.AddressText != "12 Main St, Dublin" {
		t.Errorf("address = %q", l.AddressText)
	}
	if l.Locality != "Dublin" || l.PostalCode != "D02" {
		t.Errorf("locality/postal = %q/%q", l.Locality, l.PostalCode)
	}
	if l.Lat != 53.34 || l.Lng != -6.26 {
		t.Errorf("coords = %v, %v", l.Lat, l.Lng)
	}
	if l.ProfileURL != "https://www.google.com/maps/place/?q=place_id:ChIJtest123" {
		t.Errorf("profile url = %q", l.ProfileURL)
	}
}

func TestParseMapPageSkipsNamelessEntries(t *testing.T) {
	listings, _, err := parseMapPage(buildBody(t, buildEntry(""), buildEntry("Named Ltd")))
	if err != nil {
		t.Fatalf("parseMapPage: %v", err)
	}
	if len(listings) != 1 || listings[0].Name != "Named Ltd" {
		t.Errorf("got %+v, want only the named entry", listings)
	}
}

func TestParseMapPageFullPageSignalsMore(t *testing.T) {
	entries := make([][]any, pageSize)
	for i := range entries {
		entries[i] = buildEntry(fmt.Sprintf("Business %d", i))
	}

	listings, hasMore, err := parseMapPage(buildBody(t, entries...))
	if err != nil {
		t.Fatalf("parseMapPage: %v", err)
	}
	if len(listings) != pageSize {
		t.Fatalf("got %d listings, want %d", len(listings), pageSize)
	}
	if !hasMore {
		t.Error("a full page should signal more results")
	}

	short, hasMore, err := parseMapPage(buildBody(t, entries[:pageSize-1]...))
	if err != nil {
		t.Fatal(err)
	}
	if len(short) != pageSize-1 || hasMore {
		t.Errorf("short page: %d listings, hasMore=%v; want %d, false",
			len(short), hasMore, pageSize-1)
	}
}

func TestParseMapPageWithoutPrefix(t *testing.T) {
	body := buildBody(t, buildEntry("Joe's Plumbing"))
	listings, _, err := parseMapPage(body[5:])
	if err != nil {
		t.Fatalf("parseMapPage without prefix: %v", err)
	}
	if len(listings) != 1 {
		t.Errorf("got %d listings, want 1", len(listings))
	}
}

func TestParseMapPageNoListings(t *testing.T) {
	cases := [][]byte{
		[]byte(")]}'\n<html>blocked</html>"),
		[]byte("not json at all"),
		[]byte(")]}'\n[]"),
		[]byte(")]}'\n[[null,[]]]"),
	}
	for _, body := range cases {
		if _, _, err := parseMapPage(body); !errors.Is(err, ErrNoListings) {
			t.Errorf("body %q: err = %v, want ErrNoListings", body, err)
		}
	}
}

func TestSafeGet(t *testing.T) {
	data := []any{"a", []any{"b", []any{"c"}}}

	if got := safeString(safeGet(data, 0)); got != "a" {
		t.Errorf("safeGet(0) = %q", got)
	}
	if got := safeString(safeGet(data, 1, 1, 0)); got != "c" {
		t.Errorf("safeGet(1,1,0) = %q", got)
	}
	if got := safeGet(data, 5); got != nil {
		t.Errorf("out of range = %v, want nil", got)
	}
	if got := safeGet(data, 0, 0); got != nil {
		t.Errorf("index into non-slice = %v, want nil", got)
	}
	if got := safeGet(nil, 0); got != nil {
		t.Errorf("nil data = %v, want nil", got)
	}
}
