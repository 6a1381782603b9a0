package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aman-ray/tradescout/internal/model"
)

// CSVSink writes the flat spreadsheet export.
type CSVSink struct {
	Path string
}

func (s *CSVSink) Name() string { return "csv" }

var csvHeader = []string{
	"place_name", "category", "rating", "review_count", "website", "phone",
	"address_full", "locality", "postal_code", "lat", "lng",
	"maps_profile_url", "source", "scraped_at", "dedupe_key",
}

func (s *CSVSink) Write(records []model.BusinessRecord) error {
	f, err := os.Create(s.Path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", s.Path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, b := range records {
		rating := ""
		if b.Rating != nil {
			rating = strconv.FormatFloat(*b.Rating, 'f', 1, 64)
		}
		row := []string{
			b.PlaceName,
			b.Category,
			rating,
			strconv.Itoa(b.ReviewCount),
			b.Website,
			b.Phone,
			b.AddressFull,
			b.Locality,
			b.PostalCode,
			strconv.FormatFloat(b.Lat, 'f', 6, 64),
			strconv.FormatFloat(b.Lng, 'f', 6, 64),
			b.MapsProfileURL,
			b.Source,
			b.ScrapedAt.Format(time.RFC3339),
			b.DedupeKey,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
