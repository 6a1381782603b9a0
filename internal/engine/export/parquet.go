package export

import (
	"fmt"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/aman-ray/tradescout/internal/model"
)

// ParquetSink writes the columnar export.
type ParquetSink struct {
	Path string
}

func (s *ParquetSink) Name() string { return "parquet" }

// parquetRow flattens BusinessRecord into parquet-friendly scalars.
type parquetRow struct {
	PlaceName      string   `parquet:"place_name"`
	Category       string   `parquet:"category"`
	Rating         *float64 `parquet:"rating,optional"`
	ReviewCount    int32    `parquet:"review_count"`
	Website        string   `parquet:"website"`
	Phone          string   `parquet:"phone"`
	AddressFull    string   `parquet:"address_full"`
	Locality       string   `parquet:"locality"`
	PostalCode     string   `parquet:"postal_code"`
	Lat            float64  `parquet:"lat"`
	Lng            float64  `parquet:"lng"`
	MapsProfileURL string   `parquet:"maps_profile_url"`
	Source         string   `parquet:"source"`
	ScrapedAt      string   `parquet:"scraped_at"`
	DedupeKey      string   `parquet:"dedupe_key"`
}

func (s *ParquetSink) Write(records []model.BusinessRecord) error {
	f, err := os.Create(s.Path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", s.Path, err)
	}
	defer f.Close()

	w := parquet.NewGenericWriter[parquetRow](f)

	rows := make([]parquetRow, 0, len(records))
	for _, b := range records {
		rows = append(rows, parquetRow{
			PlaceName:      b.PlaceName,
			Category:       b.Category,
			Rating:         b.Rating,
			ReviewCount:    int32(b.ReviewCount),
			Website:        b.Website,
			Phone:          b.Phone,
			AddressFull:    b.AddressFull,
			Locality:       b.Locality,
			PostalCode:     b.PostalCode,
			Lat:            b.Lat,
			Lng:            b.Lng,
			MapsProfileURL: b.MapsProfileURL,
			Source:         b.Source,
			ScrapedAt:      b.ScrapedAt.Format(time.RFC3339),
			DedupeKey:      b.DedupeKey,
		})
	}

	if len(rows) > 0 {
		if _, err := w.Write(rows); err != nil {
			return fmt.Errorf("writing rows: %w", err)
		}
	}
	return w.Close()
}
