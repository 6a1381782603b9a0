package scraper

import (
	"context"
	"iter"

	"github.com/aman-ray/tradescout/internal/model"
)

// Listings is a finite lazy sequence of raw listings. The scheduler consumes
// it exactly once per search call and must not assume a known length.
type Listings = iter.Seq[model.RawListing]

// Searcher performs the actual listing lookup for one tile/category pair.
// The context carries the per-attempt deadline; implementations are expected
// to abort cleanly when it expires. Errors are classified through
// IsRetryable; a *FatalError aborts the whole run.
type Searcher interface {
	Search(ctx context.Context, tile model.Tile, category string) (Listings, error)
}
