package scraper

import "github.com/aman-ray/tradescout/internal/model"

// Accept decides inclusion: at most one review, no website of any kind
// (social-media links count as websites), and a phone present. Pure
// predicate, no side effects; rejections are counted by the caller.
func Accept(rec model.BusinessRecord) bool {
	if rec.Phone == "" {
		return false
	}
	if rec.ReviewCount > 1 {
		return false
	}
	if rec.Website != "" {
		return false
	}
	return true
}
