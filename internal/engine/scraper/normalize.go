package scraper

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"

	"github.com/aman-ray/tradescout/internal/model"
)

// Normalizer turns raw listings into canonical records. Phone parsing needs
// a default region for national-format numbers.
type Normalizer struct {
	Region string

	// now is swappable for deterministic tests.
	now func() time.Time
}

func NewNormalizer(region string) *Normalizer {
	return &Normalizer{Region: region, now: time.Now}
}

// Normalize builds a BusinessRecord. Phone is mandatory: a listing without a
// parseable number fails with *ParseError and is dropped by the caller.
func (n *Normalizer) Normalize(raw model.RawListing, tile model.Tile, category string) (model.BusinessRecord, error) {
	name := CleanText(raw.Name)
	if name == "" {
		return model.BusinessRecord{}, &ParseError{Field: "name", Err: fmt.Errorf("empty")}
	}

	phone, err := NormalizePhone(raw.PhoneText, n.Region)
	if err != nil {
		return model.BusinessRecord{}, &ParseError{Field: "phone", Err: err}
	}

	now := n.now
	if now == nil {
		now = time.Now
	}

	rec := model.BusinessRecord{
		PlaceName:      name,
		Category:       category,
		Rating:         ExtractRating(raw.Rating),
		ReviewCount:    ExtractReviewCount(raw.ReviewCount),
		Website:        NormalizeWebsite(raw.Website),
		Phone:          phone,
		AddressFull:    CleanText(raw.AddressText),
		Locality:       CleanText(raw.Locality),
		PostalCode:     CleanText(raw.PostalCode),
		Lat:            raw.Lat,
		Lng:            raw.Lng,
		MapsProfileURL: raw.ProfileURL,
		Source:         model.SourceMapsUI,
		ScrapedAt:      now().UTC(),
	}
	rec.DedupeKey = DedupeKey(rec.PlaceName, rec.Phone)
	return rec, nil
}

var nonPhoneChars = regexp.MustCompile(`[^\d+]`)

// NormalizePhone converts scraped phone text to E.164.
func NormalizePhone(text, region string) (string, error) {
	cleaned := nonPhoneChars.ReplaceAllString(text, "")
	if cleaned == "" {
		return "", fmt.Errorf("no digits in %q", text)
	}

	num, err := phonenumbers.Parse(cleaned, region)
	if err != nil {
		return "", fmt.Errorf("parsing %q: %w", text, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("invalid number %q", text)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// noWebsiteValues are raw strings the source uses where a site is absent.
var noWebsiteValues = map[string]bool{
	"none": true, "no website": true, "n/a": true,
	"not available": true, "-": true, "—": true,
}

// NormalizeWebsite returns "" for absent/no-website markers, otherwise a
// scheme-qualified URL. Anything URL-shaped counts as having a website,
// social-media pages included.
func NormalizeWebsite(site string) string {
	site = strings.TrimSpace(site)
	if site == "" || noWebsiteValues[strings.ToLower(site)] {
		return ""
	}
	if !strings.HasPrefix(site, "http://") && !strings.HasPrefix(site, "https://") {
		site = "https://" + site
	}
	u, err := url.Parse(site)
	if err != nil || u.Host == "" || !strings.Contains(u.Host, ".") {
		return ""
	}
	return site
}

var (
	ratingPattern = regexp.MustCompile(`\d+[.,]\d+|\d+`)
	digitPattern  = regexp.MustCompile(`\d+`)
)

// ExtractRating parses a star rating out of free text, clamped to [0, 5].
// Absent or unparseable ratings are nil, not an error.
func ExtractRating(text string) *float64 {
	m := ratingPattern.FindString(text)
	if m == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", "."), 64)
	if err != nil {
		return nil
	}
	if f < 0 {
		f = 0
	}
	if f > 5 {
		f = 5
	}
	return &f
}

// ExtractReviewCount parses a review count out of free text. A listing with
// no visible count is assumed to have none.
func ExtractReviewCount(text string) int {
	m := digitPattern.FindString(text)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

var (
	punctPattern = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	spacePattern = regexp.MustCompile(`\s+`)
	nonDigits    = regexp.MustCompile(`\D`)
)

// DedupeKey derives the canonical identity for a business: md5 of the
// normalized name joined with the digits of the E.164 phone. Two sightings
// of one business with differently formatted numbers hash identically
// because the phone is normalized before the digits are taken.
func DedupeKey(name, e164Phone string) string {
	nameNorm := strings.ToLower(name)
	nameNorm = punctPattern.ReplaceAllString(nameNorm, "")
	nameNorm = spacePattern.ReplaceAllString(strings.TrimSpace(nameNorm), " ")

	phoneNorm := nonDigits.ReplaceAllString(e164Phone, "")

	sum := md5.Sum([]byte(nameNorm + "|" + phoneNorm))
	return hex.EncodeToString(sum[:])
}

var htmlEntities = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&nbsp;", " ",
)

// CleanText collapses whitespace and decodes the entities the source leaks.
func CleanText(text string) string {
	text = htmlEntities.Replace(text)
	return spacePattern.ReplaceAllString(strings.TrimSpace(text), " ")
}
