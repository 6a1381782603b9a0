package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limit", &RateLimitError{StatusCode: 429}, true},
		{"wrapped rate limit", fmt.Errorf("search: %w", &RateLimitError{StatusCode: 302}), true},
		{"transient", &TransientError{Err: errors.New("reset")}, true},
		{"no listings", ErrNoListings, true},
		{"attempt deadline", context.DeadlineExceeded, true},
		{"cancelled", context.Canceled, false},
		{"fatal", &FatalError{Reason: "bad proxy"}, false},
		{"plain error", errors.New("unclassified"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestFatalErrorMessage(t *testing.T) {
	e := &FatalError{Reason: "proxy refused", Hint: "check credentials"}
	if got := e.Error(); got != "proxy refused (check credentials)" {
		t.Errorf("Error() = %q", got)
	}

	bare := &FatalError{Reason: "proxy refused"}
	if got := bare.Error(); got != "proxy refused" {
		t.Errorf("Error() without hint = %q", got)
	}
}

func TestZoomForTileSize(t *testing.T) {
	tests := []struct {
		sizeKm float64
		want   int
	}{
		{0.25, 16},
		{0.5, 16},
		{1.0, 15},
		{2.0, 14},
		{2.5, 13},
		{4.0, 12},
		{8.0, 11},
	}
	for _, tt := range tests {
		if got := zoomForTileSize(tt.sizeKm); got != tt.want {
			t.Errorf("zoomForTileSize(%v) = %d, want %d", tt.sizeKm, got, tt.want)
		}
	}
}

func TestBuildPBEmbedsCoordinates(t *testing.T) {
	pb := buildPB(53.3498, -6.2603, 13, 40)
	if pb == "" {
		t.Fatal("empty pb")
	}
	for _, want := range []string{"!2d-6.2603000", "!3d53.3498000", "!1i1024", "!2i768", "!8i40"} {
		if !strings.Contains(pb, want) {
			t.Errorf("pb missing %q", want)
		}
	}
}
