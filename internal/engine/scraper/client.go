package scraper

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	utls "github.com/refraction-networking/utls"

	"github.com/aman-ray/tradescout/internal/model"
)

const searchBaseURL = "https://www.google.com/search"

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
}

// Client is the production Searcher. One Search call covers one tile and
// pages through the result panel on demand, up to maxPages requests. Retry
// and pacing live in the scheduler, not here.
type Client struct {
	http     *http.Client
	lang     string
	baseURL  string
	maxPages int
}

// NewClient builds a client with a Chrome TLS fingerprint so the endpoint
// serves the same payload a real browser gets. A proxy URL switches back to
// standard TLS since the proxy terminates the connection. maxPages bounds
// the offset requests issued per tile query.
func NewClient(lang, proxyURL string, maxPages int) (*Client, error) {
	jar, _ := cookiejar.New(nil)
	googleURL, _ := url.Parse("https://www.google.com")
	jar.SetCookies(googleURL, []*http.Cookie{
		{Name: "CONSENT", Value: "YES+ES.es+V14+BX", Path: "/", Domain: ".google.com"},
	})

	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}

			host, _, err := net.SplitHostPort(addr)
			if err != nil {
				host = addr
			}

			// Chrome TLS spec with HTTP/1.1 ALPN forced
			spec, err := utls.UTLSIdToSpec(utls.HelloChrome_Auto)
			if err != nil {
				conn.Close()
				return nil, err
			}
			for i, ext := range spec.Extensions {
				if alpn, ok := ext.(*utls.ALPNExtension); ok {
					alpn.AlpnProtocols = []string{"http/1.1"}
					spec.Extensions[i] = alpn
					break
				}
			}

			tlsConn := utls.UClient(conn, &utls.Config{
				ServerName: host,
			}, utls.HelloCustom)
			if err := tlsConn.ApplyPreset(&spec); err != nil {
				conn.Close()
				return nil, err
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}

			return tlsConn, nil
		},
		MaxIdleConns:        150,
		MaxIdleConnsPerHost: 150,
		IdleConnTimeout:     90 * time.Second,
	}

	if proxyURL != "" {
		proxyParsed, err := url.Parse(proxyURL)
		if err != nil {
			return nil, &FatalError{
				Reason: fmt.Sprintf("invalid proxy URL %q", proxyURL),
				Hint:   "use http://host:port or socks5://host:port",
			}
		}
		transport.Proxy = http.ProxyURL(proxyParsed)
		transport.DialTLSContext = nil
		transport.TLSClientConfig = &tls.Config{}
	}

	return &Client{
		http: &http.Client{
			Transport: transport,
			Jar:       jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		lang:     lang,
		baseURL:  searchBaseURL,
		maxPages: max(maxPages, 1),
	}, nil
}

// Search runs one map query for the tile's category and returns a lazy
// sequence over the parsed listings. The first page is fetched eagerly so
// errors classify through the scheduler's retry path; further pages are
// requested only while the consumer keeps pulling and the panel signals
// more results. The context deadline bounds all page requests.
func (c *Client) Search(ctx context.Context, tile model.Tile, category string) (Listings, error) {
	zoom := zoomForTileSize(tile.HalfWidthKM * 2)

	first, hasMore, err := c.fetchPage(ctx, tile, category, zoom, 0)
	if err != nil {
		return nil, err
	}

	seq := func(yield func(model.RawListing) bool) {
		for _, raw := range first {
			if !yield(raw) {
				return
			}
		}
		for page := 1; page < c.maxPages && hasMore; page++ {
			if ctx.Err() != nil {
				return
			}
			var entries []model.RawListing
			entries, hasMore, err = c.fetchPage(ctx, tile, category, zoom, page*pageSize)
			if err != nil {
				// Listings already yielded stand; a failed later page is
				// treated as the end of the panel.
				return
			}
			for _, raw := range entries {
				if !yield(raw) {
					return
				}
			}
		}
	}
	return seq, nil
}

func (c *Client) fetchPage(ctx context.Context, tile model.Tile, category string, zoom, offset int) ([]model.RawListing, bool, error) {
	pb := buildPB(tile.Center.Lat, tile.Center.Lng, zoom, offset)

	params := url.Values{}
	params.Set("tbm", "map")
	params.Set("authuser", "0")
	params.Set("hl", c.lang)
	params.Set("q", category)
	params.Set("pb", pb)

	body, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, false, err
	}
	return parseMapPage(body)
}

func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgents[rand.IntN(len(userAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "identity")
	req.Header.Set("Referer", "https://www.google.com/")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TransientError{Err: fmt.Errorf("executing request: %w", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusFound,
		resp.StatusCode == http.StatusMovedPermanently,
		resp.StatusCode == http.StatusTemporaryRedirect:
		io.Copy(io.Discard, resp.Body)
		return nil, &RateLimitError{StatusCode: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		io.Copy(io.Discard, resp.Body)
		return nil, &TransientError{Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransientError{Err: fmt.Errorf("reading body: %w", err)}
	}

	return body, nil
}
