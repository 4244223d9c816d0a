// package musicbrainz implements a minimal client for the MusicBrainz /ws/2 search API.
//
// API docs: https://musicbrainz.org/doc/MusicBrainz_API
//
// MusicBrainz requires a User-Agent identifying the application and caps
// anonymous traffic at 1 request/second. The client does not pace itself;
// callers are expected to rate-limit at a higher level.
package musicbrainz

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lidarrify/internal/shared"
)

const searchLimit = 5

// Candidate is one search result. ID is an opaque MBID: a recording ID from
// recording search, a release-group ID from release-group search.
type Candidate struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Score int    `json:"score"`
}

// Client performs search requests against a MusicBrainz web service endpoint.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// NewClient creates a MusicBrainz client for the given base URL (typically
// https://musicbrainz.org/ws/2) identifying itself with userAgent.
func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SearchRecordings runs a Lucene query against the recording index and
// returns the candidates in the server's ranking order.
func (c *Client) SearchRecordings(ctx context.Context, query string) ([]Candidate, error) {
	var result struct {
		Recordings []Candidate `json:"recordings"`
	}
	if err := c.search(ctx, "/recording", query, &result); err != nil {
		return nil, err
	}
	return result.Recordings, nil
}

// SearchReleaseGroups runs a Lucene query against the release-group index.
func (c *Client) SearchReleaseGroups(ctx context.Context, query string) ([]Candidate, error) {
	var result struct {
		ReleaseGroups []Candidate `json:"release-groups"`
	}
	if err := c.search(ctx, "/release-group", query, &result); err != nil {
		return nil, err
	}
	return result.ReleaseGroups, nil
}

// search performs a GET against a search endpoint and decodes the JSON body.
// Transport failures and non-200 statuses are wrapped as [shared.ErrLookupFailed].
func (c *Client) search(ctx context.Context, endpoint, query string, dst any) error {
	v := url.Values{}
	v.Set("query", query)
	v.Set("fmt", "json")
	v.Set("limit", fmt.Sprintf("%d", searchLimit))

	reqURL := c.baseURL + endpoint + "?" + v.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrLookupFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return fmt.Errorf("%w: service unavailable (rate limited or maintenance)", shared.ErrLookupFailed)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d for %s", shared.ErrLookupFailed, resp.StatusCode, endpoint)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: decode response: %v", shared.ErrLookupFailed, err)
	}
	return nil
}

// RecordingQuery builds the primary track query: exact artist and title, plus
// the release when the source row carries an album.
func RecordingQuery(artist, title, album string) string {
	q := fmt.Sprintf("recording:%s AND artist:%s", quote(title), quote(artist))
	if album != "" {
		q += " AND release:" + quote(album)
	}
	return q
}

// ReleaseGroupQuery builds the primary album query: exact artist and album.
func ReleaseGroupQuery(artist, album string) string {
	return fmt.Sprintf("releasegroup:%s AND artist:%s", quote(album), quote(artist))
}

// RecordingFallbackQuery builds the relaxed track query: title alone.
func RecordingFallbackQuery(title string) string {
	return "recording:" + quote(title)
}

// ReleaseGroupFallbackQuery builds the relaxed album query: album alone.
func ReleaseGroupFallbackQuery(album string) string {
	return "releasegroup:" + quote(album)
}

// quote wraps a term in double quotes for Lucene phrase matching, escaping
// any embedded quotes.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
