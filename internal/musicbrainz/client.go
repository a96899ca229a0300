// file: internal/musicbrainz/client.go
// version: 1.1.0
// guid: 9a3c5e17-2f8b-4d64-a0c9-6e1b7d4f2a58

package musicbrainz

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jdfalk/music-organizer/internal/cache"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://musicbrainz.org/ws/2"

	// MusicBrainz allows one request per second per client
	defaultRate = rate.Limit(1)

	maxRetries   = 3
	initialDelay = 2 * time.Second
	maxDelay     = 30 * time.Second

	lookupTTL = time.Hour
)

// Client provides access to the MusicBrainz API
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	retryDelay time.Duration

	recordings *cache.Cache[*Recording]
	searches   *cache.Cache[[]Recording]
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL points the client at another server, such as a mirror or a test server
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithLimiter replaces the one request per second limiter
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithRetryDelay sets the first backoff delay used after a 429 or 5xx response
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

// NewClient creates a MusicBrainz client. userAgent must identify the
// application and a contact, as the MusicBrainz usage policy requires.
func NewClient(userAgent string, opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(defaultRate, 1),
		retryDelay: initialDelay,
		recordings: cache.New[*Recording](lookupTTL),
		searches:   cache.New[[]Recording](lookupTTL),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CacheStats sums hits and misses across the search and lookup caches
func (c *Client) CacheStats() cache.Stats {
	s, r := c.searches.Stats(), c.recordings.Stats()
	return cache.Stats{Hits: s.Hits + r.Hits, Misses: s.Misses + r.Misses}
}

// SearchRecordings runs a Lucene recording search and returns results
// ordered by descending score.
func (c *Client) SearchRecordings(ctx context.Context, query string, limit int) ([]Recording, error) {
	if limit <= 0 {
		limit = 5
	}
	key := cache.Key(query, strconv.Itoa(limit))
	return c.searches.GetOrLoad(key, func() ([]Recording, error) {
		params := url.Values{}
		params.Set("query", query)
		params.Set("limit", strconv.Itoa(limit))

		var result recordingSearchResponse
		if err := c.get(ctx, "/recording", params, &result); err != nil {
			return nil, err
		}

		recs := make([]Recording, 0, len(result.Recordings))
		for i := range result.Recordings {
			recs = append(recs, convertRecording(&result.Recordings[i]))
		}
		sort.SliceStable(recs, func(i, j int) bool {
			return recs[i].Score > recs[j].Score
		})
		log.Printf("[DEBUG] musicbrainz: %d recordings for %s", len(recs), query)
		return recs, nil
	})
}

// GetRecording looks up a recording by MBID including its artists and releases
func (c *Client) GetRecording(ctx context.Context, mbid string) (*Recording, error) {
	if mbid == "" {
		return nil, fmt.Errorf("empty recording id")
	}
	return c.recordings.GetOrLoad(mbid, func() (*Recording, error) {
		params := url.Values{}
		params.Set("inc", "artists+releases+media")

		var result recordingResult
		if err := c.get(ctx, "/recording/"+url.PathEscape(mbid), params, &result); err != nil {
			return nil, err
		}
		rec := convertRecording(&result)
		return &rec, nil
	})
}

// get performs a rate-limited GET and decodes the JSON body into out
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("fmt", "json")
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	resp, err := c.doRequestWithRetry(ctx, reqURL)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("musicbrainz status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// doRequestWithRetry waits for the limiter before every attempt and retries
// network errors, 429 and 5xx responses with exponential backoff.
func (c *Client) doRequestWithRetry(ctx context.Context, reqURL string) (*http.Response, error) {
	var lastErr error
	delay := c.retryDelay

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay = min(delay*2, maxDelay)
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		if !retryableStatus(resp.StatusCode) {
			return resp, nil
		}

		resp.Body.Close()
		lastErr = fmt.Errorf("server returned status %d", resp.StatusCode)
		log.Printf("[WARN] musicbrainz: attempt %d: %v", attempt+1, lastErr)
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries+1, lastErr)
}

// retryableStatus reports whether the catalog asked us to back off or had a
// server-side failure.
func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func convertRecording(r *recordingResult) Recording {
	rec := Recording{
		ID:               r.ID,
		Title:            strings.TrimSpace(r.Title),
		Artist:           extractArtist(r.ArtistCredit),
		Score:            r.Score,
		FirstReleaseDate: r.FirstReleaseDate,
	}
	if len(r.ArtistCredit) > 0 {
		rec.ArtistID = r.ArtistCredit[0].Artist.ID
	}
	for _, rel := range r.Releases {
		rec.Releases = append(rec.Releases, Release{
			ID:          rel.ID,
			Title:       strings.TrimSpace(rel.Title),
			Date:        rel.Date,
			TrackNumber: trackNumberOn(rel, r.ID),
		})
	}
	return rec
}

// trackNumberOn finds the printed number of recording on a release. Search
// results carry only the matching track, so a lone track is taken as is.
func trackNumberOn(rel releaseResult, recordingID string) string {
	var only string
	count := 0
	for _, m := range rel.Media {
		tracks := m.Tracks
		if len(tracks) == 0 {
			tracks = m.Track
		}
		for _, t := range tracks {
			count++
			number := t.Number
			if number == "" && t.Position > 0 {
				number = strconv.Itoa(t.Position)
			}
			if t.Recording != nil && t.Recording.ID == recordingID {
				return number
			}
			only = number
		}
	}
	if count == 1 {
		return only
	}
	return ""
}

// extractArtist joins an artist credit the way MusicBrainz displays it
func extractArtist(credits []artistCredit) string {
	if len(credits) == 0 {
		return ""
	}

	parts := make([]string, 0, len(credits))
	for _, c := range credits {
		name := c.Name
		if name == "" {
			name = c.Artist.Name
		}
		parts = append(parts, name+c.JoinPhrase)
	}
	return strings.TrimSpace(strings.Join(parts, ""))
}
