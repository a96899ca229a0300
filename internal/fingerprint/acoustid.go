// file: internal/fingerprint/acoustid.go
// version: 1.0.0
// guid: 7f1a3c85-2d6e-4b09-9c47-e8b0a5d2f631

package fingerprint

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

	"golang.org/x/time/rate"
)

const (
	acoustIDBaseURL = "https://api.acoustid.org/v2"

	// AcoustID asks clients to stay under three requests per second
	acoustIDRate = rate.Limit(3)
)

// Match is one AcoustID result with the recordings linked to it
type Match struct {
	ID         string
	Score      float64
	Recordings []MatchRecording
}

// MatchRecording is a MusicBrainz recording linked to a fingerprint
type MatchRecording struct {
	ID      string
	Title   string
	Artists []string
}

// Artist joins the recording's artist names
func (r MatchRecording) Artist() string {
	return strings.Join(r.Artists, ", ")
}

type lookupResponse struct {
	Status string `json:"status"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Results []struct {
		ID         string  `json:"id"`
		Score      float64 `json:"score"`
		Recordings []struct {
			ID      string `json:"id"`
			Title   string `json:"title"`
			Artists []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"artists"`
		} `json:"recordings"`
	} `json:"results"`
}

// AcoustIDClient queries the AcoustID lookup API
type AcoustIDClient struct {
	apiKey     string
	userAgent  string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// ClientOption configures an AcoustIDClient
type ClientOption func(*AcoustIDClient)

// WithBaseURL points the client at another server
func WithBaseURL(u string) ClientOption {
	return func(c *AcoustIDClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithLimiter replaces the default three requests per second limiter
func WithLimiter(l *rate.Limiter) ClientOption {
	return func(c *AcoustIDClient) { c.limiter = l }
}

// NewAcoustIDClient creates a lookup client for the given application key
func NewAcoustIDClient(apiKey, userAgent string, opts ...ClientOption) *AcoustIDClient {
	c := &AcoustIDClient{
		apiKey:     strings.TrimSpace(apiKey),
		userAgent:  userAgent,
		baseURL:    acoustIDBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(acoustIDRate, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HasKey reports whether an API key is configured
func (c *AcoustIDClient) HasKey() bool {
	return c.apiKey != ""
}

// Lookup sends a fingerprint to AcoustID and returns matches ordered by
// descending score.
func (c *AcoustIDClient) Lookup(ctx context.Context, fp *Result) ([]Match, error) {
	if !c.HasKey() {
		return nil, ErrNoCredential
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("client", c.apiKey)
	form.Set("meta", "recordings")
	form.Set("duration", strconv.Itoa(int(fp.Duration)))
	form.Set("fingerprint", fp.Fingerprint)
	form.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/lookup", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var parsed lookupResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("acoustid status %d: decode response: %w", resp.StatusCode, err)
	}
	if parsed.Status != "ok" {
		if parsed.Error != nil {
			return nil, fmt.Errorf("acoustid error %d: %s", parsed.Error.Code, parsed.Error.Message)
		}
		return nil, fmt.Errorf("acoustid status %q (http %d)", parsed.Status, resp.StatusCode)
	}

	matches := make([]Match, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		m := Match{ID: r.ID, Score: r.Score}
		for _, rec := range r.Recordings {
			mr := MatchRecording{ID: rec.ID, Title: rec.Title}
			for _, a := range rec.Artists {
				mr.Artists = append(mr.Artists, a.Name)
			}
			m.Recordings = append(m.Recordings, mr)
		}
		matches = append(matches, m)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	log.Printf("[DEBUG] fingerprint: acoustid returned %d results", len(matches))
	return matches, nil
}
