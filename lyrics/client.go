package lyrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultBaseURL   = "https://lrclib.net"
	DefaultUserAgent = "retroplayer/1.0"
)

var ErrLookupFailed = errors.New("lyrics lookup failed")

type SearchResult struct {
	ID           int    `json:"id"`
	TrackName    string `json:"trackName"`
	ArtistName   string `json:"artistName"`
	AlbumName    string `json:"albumName"`
	PlainLyrics  string `json:"plainLyrics"`
	SyncedLyrics string `json:"syncedLyrics"`
}

// Result is the best LRCLIB match for a track. Either field may be empty.
type Result struct {
	TrackName  string
	ArtistName string
	Synced     string
	Plain      string
}

type ClientOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	logger     *log.Entry
}

func New(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		userAgent: opts.UserAgent,
		logger:    log.WithFields(log.Fields{"module": "lyrics", "component": "client"}),
	}
}

// Lookup asks LRCLIB for a track by title and artist and returns the first
// match, or nil when there is none. One attempt, no retries.
func (c *Client) Lookup(ctx context.Context, title, artist string) (*Result, error) {
	span := sentry.StartSpan(ctx, "lyrics.lookup")
	span.SetTag("track_name", title)
	span.SetTag("artist_name", artist)
	defer span.Finish()

	params := url.Values{}
	params.Set("track_name", title)
	params.Set("artist_name", artist)

	results, err := c.search(span.Context(), params)
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		return nil, err
	}
	span.SetData("results", len(results))
	span.Status = sentry.SpanStatusOK

	if len(results) == 0 {
		return nil, nil
	}

	best := results[0]
	return &Result{
		TrackName:  best.TrackName,
		ArtistName: best.ArtistName,
		Synced:     best.SyncedLyrics,
		Plain:      best.PlainLyrics,
	}, nil
}

// Search runs a free-text query and returns plain lyrics text plus a
// track and artist label. Synced-only results have their timestamps removed.
func (c *Client) Search(query string) (string, string, error) {
	params := url.Values{}
	params.Set("q", query)

	results, err := c.search(context.Background(), params)
	if err != nil {
		return "", "", err
	}
	if len(results) == 0 {
		return "", "", nil
	}

	res := results[0]
	trackInfo := res.TrackName + " — " + res.ArtistName

	var text string
	if res.PlainLyrics != "" {
		text = res.PlainLyrics
	} else if res.SyncedLyrics != "" {
		text = strings.TrimSpace(strings.Join(Parse(res.SyncedLyrics).Texts(), "\n"))
	}

	return text, trackInfo, nil
}

func (c *Client) search(ctx context.Context, params url.Values) ([]SearchResult, error) {
	u := c.baseURL + "/api/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build lrclib request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Tracef("GET %s", u)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: lrclib API returned status %d: %s", ErrLookupFailed, resp.StatusCode, string(body))
	}

	var results []SearchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("%w: failed to decode lrclib json: %w", ErrLookupFailed, err)
	}

	return results, nil
}
