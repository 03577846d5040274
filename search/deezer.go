package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sentry "github.com/getsentry/sentry-go"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"retroplayer/models"
)

const DefaultDeezerURL = "https://api.deezer.com"

type deezerTrack struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Preview string `json:"preview"`
	Artist  struct {
		Name string `json:"name"`
	} `json:"artist"`
	Album struct {
		Cover       string `json:"cover"`
		CoverMedium string `json:"cover_medium"`
	} `json:"album"`
}

type deezerResponse struct {
	Data  []deezerTrack `json:"data"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type DeezerOptions struct {
	BaseURL string
	Limit   int
	Timeout time.Duration
}

// Deezer searches the public Deezer catalog. Results are 30 second previews.
type Deezer struct {
	httpClient *http.Client
	baseURL    string
	limit      int
	logger     *log.Entry
}

func NewDeezer(opts DeezerOptions) *Deezer {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultDeezerURL
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Deezer{
		httpClient: &http.Client{Timeout: opts.Timeout},
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		limit:      opts.Limit,
		logger:     log.WithFields(log.Fields{"module": "search", "provider": "deezer"}),
	}
}

func (d *Deezer) Name() string {
	return "deezer"
}

func (d *Deezer) Search(ctx context.Context, query string) ([]models.Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Track{}, nil
	}

	span := sentry.StartSpan(ctx, "deezer.search")
	span.Description = "Search Deezer API"
	span.SetTag("query", query)
	defer span.Finish()

	logger := d.logger.WithFields(log.Fields{"method": "Search", "query": query})

	u := d.baseURL + "/search?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(span.Context(), http.MethodGet, u, nil)
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		logger.Errorf("Deezer request failed: %v", err)
		sentry.CaptureException(err)
		span.Status = sentry.SpanStatusInternalError
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Errorf("Deezer returned status %d", resp.StatusCode)
		span.Status = sentry.SpanStatusInternalError
		return nil, fmt.Errorf("%w: deezer returned status %d", ErrSearchFailed, resp.StatusCode)
	}

	var payload deezerResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		span.Status = sentry.SpanStatusInternalError
		return nil, fmt.Errorf("%w: failed to decode deezer json: %w", ErrSearchFailed, err)
	}
	if payload.Error != nil {
		span.Status = sentry.SpanStatusInternalError
		return nil, fmt.Errorf("%w: deezer error %s: %s", ErrSearchFailed, payload.Error.Type, payload.Error.Message)
	}

	tracks := lo.FilterMap(payload.Data, func(item deezerTrack, _ int) (models.Track, bool) {
		if item.Preview == "" {
			return models.Track{}, false
		}
		return models.Track{
			Origin:      models.OriginRemoteSearch,
			Title:       item.Title,
			Artist:      item.Artist.Name,
			CoverURL:    lo.CoalesceOrEmpty(item.Album.CoverMedium, item.Album.Cover),
			PlayableURL: item.Preview,
			SourceID:    strconv.FormatInt(item.ID, 10),
		}, true
	})
	if len(tracks) > d.limit {
		tracks = tracks[:d.limit]
	}

	logger.Debugf("Deezer returned %d playable tracks out of %d", len(tracks), len(payload.Data))
	span.SetData("results", len(tracks))
	span.Status = sentry.SpanStatusOK
	return tracks, nil
}
