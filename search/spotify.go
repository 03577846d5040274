package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sentry "github.com/getsentry/sentry-go"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	spotifyclient "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"

	"retroplayer/models"
)

var ErrInvalidSpotifyURL = errors.New("invalid Spotify URL")

type SpotifyRequest struct {
	TrackID    string
	PlaylistID string
	AlbumID    string
	ArtistID   string
}

// Spotify searches the Spotify catalog with app credentials. Only tracks
// that expose a preview_url are playable.
type Spotify struct {
	client *spotifyclient.Client
	limit  int
	logger *log.Entry
}

// NewSpotify authenticates with the client credentials flow. The returned
// client refreshes its token on its own.
func NewSpotify(ctx context.Context, clientID, clientSecret string, limit int) (*Spotify, error) {
	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	if _, err := config.Token(ctx); err != nil {
		sentry.CaptureException(err)
		return nil, fmt.Errorf("spotify authentication failed: %w", err)
	}

	return NewSpotifyWithClient(spotifyclient.New(config.Client(context.Background())), limit), nil
}

func NewSpotifyWithClient(client *spotifyclient.Client, limit int) *Spotify {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Spotify{
		client: client,
		limit:  limit,
		logger: log.WithFields(log.Fields{"module": "search", "provider": "spotify"}),
	}
}

func (s *Spotify) Name() string {
	return "spotify"
}

func (s *Spotify) Search(ctx context.Context, query string) ([]models.Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Track{}, nil
	}

	span := sentry.StartSpan(ctx, "spotify.search")
	span.Description = "Search Spotify API"
	span.SetTag("query", query)
	defer span.Finish()

	results, err := s.client.Search(span.Context(), query, spotifyclient.SearchTypeTrack, spotifyclient.Limit(s.limit))
	if err != nil {
		s.logger.Errorf("Spotify search for %q failed: %v", query, err)
		sentry.CaptureException(err)
		span.Status = sentry.SpanStatusInternalError
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}

	var tracks []models.Track
	if results.Tracks != nil {
		tracks = playable(results.Tracks.Tracks)
	}

	span.SetData("results", len(tracks))
	span.Status = sentry.SpanStatusOK
	return tracks, nil
}

// Resolve expands an open.spotify.com link into playable track records:
// one for a track, the listed tracks for a playlist or album, and the top
// tracks for an artist.
func (s *Spotify) Resolve(ctx context.Context, link string) ([]models.Track, error) {
	request, err := ParseSpotifyURL(link)
	if err != nil {
		return nil, err
	}

	span := sentry.StartSpan(ctx, "spotify.resolve")
	span.Description = "Resolve Spotify link"
	span.SetTag("url", link)
	defer span.Finish()
	ctx = span.Context()

	var tracks []models.Track
	switch {
	case request.TrackID != "":
		var track *spotifyclient.FullTrack
		track, err = s.client.GetTrack(ctx, spotifyclient.ID(request.TrackID))
		if err == nil {
			tracks = playable([]spotifyclient.FullTrack{*track})
		}
	case request.PlaylistID != "":
		var items *spotifyclient.PlaylistItemPage
		items, err = s.client.GetPlaylistItems(ctx, spotifyclient.ID(request.PlaylistID), spotifyclient.Limit(s.limit))
		if err == nil {
			// podcasts and episodes have no Track
			full := lo.FilterMap(items.Items, func(item spotifyclient.PlaylistItem, _ int) (spotifyclient.FullTrack, bool) {
				if item.Track.Track == nil {
					return spotifyclient.FullTrack{}, false
				}
				return *item.Track.Track, true
			})
			tracks = playable(full)
		}
	case request.AlbumID != "":
		var album *spotifyclient.FullAlbum
		album, err = s.client.GetAlbum(ctx, spotifyclient.ID(request.AlbumID))
		if err == nil {
			full := lo.Map(album.Tracks.Tracks, func(t spotifyclient.SimpleTrack, _ int) spotifyclient.FullTrack {
				return spotifyclient.FullTrack{SimpleTrack: t, Album: album.SimpleAlbum}
			})
			tracks = playable(full)
		}
	case request.ArtistID != "":
		var top []spotifyclient.FullTrack
		top, err = s.client.GetArtistsTopTracks(ctx, spotifyclient.ID(request.ArtistID), "US")
		if err == nil {
			tracks = playable(top)
		}
	default:
		span.Status = sentry.SpanStatusInvalidArgument
		return nil, ErrInvalidSpotifyURL
	}

	if err != nil {
		s.logger.Errorf("Failed to resolve Spotify link %s: %v", link, err)
		sentry.CaptureException(err)
		span.Status = sentry.SpanStatusInternalError

		// zmb3/spotify has no typed errors for these
		errStr := err.Error()
		if strings.Contains(errStr, "404") || strings.Contains(errStr, "Not Found") {
			return nil, fmt.Errorf("%w: not found", ErrSearchFailed)
		}
		if strings.Contains(errStr, "403") || strings.Contains(errStr, "Forbidden") {
			return nil, fmt.Errorf("%w: private or not accessible", ErrSearchFailed)
		}
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}

	s.logger.Debugf("Resolved Spotify link %s to %d playable tracks", link, len(tracks))
	span.SetData("tracks_count", len(tracks))
	span.Status = sentry.SpanStatusOK
	return tracks, nil
}

func playable(full []spotifyclient.FullTrack) []models.Track {
	return lo.FilterMap(full, func(track spotifyclient.FullTrack, _ int) (models.Track, bool) {
		if track.PreviewURL == "" {
			return models.Track{}, false
		}
		artists := lo.Map(track.Artists, func(a spotifyclient.SimpleArtist, _ int) string {
			return a.Name
		})
		var cover string
		if len(track.Album.Images) > 0 {
			cover = track.Album.Images[0].URL
		}
		return models.Track{
			Origin:      models.OriginRemoteSearch,
			Title:       track.Name,
			Artist:      strings.Join(artists, ", "),
			CoverURL:    cover,
			PlayableURL: track.PreviewURL,
			SourceID:    track.ID.String(),
		}, true
	})
}

func IsSpotifyURL(link string) bool {
	return strings.HasPrefix(link, "https://open.spotify.com/")
}

func ParseSpotifyURL(link string) (SpotifyRequest, error) {
	if !IsSpotifyURL(link) {
		log.Warnf("URL does not start with https://open.spotify.com/: %s", link)
		return SpotifyRequest{}, ErrInvalidSpotifyURL
	}

	parts := strings.Split(link, "/")
	if len(parts) < 5 {
		log.Warnf("Invalid Spotify URL format (too few parts): %s", link)
		return SpotifyRequest{}, ErrInvalidSpotifyURL
	}

	request := SpotifyRequest{}

	// Strip query parameters from ID (e.g., ?si=tracking_id)
	id := strings.Split(parts[4], "?")[0]

	switch parts[3] {
	case "playlist":
		request.PlaylistID = id
	case "album":
		request.AlbumID = id
	case "artist":
		request.ArtistID = id
	case "track":
		request.TrackID = id
	}
	log.Tracef("Parsed Spotify URL %s: %+v", link, request)

	return request, nil
}
