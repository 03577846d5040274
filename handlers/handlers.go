package handlers

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"retroplayer/audio"
	"retroplayer/controller"
	"retroplayer/database"
	"retroplayer/events"
	"retroplayer/library"
	"retroplayer/lyrics"
	"retroplayer/models"
	"retroplayer/search"
)

type Store interface {
	Get(key string, out any) bool
	Set(key string, value any)
}

type HistoryReader interface {
	GetHistory(limit int) ([]database.PlayRecord, error)
	GetMostPlayed(limit int) ([]database.MostPlayedRecord, error)
}

// LinkResolver expands a shared link into tracks. *search.Spotify satisfies it.
type LinkResolver interface {
	Resolve(ctx context.Context, link string) ([]models.Track, error)
}

// LyricsSearcher runs free-text lyrics queries. *lyrics.Client satisfies it.
type LyricsSearcher interface {
	Search(query string) (string, string, error)
}

type Options struct {
	Controller   *controller.Controller
	Element      *audio.Element
	Lyrics       *lyrics.Engine
	LyricsSearch LyricsSearcher
	Search       search.Provider
	Resolver     LinkResolver
	Library      *library.Library
	Store        Store
	History      HistoryReader
	Events       *events.Broadcaster
	Hints        *Hints
}

// Manager serves the player's HTTP API. Resolver, LyricsSearch and History
// are optional; their routes answer 503 when missing.
type Manager struct {
	controller   *controller.Controller
	element      *audio.Element
	lyrics       *lyrics.Engine
	lyricsSearch LyricsSearcher
	search       search.Provider
	resolver     LinkResolver
	library      *library.Library
	history      HistoryReader
	events       *events.Broadcaster
	hints        *Hints
	theme        *Theme
	logger       *log.Entry
}

func NewManager(opts Options) *Manager {
	hints := opts.Hints
	if hints == nil {
		hints = NewHints()
	}
	return &Manager{
		controller:   opts.Controller,
		element:      opts.Element,
		lyrics:       opts.Lyrics,
		lyricsSearch: opts.LyricsSearch,
		search:       opts.Search,
		resolver:     opts.Resolver,
		library:      opts.Library,
		history:      opts.History,
		events:       opts.Events,
		hints:        hints,
		theme:        NewTheme(opts.Store),
		logger:       log.WithFields(log.Fields{"module": "handlers"}),
	}
}

func (m *Manager) Register(router gin.IRouter) {
	router.GET("/health", m.health)
	router.GET(library.MediaPrefix+":id", m.serveLocalFile)

	api := router.Group("/api")
	api.GET("/search", m.searchTracks)
	api.GET("/events", m.streamEvents)

	queue := api.Group("/queue")
	queue.GET("", m.getQueue)
	queue.POST("", m.appendToQueue)
	queue.DELETE("", m.clearQueue)
	queue.PUT("/order", m.reorderQueue)
	queue.POST("/move", m.moveInQueue)
	queue.DELETE("/:index", m.removeFromQueue)
	queue.POST("/:index/play", m.playIndex)

	player := api.Group("/player")
	player.GET("", m.getPlayer)
	player.POST("/next", m.next)
	player.POST("/previous", m.previous)
	player.POST("/toggle", m.togglePlay)
	player.POST("/shuffle", m.toggleShuffle)
	player.POST("/repeat", m.toggleRepeat)
	player.POST("/mute", m.toggleMute)
	player.PUT("/volume", m.setVolume)
	player.PUT("/seek", m.seek)
	player.POST("/events", m.reportMediaEvent)

	lyricsGroup := api.Group("/lyrics")
	lyricsGroup.GET("", m.getLyrics)
	lyricsGroup.POST("/refresh", m.refreshLyrics)
	lyricsGroup.GET("/search", m.searchLyrics)

	lib := api.Group("/library")
	lib.GET("", m.listLibrary)
	lib.POST("", m.ingestLibrary)
	lib.DELETE("", m.clearLibrary)
	lib.POST("/:id/queue", m.queueLibraryTrack)

	api.GET("/theme", m.getTheme)
	api.PUT("/theme", m.setTheme)
	api.GET("/shortcuts", m.listShortcuts)
	api.POST("/keys/:key", m.dispatchKey)

	api.GET("/history", m.getHistory)
	api.GET("/history/top", m.getMostPlayed)
}

func (m *Manager) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func captureError(c *gin.Context, err error) {
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}
}

func errorJSON(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

func (m *Manager) searchTracks(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusOK, []models.Track{})
		return
	}

	tracks, err := m.search.Search(c.Request.Context(), query)
	if err != nil {
		m.logger.WithField("method", "searchTracks").Errorf("%s search failed: %v", m.search.Name(), err)
		captureError(c, err)
		errorJSON(c, http.StatusBadGateway, "search failed")
		return
	}
	c.JSON(http.StatusOK, tracks)
}

func (m *Manager) getQueue(c *gin.Context) {
	c.JSON(http.StatusOK, m.controller.Snapshot())
}

type appendRequest struct {
	Track  *models.Track `json:"track"`
	URL    string        `json:"url"`
	Title  string        `json:"title"`
	Artist string        `json:"artist"`
	Play   bool          `json:"play"`
}

func (m *Manager) appendToQueue(c *gin.Context) {
	logger := m.logger.WithField("method", "appendToQueue")

	var req appendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid request body")
		return
	}

	var tracks []models.Track
	switch {
	case req.Track != nil:
		tracks = []models.Track{*req.Track}
	case search.IsSpotifyURL(req.URL) && m.resolver != nil:
		resolved, err := m.resolver.Resolve(c.Request.Context(), req.URL)
		if errors.Is(err, search.ErrInvalidSpotifyURL) {
			errorJSON(c, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			logger.Errorf("failed to resolve %s: %v", req.URL, err)
			captureError(c, err)
			errorJSON(c, http.StatusBadGateway, "could not resolve link")
			return
		}
		if len(resolved) == 0 {
			errorJSON(c, http.StatusNotFound, "no playable tracks behind that link")
			return
		}
		tracks = resolved
	case strings.TrimSpace(req.URL) != "":
		title, artist := req.Title, req.Artist
		if artist == "" {
			artist, title = models.SplitArtistTitle(title)
		}
		tracks = []models.Track{{
			Origin:      models.OriginGenericURL,
			Title:       title,
			Artist:      artist,
			PlayableURL: strings.TrimSpace(req.URL),
		}}
	default:
		errorJSON(c, http.StatusBadRequest, "a track or url is required")
		return
	}

	// a link's tracks are queued all together or not at all
	for _, track := range tracks {
		if err := track.Validate(); err != nil {
			errorJSON(c, http.StatusBadRequest, err.Error())
			return
		}
	}
	for i, track := range tracks {
		if err := m.controller.Append(track, req.Play && i == 0); err != nil {
			errorJSON(c, http.StatusBadRequest, err.Error())
			return
		}
	}
	logger.Debugf("queued %d tracks", len(tracks))

	response := gin.H{"queue": m.controller.Snapshot(), "added": len(tracks)}
	if hint := m.hints.ShowIfApplicable(clientID(c)); hint != "" {
		response["hint"] = hint
	}
	c.JSON(http.StatusCreated, response)
}

func (m *Manager) clearQueue(c *gin.Context) {
	m.controller.Clear()
	c.JSON(http.StatusOK, m.controller.Snapshot())
}

func indexParam(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "index must be an integer")
		return 0, false
	}
	return index, true
}

func (m *Manager) removeFromQueue(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}
	if !m.controller.RemoveAt(index) {
		errorJSON(c, http.StatusNotFound, "no track at that index")
		return
	}
	c.JSON(http.StatusOK, m.controller.Snapshot())
}

type reorderRequest struct {
	Order []int `json:"order" binding:"required"`
}

func (m *Manager) reorderQueue(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "order is required")
		return
	}
	if !m.controller.Reorder(req.Order) {
		errorJSON(c, http.StatusBadRequest, "order must be a permutation of the queue")
		return
	}
	c.JSON(http.StatusOK, m.controller.Snapshot())
}

type moveRequest struct {
	From *int `json:"from" binding:"required"`
	To   *int `json:"to" binding:"required"`
}

func (m *Manager) moveInQueue(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "from and to are required")
		return
	}
	if !m.controller.Move(*req.From, *req.To) {
		errorJSON(c, http.StatusNotFound, "no track at that index")
		return
	}
	c.JSON(http.StatusOK, m.controller.Snapshot())
}

func (m *Manager) playIndex(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}
	if m.controller.Len() == 0 {
		errorJSON(c, http.StatusNotFound, "queue is empty")
		return
	}
	m.controller.LoadAt(index)
	c.JSON(http.StatusOK, m.controller.Snapshot())
}

func (m *Manager) getPlayer(c *gin.Context) {
	c.JSON(http.StatusOK, m.element.State())
}

func (m *Manager) next(c *gin.Context) {
	m.controller.Advance()
	c.JSON(http.StatusOK, m.controller.Snapshot())
}

func (m *Manager) previous(c *gin.Context) {
	m.controller.Previous()
	c.JSON(http.StatusOK, m.controller.Snapshot())
}

func (m *Manager) togglePlay(c *gin.Context) {
	playing := m.controller.TogglePlay()
	c.JSON(http.StatusOK, gin.H{"playing": playing})
}

func (m *Manager) toggleShuffle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"shuffle": m.controller.ToggleShuffle()})
}

func (m *Manager) toggleRepeat(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"repeat": m.controller.ToggleRepeat()})
}

func (m *Manager) toggleMute(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"muted": m.controller.ToggleMute()})
}

type volumeRequest struct {
	Volume *float64 `json:"volume" binding:"required"`
}

func (m *Manager) setVolume(c *gin.Context) {
	var req volumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "volume is required")
		return
	}
	c.JSON(http.StatusOK, gin.H{"volume": m.controller.SetVolume(*req.Volume)})
}

type seekRequest struct {
	Fraction *float64 `json:"fraction" binding:"required"`
}

func (m *Manager) seek(c *gin.Context) {
	var req seekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "fraction is required")
		return
	}
	if !m.controller.SeekFraction(*req.Fraction) {
		errorJSON(c, http.StatusConflict, "duration is not known yet")
		return
	}
	c.JSON(http.StatusOK, m.element.State())
}

func (m *Manager) reportMediaEvent(c *gin.Context) {
	var report audio.Report
	if err := c.ShouldBindJSON(&report); err != nil {
		errorJSON(c, http.StatusBadRequest, "event is required")
		return
	}

	err := m.element.Report(report)
	switch {
	case errors.Is(err, audio.ErrUnknownEvent):
		errorJSON(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, audio.ErrStaleReport):
		errorJSON(c, http.StatusConflict, err.Error())
	case err != nil:
		captureError(c, err)
		errorJSON(c, http.StatusInternalServerError, "failed to apply report")
	default:
		c.Status(http.StatusNoContent)
	}
}

func (m *Manager) getLyrics(c *gin.Context) {
	c.JSON(http.StatusOK, m.lyrics.State())
}

func (m *Manager) refreshLyrics(c *gin.Context) {
	if !m.lyrics.Refresh() {
		errorJSON(c, http.StatusConflict, "nothing is playing")
		return
	}
	c.JSON(http.StatusAccepted, m.lyrics.State())
}

func (m *Manager) searchLyrics(c *gin.Context) {
	if m.lyricsSearch == nil {
		errorJSON(c, http.StatusServiceUnavailable, "lyrics search is not configured")
		return
	}
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		errorJSON(c, http.StatusBadRequest, "q is required")
		return
	}

	text, track, err := m.lyricsSearch.Search(query)
	if err != nil {
		m.logger.WithField("method", "searchLyrics").Errorf("lyrics search failed: %v", err)
		captureError(c, err)
		errorJSON(c, http.StatusBadGateway, "lyrics lookup failed")
		return
	}
	if text == "" {
		errorJSON(c, http.StatusNotFound, "no lyrics found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"track": track, "text": text})
}

func (m *Manager) listLibrary(c *gin.Context) {
	c.JSON(http.StatusOK, m.library.List())
}

type ingestRequest struct {
	Paths []string `json:"paths" binding:"required"`
}

func (m *Manager) ingestLibrary(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "paths are required")
		return
	}

	tracks, err := m.library.Ingest(req.Paths)
	if err != nil && len(tracks) == 0 {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}

	m.events.Publish(library.EventLibrary, m.library.List())
	response := gin.H{"tracks": tracks}
	if err != nil {
		response["error"] = err.Error()
	}
	c.JSON(http.StatusOK, response)
}

func (m *Manager) clearLibrary(c *gin.Context) {
	m.library.Clear()
	m.events.Publish(library.EventLibrary, m.library.List())
	c.Status(http.StatusNoContent)
}

type queueLibraryRequest struct {
	Play bool `json:"play"`
}

func (m *Manager) queueLibraryTrack(c *gin.Context) {
	var req queueLibraryRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			errorJSON(c, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	entry, err := m.library.Resolve(c.Param("id"))
	if err != nil {
		errorJSON(c, http.StatusNotFound, err.Error())
		return
	}
	if err := m.controller.Append(entry.Track, req.Play); err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusCreated, m.controller.Snapshot())
}

func (m *Manager) serveLocalFile(c *gin.Context) {
	entry, err := m.library.Resolve(c.Param("id"))
	if err != nil {
		errorJSON(c, http.StatusNotFound, err.Error())
		return
	}
	if _, err := os.Stat(entry.Path); err != nil {
		m.logger.WithField("method", "serveLocalFile").Warnf("library file unavailable: %v", err)
		errorJSON(c, http.StatusNotFound, "file is no longer available")
		return
	}
	c.File(entry.Path)
}

func (m *Manager) getTheme(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"theme": m.theme.Current()})
}

type themeRequest struct {
	Theme string `json:"theme" binding:"required"`
}

func (m *Manager) setTheme(c *gin.Context) {
	var req themeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "theme is required")
		return
	}
	if err := m.theme.Set(req.Theme); err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}
	m.events.Publish(EventTheme, m.theme.Current())
	c.JSON(http.StatusOK, gin.H{"theme": m.theme.Current()})
}

func (m *Manager) listShortcuts(c *gin.Context) {
	c.JSON(http.StatusOK, Shortcuts)
}

func (m *Manager) dispatchKey(c *gin.Context) {
	result, err := m.Dispatch(c.Param("key"))
	if err != nil {
		errorJSON(c, http.StatusNotFound, err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}

func limitParam(c *gin.Context, fallback int) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		return fallback
	}
	return lo.Clamp(limit, 1, 100)
}

func (m *Manager) getHistory(c *gin.Context) {
	if m.history == nil {
		errorJSON(c, http.StatusServiceUnavailable, "history is not available")
		return
	}
	records, err := m.history.GetHistory(limitParam(c, 20))
	if err != nil {
		m.logger.WithField("method", "getHistory").Errorf("failed to read history: %v", err)
		captureError(c, err)
		errorJSON(c, http.StatusInternalServerError, "failed to read history")
		return
	}
	c.JSON(http.StatusOK, records)
}

func (m *Manager) getMostPlayed(c *gin.Context) {
	if m.history == nil {
		errorJSON(c, http.StatusServiceUnavailable, "history is not available")
		return
	}
	records, err := m.history.GetMostPlayed(limitParam(c, 10))
	if err != nil {
		m.logger.WithField("method", "getMostPlayed").Errorf("failed to read most played: %v", err)
		captureError(c, err)
		errorJSON(c, http.StatusInternalServerError, "failed to read most played")
		return
	}
	c.JSON(http.StatusOK, records)
}
