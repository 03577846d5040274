package handlers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"retroplayer/audio"
	"retroplayer/controller"
	"retroplayer/database"
	"retroplayer/events"
	"retroplayer/library"
	"retroplayer/lyrics"
	"retroplayer/models"
)

type memoryStore struct {
	values map[string][]byte
}

func (s *memoryStore) Get(key string, out any) bool {
	raw, ok := s.values[key]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func (s *memoryStore) Set(key string, value any) {
	raw, err := json.Marshal(value)
	if err == nil {
		s.values[key] = raw
	}
}

func (s *memoryStore) Delete(key string) {
	delete(s.values, key)
}

type fakeProvider struct {
	tracks []models.Track
	err    error
	query  string
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Search(_ context.Context, query string) ([]models.Track, error) {
	p.query = query
	return p.tracks, p.err
}

type fakeResolver struct {
	tracks []models.Track
	err    error
}

func (r *fakeResolver) Resolve(context.Context, string) ([]models.Track, error) {
	return r.tracks, r.err
}

type fakeLyricsSearch struct {
	text, track string
	err         error
}

func (s *fakeLyricsSearch) Search(string) (string, string, error) {
	return s.text, s.track, s.err
}

type fakeHistory struct {
	limit int
	err   error
}

func (h *fakeHistory) GetHistory(limit int) ([]database.PlayRecord, error) {
	h.limit = limit
	return []database.PlayRecord{{ID: 1, Title: "A"}}, h.err
}

func (h *fakeHistory) GetMostPlayed(limit int) ([]database.MostPlayedRecord, error) {
	h.limit = limit
	return []database.MostPlayedRecord{{Title: "A", PlayCount: 3}}, h.err
}

type harness struct {
	router     *gin.Engine
	store      *memoryStore
	element    *audio.Element
	controller *controller.Controller
	library    *library.Library
	events     *events.Broadcaster
	provider   *fakeProvider
	resolver   *fakeResolver
	lyrics     *fakeLyricsSearch
	history    *fakeHistory
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := &harness{
		store:    &memoryStore{values: map[string][]byte{}},
		events:   events.NewBroadcaster(),
		provider: &fakeProvider{},
		resolver: &fakeResolver{},
		lyrics:   &fakeLyricsSearch{},
		history:  &fakeHistory{},
	}
	h.element = audio.NewElement(h.events)
	engine := lyrics.NewEngine(lyrics.EngineOptions{Renderer: lyrics.NewPublishRenderer(h.events)})
	h.controller = controller.New(controller.Options{
		Store:     h.store,
		Media:     h.element,
		Lyrics:    engine,
		Publisher: h.events,
	})
	h.library = library.New(h.store)

	manager := NewManager(Options{
		Controller:   h.controller,
		Element:      h.element,
		Lyrics:       engine,
		LyricsSearch: h.lyrics,
		Search:       h.provider,
		Resolver:     h.resolver,
		Library:      h.library,
		Store:        h.store,
		History:      h.history,
		Events:       h.events,
		Hints:        &Hints{cooldowns: map[string]time.Time{}},
	})
	h.router = gin.New()
	manager.Register(h.router)
	return h
}

func (h *harness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func track(title string) models.Track {
	return models.Track{
		Origin:      models.OriginRemoteSearch,
		Title:       title,
		Artist:      "Artist",
		PlayableURL: "https://cdn.example/" + title + ".mp3",
		SourceID:    title,
	}
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	if rec := h.do(t, http.MethodGet, "/health", nil); rec.Code != http.StatusOK {
		t.Errorf("GET /health = %d, want 200", rec.Code)
	}
}

func TestSearchRoute(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		tracks   []models.Track
		err      error
		wantCode int
		wantLen  int
	}{
		{"blank query", "%20", nil, nil, http.StatusOK, 0},
		{"results", "daft+punk", []models.Track{track("one"), track("two")}, nil, http.StatusOK, 2},
		{"provider failure", "anything", nil, errors.New("boom"), http.StatusBadGateway, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.provider.tracks, h.provider.err = tt.tracks, tt.err

			rec := h.do(t, http.MethodGet, "/api/search?q="+tt.query, nil)
			if rec.Code != tt.wantCode {
				t.Fatalf("GET /api/search = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.err != nil {
				if body := decode[map[string]string](t, rec); body["error"] != "search failed" {
					t.Errorf("error = %q, want search failed", body["error"])
				}
				return
			}
			if got := decode[[]models.Track](t, rec); len(got) != tt.wantLen {
				t.Errorf("GET /api/search returned %d tracks, want %d", len(got), tt.wantLen)
			}
		})
	}
}

func TestQueueRoutes(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/queue", gin.H{"track": track("a"), "play": true})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/queue = %d: %s", rec.Code, rec.Body.String())
	}
	if h.element.Source() != track("a").PlayableURL {
		t.Errorf("element source = %q, want the appended track", h.element.Source())
	}

	rec = h.do(t, http.MethodPost, "/api/queue", gin.H{"url": "https://radio.example/stream", "title": "Radio"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/queue with url = %d: %s", rec.Code, rec.Body.String())
	}
	h.do(t, http.MethodPost, "/api/queue", gin.H{"track": track("c")})

	snapshot := decode[controller.Snapshot](t, h.do(t, http.MethodGet, "/api/queue", nil))
	if len(snapshot.Queue) != 3 || snapshot.Queue[1].Origin != models.OriginGenericURL {
		t.Fatalf("queue = %+v", snapshot.Queue)
	}

	tests := []struct {
		method   string
		path     string
		body     any
		wantCode int
	}{
		{http.MethodDelete, "/api/queue/9", nil, http.StatusNotFound},
		{http.MethodDelete, "/api/queue/x", nil, http.StatusBadRequest},
		{http.MethodPut, "/api/queue/order", gin.H{"order": []int{0, 0, 1}}, http.StatusBadRequest},
		{http.MethodPut, "/api/queue/order", gin.H{"order": []int{2, 1, 0}}, http.StatusOK},
		{http.MethodPost, "/api/queue/move", gin.H{"from": 0, "to": 7}, http.StatusNotFound},
		{http.MethodPost, "/api/queue/move", gin.H{"from": 0}, http.StatusBadRequest},
		{http.MethodPost, "/api/queue/move", gin.H{"from": 0, "to": 2}, http.StatusOK},
		{http.MethodPost, "/api/queue/1/play", nil, http.StatusOK},
		{http.MethodDelete, "/api/queue/0", nil, http.StatusOK},
	}
	for _, tt := range tests {
		if rec := h.do(t, tt.method, tt.path, tt.body); rec.Code != tt.wantCode {
			t.Errorf("%s %s = %d, want %d (%s)", tt.method, tt.path, rec.Code, tt.wantCode, rec.Body.String())
		}
	}

	// order [2,1,0] gives c,Radio,a; move 0->2 gives Radio,a,c; removing 0 leaves a,c
	snapshot = decode[controller.Snapshot](t, h.do(t, http.MethodGet, "/api/queue", nil))
	titles := []string{}
	for _, tr := range snapshot.Queue {
		titles = append(titles, tr.Title)
	}
	if strings.Join(titles, ",") != "a,c" {
		t.Errorf("queue titles = %v, want [a c]", titles)
	}

	rec = h.do(t, http.MethodDelete, "/api/queue", nil)
	if got := decode[controller.Snapshot](t, rec); rec.Code != http.StatusOK || len(got.Queue) != 0 {
		t.Errorf("DELETE /api/queue = %d with %d tracks", rec.Code, len(got.Queue))
	}
	if h.element.Source() != "" {
		t.Errorf("element source after clear = %q, want empty", h.element.Source())
	}
	if rec := h.do(t, http.MethodPost, "/api/queue/0/play", nil); rec.Code != http.StatusNotFound {
		t.Errorf("play on empty queue = %d, want 404", rec.Code)
	}
}

func TestAppendRejectsBadInput(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		body any
	}{
		{"empty body", gin.H{}},
		{"track without url", gin.H{"track": gin.H{"origin": "remote-search", "title": "x"}}},
		{"unknown origin", gin.H{"track": gin.H{"origin": "cassette", "playable_url": "https://x/y.mp3"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := h.do(t, http.MethodPost, "/api/queue", tt.body); rec.Code != http.StatusBadRequest {
				t.Errorf("POST /api/queue = %d, want 400", rec.Code)
			}
		})
	}
	if h.controller.Len() != 0 {
		t.Errorf("queue length = %d, want 0", h.controller.Len())
	}
}

func TestAppendSpotifyLink(t *testing.T) {
	h := newHarness(t)
	link := "https://open.spotify.com/playlist/abc"

	h.resolver.tracks = []models.Track{track("one"), track("two")}
	rec := h.do(t, http.MethodPost, "/api/queue", gin.H{"url": link, "play": true})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/queue = %d: %s", rec.Code, rec.Body.String())
	}
	if body := decode[map[string]any](t, rec); body["added"] != float64(2) {
		t.Errorf("added = %v, want 2", body["added"])
	}
	if h.element.Source() != track("one").PlayableURL {
		t.Errorf("element source = %q, want the first resolved track", h.element.Source())
	}

	h.resolver.tracks, h.resolver.err = nil, errors.New("spotify down")
	if rec := h.do(t, http.MethodPost, "/api/queue", gin.H{"url": link}); rec.Code != http.StatusBadGateway {
		t.Errorf("resolve failure = %d, want 502", rec.Code)
	}

	h.resolver.err = nil
	if rec := h.do(t, http.MethodPost, "/api/queue", gin.H{"url": link}); rec.Code != http.StatusNotFound {
		t.Errorf("no playable tracks = %d, want 404", rec.Code)
	}

	broken := track("three")
	broken.PlayableURL = ""
	h.resolver.tracks = []models.Track{track("three"), broken}
	if rec := h.do(t, http.MethodPost, "/api/queue", gin.H{"url": link}); rec.Code != http.StatusBadRequest {
		t.Errorf("link with an invalid track = %d, want 400", rec.Code)
	}
	if got := len(h.controller.Snapshot().Queue); got != 2 {
		t.Errorf("queue length after a rejected link = %d, want 2", got)
	}
}

func TestPlayerRoutes(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodPost, "/api/queue", gin.H{"track": track("a"), "play": true})
	src := track("a").PlayableURL

	if body := decode[map[string]float64](t, h.do(t, http.MethodPut, "/api/player/volume", gin.H{"volume": 1.7})); body["volume"] != 1 {
		t.Errorf("volume = %v, want 1", body["volume"])
	}
	if rec := h.do(t, http.MethodPut, "/api/player/volume", gin.H{}); rec.Code != http.StatusBadRequest {
		t.Errorf("volume without a value = %d, want 400", rec.Code)
	}
	if rec := h.do(t, http.MethodPut, "/api/player/seek", gin.H{"fraction": 0.5}); rec.Code != http.StatusConflict {
		t.Errorf("seek before duration = %d, want 409", rec.Code)
	}

	reports := []struct {
		name     string
		body     gin.H
		wantCode int
	}{
		{"time update", gin.H{"event": "timeupdate", "src": src, "current_time": 1.5, "duration": 200}, http.StatusNoContent},
		{"unknown event", gin.H{"event": "stalled", "src": src}, http.StatusBadRequest},
		{"missing event", gin.H{"src": src}, http.StatusBadRequest},
		{"stale source", gin.H{"event": "ended", "src": "https://old.example/x.mp3"}, http.StatusConflict},
	}
	for _, tt := range reports {
		if rec := h.do(t, http.MethodPost, "/api/player/events", tt.body); rec.Code != tt.wantCode {
			t.Errorf("%s: POST /api/player/events = %d, want %d", tt.name, rec.Code, tt.wantCode)
		}
	}

	rec := h.do(t, http.MethodPut, "/api/player/seek", gin.H{"fraction": 0.5})
	if state := decode[audio.ElementState](t, rec); rec.Code != http.StatusOK || state.CurrentTime != 100 {
		t.Errorf("seek = %d at %v, want 200 at 100", rec.Code, state.CurrentTime)
	}

	if body := decode[map[string]bool](t, h.do(t, http.MethodPost, "/api/player/toggle", nil)); body["playing"] {
		t.Error("toggle on a playing track should pause")
	}
	if body := decode[map[string]bool](t, h.do(t, http.MethodPost, "/api/player/shuffle", nil)); !body["shuffle"] {
		t.Error("shuffle should be on")
	}
	if body := decode[map[string]bool](t, h.do(t, http.MethodPost, "/api/player/repeat", nil)); !body["repeat"] {
		t.Error("repeat should be on")
	}
	if body := decode[map[string]bool](t, h.do(t, http.MethodPost, "/api/player/mute", nil)); !body["muted"] {
		t.Error("mute should be on")
	}
	for _, path := range []string{"/api/player/next", "/api/player/previous"} {
		if rec := h.do(t, http.MethodPost, path, nil); rec.Code != http.StatusOK {
			t.Errorf("POST %s = %d, want 200", path, rec.Code)
		}
	}
}

func TestLyricsRoutes(t *testing.T) {
	h := newHarness(t)

	if state := decode[lyrics.State](t, h.do(t, http.MethodGet, "/api/lyrics", nil)); state.Found || state.Active != -1 {
		t.Errorf("initial lyrics state = %+v", state)
	}
	if rec := h.do(t, http.MethodPost, "/api/lyrics/refresh", nil); rec.Code != http.StatusConflict {
		t.Errorf("refresh with nothing playing = %d, want 409", rec.Code)
	}

	tests := []struct {
		name     string
		query    string
		search   fakeLyricsSearch
		wantCode int
	}{
		{"blank", "", fakeLyricsSearch{}, http.StatusBadRequest},
		{"found", "hello", fakeLyricsSearch{text: "Hello", track: "Song — Band"}, http.StatusOK},
		{"missing", "nothing", fakeLyricsSearch{}, http.StatusNotFound},
		{"failure", "boom", fakeLyricsSearch{err: lyrics.ErrLookupFailed}, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			*h.lyrics = tt.search
			rec := h.do(t, http.MethodGet, "/api/lyrics/search?q="+tt.query, nil)
			if rec.Code != tt.wantCode {
				t.Errorf("GET /api/lyrics/search = %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}

func TestLibraryRoutes(t *testing.T) {
	h := newHarness(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "Night Drive.mp3")
	if err := os.WriteFile(path, []byte("fake audio"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	rec := h.do(t, http.MethodPost, "/api/library", gin.H{"paths": []string{path, filepath.Join(dir, "notes.txt")}})
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /api/library = %d: %s", rec.Code, rec.Body.String())
	}
	if rec := h.do(t, http.MethodPost, "/api/library", gin.H{"paths": []string{filepath.Join(dir, "notes.txt")}}); rec.Code != http.StatusBadRequest {
		t.Errorf("ingesting only unusable paths = %d, want 400", rec.Code)
	}

	listed := decode[[]models.Track](t, h.do(t, http.MethodGet, "/api/library", nil))
	if len(listed) != 1 || listed[0].Title != "Night Drive" {
		t.Fatalf("library = %+v", listed)
	}
	id := listed[0].SourceID

	rec = h.do(t, http.MethodGet, library.MediaPrefix+id, nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "fake audio" {
		t.Errorf("GET media = %d %q", rec.Code, rec.Body.String())
	}
	if rec := h.do(t, http.MethodGet, library.MediaPrefix+"nope", nil); rec.Code != http.StatusNotFound {
		t.Errorf("GET unknown media = %d, want 404", rec.Code)
	}

	if rec := h.do(t, http.MethodPost, "/api/library/"+id+"/queue", gin.H{"play": true}); rec.Code != http.StatusCreated {
		t.Errorf("queue library track = %d: %s", rec.Code, rec.Body.String())
	}
	if h.element.Source() != library.MediaPrefix+id {
		t.Errorf("element source = %q", h.element.Source())
	}
	if rec := h.do(t, http.MethodPost, "/api/library/nope/queue", nil); rec.Code != http.StatusNotFound {
		t.Errorf("queue unknown library track = %d, want 404", rec.Code)
	}

	if rec := h.do(t, http.MethodDelete, "/api/library", nil); rec.Code != http.StatusNoContent {
		t.Errorf("DELETE /api/library = %d, want 204", rec.Code)
	}
	if got := decode[[]models.Track](t, h.do(t, http.MethodGet, "/api/library", nil)); len(got) != 0 {
		t.Errorf("library after clear has %d tracks", len(got))
	}
}

func TestThemeAndShortcuts(t *testing.T) {
	h := newHarness(t)

	if body := decode[map[string]string](t, h.do(t, http.MethodGet, "/api/theme", nil)); body["theme"] != ThemeDark {
		t.Errorf("default theme = %q, want dark", body["theme"])
	}
	if rec := h.do(t, http.MethodPut, "/api/theme", gin.H{"theme": "sepia"}); rec.Code != http.StatusBadRequest {
		t.Errorf("PUT unknown theme = %d, want 400", rec.Code)
	}
	h.do(t, http.MethodPut, "/api/theme", gin.H{"theme": "Light"})
	if theme := NewTheme(h.store).Current(); theme != ThemeLight {
		t.Errorf("persisted theme = %q, want light", theme)
	}

	shortcuts := decode[[]Shortcut](t, h.do(t, http.MethodGet, "/api/shortcuts", nil))
	if len(shortcuts) != len(Shortcuts) {
		t.Errorf("GET /api/shortcuts returned %d entries, want %d", len(shortcuts), len(Shortcuts))
	}

	tests := []struct {
		key      string
		wantCode int
		field    string
		want     any
	}{
		{"t", http.StatusOK, "theme", ThemeDark},
		{"S", http.StatusOK, "shuffle", true},
		{"r", http.StatusOK, "repeat", true},
		{"%20", http.StatusOK, "playing", false},
		{"space", http.StatusOK, "action", "toggle-play"},
		{"x", http.StatusNotFound, "", nil},
	}
	for _, tt := range tests {
		rec := h.do(t, http.MethodPost, "/api/keys/"+tt.key, nil)
		if rec.Code != tt.wantCode {
			t.Errorf("POST /api/keys/%s = %d, want %d", tt.key, rec.Code, tt.wantCode)
			continue
		}
		if tt.field == "" {
			continue
		}
		if got := decode[map[string]any](t, rec)[tt.field]; got != tt.want {
			t.Errorf("POST /api/keys/%s %s = %v, want %v", tt.key, tt.field, got, tt.want)
		}
	}
}

func TestDispatchClientOnlyShortcut(t *testing.T) {
	h := newHarness(t)
	manager := NewManager(Options{Controller: h.controller, Events: h.events})

	result, err := manager.Dispatch("/")
	if err != nil {
		t.Fatalf("Dispatch(/) error = %v", err)
	}
	if result["action"] != "focus-search" || result["client_only"] != true {
		t.Errorf("Dispatch(/) = %v", result)
	}
	if _, err := manager.Dispatch("q"); !errors.Is(err, ErrUnknownShortcut) {
		t.Errorf("Dispatch(q) error = %v, want ErrUnknownShortcut", err)
	}
}

func TestHistoryRoutes(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/history?limit=500", nil)
	if rec.Code != http.StatusOK || h.history.limit != 100 {
		t.Errorf("GET /api/history = %d with limit %d, want 200 and 100", rec.Code, h.history.limit)
	}
	rec = h.do(t, http.MethodGet, "/api/history/top", nil)
	if top := decode[[]database.MostPlayedRecord](t, rec); len(top) != 1 || h.history.limit != 10 {
		t.Errorf("GET /api/history/top = %+v with limit %d", top, h.history.limit)
	}

	h.history.err = errors.New("disk gone")
	if rec := h.do(t, http.MethodGet, "/api/history", nil); rec.Code != http.StatusInternalServerError {
		t.Errorf("history failure = %d, want 500", rec.Code)
	}
}

func TestEventStream(t *testing.T) {
	h := newHarness(t)
	server := httptest.NewServer(h.router)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/events", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/events: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("Content-Type = %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	waitFor := func(event string) {
		t.Helper()
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				t.Fatalf("reading stream while waiting for %s: %v", event, err)
			}
			if strings.TrimSpace(line) == "event:"+event {
				return
			}
		}
	}

	waitFor(controller.EventQueue)
	waitFor(EventTheme)

	h.element.Load("https://cdn.example/x.mp3")
	waitFor(audio.EventLoad)
}

func TestAppendURLSplitsArtistFromTitle(t *testing.T) {
	h := newHarness(t)

	h.do(t, http.MethodPost, "/api/queue", gin.H{"url": "https://x.example/a.mp3", "title": "Queen - Bohemian Rhapsody (Official Audio)"})
	h.do(t, http.MethodPost, "/api/queue", gin.H{"url": "https://x.example/b.mp3", "title": "Live - Set", "artist": "DJ"})

	queue := h.controller.Snapshot().Queue
	if queue[0].Artist != "Queen" || queue[0].Title != "Bohemian Rhapsody" {
		t.Errorf("first track = %q by %q", queue[0].Title, queue[0].Artist)
	}
	if queue[1].Artist != "DJ" || queue[1].Title != "Live - Set" {
		t.Errorf("an explicit artist should keep the title whole, got %q by %q", queue[1].Title, queue[1].Artist)
	}
}

func TestGetPlayer(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodPost, "/api/queue", gin.H{"track": track("a"), "play": true})
	h.do(t, http.MethodPost, "/api/player/events", gin.H{"event": "timeupdate", "src": track("a").PlayableURL, "current_time": 65, "duration": 130})

	state := decode[audio.ElementState](t, h.do(t, http.MethodGet, "/api/player", nil))
	if state.Elapsed != "1:05" || state.Total != "2:10" {
		t.Errorf("clock = %s / %s, want 1:05 / 2:10", state.Elapsed, state.Total)
	}
	if !strings.HasSuffix(state.Progress, "1:05 / 2:10") {
		t.Errorf("Progress = %q", state.Progress)
	}
}
