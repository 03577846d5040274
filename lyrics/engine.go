package lyrics

import (
	"context"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"retroplayer/sentryhelper"
)

// Fetcher looks up lyrics for a track. *Client satisfies it.
type Fetcher interface {
	Lookup(ctx context.Context, title, artist string) (*Result, error)
}

// Renderer receives every document replacement and every change of the
// active line.
type Renderer interface {
	Document(doc Document)
	ActiveLine(previous, active int)
}

type noopRenderer struct{}

func (noopRenderer) Document(Document)   {}
func (noopRenderer) ActiveLine(int, int) {}

type EngineOptions struct {
	Fetcher  Fetcher
	Renderer Renderer
	// DiscardStale drops a response when a newer lookup was started after
	// it. Off means the last response to arrive wins.
	DiscardStale bool
}

// State is what a client needs to draw the lyrics panel.
type State struct {
	Title   string `json:"title"`
	Artist  string `json:"artist"`
	Lines   []Line `json:"lines"`
	Active  int    `json:"active"`
	Loading bool   `json:"loading"`
	Found   bool   `json:"found"`
}

type Engine struct {
	fetcher      Fetcher
	renderer     Renderer
	discardStale bool
	logger       *log.Entry

	mutex      sync.Mutex
	document   Document
	active     int
	title      string
	artist     string
	generation uint64
	loading    bool

	pending sync.WaitGroup
}

func NewEngine(opts EngineOptions) *Engine {
	renderer := opts.Renderer
	if renderer == nil {
		renderer = noopRenderer{}
	}
	return &Engine{
		fetcher:      opts.Fetcher,
		renderer:     renderer,
		discardStale: opts.DiscardStale,
		logger:       log.WithFields(log.Fields{"module": "lyrics", "component": "engine"}),
		active:       -1,
	}
}

// Load fetches lyrics for a track and replaces the current document with
// the result. Synced lyrics win over plain ones; a failed or empty lookup
// leaves an empty document.
func (e *Engine) Load(ctx context.Context, title, artist string) {
	if strings.TrimSpace(title) == "" {
		e.Clear()
		return
	}
	e.load(ctx, e.begin(title, artist), title, artist)
}

// Request runs Load in the background. The track is current as soon as
// Request returns; only the lookup itself is asynchronous.
func (e *Engine) Request(title, artist string) {
	if strings.TrimSpace(title) == "" {
		e.Clear()
		return
	}
	generation := e.begin(title, artist)

	e.pending.Add(1)
	go func() {
		defer e.pending.Done()
		ctx, transaction := sentryhelper.StartTaskTransaction(context.Background(), "lyrics.request", "lyrics", map[string]string{
			"title":  title,
			"artist": artist,
		})
		defer transaction.Finish()

		e.load(ctx, generation, title, artist)
	}()
}

// Refresh repeats the lookup for the last requested track.
func (e *Engine) Refresh() bool {
	e.mutex.Lock()
	title, artist := e.title, e.artist
	e.mutex.Unlock()

	if title == "" {
		return false
	}
	e.Request(title, artist)
	return true
}

// Wait blocks until every lookup started by Request has been applied.
func (e *Engine) Wait() {
	e.pending.Wait()
}

// begin makes title the current track and returns the generation of its lookup.
func (e *Engine) begin(title, artist string) uint64 {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.generation++
	e.title = title
	e.artist = artist
	e.loading = true
	return e.generation
}

func (e *Engine) load(ctx context.Context, generation uint64, title, artist string) {
	e.apply(generation, e.fetch(ctx, title, artist))
}

func (e *Engine) Clear() {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.generation++
	e.title = ""
	e.artist = ""
	e.loading = false
	e.document = Document{}
	e.active = -1
	e.renderer.Document(e.document)
}

func (e *Engine) fetch(ctx context.Context, title, artist string) Document {
	logger := e.logger.WithFields(log.Fields{"method": "fetch", "title": title, "artist": artist})

	if e.fetcher == nil {
		return Document{}
	}

	sentryhelper.AddBreadcrumb(ctx, "lyrics", "lookup "+title+" by "+artist)
	result, err := e.fetcher.Lookup(ctx, title, artist)
	if err != nil {
		logger.Warnf("lyrics lookup failed: %v", err)
		sentryhelper.CaptureException(ctx, err)
		return Document{}
	}

	switch {
	case result == nil:
		logger.Debug("no lyrics found")
		sentryhelper.CaptureMessage(ctx, "no lyrics found for "+title)
		return Document{}
	case result.Synced != "":
		return Parse(result.Synced)
	case result.Plain != "":
		return ParsePlain(result.Plain)
	}
	return Document{}
}

func (e *Engine) apply(generation uint64, doc Document) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.discardStale && generation != e.generation {
		e.logger.Debugf("discarding stale lyrics response (generation %d, current %d)", generation, e.generation)
		return
	}

	if generation == e.generation {
		e.loading = false
	}
	e.document = doc
	e.active = -1
	e.renderer.Document(doc)
	e.logger.Tracef("lyrics document replaced with %d lines", len(doc.Lines))
}

// Resolve reports which line is active at seconds without changing state.
func (e *Engine) Resolve(seconds float64) int {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.document.Resolve(seconds)
}

// Sync moves the active line to match the playback clock. The renderer is
// only told about changes, so repeated ticks at the same position are free.
func (e *Engine) Sync(seconds float64) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.document.Empty() {
		return
	}

	active := e.document.Resolve(seconds)
	if active == e.active {
		return
	}
	previous := e.active
	e.active = active
	e.renderer.ActiveLine(previous, active)
}

func (e *Engine) Document() Document {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.document
}

func (e *Engine) Active() int {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.active
}

func (e *Engine) State() State {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return State{
		Title:   e.title,
		Artist:  e.artist,
		Lines:   e.document.Lines,
		Active:  e.active,
		Loading: e.loading,
		Found:   !e.document.Empty(),
	}
}
