package controller

import (
	"context"
	"math"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"retroplayer/audio"
	"retroplayer/models"
)

// Store keys shared with the browser build of the player.
const (
	KeyQueue      = "rp_queue"
	KeyQueueIndex = "rp_queueIndex"
	KeyShuffle    = "rp_shuffle"
	KeyRepeat     = "rp_repeat"
	KeyVolume     = "rp_volume"
)

// Events published to clients.
const (
	EventQueue           = "queue"
	EventNowPlaying      = "nowplaying"
	EventPlayback        = "playback"
	EventVisualizerReset = "visualizer.reset"
)

const DefaultRestartThreshold = 3.0

type Store interface {
	Get(key string, out any) bool
	Set(key string, value any)
}

type Media interface {
	Load(url string)
	Detach()
	Play()
	Pause()
	Seek(seconds float64)
	SetVolume(volume float64)
	SetMuted(muted bool)
	Source() string
	Paused() bool
	Muted() bool
	CurrentTime() float64
	Duration() float64
}

type LyricsLoader interface {
	Request(title, artist string)
	Clear()
	Sync(seconds float64)
}

type History interface {
	RecordPlay(track models.Track) error
}

type Publisher interface {
	Publish(eventType string, data any)
}

// Rand picks shuffle targets. *math/rand/v2.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

type Options struct {
	Store     Store
	Media     Media
	Lyrics    LyricsLoader
	History   History
	Publisher Publisher
	Rand      Rand
	// RestartThreshold is how far into a track, in seconds, Previous
	// restarts it instead of going back.
	RestartThreshold float64
}

type Snapshot struct {
	Queue       []models.Track `json:"queue"`
	Index       int            `json:"index"`
	Current     *models.Track  `json:"current,omitempty"`
	Shuffle     bool           `json:"shuffle"`
	Repeat      bool           `json:"repeat"`
	Volume      float64        `json:"volume"`
	Muted       bool           `json:"muted"`
	Paused      bool           `json:"paused"`
	CurrentTime float64        `json:"current_time"`
	Duration    float64        `json:"duration"`
}

// Controller owns the play queue. Every operation runs to completion
// under one lock, so the queue, index and flags always change together.
// When the queue is non-empty, 0 <= index < len(queue); when it is empty
// the index is 0.
type Controller struct {
	store            Store
	media            Media
	lyrics           LyricsLoader
	history          History
	publisher        Publisher
	rand             Rand
	restartThreshold float64
	logger           *log.Entry

	mutex   sync.Mutex
	queue   []models.Track
	index   int
	shuffle bool
	repeat  bool
	volume  float64
}

type noopLyrics struct{}

func (noopLyrics) Request(string, string) {}
func (noopLyrics) Clear()                 {}
func (noopLyrics) Sync(float64)           {}

type noopPublisher struct{}

func (noopPublisher) Publish(string, any) {}

type defaultRand struct{}

func (defaultRand) IntN(n int) int { return rand.IntN(n) }

type memoryStore struct{}

func (memoryStore) Get(string, any) bool { return false }
func (memoryStore) Set(string, any)      {}

// New builds a controller and restores the queue, index, flags and volume
// from the store. Playback does not start until Resume or a load.
func New(opts Options) *Controller {
	c := &Controller{
		store:            opts.Store,
		media:            opts.Media,
		lyrics:           opts.Lyrics,
		history:          opts.History,
		publisher:        opts.Publisher,
		rand:             opts.Rand,
		restartThreshold: opts.RestartThreshold,
		logger:           log.WithFields(log.Fields{"module": "controller"}),
		volume:           1,
	}
	if c.store == nil {
		c.store = memoryStore{}
	}
	if c.lyrics == nil {
		c.lyrics = noopLyrics{}
	}
	if c.publisher == nil {
		c.publisher = noopPublisher{}
	}
	if c.rand == nil {
		c.rand = defaultRand{}
	}
	if c.restartThreshold <= 0 {
		c.restartThreshold = DefaultRestartThreshold
	}

	c.restore()
	return c
}

func (c *Controller) restore() {
	logger := c.logger.WithField("method", "restore")

	var queue []models.Track
	if !c.store.Get(KeyQueue, &queue) {
		queue = nil
	}
	c.queue = lo.Filter(queue, func(t models.Track, i int) bool {
		if err := t.Validate(); err != nil {
			logger.Warnf("dropping stored track %d: %v", i, err)
			return false
		}
		return true
	})

	var index int
	if !c.store.Get(KeyQueueIndex, &index) {
		index = 0
	}
	c.index = c.clampIndex(index)

	c.store.Get(KeyShuffle, &c.shuffle)
	c.store.Get(KeyRepeat, &c.repeat)

	volume := 1.0
	if !c.store.Get(KeyVolume, &volume) {
		volume = 1
	}
	c.volume = clampVolume(volume)
	if c.media != nil {
		c.media.SetVolume(c.volume)
	}

	logger.Debugf("restored %d tracks at index %d (shuffle=%t repeat=%t)", len(c.queue), c.index, c.shuffle, c.repeat)
}

func (c *Controller) clampIndex(index int) int {
	if len(c.queue) == 0 {
		return 0
	}
	return lo.Clamp(index, 0, len(c.queue)-1)
}

func clampVolume(volume float64) float64 {
	if math.IsNaN(volume) {
		return 1
	}
	return math.Max(0, math.Min(1, volume))
}

func (c *Controller) persistQueue() {
	queue := c.queue
	if queue == nil {
		queue = []models.Track{}
	}
	c.store.Set(KeyQueue, queue)
	c.store.Set(KeyQueueIndex, c.index)
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		Queue:   slices.Clone(c.queue),
		Index:   c.index,
		Shuffle: c.shuffle,
		Repeat:  c.repeat,
		Volume:  c.volume,
		Paused:  true,
	}
	if snap.Queue == nil {
		snap.Queue = []models.Track{}
	}
	if len(c.queue) > 0 {
		current := c.queue[c.index]
		snap.Current = &current
	}
	if c.media != nil {
		snap.Muted = c.media.Muted()
		snap.Paused = c.media.Paused()
		snap.CurrentTime = c.media.CurrentTime()
		snap.Duration = c.media.Duration()
	}
	return snap
}

func (c *Controller) publishQueue() {
	c.publisher.Publish(EventQueue, c.snapshotLocked())
}

func (c *Controller) Snapshot() Snapshot {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.queue)
}

// Append adds a track to the end of the queue and, if play is set, loads
// it. Tracks without a playable URL are refused.
func (c *Controller) Append(track models.Track, play bool) error {
	if err := track.Validate(); err != nil {
		c.logger.WithField("method", "Append").Warnf("refusing track %q: %v", track.Title, err)
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.queue = append(c.queue, track)
	c.persistQueue()
	c.publishQueue()
	c.logger.Debugf("appended %q, queue length %d", track.DisplayTitle(), len(c.queue))

	if play {
		c.loadAtLocked(len(c.queue) - 1)
	}
	return nil
}

// RemoveAt deletes the entry at index. It reports false and changes
// nothing when index is out of range. The playing track is not reloaded.
func (c *Controller) RemoveAt(index int) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if index < 0 || index >= len(c.queue) {
		c.logger.Tracef("RemoveAt(%d) out of range for %d tracks", index, len(c.queue))
		return false
	}

	c.queue = slices.Delete(c.queue, index, index+1)
	if c.index > len(c.queue)-1 {
		c.index = max(len(c.queue)-1, 0)
	}

	c.persistQueue()
	c.publishQueue()
	return true
}

// Reorder rebuilds the queue so position i holds the track previously at
// order[i]. order must be a permutation of the current indices. The index
// stays at the same position, so the playing track may now be a
// different entry.
func (c *Controller) Reorder(order []int) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.reorderLocked(order)
}

func (c *Controller) reorderLocked(order []int) bool {
	if !isPermutation(order, len(c.queue)) {
		c.logger.Tracef("rejecting reorder %v for %d tracks", order, len(c.queue))
		return false
	}

	c.queue = lo.Map(order, func(from int, _ int) models.Track { return c.queue[from] })
	c.index = c.clampIndex(c.index)

	c.persistQueue()
	c.publishQueue()
	return true
}

func isPermutation(order []int, n int) bool {
	if len(order) != n {
		return false
	}
	inRange := lo.EveryBy(order, func(i int) bool { return i >= 0 && i < n })
	return inRange && len(lo.Uniq(order)) == n
}

// Move is the drop at the end of a drag: the entry at from ends up at to.
func (c *Controller) Move(from, to int) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	n := len(c.queue)
	if from < 0 || from >= n || to < 0 || to >= n {
		return false
	}

	order := lo.Range(n)
	order = slices.Delete(order, from, from+1)
	order = slices.Insert(order, to, from)
	return c.reorderLocked(order)
}

func (c *Controller) LoadAt(index int) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.loadAtLocked(index)
}

func (c *Controller) loadAtLocked(index int) {
	logger := c.logger.WithField("method", "loadAt")

	if len(c.queue) == 0 {
		logger.Trace("queue is empty, detaching media")
		c.index = 0
		if c.media != nil {
			c.media.Detach()
		}
		c.lyrics.Clear()
		c.publisher.Publish(EventNowPlaying, nil)
		return
	}

	c.index = c.clampIndex(index)
	track := c.queue[c.index]

	if c.media != nil {
		c.media.Load(track.PlayableURL)
	}
	c.store.Set(KeyQueueIndex, c.index)

	c.lyrics.Request(track.Title, track.Artist)
	c.publisher.Publish(EventVisualizerReset, nil)
	c.publisher.Publish(EventNowPlaying, map[string]any{
		"index":  c.index,
		"track":  track,
		"title":  track.DisplayTitle(),
		"artist": track.DisplayArtist(),
	})
	logger.Debugf("loaded %q at index %d", track.DisplayTitle(), c.index)

	if c.history != nil {
		if err := c.history.RecordPlay(track); err != nil {
			logger.Warnf("failed to record play: %v", err)
		}
	}
}

// Advance moves to the next track: a random one when shuffling, the next
// one otherwise, wrapping to the first only when repeating.
func (c *Controller) Advance() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.advanceLocked()
}

func (c *Controller) advanceLocked() {
	n := len(c.queue)
	switch {
	case n == 0:
		return
	case c.shuffle:
		c.loadAtLocked(c.rand.IntN(n))
	case c.index < n-1:
		c.loadAtLocked(c.index + 1)
	case c.repeat:
		c.loadAtLocked(0)
	default:
		c.logger.Trace("reached the end of the queue")
	}
}

// OnEnded handles the media element finishing a track. A single repeating
// track restarts in place.
func (c *Controller) OnEnded() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.repeat && len(c.queue) == 1 {
		if c.media != nil {
			c.media.Seek(0)
			c.media.Play()
		}
		return
	}
	c.advanceLocked()
}

// Previous restarts the current track when it has played past the restart
// threshold, and otherwise goes back one, wrapping only when repeating.
func (c *Controller) Previous() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	n := len(c.queue)
	if n == 0 {
		return
	}

	if c.media != nil && c.media.CurrentTime() > c.restartThreshold {
		c.media.Seek(0)
		return
	}

	switch {
	case c.index > 0:
		c.loadAtLocked(c.index - 1)
	case c.repeat:
		c.loadAtLocked(n - 1)
	default:
		c.loadAtLocked(0)
	}
}

func (c *Controller) ToggleShuffle() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.shuffle = !c.shuffle
	c.store.Set(KeyShuffle, c.shuffle)
	c.publishQueue()
	return c.shuffle
}

func (c *Controller) ToggleRepeat() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.repeat = !c.repeat
	c.store.Set(KeyRepeat, c.repeat)
	c.publishQueue()
	return c.repeat
}

// Clear empties the queue and detaches the media source, which stops
// playback.
func (c *Controller) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.queue = []models.Track{}
	c.index = 0
	if c.media != nil {
		c.media.Detach()
	}
	c.lyrics.Clear()
	c.publisher.Publish(EventNowPlaying, nil)

	c.persistQueue()
	c.publishQueue()
}

// TogglePlay flips between playing and paused when a source is attached
// and reports whether the media is now playing.
func (c *Controller) TogglePlay() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.media == nil || c.media.Source() == "" {
		return false
	}
	if c.media.Paused() {
		c.media.Play()
		return true
	}
	c.media.Pause()
	return false
}

func (c *Controller) SetVolume(volume float64) float64 {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.volume = clampVolume(volume)
	if c.media != nil {
		c.media.SetVolume(c.volume)
	}
	c.store.Set(KeyVolume, c.volume)
	return c.volume
}

func (c *Controller) ToggleMute() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.media == nil {
		return false
	}
	muted := !c.media.Muted()
	c.media.SetMuted(muted)
	return muted
}

// SeekFraction seeks to a fraction of the track's duration. Nothing
// happens until the duration is known.
func (c *Controller) SeekFraction(fraction float64) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.media == nil {
		return false
	}
	duration := c.media.Duration()
	if duration <= 0 || math.IsInf(duration, 0) || math.IsNaN(fraction) {
		return false
	}
	c.media.Seek(math.Max(0, math.Min(1, fraction)) * duration)
	return true
}

// Resume loads the restored index after a restart.
func (c *Controller) Resume() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if len(c.queue) > 0 {
		c.loadAtLocked(c.index)
	}
}

// Listen dispatches media notifications until ctx is done or the channel
// is closed.
func (c *Controller) Listen(ctx context.Context, notifications <-chan audio.PlaybackNotification) {
	logger := c.logger.WithField("method", "Listen")
	for {
		select {
		case <-ctx.Done():
			logger.Debug("stopping playback listener")
			return
		case event, ok := <-notifications:
			if !ok {
				return
			}
			c.handleNotification(event)
		}
	}
}

func (c *Controller) handleNotification(event audio.PlaybackNotification) {
	switch event.Event {
	case audio.PlaybackCompleted:
		c.logger.Tracef("playback completed: %s", event.Source)
		c.OnEnded()
	case audio.PlaybackTimeUpdate:
		c.lyrics.Sync(event.CurrentTime)
	case audio.PlaybackStarted, audio.PlaybackPaused:
		c.logger.Tracef("playback event: %s", event.Event)
		c.publisher.Publish(EventPlayback, map[string]any{
			"paused":       event.Event == audio.PlaybackPaused,
			"current_time": event.CurrentTime,
			"duration":     event.Duration,
		})
	default:
		c.logger.Warnf("Unknown playback event: %s", event.Event)
	}
}
