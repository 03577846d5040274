package audio

import (
	"errors"
	"fmt"
	"math"
	"sync"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
)

var (
	ErrUnknownEvent = errors.New("unknown media event")
	ErrStaleReport  = errors.New("report is for a source that is no longer loaded")
)

type Publisher interface {
	Publish(eventType string, data any)
}

// Element mirrors the browser's single audio element. Commands are
// published to the client as instructions; the client reports back what
// the real element did, which keeps the clock here current.
type Element struct {
	Notifications chan PlaybackNotification

	publisher   Publisher
	logger      *log.Entry
	mutex       sync.Mutex
	src         string
	paused      bool
	currentTime float64
	duration    float64
	volume      float64
	muted       bool
}

func NewElement(publisher Publisher) *Element {
	return &Element{
		Notifications: make(chan PlaybackNotification, 100),
		publisher:     publisher,
		logger:        log.WithFields(log.Fields{"module": "audio"}),
		paused:        true,
		volume:        1,
	}
}

func (e *Element) publish(eventType string, data any) {
	if e.publisher != nil {
		e.publisher.Publish(eventType, data)
	}
}

// Load sets the source and begins playback from zero.
func (e *Element) Load(url string) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.src = url
	e.paused = false
	e.currentTime = 0
	e.duration = 0
	e.logger.Debugf("loading %s", url)
	e.publish(EventLoad, map[string]any{"src": url, "autoplay": true})
}

// Detach removes the source, which also stops playback.
func (e *Element) Detach() {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.src = ""
	e.paused = true
	e.currentTime = 0
	e.duration = 0
	e.publish(EventDetach, nil)
}

func (e *Element) Play() {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.src == "" {
		e.logger.Trace("play ignored, no source attached")
		return
	}
	e.paused = false
	e.publish(EventPlay, nil)
}

func (e *Element) Pause() {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.paused = true
	e.publish(EventPause, nil)
}

func (e *Element) Seek(seconds float64) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	e.currentTime = seconds
	e.publish(EventSeek, map[string]float64{"time": seconds})
}

func (e *Element) SetVolume(volume float64) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.volume = math.Max(0, math.Min(1, volume))
	e.publish(EventVolume, map[string]float64{"volume": e.volume})
}

func (e *Element) SetMuted(muted bool) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.muted = muted
	e.publish(EventMute, map[string]bool{"muted": muted})
}

func (e *Element) Source() string {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.src
}

func (e *Element) Paused() bool {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.paused
}

func (e *Element) Muted() bool {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.muted
}

func (e *Element) CurrentTime() float64 {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.currentTime
}

func (e *Element) Duration() float64 {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.duration
}

func (e *Element) State() ElementState {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return ElementState{
		Source:      e.src,
		Paused:      e.paused,
		CurrentTime: e.currentTime,
		Duration:    e.duration,
		Volume:      e.volume,
		Muted:       e.muted,
		Elapsed:     FormatClock(e.currentTime),
		Total:       FormatClock(e.duration),
		Progress:    ProgressBar(e.currentTime, e.duration, ProgressBarWidth),
	}
}

// Report applies an event observed on the real element and forwards it as
// a notification. Reports naming a source other than the loaded one are
// dropped so a late "ended" cannot skip the track that replaced it.
func (e *Element) Report(r Report) error {
	if !r.Event.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownEvent, r.Event)
	}

	e.mutex.Lock()
	if r.Source != "" && r.Source != e.src {
		e.mutex.Unlock()
		e.logger.Tracef("dropping %s report for stale source %s", r.Event, r.Source)
		return ErrStaleReport
	}

	if r.Duration > 0 && !math.IsInf(r.Duration, 0) {
		e.duration = r.Duration
	}
	if r.CurrentTime >= 0 && !math.IsNaN(r.CurrentTime) {
		e.currentTime = r.CurrentTime
	}
	switch r.Event {
	case PlaybackStarted:
		e.paused = false
	case PlaybackPaused, PlaybackCompleted:
		e.paused = true
	}

	notification := PlaybackNotification{
		Event:       r.Event,
		Source:      e.src,
		CurrentTime: e.currentTime,
		Duration:    e.duration,
	}
	e.mutex.Unlock()

	select {
	case e.Notifications <- notification:
	default:
		msg := "playback notifications channel is full, dropping " + string(r.Event)
		sentry.CaptureMessage(msg)
		e.logger.Warn(msg)
	}
	return nil
}
