package audio

// PlaybackNotificationType values match the DOM media event names the
// browser reports.
type PlaybackNotificationType string

const (
	PlaybackStarted    PlaybackNotificationType = "play"
	PlaybackPaused     PlaybackNotificationType = "pause"
	PlaybackCompleted  PlaybackNotificationType = "ended"
	PlaybackTimeUpdate PlaybackNotificationType = "timeupdate"
)

func (t PlaybackNotificationType) Valid() bool {
	switch t {
	case PlaybackStarted, PlaybackPaused, PlaybackCompleted, PlaybackTimeUpdate:
		return true
	}
	return false
}

type PlaybackNotification struct {
	Event       PlaybackNotificationType
	Source      string
	CurrentTime float64
	Duration    float64
}

// Report is what the browser posts for every media element event.
type Report struct {
	Event       PlaybackNotificationType `json:"event" binding:"required"`
	Source      string                   `json:"src"`
	CurrentTime float64                  `json:"current_time"`
	Duration    float64                  `json:"duration"`
}

// ElementState is a point-in-time copy of the mirrored element.
type ElementState struct {
	Source      string  `json:"src"`
	Paused      bool    `json:"paused"`
	CurrentTime float64 `json:"current_time"`
	Duration    float64 `json:"duration"`
	Volume      float64 `json:"volume"`
	Muted       bool    `json:"muted"`
	Elapsed     string  `json:"elapsed"`
	Total       string  `json:"total"`
	Progress    string  `json:"progress"`
}

// Instruction event types published to clients.
const (
	EventLoad   = "media.load"
	EventDetach = "media.detach"
	EventPlay   = "media.play"
	EventPause  = "media.pause"
	EventSeek   = "media.seek"
	EventVolume = "media.volume"
	EventMute   = "media.mute"
)
