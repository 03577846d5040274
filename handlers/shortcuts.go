package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

var ErrUnknownShortcut = errors.New("unknown shortcut")

// Shortcut is one entry of the keyboard map. ClientOnly shortcuts only
// change the page (focusing the search box) and do nothing on the server.
type Shortcut struct {
	Key         string `json:"key"`
	Action      string `json:"action"`
	Description string `json:"description"`
	ClientOnly  bool   `json:"client_only,omitempty"`
}

var Shortcuts = []Shortcut{
	{Key: "/", Action: "focus-search", Description: "focus the search box", ClientOnly: true},
	{Key: "space", Action: "toggle-play", Description: "play or pause"},
	{Key: "k", Action: "previous", Description: "go to the previous track"},
	{Key: "l", Action: "next", Description: "skip to the next track"},
	{Key: "m", Action: "mute", Description: "mute or unmute"},
	{Key: "s", Action: "shuffle", Description: "toggle shuffle"},
	{Key: "r", Action: "repeat", Description: "toggle repeat"},
	{Key: "t", Action: "theme", Description: "switch between dark and light"},
}

func normalizeKey(key string) string {
	if key == " " {
		return "space"
	}
	return strings.ToLower(strings.TrimSpace(key))
}

// Dispatch runs the action bound to key and returns the resulting state.
func (m *Manager) Dispatch(key string) (gin.H, error) {
	shortcut, ok := lo.Find(Shortcuts, func(s Shortcut) bool { return s.Key == normalizeKey(key) })
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownShortcut, key)
	}

	result := gin.H{"action": shortcut.Action}
	switch shortcut.Action {
	case "focus-search":
		result["client_only"] = true
	case "toggle-play":
		result["playing"] = m.controller.TogglePlay()
	case "previous":
		m.controller.Previous()
		result["queue"] = m.controller.Snapshot()
	case "next":
		m.controller.Advance()
		result["queue"] = m.controller.Snapshot()
	case "mute":
		result["muted"] = m.controller.ToggleMute()
	case "shuffle":
		result["shuffle"] = m.controller.ToggleShuffle()
	case "repeat":
		result["repeat"] = m.controller.ToggleRepeat()
	case "theme":
		theme := m.theme.Toggle()
		m.events.Publish(EventTheme, theme)
		result["theme"] = theme
	}

	m.logger.WithField("method", "Dispatch").Tracef("shortcut %s ran %s", shortcut.Key, shortcut.Action)
	return result, nil
}
