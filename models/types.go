package models

import (
	"errors"
	"fmt"
	"strings"
)

type Origin string

const (
	OriginRemoteSearch Origin = "remote-search"
	OriginLocalFile    Origin = "local-file"
	OriginGenericURL   Origin = "generic-url"
)

var (
	ErrNoPlayableURL = errors.New("track has no playable url")
	ErrUnknownOrigin = errors.New("track has an unknown origin")
)

// Track is a playable item, whatever it came from. PlayableURL is resolved
// before the track reaches the queue; for search results it is usually a
// short preview.
type Track struct {
	Origin      Origin `json:"origin"`
	Title       string `json:"title"`
	Artist      string `json:"artist,omitempty"`
	CoverURL    string `json:"cover_url,omitempty"`
	PlayableURL string `json:"playable_url"`
	SourceID    string `json:"source_id,omitempty"`
}

func (o Origin) Valid() bool {
	switch o {
	case OriginRemoteSearch, OriginLocalFile, OriginGenericURL:
		return true
	}
	return false
}

// Validate reports whether the track may enter the queue.
func (t Track) Validate() error {
	if !t.Origin.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownOrigin, t.Origin)
	}
	if strings.TrimSpace(t.PlayableURL) == "" {
		return ErrNoPlayableURL
	}
	return nil
}

func (t Track) DisplayTitle() string {
	if t.Title == "" {
		return "Untitled"
	}
	return t.Title
}

func (t Track) DisplayArtist() string {
	if t.Artist != "" {
		return t.Artist
	}
	if t.Origin == OriginLocalFile {
		return "Local file"
	}
	return "Unknown"
}
