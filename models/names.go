package models

import "strings"

var titleNoise = []string{
	"(Official Video)", "(Official Music Video)", "(Official Audio)",
	"(Lyrics)", "(Lyric Video)", "(Audio)", "(Visualizer)",
	"[Official Video]", "[Official Music Video]", "[Official Audio]",
	"[Lyrics]", "[Lyric Video]", "[Audio]",
}

var featuring = []string{" ft.", " feat.", " ft ", " feat ", " featuring "}

// SplitArtistTitle reads names like "Artist - Title (Official Video)" as
// found in file names and stream titles. Artist is empty when raw has no
// " - " separator; featured artists are dropped from it.
func SplitArtistTitle(raw string) (artist, title string) {
	cleaned := raw
	for _, noise := range titleNoise {
		cleaned = strings.Replace(cleaned, noise, "", 1)
	}
	cleaned = strings.TrimSpace(cleaned)

	parts := strings.SplitN(cleaned, " - ", 2)
	if len(parts) != 2 {
		return "", cleaned
	}

	artist = strings.TrimSpace(parts[0])
	for _, feat := range featuring {
		if idx := strings.Index(strings.ToLower(artist), feat); idx != -1 {
			artist = strings.TrimSpace(artist[:idx])
		}
	}
	title = strings.TrimSpace(parts[1])
	if artist == "" || title == "" {
		return "", cleaned
	}
	return artist, title
}
