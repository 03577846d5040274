package audio

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const ProgressBarWidth = 15

// FormatClock formats a media position in seconds as M:SS, or H:MM:SS
// past the hour. Unknown positions (NaN, infinite, negative) read 0:00.
func FormatClock(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return "0:00"
	}

	d := time.Duration(math.Floor(seconds)) * time.Second
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// ProgressBar renders position within a track as a text bar followed by
// the elapsed and total clocks.
func ProgressBar(current, total float64, width int) string {
	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return strings.Repeat("░", width) + " 0:00 / 0:00"
	}

	percentage := math.Max(0, math.Min(current/total, 1))
	filled := min(int(percentage*float64(width)), width)

	bar := strings.Repeat("▓", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s %s / %s", bar, FormatClock(current), FormatClock(total))
}
