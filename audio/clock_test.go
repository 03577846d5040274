package audio

import (
	"math"
	"testing"
)

func TestFormatClock(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		want    string
	}{
		{"zero", 0, "0:00"},
		{"30 seconds", 30, "0:30"},
		{"fraction floors", 59.9, "0:59"},
		{"minutes", 3*60 + 32, "3:32"},
		{"long track", 12*60 + 5, "12:05"},
		{"over an hour", 3600 + 2*60 + 3, "1:02:03"},
		{"negative", -4, "0:00"},
		{"unknown", math.NaN(), "0:00"},
		{"live stream", math.Inf(1), "0:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatClock(tt.seconds); got != tt.want {
				t.Errorf("FormatClock() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		name           string
		current, total float64
		width          int
		want           string
	}{
		{"zero duration", 0, 0, 15, "░░░░░░░░░░░░░░░ 0:00 / 0:00"},
		{"start", 0, 200, 10, "░░░░░░░░░░ 0:00 / 3:20"},
		{"half way", 100, 200, 10, "▓▓▓▓▓░░░░░ 1:40 / 3:20"},
		{"past the end", 250, 200, 4, "▓▓▓▓ 4:10 / 3:20"},
		{"unknown duration", 5, math.Inf(1), 3, "░░░ 0:00 / 0:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ProgressBar(tt.current, tt.total, tt.width); got != tt.want {
				t.Errorf("ProgressBar() = %q, want %q", got, tt.want)
			}
		})
	}
}
