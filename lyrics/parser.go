package lyrics

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// A marker is [m:ss] or [m:ss.ff]; text runs to the end of the line.
var lrcMarker = regexp.MustCompile(`\[(\d{1,2}):(\d{2})(?:\.(\d{1,2}))?\][ \t]*([^\r\n]*)`)

var lineBreaks = regexp.MustCompile(`[\r\n]+`)

type Line struct {
	Timestamp *float64 `json:"timestamp"`
	Text      string   `json:"text"`
}

func (l Line) Timed() bool {
	return l.Timestamp != nil
}

// Document is sorted ascending by timestamp; untimed lines come last.
type Document struct {
	Lines []Line `json:"lines"`
}

func (d Document) Empty() bool {
	return len(d.Lines) == 0
}

func (d Document) Texts() []string {
	texts := make([]string, len(d.Lines))
	for i, line := range d.Lines {
		texts[i] = line.Text
	}
	return texts
}

// Parse extracts every well-formed timestamp marker from a synced payload.
// The fractional part counts hundredths as written, so ".5" is 0.05s.
// Anything that is not a marker is dropped.
func Parse(payload string) Document {
	matches := lrcMarker.FindAllStringSubmatch(payload, -1)
	lines := make([]Line, 0, len(matches))

	for _, m := range matches {
		minutes, _ := strconv.Atoi(m[1])
		seconds, _ := strconv.Atoi(m[2])
		hundredths := 0
		if m[3] != "" {
			hundredths, _ = strconv.Atoi(m[3])
		}

		ts := float64(minutes*60+seconds) + float64(hundredths)/100
		lines = append(lines, Line{Timestamp: &ts, Text: strings.TrimRight(m[4], " \t")})
	}

	sortLines(lines)
	return Document{Lines: lines}
}

// ParsePlain turns unsynced text into untimed lines, one per non-empty line.
func ParsePlain(text string) Document {
	var lines []Line
	for _, part := range lineBreaks.Split(text, -1) {
		if part == "" {
			continue
		}
		lines = append(lines, Line{Text: part})
	}
	return Document{Lines: lines}
}

func sortLines(lines []Line) {
	slices.SortStableFunc(lines, func(a, b Line) int {
		switch {
		case a.Timestamp == nil && b.Timestamp == nil:
			return 0
		case a.Timestamp == nil:
			return 1
		case b.Timestamp == nil:
			return -1
		case *a.Timestamp < *b.Timestamp:
			return -1
		case *a.Timestamp > *b.Timestamp:
			return 1
		}
		return 0
	})
}

// Resolve returns the index of the line active at seconds, or -1.
// A line is active from its timestamp until the next line's; an untimed
// next line counts as never arriving.
func (d Document) Resolve(seconds float64) int {
	for i, line := range d.Lines {
		if line.Timestamp == nil {
			continue
		}
		next := 0.0
		hasNext := i+1 < len(d.Lines) && d.Lines[i+1].Timestamp != nil
		if hasNext {
			next = *d.Lines[i+1].Timestamp
		}
		if seconds >= *line.Timestamp && (!hasNext || seconds < next) {
			return i
		}
	}
	return -1
}
