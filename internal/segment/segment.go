// Package segment splits a video timeline into fixed narration windows.
package segment

import (
	"fmt"
	"math"
)

// WindowSeconds is the maximum length of one narration segment.
const WindowSeconds = 30

// Mode selects how many frames are captured per segment.
type Mode string

const (
	// ModeSingle captures one frame at the end of each segment.
	ModeSingle Mode = "single"
	// ModeMulti captures a frame every interval across the segment.
	ModeMulti  Mode = "multi"
)

// Intervals lists the supported capture intervals in seconds.
var Intervals = []int{3, 5, 10}

// Segment is one window of the video timeline.
type Segment struct {
	Index           int
	StartOffset     float64
	DurationSeconds float64
}

// End returns the offset where the segment stops.
func (s Segment) End() float64 {
	return s.StartOffset + s.DurationSeconds
}

// Plan covers totalSeconds with consecutive windows. Every window but the
// last is WindowSeconds long; the last absorbs the remainder. Unknown or
// non-positive durations yield a single full window.
func Plan(totalSeconds float64) []Segment {
	if math.IsNaN(totalSeconds) || math.IsInf(totalSeconds, 0) || totalSeconds <= 0 {
		return []Segment{{Index: 0, StartOffset: 0, DurationSeconds: WindowSeconds}}
	}

	count := int(math.Ceil(totalSeconds / WindowSeconds))
	segments := make([]Segment, 0, count)
	for i := 0; i < count; i++ {
		start := float64(i * WindowSeconds)
		duration := float64(WindowSeconds)
		if i == count-1 {
			duration = totalSeconds - start
		}
		segments = append(segments, Segment{Index: i, StartOffset: start, DurationSeconds: duration})
	}
	return segments
}

// ExpectedFrames is the number of captures a segment receives.
func ExpectedFrames(durationSeconds float64, mode Mode, intervalSeconds int) int {
	if mode == ModeSingle {
		return 1
	}
	if intervalSeconds <= 0 || durationSeconds <= 0 {
		return 0
	}
	return int(math.Floor(durationSeconds / float64(intervalSeconds)))
}

// ValidInterval reports whether seconds is one of Intervals.
func ValidInterval(seconds int) bool {
	for _, v := range Intervals {
		if v == seconds {
			return true
		}
	}
	return false
}

// NextInterval cycles through Intervals.
func NextInterval(seconds int) int {
	for i, v := range Intervals {
		if v == seconds {
			return Intervals[(i+1)%len(Intervals)]
		}
	}
	return Intervals[0]
}

// ParseMode converts a config string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSingle, ModeMulti:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown capture mode %q", s)
	}
}
