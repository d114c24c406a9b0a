package narrator

import (
	"errors"
	"fmt"
	"time"

	"github.com/nguyentantai21042004/video-narrator/internal/segment"
)

var (
	// ErrInvalidSettings is returned for unsupported mode or interval values.
	ErrInvalidSettings = errors.New("invalid narration settings")
	// ErrNoVideo is returned by Start when the player has nothing to analyse.
	ErrNoVideo = errors.New("no viable video found")
	// ErrVideoLost is reported when the player disappears mid-session.
	ErrVideoLost = errors.New("video element was lost")
	// ErrNotRunning is returned when a command is sent after Run has exited.
	ErrNotRunning = errors.New("coordinator is not running")
)

// Settings are the user-facing capture options.
type Settings struct {
	Mode            segment.Mode
	IntervalSeconds int
}

// Validate checks that the mode and interval are supported.
func (s Settings) Validate() error {
	if _, err := segment.ParseMode(string(s.Mode)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if !segment.ValidInterval(s.IntervalSeconds) {
		return fmt.Errorf("%w: interval %ds not in %v", ErrInvalidSettings, s.IntervalSeconds, segment.Intervals)
	}
	return nil
}

// State is the lifecycle position of the active segment.
type State string

const (
	StateIdle            State = "idle"
	StateCapturing       State = "capturing"
	StateAwaitingSummary State = "awaiting_summary"
	StateNarrating       State = "narrating"
	StateAdvancing       State = "advancing"
	StateDone            State = "done"
)

// EventKind identifies an Event.
type EventKind string

const (
	EventSegmentStarted    EventKind = "segment_started"
	EventFrameCaptured     EventKind = "frame_captured"
	EventCountdown         EventKind = "countdown"
	EventSegmentSummarized EventKind = "segment_summarized"
	EventError             EventKind = "error"
	EventSessionComplete   EventKind = "session_complete"
	EventSessionStopped    EventKind = "session_stopped"
)

// Event is emitted to the host UI. Only the fields relevant to Kind are set.
type Event struct {
	Kind      EventKind
	SessionID string

	SegmentIndex    int
	SegmentCount    int
	DurationSeconds float64
	ExpectedFrames  int

	FrameIndex       int // capture slot, 1-based
	SecondsRemaining int

	Summary      string
	CaptionCount int
	Partial      bool

	Message string
	Fatal   bool
}

// EventHandler receives coordinator events on the loop goroutine; it must not block for long.
type EventHandler func(Event)

// Options tunes the coordinator timings.
type Options struct {
	TickInterval   time.Duration
	CaptureTimeout time.Duration
	GracePeriod    time.Duration
	HealthInterval time.Duration

	// MaxInFlight bounds concurrent caption requests, 0 means unbounded.
	MaxInFlight int
	// Title labels the session report.
	Title       string
}

func (o *Options) setDefaults() {
	if o.TickInterval <= 0 {
		o.TickInterval = time.Second
	}
	if o.CaptureTimeout <= 0 {
		o.CaptureTimeout = 60 * time.Second
	}
	if o.GracePeriod <= 0 {
		o.GracePeriod = 15 * time.Second
	}
	if o.HealthInterval <= 0 {
		o.HealthInterval = 5 * time.Second
	}
	if o.MaxInFlight < 0 {
		o.MaxInFlight = 0
	}
}

// Report describes a finished or stopped session.
type Report struct {
	SessionID string
	Title     string
	StartedAt time.Time
	EndedAt   time.Time
	Completed bool
	Segments  []SegmentReport
}

// SegmentReport is one narrated segment.
type SegmentReport struct {
	Index           int
	StartOffset     float64
	DurationSeconds float64
	Mode            segment.Mode
	ExpectedFrames  int
	Captions        []string
	Summary         string
	Partial         bool
}
