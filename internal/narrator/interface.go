package narrator

import (
	"context"
	"time"
)

// Coordinator turns a video into narrated segments
type Coordinator interface {
	// Run owns all session state until ctx is done
	Run(ctx context.Context) error
	Start(ctx context.Context, settings Settings) error
	Stop(ctx context.Context) error
	// UpdateSettings takes effect when the next segment begins
	UpdateSettings(ctx context.Context, settings Settings) error
}

// Player is the video being narrated
type Player interface {
	// Duration returns the total length in seconds, NaN when unknown
	Duration(ctx context.Context) (float64, error)
	Playing() bool
	Play() error
	Pause() error
	// Check fails once the video can no longer be played
	Check(ctx context.Context) error
}

// FrameCapturer grabs the frame currently shown by the player
type FrameCapturer interface {
	CaptureFrame(ctx context.Context) ([]byte, error)
}

// Captioner describes one frame
type Captioner interface {
	Caption(ctx context.Context, image []byte) (string, error)
}

// Summarizer condenses frame captions into one narration
type Summarizer interface {
	Summarize(ctx context.Context, captions []string) (string, error)
}

// Speaker reads text aloud and returns when speech ends or fails
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Recorder persists session reports
type Recorder interface {
	Record(ctx context.Context, report Report) error
}

// Deps groups the collaborators of a Coordinator
type Deps struct {
	Player     Player
	Capturer   FrameCapturer
	Captioner  Captioner
	Summarizer Summarizer
	Speaker    Speaker
	Recorder   Recorder // optional
	Metrics    Metrics  // optional
}

// Metrics receives coordinator counters
type Metrics interface {
	SessionStarted()
	SessionEnded(outcome string)
	SegmentNarrated(partial bool)
	FrameResult(ok bool)
	CaptionResult(ok bool, elapsed time.Duration)
	SummaryResult(ok bool)
}
