package media

import "context"

// Player is a virtual playhead over a video file or URL. Playback time
// advances with the wall clock while playing.
type Player interface {
	// Duration probes the source once and returns its length in seconds,
	// NaN when the container does not report one.
	Duration(ctx context.Context) (float64, error)
	// Position returns the current playhead in seconds
	Position() float64
	Playing() bool
	Play() error
	Pause() error
	// Check fails when the source is no longer readable
	Check(ctx context.Context) error
}

// Grabber decodes the frame under the playhead as JPEG
type Grabber interface {
	CaptureFrame(ctx context.Context) ([]byte, error)
}
