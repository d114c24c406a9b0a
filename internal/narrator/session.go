package narrator

import (
	"context"
	"time"

	"github.com/nguyentantai21042004/video-narrator/internal/segment"
)

// generation identifies the segment an async result belongs to.
type generation struct {
	session string
	segment int
}

// captureBuffer holds one segment's evidence.
type captureBuffer struct {
	expected      int
	dispatched    int
	captured      int
	captureFailed int
	received      int
	captionFailed int
	inFlight      int
	captions      []string
	summarized    bool
}

// pendingCaptures counts slots whose capture has not resolved yet.
func (b *captureBuffer) pendingCaptures() int {
	return b.dispatched - b.captured - b.captureFailed
}

// settled reports whether every slot's capture resolved.
func (b *captureBuffer) settled() bool {
	return b.expected > 0 && b.captured+b.captureFailed >= b.expected
}

// session is the single active analysis run.
type session struct {
	id        string
	ctx       context.Context
	cancel    context.CancelFunc
	startedAt time.Time

	settings Settings
	pending  *Settings

	total    float64
	segments []segment.Segment
	index    int
	state    State

	buf           *captureBuffer
	segmentStart  time.Time
	captureEnd    time.Time
	lastCountdown int

	// pausedByUs is set when the coordinator paused a playing video.
	pausedByUs bool

	reports []SegmentReport
}

func (s *session) gen() generation {
	return generation{session: s.id, segment: s.index}
}

func (s *session) current() segment.Segment {
	return s.segments[s.index]
}

func (s *session) hasNext() bool {
	return s.index+1 < len(s.segments)
}
