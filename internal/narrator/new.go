package narrator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nguyentantai21042004/video-narrator/internal/logger"
)

type implCoordinator struct {
	deps     Deps
	opts     Options
	logger   logger.Logger
	onEvent  EventHandler
	metrics  Metrics
	dispatch dispatcher

	now   func() time.Time
	newID func() string
	// ticks replaces the internal ticker when set
	ticks <-chan time.Time

	commands chan command
	inbox    chan interface{}
	done     chan struct{}
	runCtx   context.Context

	sess *session
}

// New creates a new Coordinator instance
func New(deps Deps, opts Options, log logger.Logger, onEvent EventHandler) Coordinator {
	return newCoordinator(deps, opts, log, onEvent)
}

func newCoordinator(deps Deps, opts Options, log logger.Logger, onEvent EventHandler) *implCoordinator {
	opts.setDefaults()
	if onEvent == nil {
		onEvent = func(Event) {}
	}
	m := deps.Metrics
	if m == nil {
		m = nopMetrics{}
	}

	c := &implCoordinator{
		deps:     deps,
		opts:     opts,
		logger:   log,
		onEvent:  onEvent,
		metrics:  m,
		now:      time.Now,
		newID:    uuid.NewString,
		commands: make(chan command),
		inbox:    make(chan interface{}, 64),
		done:     make(chan struct{}),
		runCtx:   context.Background(),
	}
	c.dispatch = newAsyncDispatcher(c)
	return c
}

type nopMetrics struct{}

func (nopMetrics) SessionStarted() {}
func (nopMetrics) SessionEnded(string) {}
func (nopMetrics) SegmentNarrated(bool) {}
func (nopMetrics) FrameResult(bool) {}
func (nopMetrics) CaptionResult(bool, time.Duration) {}
func (nopMetrics) SummaryResult(bool) {}
