package narrator

import (
	"context"
	"errors"
	"strings"
	"time"
)

// dispatcher starts the asynchronous work of a session. Results come back
// to the loop as messages; nothing here touches session state.
type dispatcher interface {
	captureSlot(ctx context.Context, g generation, slot int)
	summarize(ctx context.Context, g generation, captions []string)
	speak(ctx context.Context, g generation, text string)
	watchHealth(ctx context.Context, sessionID string)
}

type frameMsg struct {
	gen  generation
	slot int
	err  error
}

type captionMsg struct {
	gen     generation
	slot    int
	text    string
	elapsed time.Duration
	err     error
}

type summaryMsg struct {
	gen  generation
	text string
	err  error
}

type speechMsg struct {
	gen generation
	err error
}

type healthMsg struct {
	session string
	err     error
}

var (
	errEmptyFrame   = errors.New("captured frame is empty")
	errEmptyCaption = errors.New("caption is empty")
)

type asyncDispatcher struct {
	deps     Deps
	sem      *semaphore
	interval time.Duration
	inbox    chan<- interface{}
}

func newAsyncDispatcher(c *implCoordinator) *asyncDispatcher {
	return &asyncDispatcher{
		deps:     c.deps,
		sem:      newSemaphore(c.opts.MaxInFlight),
		interval: c.opts.HealthInterval,
		inbox:    c.inbox,
	}
}

// post delivers msg unless the session was cancelled meanwhile
func (d *asyncDispatcher) post(ctx context.Context, msg interface{}) {
	select {
	case d.inbox <- msg:
	case <-ctx.Done():
	}
}

// captureSlot grabs one frame and captions it. The caption request waits on
// the semaphore inside its own goroutine so a slow slot never delays the next one.
func (d *asyncDispatcher) captureSlot(ctx context.Context, g generation, slot int) {
	go func() {
		image, err := d.deps.Capturer.CaptureFrame(ctx)
		if err == nil && len(image) == 0 {
			err = errEmptyFrame
		}
		d.post(ctx, frameMsg{gen: g, slot: slot, err: err})
		if err != nil {
			return
		}

		if err := d.sem.acquire(ctx); err != nil {
			return
		}
		defer d.sem.release()

		start := time.Now()
		text, err := d.deps.Captioner.Caption(ctx, image)
		if err == nil && strings.TrimSpace(text) == "" {
			err = errEmptyCaption
		}
		d.post(ctx, captionMsg{gen: g, slot: slot, text: strings.TrimSpace(text), elapsed: time.Since(start), err: err})
	}()
}

func (d *asyncDispatcher) summarize(ctx context.Context, g generation, captions []string) {
	go func() {
		text, err := d.deps.Summarizer.Summarize(ctx, captions)
		d.post(ctx, summaryMsg{gen: g, text: text, err: err})
	}()
}

func (d *asyncDispatcher) speak(ctx context.Context, g generation, text string) {
	go func() {
		err := d.deps.Speaker.Speak(ctx, text)
		d.post(ctx, speechMsg{gen: g, err: err})
	}()
}

// watchHealth polls the player until the session ends or the video is gone.
func (d *asyncDispatcher) watchHealth(ctx context.Context, sessionID string) {
	go func() {
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := d.deps.Player.Check(ctx); err != nil {
					if ctx.Err() != nil {
						return
					}
					d.post(ctx, healthMsg{session: sessionID, err: err})
					return
				}
			}
		}
	}()
}
