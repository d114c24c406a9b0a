package narrator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/nguyentantai21042004/video-narrator/internal/segment"
)

const (
	noCaptionsText      = "No visual descriptions were captured for this part of the video."
	summaryFallbackText = "Unable to summarize this part of the video."
)

// handleStart validates the video, plans the segments and begins segment 0.
func (c *implCoordinator) handleStart(settings Settings) error {
	ctx := c.runCtx
	if err := settings.Validate(); err != nil {
		return err
	}

	if c.sess != nil {
		c.logger.Info(ctx, "Restarting analysis, stopping session %s", c.sess.id)
		c.handleStop()
	}

	if err := c.deps.Player.Check(ctx); err != nil {
		c.emit(Event{Kind: EventError, Message: "Could not find a visible video to analyse.", Fatal: true})
		return fmt.Errorf("%w: %v", ErrNoVideo, err)
	}

	total, err := c.deps.Player.Duration(ctx)
	if err != nil {
		c.logger.Warn(ctx, "Duration unknown, using one %ds segment: %v", segment.WindowSeconds, err)
		total = math.NaN()
	}

	sctx, cancel := context.WithCancel(ctx)
	now := c.now()
	c.sess = &session{
		id:        c.newID(),
		ctx:       sctx,
		cancel:    cancel,
		startedAt: now,
		settings:  settings,
		total:     total,
		segments:  segment.Plan(total),
		state:     StateIdle,
	}
	c.metrics.SessionStarted()

	c.logger.Info(ctx, "Session %s: %d segments (duration %.1fs), mode=%s interval=%ds",
		c.sess.id, len(c.sess.segments), total, settings.Mode, settings.IntervalSeconds)

	if !c.deps.Player.Playing() {
		if err := c.deps.Player.Play(); err != nil {
			c.logger.Warn(ctx, "Could not auto-play video: %v", err)
		}
	}

	c.dispatch.watchHealth(sctx, c.sess.id)
	c.beginSegment(now)
	return nil
}

// handleUpdate stores settings for the next segment.
func (c *implCoordinator) handleUpdate(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	if c.sess == nil {
		return nil
	}
	c.sess.pending = &settings
	c.logger.Info(c.runCtx, "Settings updated (mode=%s interval=%ds), applied from next segment",
		settings.Mode, settings.IntervalSeconds)
	return nil
}

// handleStop ends the session from any state.
func (c *implCoordinator) handleStop() {
	s := c.sess
	if s == nil {
		return
	}
	c.logger.Info(c.runCtx, "Session %s stopped in state %s", s.id, s.state)
	c.resumeIfPaused()
	c.release(false, "stopped")
	c.emit(Event{Kind: EventSessionStopped, SessionID: s.id})
}

// fail ends the session after a fatal error.
func (c *implCoordinator) fail(err error, message string) {
	s := c.sess
	if s == nil {
		return
	}
	c.logger.Error(c.runCtx, "Session %s failed: %v", s.id, err)
	c.resumeIfPaused()
	c.release(false, "failed")
	c.emit(Event{Kind: EventError, SessionID: s.id, Message: message, Fatal: true})
}

func (c *implCoordinator) beginSegment(now time.Time) {
	s := c.sess
	seg := s.current()
	s.buf = &captureBuffer{
		expected: segment.ExpectedFrames(seg.DurationSeconds, s.settings.Mode, s.settings.IntervalSeconds),
	}
	s.segmentStart = now
	s.captureEnd = time.Time{}
	s.lastCountdown = -1
	s.state = StateCapturing

	c.logger.Info(c.runCtx, "Segment %d/%d started: %.1fs, expecting %d frames",
		seg.Index+1, len(s.segments), seg.DurationSeconds, s.buf.expected)

	c.emit(Event{
		Kind:            EventSegmentStarted,
		SessionID:       s.id,
		SegmentIndex:    seg.Index,
		SegmentCount:    len(s.segments),
		DurationSeconds: seg.DurationSeconds,
		ExpectedFrames:  s.buf.expected,
	})
}

// tick runs the scheduler and the completion check.
func (c *implCoordinator) tick(now time.Time) {
	if c.sess == nil {
		return
	}
	switch c.sess.state {
	case StateCapturing:
		c.tickCapturing(now)
	case StateAwaitingSummary:
		c.tickAwaiting(now)
	}
}

func (c *implCoordinator) tickCapturing(now time.Time) {
	s := c.sess
	b := s.buf
	seg := s.current()
	elapsed := now.Sub(s.segmentStart)
	duration := seconds(seg.DurationSeconds)

	// Thresholds are k*interval from the segment start, never from the last capture.
	switch s.settings.Mode {
	case segment.ModeSingle:
		if b.dispatched < b.expected && elapsed >= duration {
			c.dispatchSlot()
		}
	default:
		interval := time.Duration(s.settings.IntervalSeconds) * time.Second
		for b.dispatched < b.expected && elapsed >= time.Duration(b.dispatched+1)*interval {
			c.dispatchSlot()
		}
	}

	switch {
	case b.settled():
		c.endCapture(now, "all frames captured")
	case b.expected == 0 && elapsed >= duration:
		c.endCapture(now, "segment shorter than capture interval")
	case elapsed >= c.opts.CaptureTimeout:
		c.logger.Warn(c.runCtx, "Capture timeout after %s with %d/%d frames", elapsed.Round(time.Second), b.captured, b.expected)
		c.endCapture(now, "capture timeout")
	default:
		remaining := int(math.Ceil((duration - elapsed).Seconds()))
		if remaining < 0 {
			remaining = 0
		}
		if remaining != s.lastCountdown {
			s.lastCountdown = remaining
			c.emit(Event{Kind: EventCountdown, SessionID: s.id, SegmentIndex: s.index, SecondsRemaining: remaining})
		}
	}
}

func (c *implCoordinator) dispatchSlot() {
	s := c.sess
	s.buf.dispatched++
	slot := s.buf.dispatched
	c.logger.Debug(c.runCtx, "Capturing frame %d/%d of segment %d", slot, s.buf.expected, s.index+1)
	c.dispatch.captureSlot(s.ctx, s.gen(), slot)
}

// endCapture pauses a playing video while the segment is summarized and narrated.
func (c *implCoordinator) endCapture(now time.Time, reason string) {
	s := c.sess
	s.state = StateAwaitingSummary
	s.captureEnd = now
	if s.lastCountdown != 0 {
		s.lastCountdown = 0
		c.emit(Event{Kind: EventCountdown, SessionID: s.id, SegmentIndex: s.index})
	}

	if c.deps.Player.Playing() {
		if err := c.deps.Player.Pause(); err != nil {
			c.logger.Warn(c.runCtx, "Could not pause video: %v", err)
		} else {
			s.pausedByUs = true
		}
	}

	c.logger.Info(c.runCtx, "Segment %d capture finished (%s): %d/%d frames, %d captions",
		s.index+1, reason, s.buf.captured, s.buf.expected, s.buf.received)
}

func (c *implCoordinator) tickAwaiting(now time.Time) {
	s := c.sess
	b := s.buf
	if b.summarized {
		return
	}

	switch {
	case b.received >= b.expected:
	case b.pendingCaptures() == 0 && b.inFlight == 0:
		c.logger.Info(c.runCtx, "No captions outstanding, summarizing %d/%d", b.received, b.expected)
	case now.Sub(s.captureEnd) >= c.opts.GracePeriod:
		c.logger.Warn(c.runCtx, "Grace period elapsed, summarizing %d/%d captions", b.received, b.expected)
	default:
		return
	}
	c.triggerSummary()
}

// triggerSummary fires at most once per segment.
func (c *implCoordinator) triggerSummary() {
	s := c.sess
	b := s.buf
	if b.summarized {
		return
	}
	b.summarized = true

	if len(b.captions) == 0 {
		c.narrate(noCaptionsText)
		return
	}

	captions := make([]string, len(b.captions))
	copy(captions, b.captions)
	c.dispatch.summarize(s.ctx, s.gen(), captions)
}

func (c *implCoordinator) onFrame(m frameMsg) {
	if !c.isCurrent(m.gen) {
		c.logger.Debug(c.runCtx, "Dropping stale frame result for slot %d", m.slot)
		return
	}
	s := c.sess
	b := s.buf

	if m.err != nil {
		b.captureFailed++
		c.metrics.FrameResult(false)
		c.logger.Warn(c.runCtx, "Frame %d capture failed: %v", m.slot, m.err)
		c.emit(Event{Kind: EventError, SessionID: s.id, SegmentIndex: s.index, FrameIndex: m.slot,
			Message: fmt.Sprintf("Frame capture failed: %v. Continuing...", m.err)})
		return
	}

	b.captured++
	b.inFlight++
	c.metrics.FrameResult(true)
	c.emit(Event{Kind: EventFrameCaptured, SessionID: s.id, SegmentIndex: s.index, FrameIndex: m.slot})
}

// onCaption appends in arrival order, which may differ from capture order.
func (c *implCoordinator) onCaption(m captionMsg) {
	if !c.isCurrent(m.gen) {
		c.logger.Debug(c.runCtx, "Dropping stale caption for slot %d", m.slot)
		return
	}
	s := c.sess
	b := s.buf
	if b.inFlight > 0 {
		b.inFlight--
	}
	c.metrics.CaptionResult(m.err == nil, m.elapsed)

	if m.err != nil {
		b.captionFailed++
		c.logger.Warn(c.runCtx, "Caption for frame %d failed: %v", m.slot, m.err)
		c.emit(Event{Kind: EventError, SessionID: s.id, SegmentIndex: s.index, FrameIndex: m.slot,
			Message: fmt.Sprintf("AI analysis failed: %v. Continuing...", m.err)})
		return
	}
	if b.summarized {
		c.logger.Debug(c.runCtx, "Caption for frame %d arrived after summary, dropped", m.slot)
		return
	}

	b.captions = append(b.captions, m.text)
	b.received++
	c.logger.Debug(c.runCtx, "Caption %d/%d received (frame %d)", b.received, b.expected, m.slot)
}

func (c *implCoordinator) onSummary(m summaryMsg) {
	if !c.isCurrent(m.gen) || c.sess.state != StateAwaitingSummary {
		return
	}

	text := strings.TrimSpace(m.text)
	ok := m.err == nil && text != ""
	c.metrics.SummaryResult(ok)
	if !ok {
		err := m.err
		if err == nil {
			err = errors.New("empty summary")
		}
		c.logger.Warn(c.runCtx, "Summary for segment %d failed: %v", c.sess.index+1, err)
		c.emit(Event{Kind: EventError, SessionID: c.sess.id, SegmentIndex: c.sess.index,
			Message: fmt.Sprintf("Summary failed: %v", err)})
		text = summaryFallbackText
	}
	c.narrate(text)
}

// narrate reports the summary and starts speech.
func (c *implCoordinator) narrate(text string) {
	s := c.sess
	b := s.buf
	seg := s.current()
	partial := b.received < b.expected

	s.reports = append(s.reports, SegmentReport{
		Index:           seg.Index,
		StartOffset:     seg.StartOffset,
		DurationSeconds: seg.DurationSeconds,
		Mode:            s.settings.Mode,
		ExpectedFrames:  b.expected,
		Captions:        append([]string(nil), b.captions...),
		Summary:         text,
		Partial:         partial,
	})
	c.metrics.SegmentNarrated(partial)

	c.emit(Event{
		Kind:           EventSegmentSummarized,
		SessionID:      s.id,
		SegmentIndex:   s.index,
		SegmentCount:   len(s.segments),
		ExpectedFrames: b.expected,
		Summary:        text,
		CaptionCount:   len(b.captions),
		Partial:        partial,
	})

	s.state = StateNarrating
	c.dispatch.speak(s.ctx, s.gen(), text)
}

// onSpeech advances on both speech end and speech error.
func (c *implCoordinator) onSpeech(m speechMsg) {
	if !c.isCurrent(m.gen) || c.sess.state != StateNarrating {
		return
	}
	if m.err != nil {
		c.logger.Warn(c.runCtx, "Speech ended with error: %v", m.err)
		c.emit(Event{Kind: EventError, SessionID: c.sess.id, SegmentIndex: c.sess.index,
			Message: fmt.Sprintf("Speech failed: %v", m.err)})
	}
	c.advance(c.now())
}

func (c *implCoordinator) onHealth(m healthMsg) {
	if c.sess == nil || c.sess.id != m.session {
		return
	}
	c.fail(fmt.Errorf("%w: %v", ErrVideoLost, m.err), "Video element was removed from page. Analysis stopped.")
}

func (c *implCoordinator) advance(now time.Time) {
	s := c.sess
	s.state = StateAdvancing

	if s.hasNext() {
		if s.pending != nil {
			s.settings = *s.pending
			s.pending = nil
		}
		s.index++
		c.resumeIfPaused()
		c.beginSegment(now)
		return
	}

	s.state = StateDone
	c.resumeIfPaused()
	c.logger.Info(c.runCtx, "Session %s complete: %d segments narrated", s.id, len(s.reports))
	c.release(true, "completed")
	c.emit(Event{Kind: EventSessionComplete, SessionID: s.id, SegmentCount: len(s.segments)})
}

func (c *implCoordinator) resumeIfPaused() {
	s := c.sess
	if s == nil || !s.pausedByUs {
		return
	}
	s.pausedByUs = false
	if err := c.deps.Player.Play(); err != nil {
		c.logger.Warn(c.runCtx, "Could not resume video: %v", err)
	}
}

// release cancels outstanding work, records the report and drops the session.
func (c *implCoordinator) release(completed bool, outcome string) {
	s := c.sess
	s.cancel()
	c.sess = nil
	c.metrics.SessionEnded(outcome)

	if c.deps.Recorder == nil || len(s.reports) == 0 {
		return
	}
	report := Report{
		SessionID: s.id,
		Title:     c.opts.Title,
		StartedAt: s.startedAt,
		EndedAt:   c.now(),
		Completed: completed,
		Segments:  s.reports,
	}
	if err := c.deps.Recorder.Record(context.WithoutCancel(c.runCtx), report); err != nil {
		c.logger.Warn(c.runCtx, "Failed to record session report: %v", err)
	}
}

func (c *implCoordinator) isCurrent(g generation) bool {
	return c.sess != nil && c.sess.id == g.session && c.sess.index == g.segment
}

func (c *implCoordinator) emit(ev Event) {
	c.onEvent(ev)
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}
