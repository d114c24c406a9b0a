package narrator

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/nguyentantai21042004/video-narrator/internal/logger"
	"github.com/nguyentantai21042004/video-narrator/internal/segment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlayer struct {
	mu       sync.Mutex
	duration float64
	durErr   error
	checkErr error
	playing  bool
	plays    int
	pauses   int
}

func (p *fakePlayer) Duration(context.Context) (float64, error) { return p.duration, p.durErr }

func (p *fakePlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *fakePlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = true
	p.plays++
	return nil
}

func (p *fakePlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
	p.pauses++
	return nil
}

func (p *fakePlayer) Check(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.checkErr
}

func (p *fakePlayer) setCheckErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checkErr = err
}

type summaryCall struct {
	gen      generation
	captions []string
}

type speechCall struct {
	gen  generation
	text string
}

type recordingDispatcher struct {
	captures  []int
	summaries []summaryCall
	speeches  []speechCall
	health    []string
}

func (d *recordingDispatcher) captureSlot(_ context.Context, _ generation, slot int) {
	d.captures = append(d.captures, slot)
}

func (d *recordingDispatcher) summarize(_ context.Context, g generation, captions []string) {
	d.summaries = append(d.summaries, summaryCall{gen: g, captions: captions})
}

func (d *recordingDispatcher) speak(_ context.Context, g generation, text string) {
	d.speeches = append(d.speeches, speechCall{gen: g, text: text})
}

func (d *recordingDispatcher) watchHealth(_ context.Context, id string) {
	d.health = append(d.health, id)
}

type memoryRecorder struct {
	reports []Report
}

func (r *memoryRecorder) Record(_ context.Context, report Report) error {
	r.reports = append(r.reports, report)
	return nil
}

type harness struct {
	c        *implCoordinator
	disp     *recordingDispatcher
	player   *fakePlayer
	recorder *memoryRecorder
	events   []Event
	clock    time.Time
}

func newHarness(t *testing.T, duration float64) *harness {
	t.Helper()
	h := &harness{
		disp:     &recordingDispatcher{},
		player:   &fakePlayer{duration: duration},
		recorder: &memoryRecorder{},
		clock:    time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
	}
	deps := Deps{Player: h.player, Recorder: h.recorder}
	h.c = newCoordinator(deps, Options{Title: "test"}, logger.NewNop(), func(ev Event) {
		h.events = append(h.events, ev)
	})
	h.c.dispatch = h.disp
	h.c.now = func() time.Time { return h.clock }
	ids := 0
	h.c.newID = func() string {
		ids++
		return "session-" + string(rune('0'+ids))
	}
	return h
}

func (h *harness) start(t *testing.T, mode segment.Mode, interval int) {
	t.Helper()
	require.NoError(t, h.c.handleStart(Settings{Mode: mode, IntervalSeconds: interval}))
}

// tickAt moves the clock to the given offset from the current segment start and ticks.
func (h *harness) tickAt(offset time.Duration) {
	h.clock = h.c.sess.segmentStart.Add(offset)
	h.c.tick(h.clock)
}

func (h *harness) gen() generation {
	return h.c.sess.gen()
}

func (h *harness) frame(slot int) {
	h.c.onFrame(frameMsg{gen: h.gen(), slot: slot})
}

func (h *harness) caption(slot int, text string) {
	h.c.onCaption(captionMsg{gen: h.gen(), slot: slot, text: text})
}

func (h *harness) eventsOf(kind EventKind) []Event {
	var out []Event
	for _, ev := range h.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func TestStartPlansSegmentsAndPlays(t *testing.T) {
	h := newHarness(t, 65)
	h.start(t, segment.ModeMulti, 5)

	require.NotNil(t, h.c.sess)
	assert.Len(t, h.c.sess.segments, 3)
	assert.Equal(t, StateCapturing, h.c.sess.state)
	assert.True(t, h.player.playing)
	assert.Len(t, h.disp.health, 1)

	started := h.eventsOf(EventSegmentStarted)
	require.Len(t, started, 1)
	assert.Equal(t, 0, started[0].SegmentIndex)
	assert.Equal(t, 3, started[0].SegmentCount)
	assert.Equal(t, 30.0, started[0].DurationSeconds)
	assert.Equal(t, 6, started[0].ExpectedFrames)
}

func TestStartRejectsInvalidSettings(t *testing.T) {
	h := newHarness(t, 65)
	err := h.c.handleStart(Settings{Mode: segment.ModeMulti, IntervalSeconds: 4})
	assert.ErrorIs(t, err, ErrInvalidSettings)
	assert.Nil(t, h.c.sess)
}

func TestStartWithoutVideoIsFatal(t *testing.T) {
	h := newHarness(t, 65)
	h.player.checkErr = errors.New("no video element")

	err := h.c.handleStart(Settings{Mode: segment.ModeMulti, IntervalSeconds: 5})
	assert.ErrorIs(t, err, ErrNoVideo)
	assert.Nil(t, h.c.sess)

	errs := h.eventsOf(EventError)
	require.Len(t, errs, 1)
	assert.True(t, errs[0].Fatal)
}

func TestMultiModeSchedulesAtIntervalMultiples(t *testing.T) {
	h := newHarness(t, 65)
	h.start(t, segment.ModeMulti, 5)

	h.tickAt(4 * time.Second)
	assert.Empty(t, h.disp.captures)

	h.tickAt(5 * time.Second)
	assert.Equal(t, []int{1}, h.disp.captures)

	h.tickAt(9 * time.Second)
	assert.Equal(t, []int{1}, h.disp.captures)

	// a late tick catches up every overdue slot
	h.tickAt(21 * time.Second)
	assert.Equal(t, []int{1, 2, 3, 4}, h.disp.captures)

	h.tickAt(45 * time.Second)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, h.disp.captures)
	assert.Equal(t, StateCapturing, h.c.sess.state, "waits for capture results")
}

func TestCaptureFailureDoesNotBlockLaterSlots(t *testing.T) {
	h := newHarness(t, 30)
	h.start(t, segment.ModeMulti, 10)

	h.tickAt(10 * time.Second)
	h.c.onFrame(frameMsg{gen: h.gen(), slot: 1, err: errors.New("canvas tainted")})
	h.tickAt(20 * time.Second)
	h.frame(2)
	h.tickAt(30 * time.Second)
	h.frame(3)

	assert.Equal(t, []int{1, 2, 3}, h.disp.captures)
	assert.Equal(t, 2, h.c.sess.buf.captured)
	assert.Equal(t, 1, h.c.sess.buf.captureFailed)

	h.tickAt(31 * time.Second)
	assert.Equal(t, StateAwaitingSummary, h.c.sess.state)

	errs := h.eventsOf(EventError)
	require.Len(t, errs, 1)
	assert.False(t, errs[0].Fatal)
}

func TestCaptureEndPausesPlayingVideo(t *testing.T) {
	h := newHarness(t, 30)
	h.start(t, segment.ModeSingle, 5)

	h.tickAt(29 * time.Second)
	assert.Empty(t, h.disp.captures)
	h.tickAt(30 * time.Second)
	assert.Equal(t, []int{1}, h.disp.captures)

	h.frame(1)
	h.tickAt(31 * time.Second)
	assert.Equal(t, StateAwaitingSummary, h.c.sess.state)
	assert.False(t, h.player.playing)
	assert.True(t, h.c.sess.pausedByUs)
}

func TestCaptureEndLeavesPausedVideoAlone(t *testing.T) {
	h := newHarness(t, 30)
	h.start(t, segment.ModeSingle, 5)
	require.NoError(t, h.player.Pause())
	pauses := h.player.pauses

	h.tickAt(30 * time.Second)
	h.frame(1)
	h.tickAt(31 * time.Second)

	assert.Equal(t, StateAwaitingSummary, h.c.sess.state)
	assert.Equal(t, pauses, h.player.pauses)
	assert.False(t, h.c.sess.pausedByUs)
}

func TestCaptureSafetyTimeout(t *testing.T) {
	h := newHarness(t, 30)
	h.start(t, segment.ModeMulti, 10)

	h.tickAt(30 * time.Second)
	assert.Len(t, h.disp.captures, 3)

	// captures never resolve
	h.tickAt(59 * time.Second)
	assert.Equal(t, StateCapturing, h.c.sess.state)
	h.tickAt(60 * time.Second)
	assert.Equal(t, StateAwaitingSummary, h.c.sess.state)
}

func TestCountdownEmittedWhileCapturing(t *testing.T) {
	h := newHarness(t, 30)
	h.start(t, segment.ModeSingle, 5)

	h.tickAt(1 * time.Second)
	h.tickAt(2 * time.Second)
	h.tickAt(2 * time.Second)

	countdowns := h.eventsOf(EventCountdown)
	require.Len(t, countdowns, 2)
	assert.Equal(t, 29, countdowns[0].SecondsRemaining)
	assert.Equal(t, 28, countdowns[1].SecondsRemaining)
}

func TestCountdownClearedWhenCaptureEndsEarly(t *testing.T) {
	h := newHarness(t, 20)
	h.start(t, segment.ModeMulti, 3)

	h.tickAt(18 * time.Second)
	require.Len(t, h.disp.captures, 6)
	for slot := 1; slot <= 6; slot++ {
		h.frame(slot)
	}
	h.tickAt(19 * time.Second)
	require.Equal(t, StateAwaitingSummary, h.c.sess.state)

	countdowns := h.eventsOf(EventCountdown)
	require.Len(t, countdowns, 2)
	assert.Equal(t, 2, countdowns[0].SecondsRemaining)
	assert.Equal(t, 0, countdowns[1].SecondsRemaining)

	h.tickAt(20 * time.Second)
	assert.Len(t, h.eventsOf(EventCountdown), 2)
}

func TestAllCaptionsSummarizeImmediately(t *testing.T) {
	h := newHarness(t, 30)
	h.start(t, segment.ModeMulti, 10)

	h.tickAt(30 * time.Second)
	for slot := 1; slot <= 3; slot++ {
		h.frame(slot)
	}
	// arrival order differs from capture order
	h.caption(3, "third")
	h.caption(1, "first")
	h.caption(2, "second")

	h.tickAt(31 * time.Second)
	assert.Equal(t, StateAwaitingSummary, h.c.sess.state)
	h.tickAt(32 * time.Second)

	require.Len(t, h.disp.summaries, 1)
	assert.Equal(t, []string{"third", "first", "second"}, h.disp.summaries[0].captions)
}

func TestSummaryLatchFiresOnce(t *testing.T) {
	h := newHarness(t, 20)
	h.start(t, segment.ModeMulti, 5)

	h.tickAt(20 * time.Second)
	for slot := 1; slot <= 4; slot++ {
		h.frame(slot)
		h.caption(slot, "caption")
	}
	h.tickAt(20*time.Second + 500*time.Millisecond)
	require.Equal(t, StateAwaitingSummary, h.c.sess.state)

	// all captions in and grace elapsed on the same tick
	h.tickAt(40 * time.Second)
	h.tickAt(41 * time.Second)
	h.c.triggerSummary()

	assert.Len(t, h.disp.summaries, 1)
}

func TestGracePeriodSummarizesPartialSet(t *testing.T) {
	h := newHarness(t, 20)
	h.start(t, segment.ModeMulti, 5)

	h.tickAt(20 * time.Second)
	for slot := 1; slot <= 4; slot++ {
		h.frame(slot)
	}
	h.caption(1, "a")
	h.caption(2, "b")
	h.caption(4, "d")

	h.tickAt(20 * time.Second)
	require.Equal(t, StateAwaitingSummary, h.c.sess.state)
	captureEnd := h.c.sess.captureEnd

	h.clock = captureEnd.Add(14 * time.Second)
	h.c.tick(h.clock)
	assert.Empty(t, h.disp.summaries, "slot 3 caption still in flight")

	h.clock = captureEnd.Add(15 * time.Second)
	h.c.tick(h.clock)
	require.Len(t, h.disp.summaries, 1)
	assert.Equal(t, []string{"a", "b", "d"}, h.disp.summaries[0].captions)

	// the straggler is ignored once summarized
	h.caption(3, "c")
	h.c.onSummary(summaryMsg{gen: h.gen(), text: "three frames"})

	summarized := h.eventsOf(EventSegmentSummarized)
	require.Len(t, summarized, 1)
	assert.Equal(t, 3, summarized[0].CaptionCount)
	assert.True(t, summarized[0].Partial)
	assert.Equal(t, 4, summarized[0].ExpectedFrames)
}

func TestNothingOutstandingSummarizesBeforeGrace(t *testing.T) {
	h := newHarness(t, 30)
	h.start(t, segment.ModeMulti, 10)

	h.tickAt(30 * time.Second)
	h.frame(1)
	h.frame(2)
	h.c.onFrame(frameMsg{gen: h.gen(), slot: 3, err: errors.New("capture failed")})
	h.caption(1, "one")
	h.c.onCaption(captionMsg{gen: h.gen(), slot: 2, err: errors.New("backend 500")})

	h.tickAt(31 * time.Second)
	h.tickAt(32 * time.Second)

	require.Len(t, h.disp.summaries, 1)
	assert.Equal(t, []string{"one"}, h.disp.summaries[0].captions)
}

func TestEmptyBufferNarratesFallbackWithoutSummarizer(t *testing.T) {
	h := newHarness(t, 62)
	h.start(t, segment.ModeMulti, 5)
	h.c.sess.index = 2
	h.c.beginSegment(h.clock)
	require.Equal(t, 0, h.c.sess.buf.expected)

	h.tickAt(1 * time.Second)
	assert.Equal(t, StateCapturing, h.c.sess.state)
	h.tickAt(2 * time.Second)
	assert.Equal(t, StateAwaitingSummary, h.c.sess.state)
	h.tickAt(3 * time.Second)

	assert.Empty(t, h.disp.summaries)
	require.Len(t, h.disp.speeches, 1)
	assert.Equal(t, noCaptionsText, h.disp.speeches[0].text)
	assert.Equal(t, StateNarrating, h.c.sess.state)
}

func TestSummaryFailureNarratesFallback(t *testing.T) {
	h := newHarness(t, 30)
	h.start(t, segment.ModeSingle, 5)

	h.tickAt(30 * time.Second)
	h.frame(1)
	h.caption(1, "a kitchen")
	h.tickAt(31 * time.Second)
	h.tickAt(32 * time.Second)
	require.Len(t, h.disp.summaries, 1)

	h.c.onSummary(summaryMsg{gen: h.gen(), err: errors.New("pegasus not loaded")})

	assert.Equal(t, StateNarrating, h.c.sess.state)
	require.Len(t, h.disp.speeches, 1)
	assert.Equal(t, summaryFallbackText, h.disp.speeches[0].text)

	summarized := h.eventsOf(EventSegmentSummarized)
	require.Len(t, summarized, 1)
	assert.False(t, summarized[0].Partial)
	assert.Equal(t, 1, summarized[0].CaptionCount)
}

func narrateFirstSegment(t *testing.T, h *harness) {
	t.Helper()
	seg := h.c.sess.current()
	h.tickAt(seconds(seg.DurationSeconds))
	h.frame(1)
	h.caption(1, "frame")
	h.tickAt(seconds(seg.DurationSeconds) + time.Second)
	h.tickAt(seconds(seg.DurationSeconds) + 2*time.Second)
	require.NotEmpty(t, h.disp.summaries)
	h.c.onSummary(summaryMsg{gen: h.gen(), text: "summary"})
	require.Equal(t, StateNarrating, h.c.sess.state)
}

func TestSpeechEndAndErrorBothAdvance(t *testing.T) {
	for _, speechErr := range []error{nil, errors.New("synthesis-failed")} {
		h := newHarness(t, 65)
		h.start(t, segment.ModeSingle, 5)
		narrateFirstSegment(t, h)

		h.c.onSpeech(speechMsg{gen: h.gen(), err: speechErr})

		assert.Equal(t, StateCapturing, h.c.sess.state)
		assert.Equal(t, 1, h.c.sess.index)
		assert.True(t, h.player.playing, "resumed after narration")
		assert.Len(t, h.eventsOf(EventSegmentStarted), 2)
	}
}

func TestAdvanceAppliesPendingSettings(t *testing.T) {
	h := newHarness(t, 65)
	h.start(t, segment.ModeSingle, 5)
	require.NoError(t, h.c.handleUpdate(Settings{Mode: segment.ModeMulti, IntervalSeconds: 3}))
	assert.Equal(t, segment.ModeSingle, h.c.sess.settings.Mode, "not retroactive")

	narrateFirstSegment(t, h)
	h.c.onSpeech(speechMsg{gen: h.gen()})

	assert.Equal(t, segment.ModeMulti, h.c.sess.settings.Mode)
	assert.Equal(t, 10, h.c.sess.buf.expected)
}

func TestUpdateRejectsInvalidSettings(t *testing.T) {
	h := newHarness(t, 65)
	h.start(t, segment.ModeSingle, 5)
	assert.ErrorIs(t, h.c.handleUpdate(Settings{Mode: "burst", IntervalSeconds: 5}), ErrInvalidSettings)
	assert.Nil(t, h.c.sess.pending)
}

func TestLastSegmentCompletesSession(t *testing.T) {
	h := newHarness(t, 30)
	h.start(t, segment.ModeSingle, 5)
	narrateFirstSegment(t, h)

	h.c.onSpeech(speechMsg{gen: h.gen()})

	assert.Nil(t, h.c.sess)
	assert.True(t, h.player.playing)
	assert.Len(t, h.eventsOf(EventSessionComplete), 1)

	require.Len(t, h.recorder.reports, 1)
	report := h.recorder.reports[0]
	assert.True(t, report.Completed)
	assert.Equal(t, "test", report.Title)
	require.Len(t, report.Segments, 1)
	assert.Equal(t, "summary", report.Segments[0].Summary)
	assert.Equal(t, []string{"frame"}, report.Segments[0].Captions)
}

func TestStopFromAnyState(t *testing.T) {
	states := []struct {
		name  string
		drive func(t *testing.T, h *harness)
		want  State
	}{
		{"capturing", func(t *testing.T, h *harness) {}, StateCapturing},
		{"awaiting summary", func(t *testing.T, h *harness) {
			h.tickAt(30 * time.Second)
			h.frame(1)
			h.tickAt(31 * time.Second)
		}, StateAwaitingSummary},
		{"narrating", func(t *testing.T, h *harness) { narrateFirstSegment(t, h) }, StateNarrating},
	}

	for _, tt := range states {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, 65)
			h.start(t, segment.ModeSingle, 5)
			tt.drive(t, h)
			require.Equal(t, tt.want, h.c.sess.state)
			sessCtx := h.c.sess.ctx
			pausedByUs := h.c.sess.pausedByUs
			plays := h.player.plays

			h.c.handleStop()

			assert.Nil(t, h.c.sess)
			assert.Error(t, sessCtx.Err(), "in-flight work cancelled")
			assert.Len(t, h.eventsOf(EventSessionStopped), 1)
			if pausedByUs {
				assert.Equal(t, plays+1, h.player.plays)
				assert.True(t, h.player.playing)
			} else {
				assert.Equal(t, plays, h.player.plays)
			}
		})
	}
}

func TestStopWhenIdleIsNoop(t *testing.T) {
	h := newHarness(t, 65)
	h.c.handleStop()
	assert.Empty(t, h.events)
}

func TestStaleResultsAreDropped(t *testing.T) {
	h := newHarness(t, 65)
	h.start(t, segment.ModeSingle, 5)
	old := h.gen()
	narrateFirstSegment(t, h)
	h.c.onSpeech(speechMsg{gen: h.gen()})
	require.Equal(t, 1, h.c.sess.index)

	h.c.onFrame(frameMsg{gen: old, slot: 1})
	h.c.onCaption(captionMsg{gen: old, slot: 1, text: "late"})
	h.c.onSummary(summaryMsg{gen: old, text: "late"})
	h.c.onSpeech(speechMsg{gen: old})

	assert.Zero(t, h.c.sess.buf.captured)
	assert.Empty(t, h.c.sess.buf.captions)
	assert.Equal(t, 1, h.c.sess.index)
	assert.Equal(t, StateCapturing, h.c.sess.state)
}

func TestRestartReplacesSession(t *testing.T) {
	h := newHarness(t, 65)
	h.start(t, segment.ModeSingle, 5)
	first := h.c.sess.id

	h.start(t, segment.ModeMulti, 10)
	assert.NotEqual(t, first, h.c.sess.id)
	assert.Len(t, h.eventsOf(EventSessionStopped), 1)
}

func TestHealthFailureIsFatal(t *testing.T) {
	h := newHarness(t, 65)
	h.start(t, segment.ModeMulti, 5)
	h.tickAt(30 * time.Second)
	for slot := 1; slot <= 6; slot++ {
		h.frame(slot)
	}
	h.tickAt(31 * time.Second)
	require.True(t, h.c.sess.pausedByUs)
	id := h.c.sess.id

	h.c.onHealth(healthMsg{session: "other", err: errors.New("gone")})
	require.NotNil(t, h.c.sess)

	h.c.onHealth(healthMsg{session: id, err: errors.New("removed from DOM")})
	assert.Nil(t, h.c.sess)
	assert.True(t, h.player.playing, "resume attempted")

	errs := h.eventsOf(EventError)
	require.NotEmpty(t, errs)
	assert.True(t, errs[len(errs)-1].Fatal)
}

func TestUnknownDurationSingleMode(t *testing.T) {
	h := newHarness(t, math.NaN())
	h.start(t, segment.ModeSingle, 5)

	require.Len(t, h.c.sess.segments, 1)
	assert.Equal(t, 30.0, h.c.sess.current().DurationSeconds)

	h.tickAt(29 * time.Second)
	assert.Empty(t, h.disp.captures)
	h.tickAt(30 * time.Second)
	h.tickAt(31 * time.Second)
	assert.Equal(t, []int{1}, h.disp.captures)
}

func TestDurationErrorFallsBack(t *testing.T) {
	h := newHarness(t, 0)
	h.player.durErr = errors.New("ffprobe: N/A")
	h.start(t, segment.ModeMulti, 10)

	require.Len(t, h.c.sess.segments, 1)
	assert.Equal(t, 3, h.c.sess.buf.expected)
}
