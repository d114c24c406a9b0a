package media

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nguyentantai21042004/video-narrator/pkg/executor"
)

// ErrSourceMissing is returned by Check when a local source file is gone
var ErrSourceMissing = errors.New("video source is missing")

func (p *implPlayer) Duration(ctx context.Context) (float64, error) {
	p.mu.Lock()
	if p.probed {
		d := p.duration
		p.mu.Unlock()
		return d, nil
	}
	p.mu.Unlock()

	d, err := ProbeDuration(ctx, p.executor, p.opts.FFprobe, p.opts.Source)
	if err != nil {
		return math.NaN(), err
	}

	p.mu.Lock()
	p.probed = true
	p.duration = d
	p.mu.Unlock()

	if math.IsNaN(d) {
		p.logger.Warn(ctx, "Duration of %s is unknown", p.opts.Source)
	} else {
		p.logger.Info(ctx, "Video duration: %.1fs", d)
	}
	return d, nil
}

func (p *implPlayer) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionLocked()
}

// positionLocked clamps to the duration and pauses once the end is reached
func (p *implPlayer) positionLocked() float64 {
	pos := p.offset
	if !p.since.IsZero() {
		pos += p.now().Sub(p.since).Seconds()
	}
	if p.probed && !math.IsNaN(p.duration) && pos >= p.duration {
		pos = p.duration
		p.offset = pos
		p.since = time.Time{}
	}
	return pos
}

func (p *implPlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.positionLocked()
	return !p.since.IsZero()
}

// Play resumes playback; an ended video restarts from the beginning
func (p *implPlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.since.IsZero() {
		return nil
	}
	if p.probed && !math.IsNaN(p.duration) && p.offset >= p.duration {
		p.offset = 0
	}
	p.since = p.now()
	return nil
}

func (p *implPlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.offset = p.positionLocked()
	p.since = time.Time{}
	return nil
}

// Check only inspects local files; remote sources are assumed reachable
func (p *implPlayer) Check(ctx context.Context) error {
	if isRemote(p.opts.Source) {
		return nil
	}
	if _, err := os.Stat(p.opts.Source); err != nil {
		return fmt.Errorf("%w: %v", ErrSourceMissing, err)
	}
	return nil
}

// ProbeDuration asks ffprobe for the container duration.
// Live streams report "N/A", which maps to NaN.
func ProbeDuration(ctx context.Context, exec executor.Executor, ffprobe, source string) (float64, error) {
	out, err := exec.Execute(ctx, ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		source,
	)
	if err != nil {
		return math.NaN(), fmt.Errorf("ffprobe duration: %w", err)
	}

	raw := strings.TrimSpace(string(out))
	if raw == "" || raw == "N/A" {
		return math.NaN(), nil
	}

	d, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return math.NaN(), fmt.Errorf("parse duration %q: %w", raw, err)
	}
	return d, nil
}

func isRemote(source string) bool {
	return strings.Contains(source, "://")
}
