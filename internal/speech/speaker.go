package speech

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var errEmptyText = errors.New("nothing to speak")

func (s *commandSpeaker) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errEmptyText
	}

	args := []string{"-s", strconv.Itoa(s.opts.Rate)}
	if s.opts.Voice != "" {
		args = append(args, "-v", s.opts.Voice)
	}
	args = append(args, "--", text)

	s.logger.Debug(ctx, "Speaking %d characters with %s", len(text), s.opts.Binary)
	if _, err := s.executor.Execute(ctx, s.opts.Binary, args...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("speak: %w", err)
	}
	return nil
}

func (s *logSpeaker) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errEmptyText
	}

	s.logger.Info(ctx, "Narration: %s", text)
	return s.sleep(ctx, readingTime(text, s.rate))
}

// readingTime estimates how long text takes to say at rate words per minute
func readingTime(text string, rate int) time.Duration {
	words := len(strings.Fields(text))
	return time.Duration(words) * time.Minute / time.Duration(rate)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
