package speech

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nguyentantai21042004/video-narrator/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecutor struct {
	calls [][]string
	err   error
}

func (f *fakeExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return nil, f.err
}

func TestCommandSpeakerArgs(t *testing.T) {
	exec := &fakeExecutor{}
	s := New(Options{Binary: "espeak-ng", Rate: 160, Voice: "en-us"}, exec, logger.NewNop())

	require.NoError(t, s.Speak(context.Background(), "  A dog runs.  "))
	assert.Equal(t, [][]string{{"espeak-ng", "-s", "160", "-v", "en-us", "--", "A dog runs."}}, exec.calls)
}

func TestCommandSpeakerErrors(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("exit status 1")}
	s := New(Options{Binary: "espeak-ng"}, exec, logger.NewNop())

	assert.ErrorIs(t, s.Speak(context.Background(), ""), errEmptyText)
	assert.Empty(t, exec.calls)

	err := s.Speak(context.Background(), "hello")
	assert.ErrorContains(t, err, "exit status 1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Speak(ctx, "hello"), context.Canceled)
}

func TestLogSpeakerWaitsReadingTime(t *testing.T) {
	s := New(Options{Rate: 120}, nil, logger.NewNop()).(*logSpeaker)
	var waited time.Duration
	s.sleep = func(_ context.Context, d time.Duration) error {
		waited = d
		return nil
	}

	require.NoError(t, s.Speak(context.Background(), "one two three four"))
	assert.Equal(t, 2*time.Second, waited)
}

func TestLogSpeakerCancel(t *testing.T) {
	s := New(Options{Rate: 1}, nil, logger.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, s.Speak(ctx, "this would take minutes"), context.DeadlineExceeded)
}

func TestReadingTime(t *testing.T) {
	assert.Equal(t, time.Minute, readingTime("a b c", 3))
	assert.Equal(t, time.Duration(0), readingTime("", 175))
}
