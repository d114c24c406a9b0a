package speech

import (
	"context"
	"time"

	"github.com/nguyentantai21042004/video-narrator/internal/logger"
	"github.com/nguyentantai21042004/video-narrator/pkg/executor"
)

// Options configures the text-to-speech engine
type Options struct {
	// Binary is an espeak compatible engine, empty selects the log speaker
	Binary string
	// Rate in words per minute
	Rate   int
	Voice  string
}

func (o *Options) setDefaults() {
	if o.Rate <= 0 {
		o.Rate = 175
	}
}

type commandSpeaker struct {
	opts     Options
	executor executor.Executor
	logger   logger.Logger
}

type logSpeaker struct {
	rate   int
	logger logger.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// New returns a speaker backed by opts.Binary, or one that logs the text and
// waits as long as reading it would take when no binary is configured.
func New(opts Options, exec executor.Executor, log logger.Logger) Speaker {
	opts.setDefaults()
	if opts.Binary == "" {
		return &logSpeaker{rate: opts.Rate, logger: log, sleep: sleepContext}
	}
	return &commandSpeaker{opts: opts, executor: exec, logger: log}
}
