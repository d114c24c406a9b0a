package media

import (
	"math"
	"sync"
	"time"

	"github.com/nguyentantai21042004/video-narrator/internal/logger"
	"github.com/nguyentantai21042004/video-narrator/pkg/executor"
)

// Options selects the source and the ffmpeg binaries
type Options struct {
	Source  string
	FFmpeg  string
	FFprobe string
	// Quality is the mjpeg -q:v value, 2 (best) to 31
	Quality int
}

func (o *Options) setDefaults() {
	if o.FFmpeg == "" {
		o.FFmpeg = "ffmpeg"
	}
	if o.FFprobe == "" {
		o.FFprobe = "ffprobe"
	}
	if o.Quality < 2 || o.Quality > 31 {
		o.Quality = 5
	}
}

type implPlayer struct {
	opts     Options
	executor executor.Executor
	logger   logger.Logger
	now      func() time.Time

	mu       sync.Mutex
	probed   bool
	duration float64
	offset   float64   // playhead when last paused
	since    time.Time // zero while paused
}

// NewPlayer creates a paused Player at the start of opts.Source
func NewPlayer(opts Options, exec executor.Executor, log logger.Logger) Player {
	opts.setDefaults()
	return &implPlayer{
		opts:     opts,
		executor: exec,
		logger:   log,
		now:      time.Now,
		duration: math.NaN(),
	}
}

type implGrabber struct {
	opts     Options
	player   Player
	executor executor.Executor
	logger   logger.Logger
}

// NewGrabber creates a Grabber that follows player's playhead
func NewGrabber(opts Options, player Player, exec executor.Executor, log logger.Logger) Grabber {
	opts.setDefaults()
	return &implGrabber{
		opts:     opts,
		player:   player,
		executor: exec,
		logger:   log,
	}
}
