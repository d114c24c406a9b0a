package backend

import (
	"net/http"
	"strings"
	"time"

	"github.com/nguyentantai21042004/video-narrator/internal/logger"
	"golang.org/x/time/rate"
)

// Options configures the HTTP client
type Options struct {
	BaseURL string
	Timeout time.Duration
	// Fast asks the backend for CPU friendly captioning
	Fast    bool

	// RequestsPerSecond limits outgoing calls, 0 disables the limit
	RequestsPerSecond float64
	Burst             int
}

type implClient struct {
	baseURL string
	fast    bool
	http    *http.Client
	limiter *rate.Limiter
	logger  logger.Logger
}

// New creates a backend Client
func New(opts Options, log logger.Logger) Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst)
	}

	return &implClient{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		fast:    opts.Fast,
		http:    &http.Client{Timeout: opts.Timeout},
		limiter: limiter,
		logger:  log,
	}
}
