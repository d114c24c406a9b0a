package openaivision

import (
	"github.com/nguyentantai21042004/video-narrator/internal/logger"
	openai "github.com/sashabaranov/go-openai"
)

// Options configures the OpenAI client
type Options struct {
	APIKey  string
	BaseURL string
	Model   string

	// MaxTokens bounds each completion, defaults to 300
	MaxTokens int
}

type implAnalyzer struct {
	cli       *openai.Client
	model     string
	maxTokens int
	logger    logger.Logger
}

// New creates an Analyzer. An empty BaseURL uses the public OpenAI API.
func New(opts Options, log logger.Logger) Analyzer {
	clientConfig := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		clientConfig.BaseURL = opts.BaseURL
	}
	if opts.Model == "" {
		opts.Model = openai.GPT4oMini
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 300
	}

	return &implAnalyzer{
		cli:       openai.NewClientWithConfig(clientConfig),
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
		logger:    log,
	}
}
