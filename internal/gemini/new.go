package gemini

import (
	"context"
	"sync"

	"github.com/nguyentantai21042004/video-narrator/internal/logger"
	"google.golang.org/genai"
)

// generateFunc sends contents with one API key and returns the response text
type generateFunc func(ctx context.Context, apiKey, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error)

type implAnalyzer struct {
	mu         sync.Mutex // guards currentKey, frames are captioned concurrently
	apiKeys    []string
	currentKey int
	logger     logger.Logger
	model      string
	generate   generateFunc
}

// New creates an Analyzer that rotates through the supplied Gemini API keys.
func New(apiKeys []string, model string, log logger.Logger) Analyzer {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &implAnalyzer{
		apiKeys:  apiKeys,
		logger:   log,
		model:    model,
		generate: generateContent,
	}
}
