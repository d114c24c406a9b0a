package openaivision

import "context"

// Analyzer captions frames and summarizes caption lists through an
// OpenAI-compatible chat completions endpoint.
type Analyzer interface {
	Caption(ctx context.Context, image []byte) (string, error)
	Summarize(ctx context.Context, captions []string) (string, error)
}
