package gemini

import "context"

// Analyzer captions frames and summarizes caption lists with Gemini
type Analyzer interface {
	Caption(ctx context.Context, image []byte) (string, error)
	Summarize(ctx context.Context, captions []string) (string, error)
}
