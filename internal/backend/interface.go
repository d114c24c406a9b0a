package backend

import "context"

// Client talks to the frame analysis backend
type Client interface {
	Caption(ctx context.Context, image []byte) (string, error)
	Summarize(ctx context.Context, captions []string) (string, error)
	Health(ctx context.Context) error
}
