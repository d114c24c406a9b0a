package speech

import "context"

// Speaker reads text aloud. Speak blocks until speech ends, fails or ctx is
// cancelled; cancellation stops speech immediately.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}
