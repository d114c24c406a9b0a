package main

import (
	"context"

	"github.com/nguyentantai21042004/video-narrator/internal/logger"
	"github.com/nguyentantai21042004/video-narrator/internal/narrator"
)

// forwardEvents hands coordinator events to the UI. Countdown ticks are
// dropped when the UI falls behind; every other event waits for room until
// ctx is done.
func forwardEvents(ctx context.Context, events chan<- narrator.Event, log logger.Logger) narrator.EventHandler {
	return func(ev narrator.Event) {
		if ev.Kind == narrator.EventCountdown {
			select {
			case events <- ev:
			default:
				log.Debug(ctx, "Countdown dropped, UI is not keeping up")
			}
			return
		}

		select {
		case events <- ev:
		case <-ctx.Done():
			log.Warn(ctx, "Event %s dropped on shutdown", ev.Kind)
		}
	}
}
