package watcher

import "context"

// Watcher reports changes to a single file
type Watcher interface {
	Start(ctx context.Context) error
	Stop() error
}

// EventHandler is called with the watched path once changes settle
type EventHandler func(ctx context.Context, filePath string) error
