package narrator

import (
	"context"
	"time"
)

type commandKind int

const (
	cmdStart commandKind = iota
	cmdStop
	cmdUpdate
)

type command struct {
	kind     commandKind
	settings Settings
	reply    chan error
}

// Run processes ticks, commands and async results on a single goroutine
func (c *implCoordinator) Run(ctx context.Context) error {
	c.runCtx = ctx
	defer close(c.done)

	ticks := c.ticks
	if ticks == nil {
		ticker := time.NewTicker(c.opts.TickInterval)
		defer ticker.Stop()
		ticks = ticker.C
	}

	c.logger.Info(ctx, "Narration coordinator started (tick %s, grace %s, capture timeout %s)",
		c.opts.TickInterval, c.opts.GracePeriod, c.opts.CaptureTimeout)

	for {
		select {
		case <-ctx.Done():
			c.handleStop()
			c.logger.Info(ctx, "Narration coordinator stopped")
			return ctx.Err()

		case cmd := <-c.commands:
			cmd.reply <- c.handleCommand(cmd)

		case <-ticks:
			c.tick(c.now())

		case msg := <-c.inbox:
			c.handleMessage(msg)
		}
	}
}

func (c *implCoordinator) handleCommand(cmd command) error {
	switch cmd.kind {
	case cmdStart:
		return c.handleStart(cmd.settings)
	case cmdStop:
		c.handleStop()
		return nil
	case cmdUpdate:
		return c.handleUpdate(cmd.settings)
	}
	return nil
}

func (c *implCoordinator) handleMessage(msg interface{}) {
	switch m := msg.(type) {
	case frameMsg:
		c.onFrame(m)
	case captionMsg:
		c.onCaption(m)
	case summaryMsg:
		c.onSummary(m)
	case speechMsg:
		c.onSpeech(m)
	case healthMsg:
		c.onHealth(m)
	}
}

// Start begins a new session, replacing any active one
func (c *implCoordinator) Start(ctx context.Context, settings Settings) error {
	return c.send(ctx, command{kind: cmdStart, settings: settings})
}

// Stop ends the active session; stopping when idle is a no-op
func (c *implCoordinator) Stop(ctx context.Context) error {
	return c.send(ctx, command{kind: cmdStop})
}

// UpdateSettings changes mode and interval from the next segment on
func (c *implCoordinator) UpdateSettings(ctx context.Context, settings Settings) error {
	return c.send(ctx, command{kind: cmdUpdate, settings: settings})
}

func (c *implCoordinator) send(ctx context.Context, cmd command) error {
	cmd.reply = make(chan error, 1)

	select {
	case c.commands <- cmd:
	case <-c.done:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
