package application

import (
	"context"
	"log/slog"
)

// Bot keeps one Session running per configured network.
type Bot struct {
	deps   SessionDeps
	logger *slog.Logger
}

func NewBot(deps SessionDeps) *Bot {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{deps: deps, logger: logger}
}

// Run spawns sessions for new networks as configuration changes and returns
// once the monitor has shut down and every session has terminated.
func (b *Bot) Run(ctx context.Context) error {
	sub := b.deps.Monitor.Subscribe()
	cfg, open := sub.Next()

	running := map[string]struct{}{}
	exited := make(chan string)
	changed := sub.Changed()
	ctxDone := ctx.Done()

	for {
		if open && ctx.Err() == nil {
			for _, name := range cfg.NetworkNames() {
				if _, ok := running[name]; ok {
					continue
				}
				b.logger.Info("spawn", "network", name)
				running[name] = struct{}{}
				session := NewSession(name, b.deps)
				go func() {
					_ = session.Run(ctx)
					exited <- session.Name()
				}()
			}
		}

		if !open && len(running) == 0 {
			b.logger.Info("shutdown")
			return nil
		}

		select {
		case <-changed:
			cfg, open = sub.Next()
			if open {
				changed = sub.Changed()
			} else {
				changed = nil
			}
		case name := <-exited:
			b.logger.Info("close", "network", name)
			delete(running, name)
		case <-ctxDone:
			ctxDone = nil
			open = false
			changed = nil
		}
	}
}
