package application

import (
	"context"
	"sync"

	"github.com/bnema/annoirc/internal/domain"
)

// Handle is the settle-once result of a command. One producer resolves it;
// any number of goroutines may wait on it, and dropping a waiter never
// affects resolution.
type Handle struct {
	command domain.Command
	done    chan struct{}
	once    sync.Once
	info    domain.Info
	err     error
}

func newHandle(command domain.Command) *Handle {
	return &Handle{command: command, done: make(chan struct{})}
}

func (h *Handle) Command() domain.Command {
	return h.command
}

// Done is closed once the handle is resolved.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Result returns the resolved value. It must only be called after Done is
// closed; before that it returns (nil, nil).
func (h *Handle) Result() (domain.Info, error) {
	select {
	case <-h.done:
		return h.info, h.err
	default:
		return nil, nil
	}
}

func (h *Handle) Wait(ctx context.Context) (domain.Info, error) {
	select {
	case <-h.done:
		return h.info, h.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// resolve publishes the result and reports whether this call won. Later
// calls are no-ops.
func (h *Handle) resolve(info domain.Info, err error) bool {
	won := false
	h.once.Do(func() {
		h.info = info
		h.err = err
		close(h.done)
		won = true
	})
	return won
}
