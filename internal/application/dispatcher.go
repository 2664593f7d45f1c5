package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/bnema/annoirc/internal/domain"
	"github.com/bnema/annoirc/internal/ports"
)

// Submitter is the part of the dispatcher a session depends on.
type Submitter interface {
	Submit(command domain.Command) (*Handle, error)
}

// Dispatcher deduplicates commands through the cache and runs cache misses on
// a bounded worker pool, each under the configured timeout. One dispatcher is
// shared by every session.
type Dispatcher struct {
	cache    *Cache
	pool     *WorkerPool
	fetchers ports.Fetchers
	logger   *slog.Logger
	metrics  *Metrics
	clock    ports.Clock
	timeout  atomic.Int64
	base     context.Context
}

var _ Submitter = (*Dispatcher)(nil)

func NewDispatcher(cfg *domain.Config, fetchers ports.Fetchers, logger *slog.Logger, metrics *Metrics, clock ports.Clock) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}

	d := &Dispatcher{
		cache:    NewCache(cfg.Cache.TTL, cfg.Cache.Capacity, clock),
		pool:     NewWorkerPool(cfg.Commands.Workers, cfg.Commands.QueueDepth),
		fetchers: fetchers,
		logger:   logger,
		metrics:  metrics,
		clock:    clock,
		base:     context.Background(),
	}
	d.timeout.Store(int64(cfg.Commands.Timeout))
	return d
}

// Submit returns the handle for command, admitting new work on a cache miss.
// It returns domain.ErrBackpressure when the worker pool cannot take the job.
func (d *Dispatcher) Submit(command domain.Command) (*Handle, error) {
	key := command.String()

	handle, isNew := d.cache.LookupOrAdmit(command)
	if !isNew {
		d.logger.Debug("command cache hit", "command", key)
		d.metrics.command("cache_hit")
		return handle, nil
	}

	if !d.pool.TrySubmit(func() { d.execute(handle) }) {
		d.cache.Forget(command, handle)
		handle.resolve(nil, domain.ErrBackpressure)
		d.logger.Debug("command rejected", "command", key)
		d.metrics.command("rejected")
		return nil, domain.ErrBackpressure
	}

	d.logger.Debug("command admitted", "command", key)
	d.metrics.command("admitted")
	return handle, nil
}

// Apply adopts a new configuration snapshot. Pool limits change for later
// admissions; the cache is replaced only when its parameters changed.
func (d *Dispatcher) Apply(cfg *domain.Config) {
	d.pool.Resize(cfg.Commands.Workers, cfg.Commands.QueueDepth)
	d.timeout.Store(int64(cfg.Commands.Timeout))

	ttl, capacity := d.cache.Settings()
	if ttl != cfg.Cache.TTL || capacity != cfg.Cache.Capacity {
		d.cache.Reconfigure(cfg.Cache.TTL, cfg.Cache.Capacity)
		d.logger.Info("cache reconfigured", "ttl", cfg.Cache.TTL, "capacity", cfg.Cache.Capacity)
	}
}

// Run follows monitor until it shuts down or ctx is done.
func (d *Dispatcher) Run(ctx context.Context, monitor ports.ConfigMonitor) error {
	sub := monitor.Subscribe()
	if cfg, ok := sub.Next(); ok {
		d.Apply(cfg)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sub.Changed():
			cfg, ok := sub.Next()
			if !ok {
				return nil
			}
			d.Apply(cfg)
		}
	}
}

// Wait blocks until every admitted command has been resolved.
func (d *Dispatcher) Wait() {
	d.pool.Wait()
}

type fetchOutcome struct {
	info domain.Info
	err  error
}

func (d *Dispatcher) execute(handle *Handle) {
	command := handle.Command()
	key := command.String()
	timeout := time.Duration(d.timeout.Load())

	ctx, cancel := context.WithTimeout(d.base, timeout)
	defer cancel()

	// Buffered so an abandoned fetch can still finish and exit.
	done := make(chan fetchOutcome, 1)
	started := d.clock.Now()
	go func() {
		info, err := d.fetch(ctx, command)
		done <- fetchOutcome{info: info, err: err}
	}()

	select {
	case out := <-done:
		d.metrics.observeFetch(string(command.Kind()), d.clock.Now().Sub(started).Seconds())
		if out.err != nil && ctx.Err() != nil && errors.Is(out.err, context.DeadlineExceeded) {
			d.timedOut(handle, key, timeout)
			return
		}
		handle.resolve(out.info, out.err)
		if out.err != nil {
			d.logger.Debug("command failed", "command", key, "error", out.err)
			d.metrics.command("failed")
			return
		}
		d.logger.Debug("command completed", "command", key)
		d.metrics.command("completed")
	case <-ctx.Done():
		d.timedOut(handle, key, timeout)
	}
}

func (d *Dispatcher) timedOut(handle *Handle, key string, timeout time.Duration) {
	handle.resolve(nil, domain.ErrTimedOut)
	d.logger.Debug("command timed out", "command", key, "timeout", timeout)
	d.metrics.command("timed_out")
}

func (d *Dispatcher) fetch(ctx context.Context, command domain.Command) (domain.Info, error) {
	switch c := command.(type) {
	case domain.URLCommand:
		if d.fetchers.Pages == nil {
			return nil, domain.ErrNotConfigured
		}
		info, err := d.fetchers.Pages.FetchPage(ctx, c.URL)
		if err != nil {
			return nil, err
		}
		return info, nil
	case domain.TweetCommand:
		if d.fetchers.Twitter == nil {
			return nil, domain.ErrNotConfigured
		}
		tweet, err := d.fetchers.Twitter.FetchTweet(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		return tweet, nil
	case domain.TwitterUserCommand:
		if d.fetchers.Twitter == nil {
			return nil, domain.ErrNotConfigured
		}
		user, err := d.fetchers.Twitter.FetchUser(ctx, c.ScreenName)
		if err != nil {
			return nil, err
		}
		return user, nil
	case domain.MovieCommand:
		if d.fetchers.Movies == nil {
			return nil, domain.ErrNotConfigured
		}
		movie, err := d.fetchers.Movies.FetchMovie(ctx, c.Type, c.Query)
		if err != nil {
			return nil, err
		}
		return movie, nil
	case domain.VideoCommand:
		if d.fetchers.Videos == nil {
			return nil, domain.ErrNotConfigured
		}
		video, err := d.fetchers.Videos.FetchVideo(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		return video, nil
	case domain.ComputeCommand:
		if d.fetchers.Compute == nil {
			return nil, domain.ErrNotConfigured
		}
		answer, err := d.fetchers.Compute.Compute(ctx, c.Query)
		if err != nil {
			return nil, err
		}
		return answer, nil
	default:
		return nil, fmt.Errorf("unsupported command kind %q", command.Kind())
	}
}
