package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/bnema/annoirc/internal/domain"
	"github.com/bnema/annoirc/internal/ports"
	"github.com/bnema/annoirc/internal/watch"
)

const defaultQuitGrace = 10 * time.Second

// Renderer turns a resolved command into outbound lines.
type Renderer func(info domain.Info) []string

type SessionDeps struct {
	Monitor   ports.ConfigMonitor
	Transport ports.Transport
	Submitter Submitter
	Render    Renderer
	Logger    *slog.Logger
	Metrics   *Metrics
	Clock     ports.Clock
	// QuitGrace bounds how long a QUIT may take before the connection is
	// closed from our side.
	QuitGrace time.Duration
}

// Session supervises one network: it connects, serves until the connection
// ends or the configuration changes, backs off and reconnects, and
// terminates once the network is removed or the monitor shuts down.
type Session struct {
	name      string
	monitor   ports.ConfigMonitor
	transport ports.Transport
	submitter Submitter
	render    Renderer
	logger    *slog.Logger
	metrics   *Metrics
	backoff   *Backoff
	limiter   *KeyedLimiter
	quitGrace time.Duration
}

func NewSession(name string, deps SessionDeps) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	quitGrace := deps.QuitGrace
	if quitGrace <= 0 {
		quitGrace = defaultQuitGrace
	}

	cfg := deps.Monitor.Current()
	return &Session{
		name:      name,
		monitor:   deps.Monitor,
		transport: deps.Transport,
		submitter: deps.Submitter,
		render:    deps.Render,
		logger:    logger.With("network", name),
		metrics:   deps.Metrics,
		backoff:   NewBackoff(cfg.Reconnect.Min, cfg.Reconnect.Max, deps.Clock),
		limiter:   NewKeyedLimiter(cfg.RateLimit.Quota, cfg.RateLimit.Window, deps.Clock),
		quitGrace: quitGrace,
	}
}

func (s *Session) Name() string {
	return s.name
}

// Run blocks until the session terminates. Transport failures never end it;
// they are logged and fed into the backoff.
func (s *Session) Run(ctx context.Context) error {
	sub := s.monitor.Subscribe()
	cfg, ok := sub.Next()

	s.logger.Info("session started")
	defer s.logger.Info("session terminated")

	for {
		select {
		case <-sub.Changed():
			cfg, ok = sub.Next()
		default:
		}
		if !ok || ctx.Err() != nil {
			return nil
		}
		network, present := cfg.Network(s.name)
		if !present {
			return nil
		}
		s.adopt(cfg)

		if delay, wait := s.backoff.Next(); wait {
			s.logger.Info("reconnect scheduled", "delay", delay)
			if cfg, ok = s.sleep(ctx, sub, cfg, delay); !ok {
				return nil
			}
			if network, present = cfg.Network(s.name); !present {
				return nil
			}
		}

		s.logger.Info("connect", "server", network.Server, "port", network.Port, "tls", network.TLS)
		conn, err := s.transport.Connect(ctx, network)
		if err != nil {
			s.logger.Error("connect failed", "error", err)
			s.metrics.connect(s.name, "failure")
			continue
		}
		s.backoff.Success()
		s.metrics.connect(s.name, "success")
		s.logger.Info("connected", "nick", conn.Nick())

		active := &activeConn{
			session:     s,
			conn:        conn,
			cfg:         cfg,
			network:     network,
			completions: make(chan completion),
			stop:        make(chan struct{}),
		}
		s.metrics.sessionUp(1)
		cfg, ok, err = active.serve(ctx, sub)
		s.metrics.sessionUp(-1)
		if err != nil {
			s.logger.Error("disconnect", "error", err)
		} else {
			s.logger.Info("disconnect")
		}
	}
}

// sleep waits out a backoff delay while still following the configuration.
// It reports false when the session should terminate instead.
func (s *Session) sleep(ctx context.Context, sub *watch.Subscriber[*domain.Config], cfg *domain.Config, delay time.Duration) (*domain.Config, bool) {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			return cfg, true
		case <-ctx.Done():
			return cfg, false
		case <-sub.Changed():
			next, ok := sub.Next()
			if !ok {
				return cfg, false
			}
			if _, present := next.Network(s.name); !present {
				return next, false
			}
			cfg = next
			s.adopt(cfg)
		}
	}
}

func (s *Session) adopt(cfg *domain.Config) {
	s.backoff.SetBounds(cfg.Reconnect.Min, cfg.Reconnect.Max)
	s.limiter.SetQuota(cfg.RateLimit.Quota, cfg.RateLimit.Window)
}

type completion struct {
	handle *Handle
	target string
}

// activeConn is the state of one registered connection.
type activeConn struct {
	session     *Session
	conn        ports.Connection
	cfg         *domain.Config
	network     domain.Network
	pending     int
	completions chan completion
	stop        chan struct{}

	draining  bool
	quitting  bool
	terminate bool
}

// serve runs the active state. It returns the newest configuration and
// whether the session should reconnect.
func (a *activeConn) serve(ctx context.Context, sub *watch.Subscriber[*domain.Config]) (*domain.Config, bool, error) {
	s := a.session

	readCtx, stopRead := context.WithCancel(ctx)
	messages := make(chan domain.Message)
	readErr := make(chan error, 1)
	go func() {
		defer close(messages)
		for {
			msg, err := a.conn.Next(readCtx)
			if err != nil {
				readErr <- err
				return
			}
			select {
			case messages <- msg:
			case <-readCtx.Done():
				readErr <- readCtx.Err()
				return
			}
		}
	}()

	defer func() {
		close(a.stop)
		stopRead()
		_ = a.conn.Close()
		for range messages {
		}
	}()

	var drainTimer, quitTimer <-chan time.Time
	changed := sub.Changed()
	ctxDone := ctx.Done()

	for {
		select {
		case msg, open := <-messages:
			if !open {
				err := <-readErr
				if errors.Is(err, io.EOF) || a.quitting || ctx.Err() != nil {
					err = nil
				}
				if err != nil {
					err = fmt.Errorf("read message: %w", err)
				}
				return a.cfg, !a.terminate && ctx.Err() == nil, err
			}
			if !a.draining && !a.quitting {
				a.handle(msg)
			}

		case <-changed:
			next, ok := sub.Next()
			nextNetwork, present := next.Network(s.name)
			switch {
			case !ok || !present:
				s.logger.Info("network removed, draining", "pending", a.pending)
				changed = nil
				a.terminate = true
				drainTimer = a.drain()
				if a.quitting {
					quitTimer = time.After(s.quitGrace)
				}
			case !nextNetwork.Equal(a.network):
				s.logger.Info("network reconfigured, reconnecting")
				a.cfg = next
				changed = nil
				a.quit("Reconfiguring")
				quitTimer = time.After(s.quitGrace)
			default:
				a.cfg = next
				s.adopt(next)
				changed = sub.Changed()
			}

		case done := <-a.completions:
			a.pending--
			a.deliver(done)
			if a.draining && a.pending == 0 && !a.quitting {
				a.quit("Shutting down")
				quitTimer = time.After(s.quitGrace)
			}

		case <-drainTimer:
			drainTimer = nil
			if !a.quitting {
				s.logger.Info("drain timeout", "abandoned", a.pending)
				a.quit("Shutting down")
				quitTimer = time.After(s.quitGrace)
			}

		case <-quitTimer:
			quitTimer = nil
			s.logger.Warn("quit not acknowledged, closing")
			_ = a.conn.Close()

		case <-ctxDone:
			ctxDone = nil
			_ = a.conn.Close()
		}
	}
}

// drain stops command intake and quits immediately when nothing is pending.
// Otherwise it returns a timer bounding the wait for pending commands.
func (a *activeConn) drain() <-chan time.Time {
	a.draining = true
	if a.pending == 0 {
		a.quit("Shutting down")
		return nil
	}
	return time.After(a.cfg.Commands.Timeout)
}

func (a *activeConn) quit(reason string) {
	if a.quitting {
		return
	}
	a.quitting = true
	if err := a.conn.Quit(reason); err != nil {
		a.session.logger.Warn("quit failed", "error", err)
	}
}

func (a *activeConn) handle(msg domain.Message) {
	s := a.session
	nick := a.conn.Nick()

	switch msg.Kind {
	case domain.MessageKindInvite:
		if strings.EqualFold(msg.Target, nick) && a.network.HasChannel(msg.Channel) {
			s.logger.Info("invited", "channel", msg.Channel, "by", msg.From)
			if err := a.conn.Join(msg.Channel); err != nil {
				s.logger.Warn("join failed", "channel", msg.Channel, "error", err)
			}
		}
	case domain.MessageKindKick:
		if strings.EqualFold(msg.Target, nick) {
			s.logger.Info("kicked", "channel", msg.Channel, "by", msg.From, "reason", msg.Text)
		}
	case domain.MessageKindPrivmsg:
		if strings.EqualFold(msg.From, nick) || strings.HasPrefix(msg.Text, "\x01") || !a.network.HasChannel(msg.Target) {
			return
		}
		a.dispatch(msg)
	}
}

func (a *activeConn) dispatch(msg domain.Message) {
	s := a.session
	commands := ExtractCommands(msg.Text, a.cfg)
	channel := strings.ToLower(msg.Target)

	for i, command := range commands {
		if !s.limiter.Allow(channel) {
			s.logger.Info("throttled", "channel", msg.Target, "from", msg.From, "dropped", len(commands)-i)
			s.metrics.throttle(s.name)
			return
		}

		handle, err := s.submitter.Submit(command)
		if err != nil {
			s.logger.Debug("command dropped", "command", command.String(), "error", err)
			continue
		}
		a.track(handle, msg.Target)
	}
}

func (a *activeConn) track(handle *Handle, target string) {
	a.pending++
	go func() {
		select {
		case <-handle.Done():
		case <-a.stop:
			return
		}
		select {
		case a.completions <- completion{handle: handle, target: target}:
		case <-a.stop:
		}
	}()
}

func (a *activeConn) deliver(done completion) {
	s := a.session
	key := done.handle.Command().String()

	info, err := done.handle.Result()
	if err != nil {
		s.logger.Debug("command unresolved", "command", key, "error", err)
		return
	}

	for _, line := range s.render(info) {
		if err := a.conn.Send(done.target, line); err != nil {
			s.logger.Warn("send failed", "command", key, "target", done.target, "error", err)
			s.metrics.reply(s.name, "failure")
			return
		}
		s.metrics.reply(s.name, "sent")
	}
	s.logger.Info("resolved", "command", key, "target", done.target)
}
