package irc

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/bnema/annoirc/internal/domain"
	"github.com/bnema/annoirc/internal/ports"
	"gopkg.in/irc.v4"
)

const (
	defaultHandshakeTimeout = 30 * time.Second
	defaultPingInterval     = 2 * time.Minute
	writeTimeout            = 30 * time.Second
	maxNickAttempts         = 5
)

// Numeric replies handled during registration.
const (
	rplWelcome          = "001"
	errNicknameInUse    = "433"
	errNickCollision    = "436"
	errUnavailResource  = "437"
	errPasswdMismatch   = "464"
	errYoureBannedCreep = "465"
)

type dialFunc func(ctx context.Context, network domain.Network) (net.Conn, error)

// Transport opens registered IRC connections over TCP or TLS.
type Transport struct {
	dial             dialFunc
	handshakeTimeout time.Duration
	pingInterval     time.Duration
	logger           *slog.Logger
}

var _ ports.Transport = (*Transport)(nil)

func NewTransport(logger *slog.Logger) *Transport {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{
		dial:             dialNetwork,
		handshakeTimeout: defaultHandshakeTimeout,
		pingInterval:     defaultPingInterval,
		logger:           logger,
	}
}

func dialNetwork(ctx context.Context, network domain.Network) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: defaultHandshakeTimeout, KeepAlive: time.Minute}
	if !network.TLS {
		return dialer.DialContext(ctx, "tcp", network.Address())
	}

	tlsDialer := &tls.Dialer{
		NetDialer: dialer,
		Config: &tls.Config{
			ServerName: network.Server,
			MinVersion: tls.VersionTLS12,
		},
	}
	return tlsDialer.DialContext(ctx, "tcp", network.Address())
}

// Connect dials the network, registers and joins the configured channels.
func (t *Transport) Connect(ctx context.Context, network domain.Network) (ports.Connection, error) {
	raw, err := t.dial(ctx, network)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", domain.ErrTransport, network.Address(), err)
	}

	conn := &Conn{
		raw:          raw,
		irc:          irc.NewConn(raw),
		nick:         network.Nickname,
		pingInterval: t.pingInterval,
		logger:       t.logger.With("network", network.Name),
	}

	if err := conn.register(ctx, network, t.handshakeTimeout); err != nil {
		_ = raw.Close()
		return nil, err
	}

	for _, channel := range network.Channels {
		if err := conn.Join(channel); err != nil {
			_ = raw.Close()
			return nil, err
		}
	}

	return conn, nil
}

func (c *Conn) register(ctx context.Context, network domain.Network, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.raw.SetDeadline(deadline); err != nil {
		return fmt.Errorf("%w: set handshake deadline: %w", domain.ErrTransport, err)
	}
	stop := context.AfterFunc(ctx, func() { _ = c.raw.SetDeadline(time.Now()) })
	defer stop()

	if network.Password != "" {
		if err := c.write("PASS", network.Password); err != nil {
			return c.handshakeError(ctx, err)
		}
	}
	if err := c.write("NICK", c.nick); err != nil {
		return c.handshakeError(ctx, err)
	}
	if err := c.write("USER", network.Username, "0", "*", network.Realname); err != nil {
		return c.handshakeError(ctx, err)
	}

	attempts := 1
	for {
		msg, err := c.irc.ReadMessage()
		if err != nil {
			return c.handshakeError(ctx, err)
		}

		switch msg.Command {
		case "PING":
			if err := c.write("PONG", msg.Params...); err != nil {
				return c.handshakeError(ctx, err)
			}
		case rplWelcome:
			if len(msg.Params) > 0 {
				c.nick = msg.Params[0]
			}
			return c.raw.SetDeadline(time.Time{})
		case errNicknameInUse, errNickCollision, errUnavailResource:
			if attempts >= maxNickAttempts {
				return fmt.Errorf("%w: nickname %q unavailable", domain.ErrTransport, network.Nickname)
			}
			attempts++
			c.nick += "_"
			c.logger.Info("nickname taken, retrying", "nick", c.nick)
			if err := c.write("NICK", c.nick); err != nil {
				return c.handshakeError(ctx, err)
			}
		case errPasswdMismatch, errYoureBannedCreep, "ERROR":
			return fmt.Errorf("%w: registration refused: %s", domain.ErrTransport, trailing(msg))
		}
	}
}

func (c *Conn) handshakeError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: registration timed out", domain.ErrTransport)
	}
	return fmt.Errorf("%w: register: %w", domain.ErrTransport, err)
}
