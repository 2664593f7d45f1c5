package irc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/bnema/annoirc/internal/domain"
	"github.com/bnema/annoirc/internal/ports"
	"gopkg.in/irc.v4"
)

// Conn is a registered IRC connection. Next must be called from a single
// goroutine; the write methods may be called from any goroutine.
type Conn struct {
	raw          net.Conn
	irc          *irc.Conn
	pingInterval time.Duration
	logger       *slog.Logger

	writeMu sync.Mutex

	nickMu sync.RWMutex
	nick   string

	awaitingPong bool
	closeOnce    sync.Once
	closeErr     error
}

var _ ports.Connection = (*Conn)(nil)

func (c *Conn) Nick() string {
	c.nickMu.RLock()
	defer c.nickMu.RUnlock()
	return c.nick
}

func (c *Conn) setNick(nick string) {
	c.nickMu.Lock()
	defer c.nickMu.Unlock()
	c.nick = nick
}

// Next returns the next message the session cares about. Server PINGs are
// answered here, and a silent server is probed with PING once per interval
// before the connection is declared dead.
func (c *Conn) Next(ctx context.Context) (domain.Message, error) {
	stop := context.AfterFunc(ctx, func() { _ = c.raw.SetReadDeadline(time.Now()) })
	defer stop()

	for {
		if err := ctx.Err(); err != nil {
			return domain.Message{}, err
		}
		if c.pingInterval > 0 {
			_ = c.raw.SetReadDeadline(time.Now().Add(c.pingInterval))
		}

		msg, err := c.irc.ReadMessage()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return domain.Message{}, ctxErr
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				if c.awaitingPong {
					return domain.Message{}, fmt.Errorf("%w: ping timeout", domain.ErrTransport)
				}
				c.awaitingPong = true
				if err := c.write("PING", "annoirc"); err != nil {
					return domain.Message{}, err
				}
				continue
			}
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return domain.Message{}, io.EOF
			}
			return domain.Message{}, fmt.Errorf("%w: read: %w", domain.ErrTransport, err)
		}
		c.awaitingPong = false

		if out, ok := c.translate(msg); ok {
			return out, nil
		}
	}
}

func (c *Conn) translate(msg *irc.Message) (domain.Message, bool) {
	from := ""
	if msg.Prefix != nil {
		from = msg.Prefix.Name
	}

	switch msg.Command {
	case "PING":
		if err := c.write("PONG", msg.Params...); err != nil {
			c.logger.Warn("pong failed", "error", err)
		}
		return domain.Message{}, false
	case "NICK":
		if len(msg.Params) > 0 && strings.EqualFold(from, c.Nick()) {
			c.setNick(msg.Params[0])
			c.logger.Info("nick changed", "nick", msg.Params[0])
		}
		return domain.Message{}, false
	case "PRIVMSG":
		if len(msg.Params) < 2 {
			return domain.Message{}, false
		}
		return domain.Message{
			Kind:   domain.MessageKindPrivmsg,
			From:   from,
			Target: msg.Params[0],
			Text:   trailing(msg),
		}, true
	case "INVITE":
		if len(msg.Params) < 2 {
			return domain.Message{}, false
		}
		return domain.Message{
			Kind:    domain.MessageKindInvite,
			From:    from,
			Target:  msg.Params[0],
			Channel: msg.Params[1],
		}, true
	case "KICK":
		if len(msg.Params) < 2 {
			return domain.Message{}, false
		}
		kick := domain.Message{
			Kind:    domain.MessageKindKick,
			From:    from,
			Channel: msg.Params[0],
			Target:  msg.Params[1],
		}
		if len(msg.Params) > 2 {
			kick.Text = trailing(msg)
		}
		return kick, true
	case "ERROR":
		c.logger.Info("server closing link", "reason", trailing(msg))
		return domain.Message{}, false
	default:
		return domain.Message{Kind: domain.MessageKindOther, From: from, Text: msg.Command}, true
	}
}

func (c *Conn) Send(target, text string) error {
	return c.write("PRIVMSG", target, text)
}

func (c *Conn) Join(channel string) error {
	return c.write("JOIN", channel)
}

func (c *Conn) Quit(reason string) error {
	return c.write("QUIT", reason)
}

func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.raw.Close()
	})
	return c.closeErr
}

func (c *Conn) write(command string, params ...string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.raw.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("%w: set write deadline: %w", domain.ErrTransport, err)
	}
	if err := c.irc.WriteMessage(&irc.Message{Command: command, Params: params}); err != nil {
		return fmt.Errorf("%w: write %s: %w", domain.ErrTransport, command, err)
	}
	return nil
}

func trailing(msg *irc.Message) string {
	if len(msg.Params) == 0 {
		return ""
	}
	return msg.Params[len(msg.Params)-1]
}
