package ports

import (
	"context"

	"github.com/bnema/annoirc/internal/domain"
)

// Transport opens registered connections to a chat network. Connect returns
// only after the registration handshake succeeded and channels were joined.
type Transport interface {
	Connect(ctx context.Context, network domain.Network) (Connection, error)
}

// Connection is a live chat connection. Next blocks until the next relevant
// message and returns io.EOF once the server closed the stream. Send, Join and
// Quit may be called concurrently with Next.
type Connection interface {
	Nick() string
	Next(ctx context.Context) (domain.Message, error)
	Send(target, text string) error
	Join(channel string) error
	Quit(reason string) error
	Close() error
}
