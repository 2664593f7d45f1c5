package application

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"sync"
	"testing"
	"time"

	"github.com/bnema/annoirc/internal/domain"
	"github.com/bnema/annoirc/internal/ports"
	"github.com/bnema/annoirc/internal/watch"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testEpoch = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: testEpoch}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// syncBuffer collects log output written from several goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testNetwork(name string, channels ...string) domain.Network {
	return domain.Network{
		Name:     name,
		Server:   name + ".example.net",
		Port:     6697,
		TLS:      true,
		Nickname: "annobot",
		Channels: channels,
	}
}

func testConfig(networks ...domain.Network) *domain.Config {
	cfg := domain.DefaultConfig()
	cfg.Reconnect = domain.ReconnectConfig{}
	cfg.Commands.Timeout = time.Second
	for _, network := range networks {
		cfg.Networks[network.Name] = network
	}
	return cfg
}

// withNetworks copies cfg with a replaced network set; published snapshots
// must never share mutable state.
func withNetworks(cfg *domain.Config, networks ...domain.Network) *domain.Config {
	next := *cfg
	next.Networks = make(map[string]domain.Network, len(networks))
	for _, network := range networks {
		next.Networks[network.Name] = network
	}
	return &next
}

func cloneConfig(cfg *domain.Config) *domain.Config {
	next := *cfg
	next.Networks = maps.Clone(cfg.Networks)
	return &next
}

type pageFetcherFunc func(ctx context.Context, rawURL string) (domain.URLInfo, error)

func (f pageFetcherFunc) FetchPage(ctx context.Context, rawURL string) (domain.URLInfo, error) {
	return f(ctx, rawURL)
}

func titlePages(title string, calls *countingSet) ports.PageFetcher {
	return pageFetcherFunc(func(_ context.Context, rawURL string) (domain.URLInfo, error) {
		calls.add(rawURL)
		return domain.URLInfo{URL: rawURL, Host: "example.com", Title: title}, nil
	})
}

type countingSet struct {
	mu    sync.Mutex
	calls []string
}

func (c *countingSet) add(value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, value)
}

func (c *countingSet) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func testRender(info domain.Info) []string {
	switch v := info.(type) {
	case domain.URLInfo:
		return []string{fmt.Sprintf("[%s] %s", v.Host, v.Title)}
	default:
		return []string{fmt.Sprintf("%v", v)}
	}
}

type sentLine struct {
	target string
	text   string
}

type fakeConn struct {
	nick    string
	network domain.Network
	inbound chan domain.Message
	sent    chan sentLine

	mu     sync.Mutex
	quits  []string
	joins  []string
	closed chan struct{}
	once   sync.Once
}

func newFakeConn(network domain.Network) *fakeConn {
	return &fakeConn{
		nick:    network.Nickname,
		network: network,
		inbound: make(chan domain.Message),
		sent:    make(chan sentLine, 64),
		closed:  make(chan struct{}),
	}
}

func (c *fakeConn) Nick() string { return c.nick }

func (c *fakeConn) Next(ctx context.Context) (domain.Message, error) {
	select {
	case msg := <-c.inbound:
		return msg, nil
	case <-c.closed:
		return domain.Message{}, io.EOF
	case <-ctx.Done():
		return domain.Message{}, ctx.Err()
	}
}

func (c *fakeConn) Send(target, text string) error {
	select {
	case <-c.closed:
		return io.ErrClosedPipe
	default:
	}
	c.sent <- sentLine{target: target, text: text}
	return nil
}

func (c *fakeConn) Join(channel string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.joins = append(c.joins, channel)
	return nil
}

// Quit behaves like a server acknowledging QUIT by closing the stream.
func (c *fakeConn) Quit(reason string) error {
	c.mu.Lock()
	c.quits = append(c.quits, reason)
	c.mu.Unlock()
	return c.Close()
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) Quits() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.quits...)
}

func (c *fakeConn) Joins() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.joins...)
}

// say delivers a channel message, failing the test if the session stopped
// reading.
func (c *fakeConn) say(t *testing.T, from, target, text string) {
	t.Helper()
	select {
	case c.inbound <- domain.Message{Kind: domain.MessageKindPrivmsg, From: from, Target: target, Text: text}:
	case <-time.After(2 * time.Second):
		t.Fatalf("session did not read message %q", text)
	}
}

func (c *fakeConn) deliver(t *testing.T, msg domain.Message) {
	t.Helper()
	select {
	case c.inbound <- msg:
	case <-time.After(2 * time.Second):
		t.Fatalf("session did not read %s message", msg.Kind)
	}
}

func (c *fakeConn) nextLine(t *testing.T) sentLine {
	t.Helper()
	select {
	case line := <-c.sent:
		return line
	case <-time.After(2 * time.Second):
		t.Fatal("no line sent")
		return sentLine{}
	}
}

func (c *fakeConn) assertSilent(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case line := <-c.sent:
		t.Fatalf("unexpected line sent: %+v", line)
	case <-time.After(wait):
	}
}

func (c *fakeConn) waitClosed(t *testing.T) {
	t.Helper()
	select {
	case <-c.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("connection was not closed")
	}
}

type fakeTransport struct {
	mu       sync.Mutex
	failures int
	attempts int
	conns    chan *fakeConn
}

func newFakeTransport(failures int) *fakeTransport {
	return &fakeTransport{failures: failures, conns: make(chan *fakeConn, 16)}
}

func (f *fakeTransport) Connect(_ context.Context, network domain.Network) (ports.Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.attempts++
	if f.attempts <= f.failures {
		return nil, fmt.Errorf("%w: connection refused", domain.ErrTransport)
	}

	conn := newFakeConn(network)
	f.conns <- conn
	return conn, nil
}

func (f *fakeTransport) Attempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts
}

func (f *fakeTransport) nextConn(t *testing.T) *fakeConn {
	t.Helper()
	select {
	case conn := <-f.conns:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("no connection established")
		return nil
	}
}

func newTestMonitor(cfg *domain.Config) *watch.Value[*domain.Config] {
	return watch.New(cfg)
}

// runInBackground starts fn and returns a function that waits for it.
func runInBackground(t *testing.T, fn func() error) func() {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- fn() }()

	return func() {
		t.Helper()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("run returned error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("run did not return")
		}
	}
}
