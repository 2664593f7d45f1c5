package domain

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Config is an immutable configuration snapshot. It must not be modified
// once published to a monitor.
type Config struct {
	Commands  CommandsConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Reconnect ReconnectConfig
	HTTP      HTTPConfig
	Twitter   TwitterConfig
	OMDb      OMDbConfig
	YouTube   YouTubeConfig
	Wolfram   WolframConfig
	Log       LogConfig
	Metrics   MetricsConfig
	Networks  map[string]Network
}

type CommandsConfig struct {
	Prefix        string
	MaxPerMessage int
	Workers       int
	QueueDepth    int
	Timeout       time.Duration
}

type CacheConfig struct {
	TTL      time.Duration
	Capacity int
}

type RateLimitConfig struct {
	Quota  int
	Window time.Duration
}

type ReconnectConfig struct {
	Min time.Duration
	Max time.Duration
}

type HTTPConfig struct {
	UserAgent    string
	MaxBodyBytes int64
	AllowPrivate bool
}

type TwitterConfig struct {
	BearerToken string
}

type OMDbConfig struct {
	APIKey string
}

type YouTubeConfig struct {
	APIKey string
	Lang   string
}

type WolframConfig struct {
	AppID string
}

type LogConfig struct {
	Level  string
	Format string
}

type MetricsConfig struct {
	Listen string
}

type Network struct {
	Name     string
	Server   string
	Port     int
	TLS      bool
	Nickname string
	Username string
	Realname string
	Password string
	Channels []string
}

func (n Network) Address() string {
	return fmt.Sprintf("%s:%d", n.Server, n.Port)
}

// Equal reports whether both networks would produce the same connection.
func (n Network) Equal(other Network) bool {
	return n.Name == other.Name &&
		n.Server == other.Server &&
		n.Port == other.Port &&
		n.TLS == other.TLS &&
		n.Nickname == other.Nickname &&
		n.Username == other.Username &&
		n.Realname == other.Realname &&
		n.Password == other.Password &&
		slices.Equal(n.Channels, other.Channels)
}

// HasChannel matches channel names case-insensitively, as IRC servers do.
func (n Network) HasChannel(channel string) bool {
	for _, configured := range n.Channels {
		if strings.EqualFold(configured, channel) {
			return true
		}
	}
	return false
}

func DefaultConfig() *Config {
	return &Config{
		Commands: CommandsConfig{
			Prefix:        "!",
			MaxPerMessage: 3,
			Workers:       4,
			QueueDepth:    32,
			Timeout:       10 * time.Second,
		},
		Cache: CacheConfig{
			TTL:      60 * time.Hour,
			Capacity: 1024,
		},
		RateLimit: RateLimitConfig{
			Quota:  10,
			Window: time.Minute,
		},
		Reconnect: ReconnectConfig{
			Min: 10 * time.Second,
			Max: 5 * time.Minute,
		},
		HTTP: HTTPConfig{
			MaxBodyBytes: 256 * 1024,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Networks: map[string]Network{},
	}
}

func (c *Config) Network(name string) (Network, bool) {
	if c == nil {
		return Network{}, false
	}
	network, ok := c.Networks[name]
	return network, ok
}

// NetworkNames returns configured network names in a stable order.
func (c *Config) NetworkNames() []string {
	names := make([]string, 0, len(c.Networks))
	for name := range c.Networks {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (c *Config) Validate() error {
	var errs []error

	if c.Commands.Prefix == "" {
		errs = append(errs, errors.New("commands.prefix must not be empty"))
	}
	if c.Commands.MaxPerMessage < 1 {
		errs = append(errs, errors.New("commands.max_per_message must be at least 1"))
	}
	if c.Commands.Workers < 1 {
		errs = append(errs, errors.New("commands.workers must be at least 1"))
	}
	if c.Commands.QueueDepth < 0 {
		errs = append(errs, errors.New("commands.queue_depth must not be negative"))
	}
	if c.Commands.Timeout <= 0 {
		errs = append(errs, errors.New("commands.timeout_secs must be positive"))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("cache.ttl_secs must be positive"))
	}
	if c.Cache.Capacity < 1 {
		errs = append(errs, errors.New("cache.capacity must be at least 1"))
	}
	if c.RateLimit.Quota < 1 {
		errs = append(errs, errors.New("rate_limit.quota must be at least 1"))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate_limit.window_secs must be positive"))
	}
	if c.Reconnect.Min <= 0 || c.Reconnect.Max < c.Reconnect.Min {
		errs = append(errs, errors.New("reconnect.min_secs must be positive and not exceed reconnect.max_secs"))
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("http.max_body_bytes must be positive"))
	}

	for _, name := range c.NetworkNames() {
		network := c.Networks[name]
		if network.Server == "" {
			errs = append(errs, fmt.Errorf("network %q: server is required", name))
		}
		if network.Port < 1 || network.Port > 65535 {
			errs = append(errs, fmt.Errorf("network %q: port %d out of range", name, network.Port))
		}
		if network.Nickname == "" {
			errs = append(errs, fmt.Errorf("network %q: nickname is required", name))
		}
		for _, channel := range network.Channels {
			if !strings.HasPrefix(channel, "#") && !strings.HasPrefix(channel, "&") {
				errs = append(errs, fmt.Errorf("network %q: channel %q must start with # or &", name, channel))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrConfigInvalid, errors.Join(errs...))
	}
	return nil
}
