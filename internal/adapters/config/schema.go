package config

import (
	"time"

	"github.com/bnema/annoirc/internal/domain"
	"github.com/bnema/annoirc/internal/version"
)

const (
	defaultTLSPort   = 6697
	defaultPlainPort = 6667
)

// fileSchema mirrors the TOML layout. Sections are pre-filled with defaults
// before decoding, so absent keys keep their default value.
type fileSchema struct {
	Commands  commandsSchema           `toml:"commands"`
	Cache     cacheSchema              `toml:"cache"`
	RateLimit rateLimitSchema          `toml:"rate_limit"`
	Reconnect reconnectSchema          `toml:"reconnect"`
	HTTP      httpSchema               `toml:"http"`
	Twitter   twitterSchema            `toml:"twitter"`
	OMDb      omdbSchema               `toml:"omdb"`
	YouTube   youtubeSchema            `toml:"youtube"`
	Wolfram   wolframSchema            `toml:"wolfram"`
	Log       logSchema                `toml:"log"`
	Metrics   metricsSchema            `toml:"metrics"`
	Defaults  networkSchema            `toml:"defaults"`
	Network   map[string]networkSchema `toml:"network"`
}

type commandsSchema struct {
	Prefix        string `toml:"prefix"`
	MaxPerMessage int    `toml:"max_per_message"`
	Workers       int    `toml:"workers"`
	QueueDepth    int    `toml:"queue_depth"`
	TimeoutSecs   int64  `toml:"timeout_secs"`
}

type cacheSchema struct {
	TTLSecs  int64 `toml:"ttl_secs"`
	Capacity int   `toml:"capacity"`
}

type rateLimitSchema struct {
	Quota      int   `toml:"quota"`
	WindowSecs int64 `toml:"window_secs"`
}

type reconnectSchema struct {
	MinSecs int64 `toml:"min_secs"`
	MaxSecs int64 `toml:"max_secs"`
}

type httpSchema struct {
	UserAgent    string `toml:"user_agent"`
	MaxBodyBytes int64  `toml:"max_body_bytes"`
	AllowPrivate bool   `toml:"allow_private"`
}

type twitterSchema struct {
	BearerToken string `toml:"bearer_token"`
}

type omdbSchema struct {
	APIKey string `toml:"api_key"`
}

type youtubeSchema struct {
	APIKey string `toml:"api_key"`
	Lang   string `toml:"lang"`
}

type wolframSchema struct {
	AppID string `toml:"app_id"`
}

type logSchema struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type metricsSchema struct {
	Listen string `toml:"listen"`
}

// networkSchema uses pointers so [defaults] only fills what a network leaves
// unset.
type networkSchema struct {
	Server   *string  `toml:"server"`
	Port     *int     `toml:"port"`
	TLS      *bool    `toml:"tls"`
	Nickname *string  `toml:"nickname"`
	Username *string  `toml:"username"`
	Realname *string  `toml:"realname"`
	Password *string  `toml:"password"`
	Channels []string `toml:"channels"`
}

func defaultSchema() fileSchema {
	d := domain.DefaultConfig()
	tls := true

	return fileSchema{
		Commands: commandsSchema{
			Prefix:        d.Commands.Prefix,
			MaxPerMessage: d.Commands.MaxPerMessage,
			Workers:       d.Commands.Workers,
			QueueDepth:    d.Commands.QueueDepth,
			TimeoutSecs:   seconds(d.Commands.Timeout),
		},
		Cache: cacheSchema{
			TTLSecs:  seconds(d.Cache.TTL),
			Capacity: d.Cache.Capacity,
		},
		RateLimit: rateLimitSchema{
			Quota:      d.RateLimit.Quota,
			WindowSecs: seconds(d.RateLimit.Window),
		},
		Reconnect: reconnectSchema{
			MinSecs: seconds(d.Reconnect.Min),
			MaxSecs: seconds(d.Reconnect.Max),
		},
		HTTP: httpSchema{
			UserAgent:    "Mozilla/5.0 annoirc/" + version.Version,
			MaxBodyBytes: d.HTTP.MaxBodyBytes,
		},
		Log: logSchema{
			Level:  d.Log.Level,
			Format: d.Log.Format,
		},
		Defaults: networkSchema{TLS: &tls},
	}
}

func (s fileSchema) toDomain() *domain.Config {
	cfg := &domain.Config{
		Commands: domain.CommandsConfig{
			Prefix:        s.Commands.Prefix,
			MaxPerMessage: s.Commands.MaxPerMessage,
			Workers:       s.Commands.Workers,
			QueueDepth:    s.Commands.QueueDepth,
			Timeout:       fromSeconds(s.Commands.TimeoutSecs),
		},
		Cache: domain.CacheConfig{
			TTL:      fromSeconds(s.Cache.TTLSecs),
			Capacity: s.Cache.Capacity,
		},
		RateLimit: domain.RateLimitConfig{
			Quota:  s.RateLimit.Quota,
			Window: fromSeconds(s.RateLimit.WindowSecs),
		},
		Reconnect: domain.ReconnectConfig{
			Min: fromSeconds(s.Reconnect.MinSecs),
			Max: fromSeconds(s.Reconnect.MaxSecs),
		},
		HTTP: domain.HTTPConfig{
			UserAgent:    s.HTTP.UserAgent,
			MaxBodyBytes: s.HTTP.MaxBodyBytes,
			AllowPrivate: s.HTTP.AllowPrivate,
		},
		Twitter: domain.TwitterConfig{BearerToken: s.Twitter.BearerToken},
		OMDb:    domain.OMDbConfig{APIKey: s.OMDb.APIKey},
		YouTube: domain.YouTubeConfig{APIKey: s.YouTube.APIKey, Lang: s.YouTube.Lang},
		Wolfram: domain.WolframConfig{AppID: s.Wolfram.AppID},
		Log:     domain.LogConfig{Level: s.Log.Level, Format: s.Log.Format},
		Metrics: domain.MetricsConfig{Listen: s.Metrics.Listen},
	}

	cfg.Networks = make(map[string]domain.Network, len(s.Network))
	for name, entry := range s.Network {
		cfg.Networks[name] = entry.merge(s.Defaults).toDomain(name)
	}

	return cfg
}

func (n networkSchema) merge(defaults networkSchema) networkSchema {
	merged := n
	if merged.Server == nil {
		merged.Server = defaults.Server
	}
	if merged.Port == nil {
		merged.Port = defaults.Port
	}
	if merged.TLS == nil {
		merged.TLS = defaults.TLS
	}
	if merged.Nickname == nil {
		merged.Nickname = defaults.Nickname
	}
	if merged.Username == nil {
		merged.Username = defaults.Username
	}
	if merged.Realname == nil {
		merged.Realname = defaults.Realname
	}
	if merged.Password == nil {
		merged.Password = defaults.Password
	}
	if merged.Channels == nil {
		merged.Channels = defaults.Channels
	}
	return merged
}

func (n networkSchema) toDomain(name string) domain.Network {
	network := domain.Network{
		Name:     name,
		Server:   deref(n.Server),
		TLS:      n.TLS == nil || *n.TLS,
		Nickname: deref(n.Nickname),
		Username: deref(n.Username),
		Realname: deref(n.Realname),
		Password: deref(n.Password),
		Channels: append([]string(nil), n.Channels...),
	}

	switch {
	case n.Port != nil:
		network.Port = *n.Port
	case network.TLS:
		network.Port = defaultTLSPort
	default:
		network.Port = defaultPlainPort
	}
	if network.Username == "" {
		network.Username = network.Nickname
	}
	if network.Realname == "" {
		network.Realname = network.Nickname
	}

	return network
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func seconds(d time.Duration) int64 {
	return int64(d / time.Second)
}

func fromSeconds(secs int64) time.Duration {
	return time.Duration(secs) * time.Second
}
