package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bnema/annoirc/internal/domain"
	"github.com/bnema/annoirc/internal/ports"
	"github.com/bnema/annoirc/internal/watch"
	"github.com/fsnotify/fsnotify"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	configName = "annoirc"
	configType = "toml"
	envPrefix  = "ANNOIRC"
	secretRef  = "secret:"
)

// Keys that may be overridden from the environment, e.g. ANNOIRC_LOG_LEVEL.
var envOverrides = []string{"log.level", "log.format", "metrics.listen"}

type Options struct {
	// Path selects the configuration file. When empty the file is searched
	// for in the user configuration directory, /etc/annoirc and the working
	// directory.
	Path    string
	Secrets ports.SecretStore
	Logger  *slog.Logger
	Viper   *viper.Viper
}

// Monitor loads the configuration file and republishes it whenever it changes
// on disk or Reload is called. A failed reload keeps the previous snapshot.
type Monitor struct {
	value   *watch.Value[*domain.Config]
	v       *viper.Viper
	path    string
	secrets ports.SecretStore
	logger  atomic.Pointer[slog.Logger]

	mu       sync.Mutex
	watching bool
}

var _ ports.ConfigMonitor = (*Monitor)(nil)

func NewMonitor(ctx context.Context, opts Options) (*Monitor, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	v, path, err := locate(opts)
	if err != nil {
		return nil, err
	}

	m := &Monitor{
		v:       v,
		path:    path,
		secrets: opts.Secrets,
	}
	m.logger.Store(logger)

	cfg, err := m.load(ctx)
	if err != nil {
		return nil, err
	}
	m.value = watch.New(cfg)

	return m, nil
}

// Load reads and validates the configuration once.
func Load(ctx context.Context, opts Options) (*domain.Config, string, error) {
	m, err := NewMonitor(ctx, opts)
	if err != nil {
		return nil, "", err
	}
	defer m.Close()

	return m.Current(), m.Path(), nil
}

func locate(opts Options) (*viper.Viper, string, error) {
	v := opts.Viper
	if v == nil {
		v = viper.New()
	}

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envOverrides {
		if err := v.BindEnv(key); err != nil {
			return nil, "", fmt.Errorf("bind environment for %s: %w", key, err)
		}
	}

	if opts.Path != "" {
		v.SetConfigFile(opts.Path)
	} else {
		v.SetConfigName(configName)
		if configDir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(configDir, configName))
		}
		v.AddConfigPath(filepath.Join("/etc", configName))
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, "", fmt.Errorf("%w: no %s.%s found", domain.ErrConfigInvalid, configName, configType)
		}
		return nil, "", fmt.Errorf("read config file: %w", err)
	}

	path, err := filepath.Abs(v.ConfigFileUsed())
	if err != nil {
		return nil, "", fmt.Errorf("resolve config path: %w", err)
	}

	return v, filepath.Clean(path), nil
}

// SetLogger replaces the logger used for reload reports, typically once the
// configured handler has been built from the first snapshot.
func (m *Monitor) SetLogger(logger *slog.Logger) {
	if logger != nil {
		m.logger.Store(logger)
	}
}

func (m *Monitor) log() *slog.Logger {
	return m.logger.Load()
}

func (m *Monitor) Path() string {
	return m.path
}

func (m *Monitor) Current() *domain.Config {
	return m.value.Current()
}

func (m *Monitor) Subscribe() *watch.Subscriber[*domain.Config] {
	return m.value.Subscribe()
}

// Close tells every subscriber to shut down. Later reloads are ignored.
func (m *Monitor) Close() {
	m.value.Close()
}

// Watch reloads the configuration whenever the file changes on disk.
func (m *Monitor) Watch() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.watching {
		return
	}
	m.watching = true

	m.v.OnConfigChange(func(event fsnotify.Event) {
		if m.value.Closed() {
			return
		}
		m.log().Info("config file changed", "path", event.Name, "op", event.Op.String())
		_ = m.Reload(context.Background())
	})
	m.v.WatchConfig()
	m.log().Debug("watching config file", "path", m.path)
}

// Reload re-reads the file and publishes the result if it differs from the
// current snapshot. On failure the current snapshot stays in effect.
func (m *Monitor) Reload(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.value.Closed() {
		return nil
	}

	cfg, err := m.load(ctx)
	if err != nil {
		m.log().Error("config reload failed, keeping previous configuration", "path", m.path, "error", err)
		return err
	}

	if reflect.DeepEqual(cfg, m.value.Current()) {
		m.log().Debug("config unchanged", "path", m.path)
		return nil
	}

	m.value.Publish(cfg)
	m.log().Info("config reloaded", "path", m.path, "networks", len(cfg.Networks))
	return nil
}

func (m *Monitor) load(ctx context.Context) (*domain.Config, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg, err := decode(data)
	if err != nil {
		return nil, err
	}

	if err := m.applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := resolveSecrets(ctx, cfg, m.secrets); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func decode(data []byte) (*domain.Config, error) {
	file := defaultSchema()

	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&file); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigInvalid, strict.String())
		}
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, fmt.Errorf("%w: line %d column %d: %s", domain.ErrConfigInvalid, row, col, decodeErr.Error())
		}
		return nil, fmt.Errorf("decode config file: %w", err)
	}

	return file.toDomain(), nil
}

func (m *Monitor) applyEnv(cfg *domain.Config) error {
	// Environment values only; the file itself was decoded strictly above.
	for _, key := range envOverrides {
		value, ok := os.LookupEnv(envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_")))
		if !ok {
			continue
		}
		value = m.v.GetString(key)
		switch key {
		case "log.level":
			cfg.Log.Level = value
		case "log.format":
			cfg.Log.Format = value
		case "metrics.listen":
			cfg.Metrics.Listen = value
		default:
			return fmt.Errorf("unsupported environment override %s", key)
		}
	}
	return nil
}
