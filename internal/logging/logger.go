// Package logging builds the process logger from the [log] section and keeps
// its level in step with configuration reloads.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/bnema/annoirc/internal/domain"
	"github.com/bnema/annoirc/internal/ports"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// New returns a logger writing to w and the level variable controlling it.
func New(cfg domain.LogConfig, w io.Writer) (*slog.Logger, *slog.LevelVar, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	levelVar := &slog.LevelVar{}
	levelVar.Set(level)
	opts := &slog.HandlerOptions{Level: levelVar}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", FormatText:
		handler = slog.NewTextHandler(w, opts)
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, nil, fmt.Errorf("%w: log.format %q is not text or json", domain.ErrConfigInvalid, cfg.Format)
	}

	return slog.New(handler), levelVar, nil
}

func ParseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: log.level %q is not debug, info, warn or error", domain.ErrConfigInvalid, raw)
	}
}

// Follow applies log.level from every new snapshot until the monitor shuts
// down or ctx is done. The handler format is fixed at startup.
func Follow(ctx context.Context, monitor ports.ConfigMonitor, levelVar *slog.LevelVar, logger *slog.Logger) {
	sub := monitor.Subscribe()
	format := monitor.Current().Log.Format

	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Changed():
		}

		cfg, ok := sub.Next()
		if !ok {
			return
		}

		level, err := ParseLevel(cfg.Log.Level)
		if err != nil {
			logger.Warn("ignoring log level", "error", err)
		} else if level != levelVar.Level() {
			levelVar.Set(level)
			logger.Info("log level changed", "level", level.String())
		}

		if !strings.EqualFold(cfg.Log.Format, format) {
			logger.Warn("log format changes take effect after restart", "format", cfg.Log.Format)
			format = cfg.Log.Format
		}
	}
}
