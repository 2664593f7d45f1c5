// Package summary renders a human readable overview of a configuration for
// the check command.
package summary

import (
	"fmt"
	"strings"
	"time"

	"github.com/bnema/annoirc/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

type RenderOptions struct {
	Path string
}

func Render(cfg *domain.Config, opts RenderOptions) string {
	s := newStyles()
	lines := []string{
		s.title.Render("annoirc configuration"),
		s.header.Render(fmt.Sprintf("file: %s", orNone(opts.Path))),
		s.header.Render(fmt.Sprintf("networks: %d", len(cfg.Networks))),
		s.section.Render(renderSettings(cfg, s)),
		s.section.Render(renderSources(cfg, s)),
	}

	names := cfg.NetworkNames()
	if len(names) == 0 {
		lines = append(lines, s.section.Render(s.empty.Render("No networks configured; the bot will idle until one is added.")))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, name := range names {
		lines = append(lines, s.section.Render(renderNetwork(cfg.Networks[name], s)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderSettings(cfg *domain.Config, s styles) string {
	rows := []string{
		row(s, "commands", fmt.Sprintf("prefix %q, %d per message, %d workers, queue %d, timeout %s",
			cfg.Commands.Prefix, cfg.Commands.MaxPerMessage, cfg.Commands.Workers, cfg.Commands.QueueDepth,
			formatDuration(cfg.Commands.Timeout))),
		row(s, "cache", fmt.Sprintf("%d entries for %s", cfg.Cache.Capacity, formatDuration(cfg.Cache.TTL))),
		row(s, "rate limit", fmt.Sprintf("%d per %s per channel", cfg.RateLimit.Quota, formatDuration(cfg.RateLimit.Window))),
		row(s, "reconnect", fmt.Sprintf("%s to %s", formatDuration(cfg.Reconnect.Min), formatDuration(cfg.Reconnect.Max))),
		row(s, "log", fmt.Sprintf("%s (%s)", cfg.Log.Level, cfg.Log.Format)),
		row(s, "metrics", orNone(cfg.Metrics.Listen)),
	}

	line := row(s, "http", fmt.Sprintf("body limit %d bytes", cfg.HTTP.MaxBodyBytes))
	if cfg.HTTP.AllowPrivate {
		line += " " + s.warning.Render("[private addresses allowed]")
	}
	rows = append(rows, line)

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func renderSources(cfg *domain.Config, s styles) string {
	sources := []struct {
		name     string
		enabled  bool
		fallback string
	}{
		{name: "twitter", enabled: cfg.Twitter.BearerToken != "", fallback: "links scraped as pages"},
		{name: "youtube", enabled: cfg.YouTube.APIKey != "", fallback: "links scraped as pages"},
		{name: "omdb", enabled: cfg.OMDb.APIKey != "", fallback: "movie commands disabled"},
		{name: "wolfram", enabled: cfg.Wolfram.AppID != "", fallback: "compute commands disabled"},
	}

	rows := []string{s.title.Render("Sources")}
	for _, source := range sources {
		state := s.enabled.Render("enabled")
		if !source.enabled {
			state = s.disabled.Render("disabled (" + source.fallback + ")")
		}
		rows = append(rows, row(s, source.name, state))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func renderNetwork(network domain.Network, s styles) string {
	transport := "plain"
	if network.TLS {
		transport = "tls"
	}

	rows := []string{
		s.network.Render(network.Name),
		row(s, "server", fmt.Sprintf("%s (%s)", network.Address(), transport)),
		row(s, "nick", fmt.Sprintf("%s (user %s, realname %q)", network.Nickname, network.Username, network.Realname)),
		row(s, "channels", orNone(strings.Join(network.Channels, ", "))),
	}
	if network.Password != "" {
		rows = append(rows, row(s, "password", "set"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func row(s styles, key, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, s.key.Render(fmt.Sprintf("%-10s", key+":")), " ", s.detail.Render(value))
}

func orNone(value string) string {
	if value == "" {
		return "none"
	}
	return value
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return fmt.Sprintf("%dh", int(d/time.Hour))
	case d >= time.Minute && d%time.Minute == 0:
		return fmt.Sprintf("%dm", int(d/time.Minute))
	default:
		return d.String()
	}
}
