package cmd

import (
	"fmt"
	"log/slog"

	"github.com/bnema/annoirc/internal/adapters/fetch"
	"github.com/bnema/annoirc/internal/adapters/irc"
	"github.com/bnema/annoirc/internal/adapters/render/reply"
	"github.com/bnema/annoirc/internal/adapters/render/summary"
	"github.com/bnema/annoirc/internal/adapters/secrets/chain"
	"github.com/bnema/annoirc/internal/adapters/secrets/file"
	"github.com/bnema/annoirc/internal/application"
	"github.com/bnema/annoirc/internal/domain"
	"github.com/bnema/annoirc/internal/ports"
)

type app struct {
	secretStore     ports.SecretStore
	newTransport    func(*slog.Logger) ports.Transport
	newFetchers     func(config fetchConfig, clock ports.Clock) ports.Fetchers
	render          application.Renderer
	summaryRenderer func(*domain.Config, summary.RenderOptions) string
	clock           ports.Clock
}

type fetchConfig interface {
	Current() *domain.Config
}

func wireApp() (*app, error) {
	secretRoot, err := file.DefaultRoot()
	if err != nil {
		return nil, fmt.Errorf("resolve secret directory: %w", err)
	}

	secretStore, err := chain.NewPassFirstWithFileFallback(secretRoot)
	if err != nil {
		return nil, fmt.Errorf("wire secret store chain: %w", err)
	}

	return &app{
		secretStore: secretStore,
		newTransport: func(logger *slog.Logger) ports.Transport {
			return irc.NewTransport(logger)
		},
		newFetchers: func(config fetchConfig, clock ports.Clock) ports.Fetchers {
			return fetch.NewFetchers(config, fetch.Endpoints{}, clock)
		},
		render:          reply.Lines,
		summaryRenderer: summary.Render,
		clock:           ports.SystemClock{},
	}, nil
}
