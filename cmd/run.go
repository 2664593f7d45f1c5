package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bnema/annoirc/internal/adapters/config"
	"github.com/bnema/annoirc/internal/application"
	"github.com/bnema/annoirc/internal/domain"
	"github.com/bnema/annoirc/internal/logging"
	"github.com/bnema/annoirc/internal/version"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

const metricsShutdownTimeout = 5 * time.Second

func newRunCmd(app *app, configPath *string) *cobra.Command {
	var noWatch bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to every configured network and serve until interrupted",
		Long:  "run connects to every configured network and annotates links until SIGINT or SIGTERM. The configuration file is watched for changes; SIGHUP forces a reload.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBot(cmd, app, *configPath, !noWatch)
		},
	}

	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Reload only on SIGHUP instead of watching the file")

	return cmd
}

func runBot(cmd *cobra.Command, app *app, configPath string, watch bool) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// The file is read once with a bootstrap logger so the configured level
	// and format are known before anything else logs.
	bootstrap := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
	monitor, err := config.NewMonitor(ctx, config.Options{
		Path:    configPath,
		Secrets: app.secretStore,
		Logger:  bootstrap,
		Viper:   viper.New(),
	})
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	defer monitor.Close()

	logger, levelVar, err := logging.New(monitor.Current().Log, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	monitor.SetLogger(logger)
	if watch {
		monitor.Watch()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := application.NewMetrics(registry)

	dispatcher := application.NewDispatcher(
		monitor.Current(),
		app.newFetchers(monitor, app.clock),
		logger.With("component", "dispatcher"),
		metrics,
		app.clock,
	)
	bot := application.NewBot(application.SessionDeps{
		Monitor:   monitor,
		Transport: app.newTransport(logger.With("component", "irc")),
		Submitter: dispatcher,
		Render:    app.render,
		Logger:    logger,
		Metrics:   metrics,
		Clock:     app.clock,
	})

	metricsServer, err := startMetrics(monitor.Current().Metrics, registry)
	if err != nil {
		return err
	}

	signals, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	hangups := make(chan os.Signal, 1)
	signal.Notify(hangups, syscall.SIGHUP)
	defer signal.Stop(hangups)

	logger.Info("starting", "version", version.Version, "config", monitor.Path(), "networks", len(monitor.Current().Networks))

	g, gctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		defer shutdownMetrics(metricsServer, logger)
		return bot.Run(gctx)
	})
	g.Go(func() error {
		return dispatcher.Run(gctx, monitor)
	})
	g.Go(func() error {
		logging.Follow(gctx, monitor, levelVar, logger)
		return nil
	})
	if metricsServer != nil {
		g.Go(func() error {
			logger.Info("serving metrics", "listen", metricsServer.listener.Addr().String())
			err := metricsServer.server.Serve(metricsServer.listener)
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("serve metrics: %w", err)
		})
	}
	g.Go(func() error {
		for {
			select {
			case <-signals.Done():
				logger.Info("shutting down")
				monitor.Close()
				return nil
			case <-hangups:
				logger.Info("reloading configuration")
				_ = monitor.Reload(gctx)
			case <-gctx.Done():
				return nil
			}
		}
	})

	err = g.Wait()
	dispatcher.Wait()
	logger.Info("stopped")
	return err
}

type metricsEndpoint struct {
	listener net.Listener
	server   *http.Server
}

// startMetrics binds the listener up front so a bad address fails the
// command instead of a background goroutine.
func startMetrics(cfg domain.MetricsConfig, registry *prometheus.Registry) (*metricsEndpoint, error) {
	if cfg.Listen == "" {
		return nil, nil
	}

	listener, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return nil, fmt.Errorf("listen for metrics: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return &metricsEndpoint{
		listener: listener,
		server: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

func shutdownMetrics(endpoint *metricsEndpoint, logger *slog.Logger) {
	if endpoint == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
	defer cancel()
	if err := endpoint.server.Shutdown(ctx); err != nil {
		logger.Warn("metrics shutdown failed", "error", err)
	}
}
