package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/bnema/annoirc/internal/adapters/config"
	"github.com/bnema/annoirc/internal/adapters/render/summary"
	"github.com/spf13/cobra"
)

func newCheckCmd(app *app, configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and print a summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, err := config.Load(cmd.Context(), config.Options{
				Path:    *configPath,
				Secrets: app.secretStore,
				Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
			})
			if err != nil {
				return fmt.Errorf("check configuration: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), app.summaryRenderer(cfg, summary.RenderOptions{Path: path}))
			return err
		},
	}
}
