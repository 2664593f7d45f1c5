package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "annoirc",
		Short:         "annoirc: IRC bot that annotates links and answers lookups",
		Long:          "annoirc joins IRC channels, posts titles and summaries for links people share, and answers movie, video and compute lookups. Configuration is reloaded on change or SIGHUP.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to annoirc.toml (searched in the user config dir, /etc/annoirc and . when empty)")

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newCheckCmd(app, &configPath),
		newRunCmd(app, &configPath),
	)

	return rootCmd
}
