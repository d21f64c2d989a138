package main

import (
	"github.com/spf13/cobra"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	groupPipeline = "pipeline"
	groupDaemon   = "daemon"
	groupSetup    = "setup"
)

func newRootCommand() *cobra.Command {
	var flags globalFlags
	ctx := newCommandContext(&flags)

	rootCmd := &cobra.Command{
		Use:           "tunely",
		Short:         "Turn songs into karaoke videos",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	persistent := rootCmd.PersistentFlags()
	persistent.StringVarP(&flags.configPath, "config", "c", "", "Configuration file path")
	persistent.StringVar(&flags.logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")

	rootCmd.AddGroup(
		&cobra.Group{ID: groupPipeline, Title: "Rendering:"},
		&cobra.Group{ID: groupDaemon, Title: "Daemon and requests:"},
		&cobra.Group{ID: groupSetup, Title: "Setup:"},
	)
	grouped := []struct {
		group string
		cmd   *cobra.Command
	}{
		{groupPipeline, newRenderCommand(ctx)},
		{groupPipeline, newSubtitlesCommand(ctx)},
		{groupDaemon, newServeCommand(ctx)},
		{groupDaemon, newRequestsCommand(ctx)},
		{groupDaemon, newShowCommand(ctx)},
		{groupDaemon, newLogsCommand(ctx)},
		{groupDaemon, newStatusCommand(ctx)},
		{groupSetup, newTestNotifyCommand(ctx)},
		{groupSetup, newConfigCommand(ctx)},
	}
	for _, entry := range grouped {
		entry.cmd.GroupID = entry.group
		rootCmd.AddCommand(entry.cmd)
	}
	return rootCmd
}
