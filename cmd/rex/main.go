package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pario-ai/rex/pkg/config"
	"github.com/pario-ai/rex/pkg/log"
)

var version = "dev"

const defaultConfigPath = "rex.yaml"

func main() {
	var configPath string
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "rex",
		Short:         "REX AI answers from a local brain, falling back to a remote model",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cmd.Flags().Changed("config") {
				cfg, err = config.Load(configPath)
			} else {
				cfg, err = config.LoadOrDefault(configPath)
			}
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			log.Sync()
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")

	cfgFn := func() *config.Config { return cfg }
	root.AddCommand(
		newAskCmd(cfgFn),
		newChatCmd(cfgFn),
		newConfigureCmd(cfgFn),
		newBrainCmd(cfgFn),
		newStatusCmd(cfgFn),
		newStatsCmd(cfgFn),
		newServeCmd(cfgFn),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
