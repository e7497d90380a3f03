package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pario-ai/rex/pkg/config"
	"github.com/pario-ai/rex/pkg/log"
	"github.com/pario-ai/rex/pkg/server"
)

func newServeCmd(cfg func() *config.Config) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REX API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cfg()
			if listen != "" {
				c.Listen = listen
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a := openApp(ctx, c)
			defer a.Close()

			log.Infow("starting rex server", "listen", c.Listen, "storage", c.Storage.Backend)
			return server.New(c.Listen, a.orch).ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "override the listen address from config")
	return cmd
}
