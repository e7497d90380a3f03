package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pario-ai/rex/pkg/config"
)

func newStatusCmd(cfg func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show model, credential state and brain size",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := openApp(cmd.Context(), cfg())
			defer a.Close()

			st := a.orch.Status()
			key := "not set"
			if st.APIKeySet {
				key = "set"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Model:   %s\n", st.Model)
			fmt.Fprintf(out, "API key: %s\n", key)
			fmt.Fprintf(out, "Entries: %d\n", st.Entries)
			fmt.Fprintf(out, "Storage: %s\n", a.cfg.Storage.Backend)
			return nil
		},
	}
}
