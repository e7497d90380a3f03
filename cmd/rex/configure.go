package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pario-ai/rex/pkg/config"
)

func newConfigureCmd(cfg func() *config.Config) *cobra.Command {
	var (
		apiKey, model string
		reset         bool
	)

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Save the OpenRouter API key and model",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := openApp(cmd.Context(), cfg())
			defer a.Close()

			if reset {
				cred, err := a.orch.ResetCredential(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Configuration reset. API key not set, model %s.\n", cred.Model)
				return nil
			}

			key := apiKey
			if !cmd.Flags().Changed("api-key") {
				key = a.creds.Get().APIKey
			}
			cred, err := a.orch.SaveCredential(cmd.Context(), key, model)
			if err != nil {
				// The new values still apply to this process; only persistence failed.
				return fmt.Errorf("save configuration: %w", err)
			}

			state := "not set"
			if cred.HasKey() {
				state = "set"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration saved. API key %s, model %s.\n", state, cred.Model)
			return nil
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "OpenRouter API key")
	cmd.Flags().StringVar(&model, "model", "", "model identifier (blank keeps the current one)")
	cmd.Flags().BoolVar(&reset, "reset", false, "forget the saved API key and model")
	return cmd
}
