package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pario-ai/rex/pkg/config"
)

func newBrainCmd(cfg func() *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "brain",
		Short: "Inspect and manage remembered answers",
	}
	cmd.AddCommand(
		newBrainListCmd(cfg),
		newBrainShowCmd(cfg),
		newBrainDeleteCmd(cfg),
		newBrainClearCmd(cfg),
		newBrainExportCmd(cfg),
	)
	return cmd
}

func newBrainListCmd(cfg func() *config.Config) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := openApp(cmd.Context(), cfg())
			defer a.Close()

			entries := a.orch.History(filter)
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No entries found.")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%s\t%s\n", e.Key, e.Label())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "only show entries whose key or query contains this text")
	return cmd
}

func newBrainShowCmd(cfg func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "show <key>",
		Short: "Show a single entry",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := openApp(cmd.Context(), cfg())
			defer a.Close()

			key := strings.Join(args, " ")
			rec, ok := a.orch.Entry(key)
			if !ok {
				return fmt.Errorf("no entry for key %q", key)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Original Query: %s\n", rec.OriginalQuery)
			fmt.Fprintf(out, "Timestamp: %s\n", rec.Timestamp)
			fmt.Fprintf(out, "Source: %s\n", rec.Source)
			fmt.Fprintf(out, "Success: %t\n\n", rec.Success)
			fmt.Fprintf(out, "Response:\n%s\n", rec.Response)
			return nil
		},
	}
}

func newBrainDeleteCmd(cfg func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete a single entry",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := openApp(cmd.Context(), cfg())
			defer a.Close()

			key := strings.Join(args, " ")
			if _, ok := a.orch.Entry(key); !ok {
				return fmt.Errorf("no entry for key %q", key)
			}
			if err := a.orch.DeleteEntry(cmd.Context(), key); err != nil {
				return fmt.Errorf("delete entry: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q.\n", key)
			return nil
		},
	}
}

func newBrainClearCmd(cfg func() *config.Config) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := openApp(cmd.Context(), cfg())
			defer a.Close()

			out := cmd.OutOrStdout()
			if a.orch.Status().Entries == 0 {
				fmt.Fprintln(out, "Brain is already empty.")
				return nil
			}
			if !yes {
				return fmt.Errorf("refusing to clear %d entries without --yes", a.orch.Status().Entries)
			}
			n, err := a.orch.ClearAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("clear brain: %w", err)
			}
			fmt.Fprintf(out, "Cleared %d entries.\n", n)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm deletion")
	return cmd
}

func newBrainExportCmd(cfg func() *config.Config) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every key, one per line",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := openApp(cmd.Context(), cfg())
			defer a.Close()

			keys := a.orch.ExportKeys()
			if len(keys) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No keys to export.")
				return nil
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create export file: %w", err)
				}
				defer f.Close()
				w = f
			}
			if _, err := io.WriteString(w, strings.Join(keys, "\n")+"\n"); err != nil {
				return fmt.Errorf("write keys: %w", err)
			}
			if output != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d keys to %s.\n", len(keys), output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write keys to this file instead of stdout")
	return cmd
}
