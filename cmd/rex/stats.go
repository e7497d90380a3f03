package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pario-ai/rex/pkg/config"
	"github.com/pario-ai/rex/pkg/tracker"
)

func newStatsCmd(cfg func() *config.Config) *cobra.Command {
	var (
		recent int
		since  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show token usage of remote queries",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cfg()
			if !c.Tracker.Enabled {
				return fmt.Errorf("usage tracking is disabled in config")
			}

			tr, err := tracker.New(c.Tracker.DBPath)
			if err != nil {
				return fmt.Errorf("init tracker: %w", err)
			}
			defer func() { _ = tr.Close() }()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if since > 0 {
				total, err := tr.TotalSince(ctx, time.Now().UTC().Add(-since))
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Total tokens in the last %s: %d\n", since, total)
				return nil
			}

			if recent > 0 {
				recs, err := tr.Recent(ctx, recent)
				if err != nil {
					return err
				}
				if len(recs) == 0 {
					fmt.Fprintln(out, "No usage data found.")
					return nil
				}
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "TIME\tMODEL\tPROMPT\tCOMPLETION\tTOTAL\tLATENCY\tQUERY")
				for _, r := range recs {
					fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%dms\t%s\n",
						r.CreatedAt.Format("2006-01-02T15:04:05"), r.Model, r.PromptTokens, r.CompletionTokens, r.TotalTokens, r.LatencyMs, r.Query)
				}
				return w.Flush()
			}

			summaries, err := tr.Summary(ctx)
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				fmt.Fprintln(out, "No usage data found.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "MODEL\tREQUESTS\tPROMPT\tCOMPLETION\tTOTAL")
			for _, s := range summaries {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n",
					s.Model, s.RequestCount, s.TotalPrompt, s.TotalCompletion, s.TotalTokens)
			}
			return w.Flush()
		},
	}

	cmd.Flags().DurationVar(&since, "since", 0, "show total tokens used within this window (e.g. 24h)")
	cmd.Flags().IntVar(&recent, "recent", 0, "show the N most recent requests instead of the summary")
	return cmd
}
