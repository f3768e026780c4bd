package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/karavela/qasweep/internal/history"
)

// newHistoryCmd groups the run-history subcommands.
func newHistoryCmd() *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect past sweep runs",
	}
	historyCmd.AddCommand(newHistoryListCmd())
	historyCmd.AddCommand(newHistoryShowCmd())
	return historyCmd
}

func openHistoryStore() (*history.Store, error) {
	path, err := appConfig.History.ExpandedPath()
	if err != nil {
		return nil, fmt.Errorf("history path unusable: %w", err)
	}
	return history.Open(path)
}

func newHistoryListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Lists recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistoryStore()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No recorded runs yet.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STARTED\tWEBSITE\tPAGES\tTESTED\tFAILED\tSKIPPED\tRUN ID")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
					run.StartedAt.Format("2006-01-02 15:04"), run.Website,
					run.Pages, run.Tested, run.Failed, run.Skipped, run.RunID)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list.")
	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [run-id]",
		Short: "Shows the per-page summary of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistoryStore()
			if err != nil {
				return err
			}
			defer store.Close()

			pages, err := store.PagesFor(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(pages) == 0 {
				return fmt.Errorf("no run with id %q", args[0])
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "URL\tTESTED\tCHANGED\tFAILED\tLOAD")
			for _, page := range pages {
				load := fmt.Sprintf("%dms", page.NavLoadMs)
				if page.SlowLoad {
					load += " (slow)"
				}
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n",
					page.URL, page.Tested, page.Changed, page.Failed, load)
			}
			return w.Flush()
		},
	}
}
