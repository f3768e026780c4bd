package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/karavela/qasweep/internal/report"
)

// newReportCmd regenerates reports for a stored run, so formats can be added
// after the fact without sweeping again.
func newReportCmd() *cobra.Command {
	var (
		runID   string
		output  string
		formats []string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Regenerates reports from a recorded run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistoryStore()
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.Run(cmd.Context(), runID)
			if err != nil {
				return err
			}

			if output == "" {
				output = appConfig.Report.OutputDir
			}
			if len(formats) == 0 {
				formats = appConfig.Report.Formats
			}

			paths, err := report.WriteFiles(output, run, formats)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintf(cmd.OutOrStdout(), "Report written: %s\n", p)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run-id", "", "Run to render. Defaults to the most recent run.")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Directory for generated reports. (Overrides config)")
	cmd.Flags().StringSliceVarP(&formats, "format", "f", nil, "Report formats: markdown, html, json, junit. (Overrides config)")
	return cmd
}
