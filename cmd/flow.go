package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/karavela/qasweep/internal/browser"
	"github.com/karavela/qasweep/internal/crawler"
	"github.com/karavela/qasweep/internal/flows"
	"github.com/karavela/qasweep/internal/observability"
)

// newFlowCmd groups the user-journey flow subcommands.
func newFlowCmd() *cobra.Command {
	flowCmd := &cobra.Command{
		Use:   "flow",
		Short: "Manage and run scripted user-journey flows",
	}

	var flowDir string
	flowCmd.PersistentFlags().StringVar(&flowDir, "dir", "flows", "Directory holding flow YAML files.")

	flowCmd.AddCommand(newFlowRunCmd(&flowDir))
	flowCmd.AddCommand(newFlowListCmd(&flowDir))
	flowCmd.AddCommand(newFlowCreateCmd(&flowDir))
	flowCmd.AddCommand(newFlowCopyCmd(&flowDir))
	return flowCmd
}

func newFlowRunCmd(flowDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run [name] [target-url]",
		Short: "Executes a flow against the target site",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			cfg := appConfig

			manager, err := flows.NewManager(*flowDir)
			if err != nil {
				return err
			}
			flow, err := manager.Load(args[0])
			if err != nil {
				return err
			}

			target := args[1]
			if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
				target = "https://" + target
			}

			browserMgr := browser.NewManager(ctx, cfg.Browser, logger)
			defer browserMgr.Shutdown()

			session, err := browserMgr.NewSession(ctx)
			if err != nil {
				return fmt.Errorf("failed to open browser session: %w", err)
			}
			defer session.Close()

			executor := flows.NewExecutor(session, crawler.NewLinkChecker(probeClient(cfg, logger), logger), flows.ExecutorOptions{
				Sweep:         sweepOptions(cfg.Sweep),
				NavSelector:   cfg.Crawler.NavSelector,
				ScreenshotDir: filepath.Join(cfg.Report.OutputDir, "screenshots"),
			}, logger)

			result, err := executor.Execute(ctx, flow, target)
			if err != nil {
				return err
			}

			printFlowResult(cmd, result)
			if cov := result.Coverage(); cov.Failed > 0 {
				return fmt.Errorf("flow %q finished with %d failed step(s)", flow.Name, cov.Failed)
			}
			return nil
		},
	}
}

func newFlowListCmd(flowDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Lists the available flows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := flows.NewManager(*flowDir)
			if err != nil {
				return err
			}
			names, err := manager.List()
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No flows in %s. Create one with: qasweep flow create <name>\n", *flowDir)
				return nil
			}
			for _, name := range names {
				flow, err := manager.Load(name)
				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s (unreadable: %v)\n", name, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s — %d step(s)", name, len(flow.Steps))
				if flow.Description != "" {
					fmt.Fprintf(cmd.OutOrStdout(), ": %s", flow.Description)
				}
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	}
}

func newFlowCreateCmd(flowDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "create [name]",
		Short: "Creates a starter flow to edit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := flows.NewManager(*flowDir)
			if err != nil {
				return err
			}
			flow, err := manager.Template(args[0])
			if err != nil {
				return err
			}
			if err := manager.Save(flow); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created flow %q in %s\n", args[0], *flowDir)
			return nil
		},
	}
}

func newFlowCopyCmd(flowDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "copy [src] [dst]",
		Short: "Copies an existing flow under a new name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := flows.NewManager(*flowDir)
			if err != nil {
				return err
			}
			if err := manager.Copy(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Copied flow %q to %q\n", args[0], args[1])
			return nil
		},
	}
}

func printFlowResult(cmd *cobra.Command, result *flows.Result) {
	out := cmd.OutOrStdout()
	cov := result.Coverage()

	fmt.Fprintf(out, "\nFlow %q against %s\n", result.Flow, result.Target)
	for _, step := range result.Steps {
		line := fmt.Sprintf("  [%s] %s", strings.ToUpper(string(step.Status)), step.Name)
		if step.Error != "" {
			line += " — " + step.Error
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "Steps: %d passed, %d failed, %d skipped (of %d)\n",
		cov.Passed, cov.Failed, cov.Skipped, cov.Total)
}
