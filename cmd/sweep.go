package cmd

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/karavela/qasweep/api/schemas"
	"github.com/karavela/qasweep/internal/browser"
	"github.com/karavela/qasweep/internal/config"
	"github.com/karavela/qasweep/internal/crawler"
	"github.com/karavela/qasweep/internal/elements"
	"github.com/karavela/qasweep/internal/history"
	"github.com/karavela/qasweep/internal/login"
	"github.com/karavela/qasweep/internal/network"
	"github.com/karavela/qasweep/internal/observability"
	"github.com/karavela/qasweep/internal/report"
	"github.com/karavela/qasweep/internal/sweep"
)

// newSweepCmd creates and configures the `sweep` command.
func newSweepCmd() *cobra.Command {
	sweepCmd := &cobra.Command{
		Use:   "sweep [url]",
		Short: "Discovers pages from the target and tests every interactive element on each",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags to their viper keys so command-line values override
			// the config file and environment.
			bindings := map[string]string{
				"report.output_dir":   "output",
				"report.formats":      "format",
				"browser.concurrency": "concurrency",
				"browser.headless":    "headless",
				"crawler.max_links":   "max-links",
				"sweep.max_elements":  "max-elements",
				"sweep.check_links":   "check-links",
			}
			for key, flag := range bindings {
				f := cmd.Flags().Lookup(flag)
				if f.Changed {
					if err := viper.BindPFlag(key, f); err != nil {
						return err
					}
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// The context from Execute is signal-aware.
			ctx := cmd.Context()
			logger := observability.GetLogger()

			// Re-unmarshal so flag overrides bound in PreRunE apply.
			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}

			target := args[0]
			if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
				target = "https://" + target
			}

			run, err := executeSweep(cmd, cfg, target, logger)
			if err != nil {
				return err
			}

			if cfg.History.Enabled {
				saveHistory(ctx, cfg, run, logger)
			}

			paths, err := report.WriteFiles(cfg.Report.OutputDir, run, cfg.Report.Formats)
			if err != nil {
				return fmt.Errorf("failed to write reports: %w", err)
			}

			printRunSummary(cmd, run, paths)
			return nil
		},
	}

	sweepCmd.Flags().StringP("output", "o", "qa-reports", "Directory for generated reports.")
	sweepCmd.Flags().StringSliceP("format", "f", nil, "Report formats: markdown, html, json, junit. (Overrides config)")
	sweepCmd.Flags().IntP("concurrency", "j", 0, "Number of pages swept in parallel. (Overrides config)")
	sweepCmd.Flags().Bool("headless", true, "Run the browser headless.")
	sweepCmd.Flags().Int("max-links", 0, "Maximum number of pages discovered from the landing page. (Overrides config)")
	sweepCmd.Flags().Int("max-elements", 0, "Cap on elements tested per page; the rest are recorded as skipped.")
	sweepCmd.Flags().Bool("check-links", true, "Probe every link on swept pages and report dead ones.")

	return sweepCmd
}

// executeSweep runs the whole pipeline: browser startup, optional login, page
// discovery, the element sweep, and the broken-link pass.
func executeSweep(cmd *cobra.Command, cfg *config.Config, target string, logger *zap.Logger) (*schemas.SweepResult, error) {
	ctx := cmd.Context()

	manager := browser.NewManager(ctx, cfg.Browser, logger)
	defer manager.Shutdown()

	urls, err := prepareTarget(cmd, manager, cfg, target, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("sweeping pages",
		zap.String("target", target),
		zap.Int("pages", len(urls)),
		zap.Int("concurrency", cfg.Browser.Concurrency))

	factory := func(sessionCtx context.Context) (sweep.PageSession, error) {
		return manager.NewSession(sessionCtx)
	}
	runner := sweep.NewRunner(factory, sweep.RunnerOptions{
		Sweep:             sweepOptions(cfg.Sweep),
		Concurrency:       cfg.Browser.Concurrency,
		SlowLoadThreshold: cfg.Sweep.SlowLoadThreshold,
	}, logger)

	run, err := runner.Run(ctx, target, urls)
	if err != nil {
		return nil, err
	}

	if cfg.Sweep.CheckLinks {
		checkLinks(ctx, manager, cfg, run, urls, logger)
	}
	return run, nil
}

// prepareTarget opens one session to authenticate (when credentials are
// configured) and discover the pages to sweep.
func prepareTarget(cmd *cobra.Command, manager *browser.Manager, cfg *config.Config, target string, logger *zap.Logger) ([]string, error) {
	ctx := cmd.Context()

	session, err := manager.NewSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open discovery session: %w", err)
	}
	defer session.Close()

	if cfg.Login.Username != "" && cfg.Login.Password != "" {
		if err := login.NewExecutor(session, cfg.Login, logger).Login(ctx, target); err != nil {
			return nil, fmt.Errorf("login failed: %w", err)
		}
		logger.Info("authenticated", zap.String("username", cfg.Login.Username))
	}

	if _, err := session.Navigate(ctx, target); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", target, err)
	}

	urls, err := crawler.New(cfg.Crawler, logger).Discover(ctx, session, target)
	if err != nil {
		return nil, fmt.Errorf("page discovery failed: %w", err)
	}
	return urls, nil
}

// checkLinks navigates each swept page again and probes every link on it.
// Failures here never fail the run; they land in the broken-links section.
func checkLinks(ctx context.Context, manager *browser.Manager, cfg *config.Config, run *schemas.SweepResult, urls []string, logger *zap.Logger) {
	session, err := manager.NewSession(ctx)
	if err != nil {
		run.Warnings = append(run.Warnings, fmt.Sprintf("link check skipped: %v", err))
		return
	}
	defer session.Close()

	checker := crawler.NewLinkChecker(probeClient(cfg, logger), logger)
	for _, pageURL := range urls {
		if ctx.Err() != nil {
			return
		}
		if _, err := session.Navigate(ctx, pageURL); err != nil {
			logger.Warn("link check: page load failed", zap.String("url", pageURL), zap.Error(err))
			continue
		}
		hrefs, err := session.ExtractLinks(ctx, "")
		if err != nil {
			logger.Warn("link check: extraction failed", zap.String("url", pageURL), zap.Error(err))
			continue
		}
		anchors, err := session.AnchorIDs(ctx)
		if err != nil {
			anchors = nil
		}
		run.BrokenLinks = append(run.BrokenLinks, checker.Check(ctx, pageURL, hrefs, anchors)...)
	}
}

// probeClient builds the HTTP client used for link probing, aligned with the
// browser's TLS and user-agent settings.
func probeClient(cfg *config.Config, logger *zap.Logger) *http.Client {
	client := network.NewClient(&network.ClientConfig{
		IgnoreTLSErrors: cfg.Browser.IgnoreTLSErrors,
		UserAgent:       cfg.Browser.UserAgent,
		Logger:          logger,
	})
	return client.Client
}

// sweepOptions translates SweepConfig into per-page sweep options.
func sweepOptions(cfg config.SweepConfig) sweep.Options {
	opts := sweep.Options{
		ElementTimeout: cfg.ElementTimeout,
		PageBudget:     cfg.PageBudget,
		MaxElements:    cfg.MaxElements,
		Filter: elements.ScanFilter{
			Include: cfg.Include,
			Exclude: cfg.Exclude,
		},
	}
	if cfg.PacePerSecond > 0 {
		opts.Pace = rate.NewLimiter(rate.Limit(cfg.PacePerSecond), 1)
	}
	return opts
}

func saveHistory(ctx context.Context, cfg *config.Config, run *schemas.SweepResult, logger *zap.Logger) {
	path, err := cfg.History.ExpandedPath()
	if err != nil {
		logger.Warn("history path unusable", zap.Error(err))
		return
	}
	store, err := history.Open(path)
	if err != nil {
		logger.Warn("history store unavailable", zap.Error(err))
		return
	}
	defer store.Close()
	if err := store.SaveRun(ctx, run); err != nil {
		logger.Warn("failed to record run history", zap.Error(err))
	}
}

func printRunSummary(cmd *cobra.Command, run *schemas.SweepResult, paths []string) {
	summary := run.Summary()
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "\nSweep complete. Run ID: %s\n", run.RunID)
	fmt.Fprintf(out, "Pages: %d  Tested: %d  Failed: %d  Skipped: %d\n",
		len(run.Pages), summary.TotalTested, summary.Failed, summary.Skipped)
	if len(run.BrokenLinks) > 0 {
		fmt.Fprintf(out, "Broken links: %d\n", len(run.BrokenLinks))
	}
	if len(summary.Issues) > 0 {
		fmt.Fprintf(out, "Issues: %d (see report for details)\n", len(summary.Issues))
	}
	for _, p := range paths {
		fmt.Fprintf(out, "Report written: %s\n", p)
	}
}
