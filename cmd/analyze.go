package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/site-audit/internal/audit"
	"github.com/JakeFAU/site-audit/internal/report"
)

type analyzeFlags struct {
	deep      bool
	resources bool
	format    string
	timeout   time.Duration
}

func newAnalyzeCmd() *cobra.Command {
	var flags analyzeFlags
	cmd := &cobra.Command{
		Use:   "analyze <url>",
		Short: "Analyze one URL and print the audit document",
		Long: `Fetches the URL, runs every extractor and inference rule, sanitizes the
result, and writes it to stdout. Logs go to stderr.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0], flags)
		},
	}
	cmd.Flags().BoolVar(&flags.deep, "deep", false, "render in a browser and run the accessibility and performance audits")
	cmd.Flags().BoolVar(&flags.resources, "resources", false, "render in a browser and record network resources")
	cmd.Flags().StringVar(&flags.format, "format", report.FormatJSON, "output format: json, yaml or markdown")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "overall analysis deadline (default analysis.timeout_seconds)")
	return cmd
}

func runAnalyze(cmd *cobra.Command, target string, flags analyzeFlags) error {
	e, err := resolveEnv(cmd.Context())
	if err != nil {
		return err
	}
	out, err := report.New(flags.format, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	a, err := buildAnalyzer(e.cfg, e.logger)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	timeout := flags.timeout
	if timeout <= 0 {
		timeout = e.cfg.AnalysisBudget()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res, err := a.Analyze(ctx, target, audit.Options{
		RunDeepAudit:     flags.deep,
		CollectResources: flags.resources,
	})
	if err != nil {
		return fmt.Errorf("analyze %s: %w", target, err)
	}
	if err := out.Write(res); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
