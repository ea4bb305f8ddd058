package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/audit"
	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/data/history"
	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/issue"
	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/report"
)

var failOnCritical bool

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Run a single audit and print the report",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, closeCache, err := buildPipeline()
		if err != nil {
			return err
		}
		defer func() { _ = closeCache() }()

		res, err := p.Run(cmd.Context())
		if err != nil {
			return err
		}

		if err := report.WriteText(os.Stdout, res); err != nil {
			return err
		}
		if err := writeReportFiles(res); err != nil {
			return err
		}
		if cfg.History.Enabled {
			if err := saveHistoryRun(res); err != nil {
				slog.Warn("failed to record run history", "error", err)
			}
		}

		if critical := res.Summary.BySeverity[issue.SeverityCritical]; failOnCritical && critical > 0 {
			return fmt.Errorf("audit found %d critical issue(s)", critical)
		}
		return nil
	},
}

func init() {
	auditCmd.Flags().BoolVar(&failOnCritical, "fail-on-critical", true, "exit nonzero when critical issues are found")
	rootCmd.AddCommand(auditCmd)
}

func writeReportFiles(res *audit.Result) error {
	type renderer struct {
		path  string
		write func(*os.File, *audit.Result) error
	}
	renderers := []renderer{
		{cfg.Report.JSON, func(f *os.File, r *audit.Result) error { return report.WriteJSON(f, r) }},
		{cfg.Report.HTML, func(f *os.File, r *audit.Result) error { return report.WriteHTML(f, r) }},
		{cfg.Report.SARIF, func(f *os.File, r *audit.Result) error { return report.WriteSARIF(f, r) }},
	}

	for _, r := range renderers {
		if r.path == "" {
			continue
		}
		if dir := filepath.Dir(r.path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create report directory %q: %w", dir, err)
			}
		}
		f, err := os.Create(r.path)
		if err != nil {
			return fmt.Errorf("create report file %q: %w", r.path, err)
		}
		if err := r.write(f, res); err != nil {
			_ = f.Close()
			return fmt.Errorf("write report %q: %w", r.path, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		slog.Info("report written", "path", r.path)
	}
	return nil
}

func saveHistoryRun(res *audit.Result) error {
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	_, err = store.SaveRun(history.RunRecord{
		RunID:         res.RunID,
		ProjectKey:    res.ProjectKey,
		Timestamp:     res.Timestamp,
		FileCount:     res.Files,
		FunctionCount: res.Functions,
		IssueCount:    res.Summary.Total,
		CriticalCount: res.Summary.BySeverity[issue.SeverityCritical],
		HighCount:     res.Summary.BySeverity[issue.SeverityHigh],
		MediumCount:   res.Summary.BySeverity[issue.SeverityMedium],
		LowCount:      res.Summary.BySeverity[issue.SeverityLow],
		InfoCount:     res.Summary.BySeverity[issue.SeverityInfo],
		HealthScore:   res.Summary.HealthScore,
		Duration:      res.Duration,
	})
	return err
}
