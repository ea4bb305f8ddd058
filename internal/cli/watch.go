package cli

import (
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/scan"
	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/shared/observability"
	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/shared/util"
	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Audit once, then re-audit whenever the corpus changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		p, closeCache, err := buildPipeline()
		if err != nil {
			return err
		}
		defer func() { _ = closeCache() }()

		// Matching reuses the scanner rules so the watcher ignores files the
		// audit would never read.
		matcher, err := scan.NewScanner(cfg.Scan.Root, cfg.Scan.Extensions, cfg.Scan.ExcludeDirs, cfg.Scan.ExcludeFiles)
		if err != nil {
			return err
		}

		if cfg.Metrics.Enabled {
			startMetricsServer(cfg.Metrics.Address)
		}

		limiter := util.NewPerMinuteLimiter(cfg.Watch.RatePerMinute, cfg.Watch.Burst)
		runAudit := func() {
			observability.WatcherRunsTotal.Inc()
			res, err := p.Run(ctx)
			if err != nil {
				if ctx.Err() == nil {
					slog.Error("audit run failed", "error", err)
				}
				return
			}
			if cfg.History.Enabled {
				if err := saveHistoryRun(res); err != nil {
					slog.Warn("failed to record run history", "error", err)
				}
			}
			slog.Info("corpus re-audited",
				"files", res.Files,
				"issues", res.Summary.Total,
				"health", res.Summary.HealthScore)
		}

		w, err := watcher.NewWatcher(cfg.Watch.Debounce, cfg.Scan.ExcludeDirs, matcher.Matches, func(paths []string) {
			if ctx.Err() != nil {
				return
			}
			if !limiter.Allow(1) {
				observability.WatcherRunsThrottledTotal.Inc()
				slog.Debug("re-audit throttled", "changed", len(paths))
				return
			}
			slog.Info("corpus changed", "files", len(paths))
			runAudit()
		})
		if err != nil {
			return err
		}
		defer func() { _ = w.Close() }()

		runAudit()
		if err := w.Watch(cfg.Scan.Root); err != nil {
			return err
		}
		slog.Info("watching for changes", "root", cfg.Scan.Root, "debounce", cfg.Watch.Debounce)

		<-ctx.Done()
		return nil
	},
}

func startMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server failed", "address", addr, "error", err)
		}
	}()
	slog.Info("metrics server listening", "address", addr)
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
