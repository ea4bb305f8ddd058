// Package cli defines the crmaudit command tree: a one-shot audit, a watch
// mode that re-audits on file changes, and a trends view over recorded runs.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/audit"
	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/core/config"
	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/data/cachedb"
	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/extract"
	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/knowledge"
	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/scan"
	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/validate"
)

var (
	configPath string
	verbose    bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "crmaudit",
	Short: "Static audit for an Apps Script CRM codebase",
	Long: `crmaudit scans a Google Apps Script CRM codebase, checks it against the
sheet schema and settings vocabulary, and reports schema typos, banned
statuses, security and performance smells, and structural problems.`,
	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config %q: %w", configPath, err)
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "crmaudit.toml", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// resolveKnowledgePath anchors relative knowledge paths at the scan root so
// the tool behaves the same regardless of the invocation directory.
func resolveKnowledgePath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(cfg.Scan.Root, path)
}

func validateOptions() validate.Options {
	opts := validate.DefaultOptions()
	opts.SimilarityThreshold = cfg.Validation.SimilarityThreshold
	opts.ContextLines = cfg.Validation.ContextLines
	opts.BannedStatus = cfg.Validation.BannedStatus
	opts.OutreachMarker = cfg.Validation.OutreachMarker
	opts.CentralConfigFile = cfg.Validation.CentralConfigFile
	if cfg.Validation.RequiredColumns != nil {
		opts.RequiredColumns = cfg.Validation.RequiredColumns
	}
	return opts
}

// buildPipeline assembles the audit pipeline from the loaded config. The
// returned closer releases the extraction cache, if one was opened.
func buildPipeline() (*audit.Pipeline, func() error, error) {
	scanner, err := scan.NewScanner(cfg.Scan.Root, cfg.Scan.Extensions, cfg.Scan.ExcludeDirs, cfg.Scan.ExcludeFiles)
	if err != nil {
		return nil, nil, fmt.Errorf("build scanner: %w", err)
	}

	loader := knowledge.Loader{
		SchemaCSVPath:   resolveKnowledgePath(cfg.Knowledge.SchemaCSV),
		SettingsPath:    resolveKnowledgePath(cfg.Knowledge.Settings),
		CentralConfigJS: resolveKnowledgePath(cfg.Knowledge.CentralConfig),
	}

	var store extract.Store
	closer := func() error { return nil }
	if cfg.Cache.Enabled {
		db, err := cachedb.Open(cfg.Cache.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open extraction cache: %w", err)
		}
		store = db
		closer = db.Close
	}

	p := audit.New(
		cfg.Project.Key,
		loader,
		scanner,
		store,
		cfg.Validation.ServiceNamespaces,
		validateOptions(),
		cfg.Scan.Workers,
		slog.Default(),
	)
	return p, closer, nil
}
