// Package validate runs the audit's independent validation passes. Each pass
// reads the knowledge base plus the extracted file set (and raw text when it
// needs line context) and appends Issues; passes never suppress one another.
package validate

import (
	"context"
	"log/slog"
	"time"

	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/extract"
	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/issue"
	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/knowledge"
	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/shared/observability"
)

// Options tune pass behavior. Zero value is unusable; call DefaultOptions.
type Options struct {
	// SimilarityThreshold is the lower bound of the "likely typo" band; a
	// literal is flagged when threshold < similarity < 1.0.
	SimilarityThreshold float64
	// ContextLines is the half-width of the window around a literal that must
	// look like a column reference before the schema pass evaluates it.
	ContextLines int

	// BannedStatus is flagged whenever it appears in an outreach-area file,
	// regardless of vocabulary membership.
	BannedStatus   string
	OutreachMarker string

	// CentralConfigFile is the file whose absence is an architecture finding.
	CentralConfigFile string

	// RequiredColumns lists columns each sheet must declare.
	RequiredColumns map[string][]string
}

func DefaultOptions() Options {
	return Options{
		SimilarityThreshold: 0.85,
		ContextLines:        3,
		BannedStatus:        "Not Contacted",
		OutreachMarker:      "outreach",
		CentralConfigFile:   "Config.js",
		RequiredColumns: map[string][]string{
			"Prospects": {"Company ID", "Company Name", "Contact Status"},
			"Outreach":  {"Outreach ID", "Company ID", "Outcome"},
			"Accounts":  {"Company Name", "Contact Name"},
		},
	}
}

// Input is the shared read-only state every pass sees.
type Input struct {
	KB    *knowledge.Base
	Files []*extract.SourceFile
	// Content holds raw file text by relative path for passes that need line
	// context beyond the structural record.
	Content map[string][]byte
	Options Options
}

func (in *Input) text(relPath string) string {
	return string(in.Content[relPath])
}

// Pass is one independent check over the whole corpus.
type Pass interface {
	Name() string
	Check(in *Input) []issue.Issue
}

// Engine runs a fixed pass sequence. Order does not affect the result set;
// it only affects log output.
type Engine struct {
	passes []Pass
	log    *slog.Logger
}

func NewEngine(log *slog.Logger, passes ...Pass) *Engine {
	if log == nil {
		log = slog.Default()
	}
	if len(passes) == 0 {
		passes = DefaultPasses()
	}
	return &Engine{passes: passes, log: log}
}

// DefaultPasses is the full audit sequence.
func DefaultPasses() []Pass {
	return []Pass{
		SchemaPass{},
		SettingsPass{},
		SecurityPass{},
		PerformancePass{},
		QualityPass{},
		ArchitecturePass{},
		DataFlowPass{},
	}
}

// Run executes every pass and returns the combined, stably sorted Issue list.
func (e *Engine) Run(ctx context.Context, in *Input) ([]issue.Issue, error) {
	var out []issue.Issue
	for _, pass := range e.passes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		found := pass.Check(in)
		elapsed := time.Since(start)
		observability.ValidationDuration.WithLabelValues(pass.Name()).Observe(elapsed.Seconds())
		e.log.Debug("validation pass finished",
			"pass", pass.Name(),
			"issues", len(found),
			"duration", elapsed)
		out = append(out, found...)
	}
	issue.SortStable(out)
	return out, nil
}
