// Package audit wires the full pipeline: knowledge base load, corpus scan,
// parallel cached extraction, call-graph build, validation passes, and
// aggregation into a single Result.
package audit

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/core/errors"
	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/extract"
	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/graph"
	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/issue"
	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/knowledge"
	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/scan"
	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/shared/observability"
	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/validate"
)

// Result is one complete audit run.
type Result struct {
	RunID      string    `json:"run_id"`
	ProjectKey string    `json:"project_key"`
	Timestamp  time.Time `json:"timestamp"`

	Files       int `json:"files"`
	Functions   int `json:"functions"`
	TotalLines  int `json:"total_lines"`
	CacheHits   int `json:"cache_hits"`
	CacheMisses int `json:"cache_misses"`

	Issues  []issue.Issue `json:"issues"`
	Summary issue.Summary `json:"summary"`

	// Skipped lists files that could not be read; they are excluded from the
	// corpus, never fatal.
	Skipped []string `json:"skipped,omitempty"`

	Duration time.Duration `json:"duration"`
}

// Pipeline holds the collaborators for one or more runs. Safe to reuse; each
// Run re-reads the corpus and the knowledge sources, so watch mode simply
// calls Run again.
type Pipeline struct {
	projectKey string
	loader     knowledge.Loader
	scanner    *scan.Scanner
	cached     *extract.CachedExtractor
	engine     *validate.Engine
	options    validate.Options
	workers    int
	log        *slog.Logger
}

// New assembles a pipeline. store may be nil, in which case extraction is
// cached in memory for the lifetime of the pipeline.
func New(projectKey string, loader knowledge.Loader, scanner *scan.Scanner, store extract.Store, serviceNamespaces []string, opts validate.Options, workers int, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	if store == nil {
		store = extract.NewMemoryStore()
	}
	if workers <= 0 {
		workers = 4
	}
	return &Pipeline{
		projectKey: projectKey,
		loader:     loader,
		scanner:    scanner,
		cached:     extract.NewCachedExtractor(extract.NewExtractor(serviceNamespaces), store),
		engine:     validate.NewEngine(log),
		options:    opts,
		workers:    workers,
		log:        log,
	}
}

// Run executes the full pipeline once.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	ctx, span := observability.Tracer.Start(ctx, "audit.Run", trace.WithAttributes())
	defer span.End()

	start := time.Now()
	hits0, misses0 := p.cached.Stats()

	res := &Result{
		RunID:      uuid.NewString(),
		ProjectKey: p.projectKey,
		Timestamp:  start.UTC(),
	}

	kb, err := p.loadKnowledge(ctx)
	if err != nil {
		return nil, err
	}

	files, contents, skipped, err := p.extractCorpus(ctx)
	if err != nil {
		return nil, err
	}
	res.Skipped = skipped
	res.Files = len(files)
	for _, sf := range files {
		res.TotalLines += sf.TotalLines
	}

	g := p.buildGraph(ctx, files)
	res.Functions = g.FunctionCount()

	issues, err := p.validateCorpus(ctx, kb, files, contents)
	if err != nil {
		return nil, err
	}
	issues = append(issues, g.Orphans()...)
	issue.SortStable(issues)

	res.Issues = issues
	res.Summary = issue.Aggregate(issues)

	hits, misses := p.cached.Stats()
	res.CacheHits = hits - hits0
	res.CacheMisses = misses - misses0
	res.Duration = time.Since(start)

	p.publishMetrics(res)
	p.log.Info("audit finished",
		"run_id", res.RunID,
		"files", res.Files,
		"functions", res.Functions,
		"issues", res.Summary.Total,
		"health", res.Summary.HealthScore,
		"duration", res.Duration)

	return res, nil
}

func (p *Pipeline) loadKnowledge(ctx context.Context) (*knowledge.Base, error) {
	_, span := observability.Tracer.Start(ctx, "audit.loadKnowledge")
	defer span.End()

	kb, err := p.loader.Load()
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxOperation, "load_knowledge")
	}
	if kb.MissingSchema {
		p.log.Warn("schema source missing, column validation disabled")
	}
	if kb.MissingSettings {
		p.log.Warn("settings source missing, vocabulary validation disabled")
	}
	return kb, nil
}

// extractCorpus enumerates the corpus and extracts every file on a worker
// pool. Per-file extraction is independent; everything downstream waits for
// the pool to drain.
func (p *Pipeline) extractCorpus(ctx context.Context) ([]*extract.SourceFile, map[string][]byte, []string, error) {
	ctx, span := observability.Tracer.Start(ctx, "audit.extractCorpus")
	defer span.End()

	corpus, err := p.scanner.Files()
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, errors.CodeInternal, "enumerate corpus")
	}

	type extraction struct {
		sf      *extract.SourceFile
		content []byte
		skipped string
	}

	jobs := make(chan scan.File)
	results := make(chan extraction, len(corpus))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range jobs {
				sf, content, skipped := p.extractOne(f)
				results <- extraction{sf: sf, content: content, skipped: skipped}
			}
		}()
	}

feed:
	for _, f := range corpus {
		select {
		case jobs <- f:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	if err := ctx.Err(); err != nil {
		return nil, nil, nil, err
	}

	var files []*extract.SourceFile
	contents := make(map[string][]byte)
	var skipped []string
	for r := range results {
		switch {
		case r.skipped != "":
			skipped = append(skipped, r.skipped)
		case r.sf != nil:
			files = append(files, r.sf)
			contents[r.sf.RelPath] = r.content
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	sort.Strings(skipped)

	return files, contents, skipped, nil
}

func (p *Pipeline) extractOne(f scan.File) (*extract.SourceFile, []byte, string) {
	content, err := os.ReadFile(f.AbsPath)
	if err != nil {
		p.log.Warn("skipping unreadable file", "path", f.RelPath, "error", err)
		return nil, nil, f.RelPath
	}

	start := time.Now()
	sf, err := p.cached.Extract(f.RelPath, content)
	if err != nil {
		p.log.Warn("extraction failed", "path", f.RelPath, "error", err)
		return nil, nil, f.RelPath
	}
	kind := "code"
	if sf.Kind == extract.KindMarkup {
		kind = "markup"
	}
	observability.ExtractionDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())

	return sf, content, ""
}

func (p *Pipeline) buildGraph(ctx context.Context, files []*extract.SourceFile) *graph.Graph {
	_, span := observability.Tracer.Start(ctx, "audit.buildGraph")
	defer span.End()
	return graph.Build(files)
}

func (p *Pipeline) validateCorpus(ctx context.Context, kb *knowledge.Base, files []*extract.SourceFile, contents map[string][]byte) ([]issue.Issue, error) {
	ctx, span := observability.Tracer.Start(ctx, "audit.validate")
	defer span.End()

	return p.engine.Run(ctx, &validate.Input{
		KB:      kb,
		Files:   files,
		Content: contents,
		Options: p.options,
	})
}

func (p *Pipeline) publishMetrics(res *Result) {
	observability.CacheHitsTotal.Add(float64(res.CacheHits))
	observability.CacheMissesTotal.Add(float64(res.CacheMisses))
	observability.FilesScanned.Set(float64(res.Files))
	observability.FunctionsExtracted.Set(float64(res.Functions))
	observability.HealthScore.Set(float64(res.Summary.HealthScore))
	for sev := issue.SeverityCritical; sev <= issue.SeverityInfo; sev++ {
		observability.IssuesBySeverity.WithLabelValues(sev.String()).Set(float64(res.Summary.BySeverity[sev]))
	}
}
