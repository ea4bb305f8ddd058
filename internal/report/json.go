package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/audit"
)

// jsonDocument is the machine-readable report shape. Severity and category
// are serialized as their display strings so consumers never see the internal
// enum values.
type jsonDocument struct {
	Metadata jsonMetadata `json:"metadata"`
	Stats    jsonStats    `json:"stats"`
	Issues   []jsonIssue  `json:"issues"`
}

type jsonMetadata struct {
	RunID      string    `json:"run_id"`
	ProjectKey string    `json:"project_key"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMS int64     `json:"duration_ms"`
}

type jsonStats struct {
	Files       int            `json:"files"`
	Functions   int            `json:"functions"`
	TotalLines  int            `json:"total_lines"`
	CacheHits   int            `json:"cache_hits"`
	CacheMisses int            `json:"cache_misses"`
	Skipped     []string       `json:"skipped,omitempty"`
	Total       int            `json:"total_issues"`
	BySeverity  map[string]int `json:"by_severity"`
	ByCategory  map[string]int `json:"by_category"`
	HealthScore int            `json:"health_score"`
}

type jsonIssue struct {
	File           string `json:"file"`
	Line           int    `json:"line"`
	Severity       string `json:"severity"`
	Category       string `json:"category"`
	Message        string `json:"message"`
	Context        string `json:"context,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
}

func buildJSONDocument(res *audit.Result) jsonDocument {
	doc := jsonDocument{
		Metadata: jsonMetadata{
			RunID:      res.RunID,
			ProjectKey: res.ProjectKey,
			Timestamp:  res.Timestamp,
			DurationMS: res.Duration.Milliseconds(),
		},
		Stats: jsonStats{
			Files:       res.Files,
			Functions:   res.Functions,
			TotalLines:  res.TotalLines,
			CacheHits:   res.CacheHits,
			CacheMisses: res.CacheMisses,
			Skipped:     res.Skipped,
			Total:       res.Summary.Total,
			BySeverity:  make(map[string]int),
			ByCategory:  make(map[string]int),
			HealthScore: res.Summary.HealthScore,
		},
		Issues: make([]jsonIssue, 0, len(res.Issues)),
	}

	for sev, n := range res.Summary.BySeverity {
		doc.Stats.BySeverity[sev.String()] = n
	}
	for cat, n := range res.Summary.ByCategory {
		doc.Stats.ByCategory[cat.String()] = n
	}

	for _, is := range res.Issues {
		doc.Issues = append(doc.Issues, jsonIssue{
			File:           is.File,
			Line:           is.Line,
			Severity:       is.Severity.String(),
			Category:       is.Category.String(),
			Message:        is.Message,
			Context:        is.Context,
			Recommendation: is.Recommendation,
		})
	}

	return doc
}

// WriteJSON renders the full machine-readable report.
func WriteJSON(w io.Writer, res *audit.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(buildJSONDocument(res))
}
