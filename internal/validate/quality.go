package validate

import (
	"fmt"

	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/extract"
	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/issue"
)

// Per-function thresholds. Simple functions (complexity at or below the
// exemption) are never held to these standards.
const (
	complexityExempt   = 3
	complexityHigh     = 15
	complexityNeedsTry = 8
	callsNeedLogging   = 5
	complexityNeedsLog = 5
)

// QualityPass applies per-function heuristics: oversized complexity, complex
// functions without error handling, and call-heavy functions without logging.
type QualityPass struct{}

func (QualityPass) Name() string { return "quality" }

func (p QualityPass) Check(in *Input) []issue.Issue {
	var out []issue.Issue
	for _, sf := range in.Files {
		if sf.Kind != extract.KindCode {
			continue
		}
		for i := range sf.Functions {
			fn := &sf.Functions[i]
			if fn.ComplexityScore <= complexityExempt {
				continue
			}

			if fn.ComplexityScore > complexityHigh {
				out = append(out, issue.New(
					sf.RelPath, fn.StartLine,
					issue.SeverityMedium, issue.CategoryCodeQuality,
					fmt.Sprintf("Function '%s' has high complexity (%d)", fn.Name, fn.ComplexityScore),
					"Consider breaking into smaller functions",
					"Refactor to reduce cyclomatic complexity",
				))
			}

			if !fn.HasErrorHandling && fn.ComplexityScore > complexityNeedsTry {
				out = append(out, issue.New(
					sf.RelPath, fn.StartLine,
					issue.SeverityMedium, issue.CategoryErrorHandling,
					fmt.Sprintf("Function '%s' lacks error handling (complexity: %d)", fn.Name, fn.ComplexityScore),
					"Complex function without try/catch",
					"Add try/catch blocks for robust error handling",
				))
			}

			if !fn.HasLogging && len(fn.Calls) > callsNeedLogging && fn.ComplexityScore > complexityNeedsLog {
				out = append(out, issue.New(
					sf.RelPath, fn.StartLine,
					issue.SeverityLow, issue.CategoryCodeQuality,
					fmt.Sprintf("Function '%s' has no logging", fn.Name),
					fmt.Sprintf("Function with %d calls should log", len(fn.Calls)),
					"Add console.log or Logger.log for debugging",
				))
			}
		}
	}
	return out
}
