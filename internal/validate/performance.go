package validate

import (
	"regexp"
	"strings"

	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/extract"
	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/issue"
)

// appendRowWindow bounds the lookback from an appendRow call to a loop
// keyword. The in-loop regexes carry their own bounded windows.
const appendRowWindow = 200

var (
	getRangeInLoopRE  = regexp.MustCompile(`(?is)for\s*\([^)]+\)\s*\{[^}]{0,200}getRange\s*\(`)
	dataRangeInLoopRE = regexp.MustCompile(`(?is)for\s*\([^)]+\)[^{]*\{[^}]{0,500}getDataRange\s*\(\)`)
	appendRowRE       = regexp.MustCompile(`(?i)appendRow\s*\(`)
)

// PerformancePass flags expensive spreadsheet calls inside loop bodies.
// The same calls outside loops are legitimate single-shot usage and are
// never reported.
type PerformancePass struct{}

func (PerformancePass) Name() string { return "performance" }

func (p PerformancePass) Check(in *Input) []issue.Issue {
	var out []issue.Issue
	for _, sf := range in.Files {
		if sf.Kind != extract.KindCode {
			continue
		}
		content := in.text(sf.RelPath)

		for _, m := range dataRangeInLoopRE.FindAllStringIndex(content, -1) {
			line := strings.Count(content[:m[0]], "\n") + 1
			out = append(out, issue.New(
				sf.RelPath, line,
				issue.SeverityHigh, issue.CategoryPerformance,
				"getDataRange() called inside loop - load once, process in memory",
				"Performance anti-pattern",
				"Move getDataRange().getValues() outside the loop",
			))
		}

		for _, m := range getRangeInLoopRE.FindAllStringIndex(content, -1) {
			line := strings.Count(content[:m[0]], "\n") + 1
			out = append(out, issue.New(
				sf.RelPath, line,
				issue.SeverityHigh, issue.CategoryPerformance,
				"Loop with getRange calls - very slow, batch operations instead",
				"Performance anti-pattern detected",
				"Consider using batch operations or caching",
			))
		}

		for _, m := range appendRowRE.FindAllStringIndex(content, -1) {
			start := m[0] - appendRowWindow
			if start < 0 {
				start = 0
			}
			preceding := content[start:m[0]]
			if !strings.Contains(preceding, "for") && !strings.Contains(preceding, "while") {
				continue
			}
			line := strings.Count(content[:m[0]], "\n") + 1
			out = append(out, issue.New(
				sf.RelPath, line,
				issue.SeverityMedium, issue.CategoryPerformance,
				"appendRow called - consider batch append for multiple rows",
				"Performance anti-pattern detected",
				"Consider using batch operations or caching",
			))
		}
	}
	return out
}
