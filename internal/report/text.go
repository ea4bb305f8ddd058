// Package report renders an audit Result for humans and machines: a styled
// terminal summary, a JSON document, an HTML dashboard, and SARIF 2.1.0 for
// code-scanning integrations.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/audit"
	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/issue"
)

func severityStyle(sev issue.Severity) lipgloss.Style {
	switch sev {
	case issue.SeverityCritical:
		return criticalStyle
	case issue.SeverityHigh:
		return highStyle
	case issue.SeverityMedium:
		return mediumStyle
	case issue.SeverityLow:
		return lowStyle
	default:
		return infoStyle
	}
}

func healthStyle(score int) lipgloss.Style {
	switch {
	case score >= 90:
		return goodStyle
	case score >= 75:
		return mediumStyle
	case score >= 50:
		return highStyle
	default:
		return criticalStyle
	}
}

// WriteText renders the terminal summary: run stats, health score, severity
// and category breakdowns, then every issue grouped by severity.
func WriteText(w io.Writer, res *audit.Result) error {
	var b strings.Builder

	b.WriteString(titleStyle.Render("CRM Audit Report"))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Files scanned:    %d\n", res.Files)
	fmt.Fprintf(&b, "Functions found:  %d\n", res.Functions)
	fmt.Fprintf(&b, "Total lines:      %d\n", res.TotalLines)
	fmt.Fprintf(&b, "Cache:            %d hits, %d misses\n", res.CacheHits, res.CacheMisses)
	fmt.Fprintf(&b, "Duration:         %s\n", res.Duration.Round(time.Millisecond))
	if len(res.Skipped) > 0 {
		fmt.Fprintf(&b, "Skipped:          %s\n", strings.Join(res.Skipped, ", "))
	}
	b.WriteString("\n")

	score := healthStyle(res.Summary.HealthScore).Render(fmt.Sprintf("%d/100", res.Summary.HealthScore))
	fmt.Fprintf(&b, "Health score: %s\n\n", score)

	if res.Summary.Total == 0 {
		b.WriteString(goodStyle.Render("No issues found."))
		b.WriteString("\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	b.WriteString(titleStyle.Render("Issues by severity"))
	b.WriteString("\n")
	for sev := issue.SeverityCritical; sev <= issue.SeverityInfo; sev++ {
		n := res.Summary.BySeverity[sev]
		if n == 0 {
			continue
		}
		fmt.Fprintf(&b, "  %s %d\n", severityStyle(sev).Render(fmt.Sprintf("%-8s", sev)), n)
	}
	b.WriteString("\n")

	b.WriteString(titleStyle.Render("Issues by category"))
	b.WriteString("\n")
	for _, cat := range issue.Categories() {
		n := res.Summary.ByCategory[cat]
		if n == 0 {
			continue
		}
		fmt.Fprintf(&b, "  %-16s %d\n", cat, n)
	}
	b.WriteString("\n")

	for _, is := range res.Issues {
		loc := is.File
		if is.Line > 0 {
			loc = fmt.Sprintf("%s:%d", is.File, is.Line)
		}
		fmt.Fprintf(&b, "%s [%s] %s\n", severityStyle(is.Severity).Render(is.Severity.String()), is.Category, loc)
		fmt.Fprintf(&b, "  %s\n", is.Message)
		if is.Context != "" {
			fmt.Fprintf(&b, "  %s\n", mutedStyle.Render(is.Context))
		}
		if is.Recommendation != "" {
			fmt.Fprintf(&b, "  %s\n", mutedStyle.Render("-> "+is.Recommendation))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
