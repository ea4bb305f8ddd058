package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/extract"
	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/issue"
)

var setOutcomeRE = regexp.MustCompile(`setOutcome\(['"]([^'"]+)['"]`)

// SettingsPass checks categorical vocabulary use. Membership is strict: a
// literal is treated as an outcome or stage only when it exactly equals a set
// member, so near-misses are skipped rather than fuzzy-matched (free text
// would otherwise drown the report). Two rules are independent of membership:
// the banned legacy status, and UI outcome setters in markup.
type SettingsPass struct{}

func (SettingsPass) Name() string { return "settings" }

func (p SettingsPass) Check(in *Input) []issue.Issue {
	var out []issue.Issue
	for _, sf := range in.Files {
		out = append(out, p.checkBannedStatus(in, sf)...)
		if sf.Kind == extract.KindMarkup {
			out = append(out, p.checkOutcomeSetters(in, sf)...)
		}
	}
	out = append(out, p.checkWorkflowDivergence(in)...)
	return out
}

// checkBannedStatus flags the deprecated status wherever it appears in the
// outreach workflow area: a file on an outreach path, UI markup, or code
// whose surrounding lines mention the outreach flow. This is a domain
// deprecation rule, not a vocabulary check; it fires even when the literal is
// schema-valid.
func (p SettingsPass) checkBannedStatus(in *Input, sf *extract.SourceFile) []issue.Issue {
	banned := in.Options.BannedStatus
	if banned == "" {
		return nil
	}
	marker := strings.ToLower(in.Options.OutreachMarker)
	fileInArea := strings.Contains(strings.ToLower(sf.RelPath), marker) ||
		sf.Kind == extract.KindMarkup

	var lines []string
	if !fileInArea {
		lines = strings.Split(in.text(sf.RelPath), "\n")
	}

	var out []issue.Issue
	for _, lit := range sf.StringLiterals {
		if lit.Text != banned {
			continue
		}
		if !fileInArea {
			window := strings.ToLower(contextWindow(lines, lit.Line, in.Options.ContextLines))
			if !strings.Contains(window, marker) {
				continue
			}
		}
		out = append(out, issue.New(
			sf.RelPath, lit.Line,
			issue.SeverityHigh, issue.CategorySettings,
			fmt.Sprintf("Banned status '%s' used in Outreach context", banned),
			"Outcome/Status reference",
			"Replace with 'No Answer' or remove this status",
		))
	}
	return out
}

// checkOutcomeSetters audits hardcoded outcome values wired into UI handlers,
// e.g. onclick="setOutcome('Ghosted')". The banned status is excluded here
// because checkBannedStatus already reports it.
func (p SettingsPass) checkOutcomeSetters(in *Input, sf *extract.SourceFile) []issue.Issue {
	if len(in.KB.ValidOutcomes) == 0 {
		return nil
	}

	content := in.text(sf.RelPath)
	var out []issue.Issue
	for _, m := range setOutcomeRE.FindAllStringSubmatchIndex(content, -1) {
		outcome := content[m[2]:m[3]]
		if outcome == in.Options.BannedStatus || in.KB.IsValidOutcome(outcome) {
			continue
		}
		line := strings.Count(content[:m[0]], "\n") + 1
		out = append(out, issue.New(
			sf.RelPath, line,
			issue.SeverityHigh, issue.CategorySettings,
			fmt.Sprintf("HTML button sets invalid outcome: '%s'", outcome),
			lineAt(content, line),
			"Use an outcome from Settings VALIDATION_LIST",
		))
	}
	return out
}

// checkWorkflowDivergence reports workflow rules keyed by outcomes absent
// from the outcomes vocabulary. Advisory: the rule may be ahead of settings.
func (p SettingsPass) checkWorkflowDivergence(in *Input) []issue.Issue {
	var out []issue.Issue
	for _, outcome := range in.KB.DivergentRules() {
		rule := in.KB.WorkflowRules[outcome]
		out = append(out, issue.New(
			"PROJECT", 0,
			issue.SeverityInfo, issue.CategorySettings,
			fmt.Sprintf("Workflow rule for '%s' has no matching outcome in Settings", outcome),
			fmt.Sprintf("Rule implies stage '%s', status '%s'", rule.Stage, rule.Status),
			"Add the outcome to VALIDATION_LIST or retire the rule",
		))
	}
	return out
}

// lineAt returns the trimmed text of a 1-based line for issue context.
func lineAt(content string, line int) string {
	lines := strings.Split(content, "\n")
	if line < 1 || line > len(lines) {
		return ""
	}
	return strings.TrimSpace(lines[line-1])
}
