package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/audit"
	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/issue"
)

const toolInfoURI = "https://github.com/kyletbuzbee/K-L-Recycling-Outreach"

func sarifLevel(sev issue.Severity) string {
	switch sev {
	case issue.SeverityCritical, issue.SeverityHigh:
		return "error"
	case issue.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}

func ruleID(cat issue.Category) string {
	return "crmaudit/" + strings.ReplaceAll(strings.ToLower(cat.String()), " ", "-")
}

// WriteSARIF renders the result as SARIF 2.1.0 with one rule per category.
func WriteSARIF(w io.Writer, res *audit.Result) error {
	doc, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("create sarif report: %w", err)
	}

	run := sarif.NewRunWithInformationURI("crmaudit", toolInfoURI)

	for _, cat := range issue.Categories() {
		run.AddRule(ruleID(cat)).
			WithDescription(cat.String() + " audit findings")
	}

	for _, is := range res.Issues {
		line := is.Line
		if line < 1 {
			line = 1
		}
		location := sarif.NewLocation().WithPhysicalLocation(
			sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewArtifactLocation().WithUri(is.File)).
				WithRegion(sarif.NewRegion().WithStartLine(line)),
		)

		message := is.Message
		if is.Recommendation != "" {
			message += " Recommendation: " + is.Recommendation
		}
		result := sarif.NewRuleResult(ruleID(is.Category)).
			WithMessage(sarif.NewTextMessage(message)).
			WithLevel(sarifLevel(is.Severity)).
			WithLocations([]*sarif.Location{location})
		run.AddResult(result)
	}

	doc.AddRun(run)
	return doc.PrettyWrite(w)
}
