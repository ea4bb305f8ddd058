package validate

import (
	"fmt"
	"sort"

	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/extract"
	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/issue"
)

// maxFilesWithoutErrorHandling caps the per-file error-handling findings so a
// young codebase does not flood the report with the same advisory.
const maxFilesWithoutErrorHandling = 5

// ArchitecturePass checks project-level structure: configuration presence and
// file-level error-handling coverage.
type ArchitecturePass struct{}

func (ArchitecturePass) Name() string { return "architecture" }

func (p ArchitecturePass) Check(in *Input) []issue.Issue {
	var out []issue.Issue
	out = append(out, p.checkConfiguration(in)...)
	out = append(out, p.checkErrorHandlingCoverage(in)...)
	return out
}

func (p ArchitecturePass) checkConfiguration(in *Input) []issue.Issue {
	var out []issue.Issue

	if in.KB.MissingSchema {
		out = append(out, issue.New(
			"PROJECT", 0,
			issue.SeverityHigh, issue.CategoryArchitecture,
			"Schema source not found - column validation is disabled",
			"No schema table or central config headers loaded",
			"Provide System_Schema.csv or a Config.js HEADERS block",
		))
	}
	if in.KB.MissingSettings {
		out = append(out, issue.New(
			"PROJECT", 0,
			issue.SeverityHigh, issue.CategoryArchitecture,
			"Settings source not found - vocabulary validation is disabled",
			"No settings table loaded",
			"Provide the Settings table with VALIDATION_LIST rows",
		))
	}

	if cfg := in.Options.CentralConfigFile; cfg != "" {
		found := false
		for _, sf := range in.Files {
			if sf.RelPath == cfg {
				found = true
				break
			}
		}
		if !found {
			out = append(out, issue.New(
				"PROJECT", 0,
				issue.SeverityHigh, issue.CategoryArchitecture,
				fmt.Sprintf("%s not found - configuration should be centralized", cfg),
				"Missing configuration file",
				fmt.Sprintf("Create %s to centralize sheet names and constants", cfg),
			))
		}
	}

	return out
}

// checkErrorHandlingCoverage flags code files where no function has any
// error handling. This is a file-level aggregate; the per-function check in
// the quality pass covers individual complex functions.
func (p ArchitecturePass) checkErrorHandlingCoverage(in *Input) []issue.Issue {
	var bare []string
	for _, sf := range in.Files {
		if sf.Kind != extract.KindCode || len(sf.Functions) == 0 {
			continue
		}
		covered := false
		for _, fn := range sf.Functions {
			if fn.HasErrorHandling {
				covered = true
				break
			}
		}
		if !covered {
			bare = append(bare, sf.RelPath)
		}
	}

	sort.Strings(bare)
	if len(bare) > maxFilesWithoutErrorHandling {
		bare = bare[:maxFilesWithoutErrorHandling]
	}

	var out []issue.Issue
	for _, relPath := range bare {
		out = append(out, issue.New(
			relPath, 0,
			issue.SeverityLow, issue.CategoryErrorHandling,
			"File lacks error handling in any function",
			"No try/catch blocks found",
			"Add error handling to critical functions",
		))
	}
	return out
}
