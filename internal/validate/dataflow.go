package validate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/extract"
	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/issue"
)

var getSheetByNameRE = regexp.MustCompile(`getSheetByName\s*\(\s*["'](\w+)["']\s*\)`)

// DataFlowPass cross-checks sheet access against the schema: reads of sheets
// the schema does not document, and documented sheets missing their required
// columns.
type DataFlowPass struct{}

func (DataFlowPass) Name() string { return "dataflow" }

func (p DataFlowPass) Check(in *Input) []issue.Issue {
	var out []issue.Issue
	if !in.KB.MissingSchema {
		out = append(out, p.checkSheetReads(in)...)
		out = append(out, p.checkRequiredColumns(in)...)
	}
	return out
}

func (p DataFlowPass) checkSheetReads(in *Input) []issue.Issue {
	var out []issue.Issue
	for _, sf := range in.Files {
		if sf.Kind != extract.KindCode {
			continue
		}
		content := in.text(sf.RelPath)
		for _, m := range getSheetByNameRE.FindAllStringSubmatchIndex(content, -1) {
			sheet := content[m[2]:m[3]]
			if in.KB.HasObject(sheet) {
				continue
			}
			line := strings.Count(content[:m[0]], "\n") + 1
			out = append(out, issue.New(
				sf.RelPath, line,
				issue.SeverityMedium, issue.CategorySchema,
				fmt.Sprintf("Access to undocumented sheet: '%s'", sheet),
				fmt.Sprintf("getSheetByName('%s')", sheet),
				fmt.Sprintf("Add '%s' to Config.js HEADERS or System_Schema.csv", sheet),
			))
		}
	}
	return out
}

func (p DataFlowPass) checkRequiredColumns(in *Input) []issue.Issue {
	sheets := make([]string, 0, len(in.Options.RequiredColumns))
	for sheet := range in.Options.RequiredColumns {
		sheets = append(sheets, sheet)
	}
	sort.Strings(sheets)

	var out []issue.Issue
	for _, sheet := range sheets {
		if !in.KB.HasObject(sheet) {
			continue
		}
		cols := in.KB.ObjectColumns(sheet)
		var missing []string
		for _, required := range in.Options.RequiredColumns[sheet] {
			if _, ok := cols[required]; !ok {
				missing = append(missing, required)
			}
		}
		if len(missing) == 0 {
			continue
		}
		out = append(out, issue.New(
			in.Options.CentralConfigFile, 0,
			issue.SeverityHigh, issue.CategorySchema,
			fmt.Sprintf("Sheet '%s' missing required columns: %s", sheet, strings.Join(missing, ", ")),
			fmt.Sprintf("Required: %s", strings.Join(in.Options.RequiredColumns[sheet], ", ")),
			"Update Config.js HEADERS to include all required columns",
		))
	}
	return out
}
