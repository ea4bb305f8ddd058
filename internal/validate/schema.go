package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/issue"
)

// Generic tokens that show up in every codebase and never indicate a schema
// typo, however close they sit to a real column name.
var schemaStopList = map[string]struct{}{
	"val": {}, "value": {}, "item": {}, "key": {}, "name": {}, "id": {},
	"data": {}, "result": {},
	"get": {}, "post": {}, "put": {}, "delete": {}, "true": {}, "false": {},
	"null": {}, "undefined": {},
	"red": {}, "blue": {}, "green": {}, "yellow": {}, "orange": {},
	"purple": {}, "black": {}, "white": {},
	"application/json": {}, "text/html": {}, "text/plain": {},
	"application/xml": {},
	"center": {}, "left": {}, "right": {}, "top": {}, "bottom": {},
	"middle": {},
	"default": {}, "return": {}, "continue": {}, "break": {}, "switch": {},
	"case": {},
}

const minLiteralLen = 3

// SchemaPass flags string literals that sit in column-reference context and
// are close to, but not exactly, a known schema column. The context gate is
// the primary false-positive control: literals outside such context are never
// evaluated.
type SchemaPass struct{}

func (SchemaPass) Name() string { return "schema" }

func (SchemaPass) Check(in *Input) []issue.Issue {
	if in.KB.MissingSchema {
		return nil
	}
	columns := in.KB.AllColumns()
	if len(columns) == 0 {
		return nil
	}
	columnSet := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		columnSet[col] = struct{}{}
	}

	var out []issue.Issue
	for _, sf := range in.Files {
		lines := strings.Split(in.text(sf.RelPath), "\n")
		for _, lit := range sf.StringLiterals {
			if len(lit.Text) < minLiteralLen {
				continue
			}
			if _, stop := schemaStopList[strings.ToLower(lit.Text)]; stop {
				continue
			}

			window := contextWindow(lines, lit.Line, in.Options.ContextLines)
			if !looksLikeColumnReference(window, lit.Text) {
				continue
			}
			if _, exact := columnSet[lit.Text]; exact {
				continue
			}

			// Flag the closest in-band column. columns is sorted, so ties go
			// to the alphabetically first candidate.
			bestCol := ""
			bestSim := in.Options.SimilarityThreshold
			for _, col := range columns {
				sim := Similarity(lit.Text, col)
				if sim > bestSim && sim < 1.0 {
					bestSim = sim
					bestCol = col
				}
			}
			if bestCol != "" {
				out = append(out, issue.New(
					sf.RelPath, lit.Line,
					issue.SeverityMedium, issue.CategorySchema,
					fmt.Sprintf("Potential schema typo: '%s' is similar to '%s'", lit.Text, bestCol),
					"String literal in column context",
					fmt.Sprintf("Verify if '%s' should be '%s'", lit.Text, bestCol),
				))
			}
		}
	}
	return out
}

// contextWindow joins the lines within n lines of the 1-based target line.
func contextWindow(lines []string, line, n int) string {
	start := line - n - 1
	if start < 0 {
		start = 0
	}
	end := line + n
	if end > len(lines) {
		end = len(lines)
	}
	if start >= end {
		return ""
	}
	return strings.Join(lines[start:end], "\n")
}

// looksLikeColumnReference reports whether the window uses the literal in one
// of the column-reference syntactic templates.
func looksLikeColumnReference(window, literal string) bool {
	quoted := regexp.QuoteMeta(literal)
	templates := []string{
		`getColumn\s*\(\s*["']` + quoted + `["']`,
		`headers\[\s*["']` + quoted + `["']\s*\]`,
		`header\s*===?\s*["']` + quoted + `["']`,
		`\.getRange\(.*,\s*["']` + quoted + `["']`,
		`SpreadsheetApp\.getSheetByName.*` + quoted,
		`sheet\.getRange.*` + quoted,
	}
	for _, tpl := range templates {
		re, err := regexp.Compile(`(?i)` + tpl)
		if err != nil {
			continue
		}
		if re.MatchString(window) {
			return true
		}
	}
	return false
}
