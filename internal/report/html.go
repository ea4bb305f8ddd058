package report

import (
	"html/template"
	"io"

	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/audit"
)

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>CRM Audit Report</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem auto; max-width: 60rem; color: #222; }
h1 { border-bottom: 2px solid #ddd; padding-bottom: .3rem; }
.score { font-size: 2.5rem; font-weight: bold; }
.score.good { color: #2e7d32; }
.score.warn { color: #f9a825; }
.score.bad { color: #c62828; }
table { border-collapse: collapse; width: 100%; margin: 1rem 0; }
th, td { text-align: left; padding: .4rem .6rem; border-bottom: 1px solid #eee; }
th { background: #fafafa; }
.sev { font-weight: bold; }
.sev-CRITICAL { color: #c62828; }
.sev-HIGH { color: #ef6c00; }
.sev-MEDIUM { color: #f9a825; }
.sev-LOW { color: #0277bd; }
.sev-INFO { color: #78909c; }
code { background: #f5f5f5; padding: .1rem .3rem; border-radius: 3px; }
.meta { color: #777; font-size: .85rem; }
</style>
</head>
<body>
<h1>CRM Audit Report</h1>
<p class="meta">Run {{.RunID}} &middot; project {{.ProjectKey}} &middot; {{.Timestamp.Format "2006-01-02 15:04:05 MST"}}</p>
<p class="score {{.ScoreClass}}">{{.HealthScore}}/100</p>
<table>
<tr><th>Files</th><th>Functions</th><th>Lines</th><th>Issues</th><th>Cache</th></tr>
<tr><td>{{.Files}}</td><td>{{.Functions}}</td><td>{{.TotalLines}}</td><td>{{.Total}}</td><td>{{.CacheHits}} hits / {{.CacheMisses}} misses</td></tr>
</table>
{{if .Issues}}
<h2>Issues</h2>
<table>
<tr><th>Severity</th><th>Category</th><th>Location</th><th>Message</th><th>Context</th></tr>
{{range .Issues}}
<tr>
<td class="sev sev-{{.Severity}}">{{.Severity}}</td>
<td>{{.Category}}</td>
<td>{{.File}}{{if .Line}}:{{.Line}}{{end}}</td>
<td>{{.Message}}{{if .Recommendation}}<br><em>{{.Recommendation}}</em>{{end}}</td>
<td><code>{{.Context}}</code></td>
</tr>
{{end}}
</table>
{{else}}
<p>No issues found.</p>
{{end}}
</body>
</html>
`))

type htmlData struct {
	*audit.Result
	Total       int
	HealthScore int
	ScoreClass  string
	Issues      []jsonIssue
}

// WriteHTML renders a standalone dashboard page.
func WriteHTML(w io.Writer, res *audit.Result) error {
	data := htmlData{
		Result:      res,
		Total:       res.Summary.Total,
		HealthScore: res.Summary.HealthScore,
		Issues:      buildJSONDocument(res).Issues,
	}
	switch {
	case res.Summary.HealthScore >= 90:
		data.ScoreClass = "good"
	case res.Summary.HealthScore >= 75:
		data.ScoreClass = "warn"
	default:
		data.ScoreClass = "bad"
	}
	return htmlTemplate.Execute(w, data)
}
