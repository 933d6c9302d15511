package report

import (
	"html/template"
	"io"

	"github.com/avendel/reqstress/internal/model"
)

type htmlRenderer struct{}

func (htmlRenderer) Format() string { return "html" }

var htmlTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Requirements Risk Report</title>
<style>
body { font-family: sans-serif; margin: 2rem; color: #222; }
table { border-collapse: collapse; margin-bottom: 1.5rem; }
th, td { border: 1px solid #ccc; padding: 0.35rem 0.7rem; text-align: left; }
th { background: #f0f0f0; }
.sev-low { color: #666; }
.sev-medium { color: #9a7d0a; }
.sev-high { color: #c0392b; }
.sev-critical { color: #922b21; font-weight: bold; }
.sev-blocker { color: #641e16; font-weight: bold; }
blockquote { border-left: 3px solid #ccc; margin-left: 0; padding-left: 0.8rem; color: #444; }
</style>
</head>
<body>
<h1>Requirements Risk Report</h1>
<p>
Source: <strong>{{.Report.SourceFile}}</strong><br>
Generated: {{.Report.GeneratedAt.Format "2006-01-02 15:04:05 UTC"}}<br>
Requirements analyzed: {{len .Report.Requirements}}<br>
Risks found: {{.TotalRisks}}
</p>

{{if .Categories}}
<h2>Risks by Category</h2>
<table>
<tr><th>Category</th><th>Count</th></tr>
{{range .Categories}}<tr><td>{{.Category}}</td><td>{{.Count}}</td></tr>
{{end}}</table>
{{end}}

{{if .Report.TopRisks}}
<h2>Top {{len .Report.TopRisks}} Riskiest Requirements</h2>
{{range $i, $rr := .Report.TopRisks}}
<h3>{{$rr.Requirement.ID}} &mdash; score {{$rr.Summary.TotalScore}} ({{$rr.Summary.RiskCount}} risks)</h3>
<blockquote>{{$rr.Requirement.Text}}</blockquote>
<table>
<tr><th>Risk</th><th>Category</th><th>Severity</th><th>Description</th><th>Suggestion</th></tr>
{{range $rr.Risks}}<tr>
<td>{{.ID}}</td>
<td>{{.Category}}</td>
<td class="sev-{{.Severity}}">{{.Severity}}</td>
<td>{{.Description}}</td>
<td>{{.Suggestion}}</td>
</tr>
{{end}}</table>
{{end}}
{{else}}
<p>No risks detected.</p>
{{end}}
</body>
</html>
`))

func (htmlRenderer) Render(w io.Writer, rep *model.Report) error {
	data := struct {
		Report     *model.Report
		TotalRisks int
		Categories []categoryCount
	}{
		Report:     rep,
		TotalRisks: rep.TotalRisks(),
		Categories: categoryCounts(rep),
	}
	return htmlTmpl.Execute(w, data)
}
