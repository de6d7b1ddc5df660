package report

import (
	"html/template"
	"io"
	"time"

	"waste_tracker/internal/models"
)

// Document is a print-ready rendering of a view; browsers open the print
// dialog on load.
type Document struct {
	Title     string
	Party     string
	Period    Period
	Generated time.Time
	View      View
	Columns   []Column
}

var printTemplate = template.Must(template.New("print").Funcs(template.FuncMap{
	"cell": func(c Column, m models.Mission) string { return c.Text(&m) },
	// span counts the columns before net weight, rest those after it.
	"span": func(cols []Column) int {
		for i, c := range cols {
			if c.Header == colNet.Header {
				return i
			}
		}
		return len(cols)
	},
	"rest": func(cols []Column) int {
		for i, c := range cols {
			if c.Header == colNet.Header {
				return len(cols) - i - 1
			}
		}
		return 0
	},
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; font-size: 11px; }
header { margin-bottom: 16px; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #999; padding: 3px 5px; text-align: left; }
th { background: #2e7d32; color: #fff; }
tfoot td { font-weight: bold; background: #e8f5e9; }
</style>
</head>
<body onload="window.print()">
<header>
<h1>{{.Title}}</h1>
<p>{{.Party}}</p>
<p>Report date: {{.Generated.Format "02/01/2006"}}</p>
<p>Period: {{.Period.Label}}</p>
<p>Missions: {{.View.Stats.TotalCount}} &middot; Total net weight: {{.View.Stats.TotalWeight.StringFixed 2}} t</p>
</header>
<table>
<thead><tr>{{range .Columns}}<th>{{.Header}}</th>{{end}}</tr></thead>
<tbody>
{{- $cols := .Columns}}
{{- range .View.Filtered}}
{{- $m := .}}
<tr>{{range $cols}}<td>{{cell . $m}}</td>{{end}}</tr>
{{- end}}
</tbody>
<tfoot><tr>
{{- $span := span .Columns}}{{if gt $span 0}}<td colspan="{{$span}}">Total</td>{{end}}
{{- if lt $span (len .Columns)}}<td>{{.View.Stats.TotalWeight.StringFixed 2}}</td>{{end}}
{{- $rest := rest .Columns}}{{if gt $rest 0}}<td colspan="{{$rest}}"></td>{{end}}
</tr></tfoot>
</table>
</body>
</html>
`))

// WritePrintHTML renders doc as a standalone HTML page.
func WritePrintHTML(w io.Writer, doc Document) error {
	return printTemplate.Execute(w, doc)
}
