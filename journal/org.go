package journal

import (
	"bytes"
	"os"
	"text/template"
	"time"
)

// RunBook is the org-mode record of one engine invocation.
type RunBook struct {
	Title     string
	AsOf      time.Time
	Portfolio string
	TotalFund float64
	Runs      []RunRecord
	Created   time.Time
	Notes     []string
}

var orgFuncs = template.FuncMap{
	"money": money,
	"pct":   func(x float64) float64 { return x * 100 },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var orgTemplate = template.Must(template.New("runbook").Funcs(orgFuncs).Parse(RunBookOrgTemplate))

// FormatOrg renders the run book.
func (b *RunBook) FormatOrg() (string, error) {
	buf := new(bytes.Buffer)
	if err := orgTemplate.Execute(buf, b); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteOrg renders the run book to path.
func (b *RunBook) WriteOrg(path string) error {
	s, err := b.FormatOrg()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(s), 0644)
}

const RunBookOrgTemplate = `
* RISK: {{if .Title}}{{.Title}}{{else}}(untitled){{end}} as of {{.AsOf.Format "2006-01-02"}}
:PROPERTIES:
:AS_OF:       {{.AsOf.Format "2006-01-02"}}
:PORTFOLIO:   {{if .Portfolio}}{{.Portfolio}}{{else}}(portfolio?){{end}}
:TOTAL_FUND:  {{money .TotalFund}}
:RUNS:        {{len .Runs}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Results
| Config | Metric | Horizon | Confidence | Value | Status |
|--------+--------+---------+------------+-------+--------|
{{- range .Runs }}
| {{.ConfigID}} | {{.Metric}} | {{.Horizon}} | {{printf "%.2f" (pct .Confidence)}}% | {{if eq .Status "failed"}}-{{else}}{{money .Value}}{{end}} | {{.Status}} |
{{- end }}

{{- range .Runs }}

** {{.ConfigID}}
:PROPERTIES:
:RUN_ID:      {{.RunID}}
:SPEC:        {{.Spec}}
:SCENARIOS:   {{.Scenarios}}
:ELAPSED:     {{.Elapsed}}
:END:
{{- if .Error }}
- Error: {{.Error}}
{{- end }}
{{- if .Breaches }}
- Limit breaches: {{.Breaches}}
{{- end }}
{{- end }}

{{- if .Notes }}
** Notes
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}
`
