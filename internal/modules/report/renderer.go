package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
)

const reportTemplate = `<div class="roi-report">
  <h1>{{.Title}}</h1>

  <section class="roi-report__scenarios">
    <h2>Projected annual benefit</h2>
    <table>
      <thead>
        <tr><th>Scenario</th><th>Labor savings</th><th>Fee savings</th><th>Error reduction</th><th>Total</th></tr>
      </thead>
      <tbody>
        {{range .Rows}}
        <tr>
          <td>{{.Name}}</td>
          <td>{{money .Scenario.LaborSavings}}</td>
          <td>{{money .Scenario.FeeSavings}}</td>
          <td>{{money .Scenario.ErrorReduction}}</td>
          <td><strong>{{money .Scenario.TotalAnnualBenefit}}</strong></td>
        </tr>
        {{end}}
      </tbody>
    </table>
  </section>

  <section class="roi-report__recommendation">
    <h2>Recommended solution</h2>
    <p><strong>{{.Result.Recommendation.CategoryInfo.Label}}</strong></p>
    <p>{{.Result.Recommendation.CategoryInfo.Description}}</p>
    <p>{{.Result.Recommendation.Reasoning}}</p>
  </section>

  {{if .NarrativeHTML}}
  <section class="roi-report__narrative">
    {{.NarrativeHTML}}
  </section>
  {{end}}

  <section class="roi-report__risks">
    <h2>Key risks</h2>
    <ul>{{range .Result.Risks}}<li>{{.}}</li>{{end}}</ul>
  </section>

  <section class="roi-report__next-actions">
    <h2>Next steps</h2>
    <ol>{{range .Result.NextActions}}<li>{{.}}</li>{{end}}</ol>
  </section>
</div>`

type Renderer struct {
	tmpl *template.Template
	md   goldmark.Markdown
}

func NewRenderer() *Renderer {
	funcs := template.FuncMap{
		"money": func(n Number) string {
			return "$" + formatThousands(float64(n))
		},
	}
	return &Renderer{
		tmpl: template.Must(template.New("report").Funcs(funcs).Parse(reportTemplate)),
		md:   goldmark.New(),
	}
}

type scenarioRow struct {
	Name     string
	Scenario ScenarioPayload
}

// Render produces the report markup for a normalized Result. The
// narrative, when present, is Markdown and is converted here.
func (r *Renderer) Render(res *Result, title string) (string, error) {
	if title == "" {
		title = "Treasury ROI Report"
	}

	var narrativeHTML template.HTML
	if res.Narrative != "" {
		var buf bytes.Buffer
		if err := r.md.Convert([]byte(res.Narrative), &buf); err != nil {
			return "", fmt.Errorf("render narrative: %w", err)
		}
		narrativeHTML = template.HTML(buf.String())
	}

	data := struct {
		Title         string
		Result        *Result
		Rows          []scenarioRow
		NarrativeHTML template.HTML
	}{
		Title:  title,
		Result: res,
		Rows: []scenarioRow{
			{Name: "Conservative", Scenario: res.Scenarios.Conservative},
			{Name: "Base", Scenario: res.Scenarios.Base},
			{Name: "Optimistic", Scenario: res.Scenarios.Optimistic},
		},
		NarrativeHTML: narrativeHTML,
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return buf.String(), nil
}

func formatThousands(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := fmt.Sprintf("%.0f", v)
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		return "-" + out
	}
	return out
}
