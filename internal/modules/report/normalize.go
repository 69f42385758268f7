package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strconv"

	"treasuryroi/internal/roi"
)

// Result is the single internal shape every report is rendered from.
// Older payload schemas are converted into it by Normalize before any
// rendering or charting happens.
type Result struct {
	Scenarios      Scenarios          `json:"scenarios"`
	Recommendation roi.Recommendation `json:"recommendation"`
	Narrative      string             `json:"narrative,omitempty"`
	Risks          []string           `json:"risks"`
	NextActions    []string           `json:"next_actions"`
	Chart          ChartPayload       `json:"chart"`
	ReportHTML     string             `json:"report_html,omitempty"`
}

type Scenarios struct {
	Conservative ScenarioPayload `json:"conservative"`
	Base         ScenarioPayload `json:"base"`
	Optimistic   ScenarioPayload `json:"optimistic"`
}

type ScenarioPayload struct {
	LaborSavings       Number `json:"labor_savings"`
	FeeSavings         Number `json:"fee_savings"`
	ErrorReduction     Number `json:"error_reduction"`
	TotalAnnualBenefit Number `json:"total_annual_benefit"`
}

// ChartPayload carries the bar-chart series. It is always built from
// the numeric payload, never re-parsed out of rendered markup.
type ChartPayload struct {
	Labels []string      `json:"labels"`
	Series []ChartSeries `json:"series"`
}

type ChartSeries struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// Number decodes plain numbers, quoted numbers and null. Anything
// non-finite or unparseable is coerced to zero and logged, the report
// keeps rendering.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			log.Printf("report: coercing unparseable numeric %q to 0", s)
			*n = 0
			return nil
		}
		*n = Number(coerceFinite(v))
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		log.Printf("report: coercing malformed numeric %s to 0", data)
		*n = 0
		return nil
	}
	*n = Number(coerceFinite(v))
	return nil
}

func coerceFinite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		log.Printf("report: coercing non-finite numeric %v to 0", v)
		return 0
	}
	return v
}

var defaultRisks = []string{
	"Implementation effort is typically underestimated for bank connectivity.",
	"Savings depend on process adoption across the treasury team.",
	"Fee reductions require renegotiation with banking partners.",
}

var defaultNextActions = []string{
	"Validate the input figures with your treasury team.",
	"Shortlist vendors in the recommended category.",
	"Schedule a scoping call to refine the business case.",
}

// rawResult matches the current schema where scenarios sit at the top
// level.
type rawResult struct {
	Scenarios      *Scenarios          `json:"scenarios"`
	Recommendation *roi.Recommendation `json:"recommendation"`
	Narrative      string              `json:"narrative"`
	Risks          []string            `json:"risks"`
	NextActions    []string            `json:"next_actions"`
	ReportHTML     string              `json:"report_html"`
}

// rawLegacyResult matches the older schema that nested everything
// under financial_analysis.
type rawLegacyResult struct {
	FinancialAnalysis *struct {
		ROIScenarios   *Scenarios          `json:"roi_scenarios"`
		Recommendation *roi.Recommendation `json:"recommendation"`
	} `json:"financial_analysis"`
	Recommendation *roi.Recommendation `json:"recommendation"`
	Narrative      string              `json:"narrative"`
	Risks          []string            `json:"risks"`
	NextActions    []string            `json:"next_actions"`
}

// Normalize converts any supported payload shape into a Result. Shape
// detection is by key presence: a top-level "scenarios" object wins,
// then "financial_analysis.roi_scenarios". Missing risks and next
// actions fall back to generic defaults.
func Normalize(raw []byte) (*Result, error) {
	var cur rawResult
	if err := json.Unmarshal(raw, &cur); err == nil && cur.Scenarios != nil {
		return assembleResult(cur.Scenarios, cur.Recommendation, cur.Narrative, cur.Risks, cur.NextActions, cur.ReportHTML), nil
	}

	var legacy rawLegacyResult
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownShape, err)
	}
	if legacy.FinancialAnalysis == nil || legacy.FinancialAnalysis.ROIScenarios == nil {
		return nil, ErrUnknownShape
	}

	rec := legacy.Recommendation
	if rec == nil {
		rec = legacy.FinancialAnalysis.Recommendation
	}
	return assembleResult(legacy.FinancialAnalysis.ROIScenarios, rec, legacy.Narrative, legacy.Risks, legacy.NextActions, ""), nil
}

func assembleResult(s *Scenarios, rec *roi.Recommendation, narrative string, risks, actions []string, html string) *Result {
	res := &Result{
		Scenarios:   *s,
		Narrative:   narrative,
		Risks:       risks,
		NextActions: actions,
		ReportHTML:  html,
	}
	if rec != nil {
		res.Recommendation = *rec
	}
	if len(res.Risks) == 0 {
		res.Risks = defaultRisks
	}
	if len(res.NextActions) == 0 {
		res.NextActions = defaultNextActions
	}
	res.Chart = BuildChart(res.Scenarios)
	return res
}

// BuildChart derives the benefit-category bar chart straight from the
// scenario numbers.
func BuildChart(s Scenarios) ChartPayload {
	return ChartPayload{
		Labels: []string{"Labor savings", "Fee savings", "Error reduction"},
		Series: []ChartSeries{
			{Name: "Conservative", Values: scenarioValues(s.Conservative)},
			{Name: "Base", Values: scenarioValues(s.Base)},
			{Name: "Optimistic", Values: scenarioValues(s.Optimistic)},
		},
	}
}

func scenarioValues(p ScenarioPayload) []float64 {
	return []float64{float64(p.LaborSavings), float64(p.FeeSavings), float64(p.ErrorReduction)}
}

// FromScenarioSet builds the canonical Result for a fresh computation.
func FromScenarioSet(set roi.ScenarioSet, rec roi.Recommendation) *Result {
	s := Scenarios{
		Conservative: toPayload(set.Conservative),
		Base:         toPayload(set.Base),
		Optimistic:   toPayload(set.Optimistic),
	}
	return &Result{
		Scenarios:      s,
		Recommendation: rec,
		Risks:          defaultRisks,
		NextActions:    defaultNextActions,
		Chart:          BuildChart(s),
	}
}

func toPayload(s roi.Scenario) ScenarioPayload {
	return ScenarioPayload{
		LaborSavings:       Number(s.LaborSavings),
		FeeSavings:         Number(s.FeeSavings),
		ErrorReduction:     Number(s.ErrorReduction),
		TotalAnnualBenefit: Number(s.TotalAnnualBenefit),
	}
}
