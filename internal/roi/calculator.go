package roi

import (
	"log"
	"math"
	"sort"
)

// Inputs are the operational numbers collected by the wizard. Zero or
// missing values are fine, the projection just degrades toward zero.
type Inputs struct {
	HoursReconciliation  float64
	HoursCashPositioning float64
	NumBanks             float64
	FTEs                 float64
	Industry             string
}

// Scenario is one projected savings line.
type Scenario struct {
	LaborSavings       float64 `json:"labor_savings"`
	FeeSavings         float64 `json:"fee_savings"`
	ErrorReduction     float64 `json:"error_reduction"`
	TotalAnnualBenefit float64 `json:"total_annual_benefit"`
}

// ScenarioSet holds the three projections returned to the wizard.
type ScenarioSet struct {
	Conservative Scenario `json:"conservative"`
	Base         Scenario `json:"base"`
	Optimistic   Scenario `json:"optimistic"`
}

// Multipliers scale the base projection into the three scenarios.
type Multipliers struct {
	Conservative float64
	Base         float64
	Optimistic   float64
}

// DefaultMultipliers keep conservative <= base <= optimistic by construction.
var DefaultMultipliers = Multipliers{
	Conservative: 0.75,
	Base:         1.0,
	Optimistic:   1.3,
}

const (
	hourlyCostRate       = 75.0    // loaded cost per treasury-ops hour
	weeksPerYear         = 52.0
	efficiencyGain       = 0.70    // share of manual hours automation removes
	annualFeePerBank     = 12000.0 // bank/connectivity fees per relationship
	feeReductionRate     = 0.08
	avgAnalystSalary     = 85000.0
	errorCostRate        = 0.03 // salary share lost to reconciliation errors
)

var industryFactor = map[string]float64{
	"Banking":       1.2,
	"Insurance":     1.15,
	"Technology":    1.1,
	"Manufacturing": 1.05,
	"Retail":        1.0,
	"Healthcare":    1.0,
	"Energy":        1.1,
}

// Calculate maps the operational profile to three scenario projections.
// It never fails: non-finite inputs are treated as zero and the scenario
// ordering is enforced after computation.
func Calculate(in Inputs) ScenarioSet {
	return CalculateWith(DefaultMultipliers, in)
}

// CalculateWith is Calculate with explicit scenario multipliers. A
// multiplier set that breaks the conservative <= base <= optimistic
// ordering is a configuration error: it is logged and the result is
// reordered rather than rendered inconsistent.
func CalculateWith(m Multipliers, in Inputs) ScenarioSet {
	weeklyHours := finite(in.HoursReconciliation) + finite(in.HoursCashPositioning)
	annualHours := weeklyHours * weeksPerYear

	factor := 1.0
	if f, ok := industryFactor[in.Industry]; ok {
		factor = f
	}

	labor := annualHours * hourlyCostRate * efficiencyGain * factor
	fees := finite(in.NumBanks) * annualFeePerBank * feeReductionRate
	errors := finite(in.FTEs) * avgAnalystSalary * errorCostRate

	set := ScenarioSet{
		Conservative: scale(m.Conservative, labor, fees, errors),
		Base:         scale(m.Base, labor, fees, errors),
		Optimistic:   scale(m.Optimistic, labor, fees, errors),
	}

	if set.Conservative.TotalAnnualBenefit > set.Base.TotalAnnualBenefit ||
		set.Base.TotalAnnualBenefit > set.Optimistic.TotalAnnualBenefit {
		log.Printf("roi config_error scenario ordering violated multipliers=%+v", m)
		scenarios := []Scenario{set.Conservative, set.Base, set.Optimistic}
		sort.Slice(scenarios, func(i, j int) bool {
			return scenarios[i].TotalAnnualBenefit < scenarios[j].TotalAnnualBenefit
		})
		set.Conservative, set.Base, set.Optimistic = scenarios[0], scenarios[1], scenarios[2]
	}

	return set
}

// ROIPercent reports total benefit as a percentage of investment cost.
// Zero or negative investment yields 0, never a division by zero.
func ROIPercent(totalBenefit, investmentCost float64) float64 {
	if investmentCost <= 0 {
		return 0
	}
	pct := totalBenefit / investmentCost * 100
	return finite(pct)
}

func scale(mult, labor, fees, errors float64) Scenario {
	s := Scenario{
		LaborSavings:   round2(finite(labor * mult)),
		FeeSavings:     round2(finite(fees * mult)),
		ErrorReduction: round2(finite(errors * mult)),
	}
	s.TotalAnnualBenefit = round2(s.LaborSavings + s.FeeSavings + s.ErrorReduction)
	return s
}

// finite clamps NaN, infinities and negatives to zero so nothing
// non-finite leaks downstream.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
