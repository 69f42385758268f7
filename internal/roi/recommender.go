package roi

import "fmt"

// CategoryInfo describes one recommended product tier.
type CategoryInfo struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Recommendation is the deterministic category pick for a profile.
type Recommendation struct {
	Category     string       `json:"category"`
	CategoryInfo CategoryInfo `json:"category_info"`
	Confidence   float64      `json:"confidence"`
	Reasoning    string       `json:"reasoning"`
}

const (
	CategoryCashTools  = "cash_tools"
	CategoryTMSLite    = "tms_lite"
	CategoryTRMS       = "trms"
	CategoryEnterprise = "enterprise"
)

var categories = map[string]CategoryInfo{
	CategoryCashTools: {
		Key:         CategoryCashTools,
		Label:       "Cash Management Tools",
		Description: "Lightweight cash visibility and reconciliation tooling for small treasury teams.",
	},
	CategoryTMSLite: {
		Key:         CategoryTMSLite,
		Label:       "Treasury Management System (Lite)",
		Description: "Core TMS covering cash positioning, bank connectivity and basic forecasting.",
	},
	CategoryTRMS: {
		Key:         CategoryTRMS,
		Label:       "Treasury & Risk Management System",
		Description: "Full TMS with risk, debt and investment management for multi-bank operations.",
	},
	CategoryEnterprise: {
		Key:         CategoryEnterprise,
		Label:       "Enterprise Treasury Platform",
		Description: "Enterprise-scale platform for large teams with complex bank structures.",
	},
}

// Recommend selects a product tier from the operational profile. Pure
// threshold lookup, the same inputs always give the same answer.
func Recommend(in Inputs) Recommendation {
	banks := finite(in.NumBanks)
	ftes := finite(in.FTEs)
	weeklyHours := finite(in.HoursReconciliation) + finite(in.HoursCashPositioning)

	var key string
	switch {
	case banks > 10 || ftes > 8:
		key = CategoryEnterprise
	case banks > 5 || ftes > 3:
		key = CategoryTRMS
	case banks > 2 || weeklyHours > 15:
		key = CategoryTMSLite
	default:
		key = CategoryCashTools
	}

	confidence := 0.6
	if banks > 0 && ftes > 0 {
		confidence += 0.2
	}
	if weeklyHours > 0 {
		confidence += 0.1
	}

	return Recommendation{
		Category:     key,
		CategoryInfo: categories[key],
		Confidence:   confidence,
		Reasoning: fmt.Sprintf(
			"Profile of %.0f bank relationships, %.1f treasury FTEs and %.0f manual hours per week fits the %s tier.",
			banks, ftes, weeklyHours, categories[key].Label,
		),
	}
}
