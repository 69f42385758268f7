package llm

import (
	"fmt"
	"strings"

	"treasuryroi/internal/domain"
	"treasuryroi/internal/roi"
)

// BuildNarrativePrompt renders the computed figures into the completion
// prompt. Every number the model is allowed to cite is included here.
func BuildNarrativePrompt(lead *domain.Lead, set roi.ScenarioSet, rec roi.Recommendation) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Company: %s (%s, %s)\n", lead.CompanyName, lead.CompanySize, lead.Industry)
	fmt.Fprintf(&sb, "Treasury profile: %.0f bank relationships, %.1f FTEs, %.0f h/week reconciliation, %.0f h/week cash positioning.\n",
		lead.NumBanks, lead.FTEs, lead.HoursReconciliation, lead.HoursCashPositioning)
	if len(lead.PainPoints) > 0 {
		fmt.Fprintf(&sb, "Reported pain points: %s.\n", strings.Join(lead.PainPoints, ", "))
	}
	if lead.BusinessObjective != "" {
		fmt.Fprintf(&sb, "Stated objective: %s.\n", lead.BusinessObjective)
	}

	sb.WriteString("\nProjected annual benefit:\n")
	for _, row := range []struct {
		name string
		s    roi.Scenario
	}{
		{"conservative", set.Conservative},
		{"base", set.Base},
		{"optimistic", set.Optimistic},
	} {
		fmt.Fprintf(&sb, "- %s: labor %.0f, fees %.0f, error reduction %.0f, total %.0f\n",
			row.name, row.s.LaborSavings, row.s.FeeSavings, row.s.ErrorReduction, row.s.TotalAnnualBenefit)
	}

	fmt.Fprintf(&sb, "\nRecommended solution tier: %s (%s). %s\n",
		rec.CategoryInfo.Label, rec.Category, rec.Reasoning)

	sb.WriteString("\nWrite the narrative for this business case: an executive summary, " +
		"the key savings drivers, main implementation risks, and suggested next steps.")

	return sb.String()
}
