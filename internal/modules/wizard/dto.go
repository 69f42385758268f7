package wizard

// FormInputs is the payload assembled from a completed wizard session.
type FormInputs struct {
	Email       string `json:"email" validate:"required,email"`
	CompanyName string `json:"company_name" validate:"required,min=2,max=100"`
	CompanySize string `json:"company_size" validate:"required"`
	Industry    string `json:"industry" validate:"required"`

	HoursReconciliation  float64 `json:"hours_reconciliation"`
	HoursCashPositioning float64 `json:"hours_cash_positioning"`
	NumBanks             float64 `json:"num_banks"`
	FTEs                 float64 `json:"ftes"`

	PainPoints []string `json:"pain_points" validate:"required,min=1"`

	BusinessObjective      string `json:"business_objective,omitempty"`
	ImplementationTimeline string `json:"implementation_timeline,omitempty"`
	BudgetRange            string `json:"budget_range,omitempty"`
}

// Form holds in-progress wizard answers keyed by field name. Scalar
// fields are strings or float64, pain_points is a []string.
type Form map[string]any

// ToForm exposes assembled inputs as a Form, mostly for re-validation.
func (f FormInputs) ToForm() Form {
	return Form{
		FieldEmail:                  f.Email,
		FieldCompanyName:            f.CompanyName,
		FieldCompanySize:            f.CompanySize,
		FieldIndustry:               f.Industry,
		FieldHoursReconciliation:    f.HoursReconciliation,
		FieldHoursCashPositioning:   f.HoursCashPositioning,
		FieldNumBanks:               f.NumBanks,
		FieldFTEs:                   f.FTEs,
		FieldPainPoints:             f.PainPoints,
		FieldBusinessObjective:      f.BusinessObjective,
		FieldImplementationTimeline: f.ImplementationTimeline,
		FieldBudgetRange:            f.BudgetRange,
	}
}
