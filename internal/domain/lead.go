package domain

import "time"

type LeadStatus string

const (
	LeadNew       LeadStatus = "new"
	LeadContacted LeadStatus = "contacted"
	LeadQualified LeadStatus = "qualified"
	LeadConverted LeadStatus = "converted"
	LeadLost      LeadStatus = "lost"
)

// ValidLeadStatus reports whether s is one of the known statuses.
func ValidLeadStatus(s LeadStatus) bool {
	switch s {
	case LeadNew, LeadContacted, LeadQualified, LeadConverted, LeadLost:
		return true
	}
	return false
}

// Lead is one completed wizard submission together with the computed
// ROI estimate and the recommended product category.
type Lead struct {
	ID int64 `json:"id"`

	// Contact / company profile
	Email       string `json:"email"`
	CompanyName string `json:"company_name"`
	CompanySize string `json:"company_size"`
	Industry    string `json:"industry"`

	// Operational inputs
	HoursReconciliation  float64  `json:"hours_reconciliation"`
	HoursCashPositioning float64  `json:"hours_cash_positioning"`
	NumBanks             float64  `json:"num_banks"`
	FTEs                 float64  `json:"ftes"`
	PainPoints           []string `json:"pain_points"`

	// Optional qualifiers
	BusinessObjective      string `json:"business_objective,omitempty"`
	ImplementationTimeline string `json:"implementation_timeline,omitempty"`
	BudgetRange            string `json:"budget_range,omitempty"`

	// Computed at submission time
	RecommendedCategory string  `json:"recommended_category"`
	ROILow              float64 `json:"roi_low"`
	ROIBase             float64 `json:"roi_base"`
	ROIHigh             float64 `json:"roi_high"`
	ReportHTML          string  `json:"report_html,omitempty"`

	Status LeadStatus `json:"status"`

	// Tracking
	UTMSource   string `json:"utm_source,omitempty"`
	UTMMedium   string `json:"utm_medium,omitempty"`
	UTMCampaign string `json:"utm_campaign,omitempty"`
	ReferrerURL string `json:"referrer_url,omitempty"`
	IPAddress   string `json:"-"`
	UserAgent   string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (l *Lead) IsNew() bool {
	return l.Status == LeadNew
}
