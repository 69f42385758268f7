package domain

import "time"

// Setting is one key/value configuration row editable from the admin
// dashboard (LLM model, report template options and the like).
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Setting keys known to the admin surface.
const (
	SettingLLMModel        = "llm_model"
	SettingReportTitle     = "report_title"
	SettingNarrativeOn     = "narrative_enabled"
	SettingRetentionDays   = "lead_retention_days"
	SettingCompanyContact  = "company_contact_email"
	SettingDefaultCurrency = "default_currency"
)
