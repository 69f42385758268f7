package report

import "treasuryroi/internal/modules/wizard"

type SubmitReportRequest struct {
	wizard.FormInputs

	UTMSource   string `json:"utm_source"`
	UTMMedium   string `json:"utm_medium"`
	UTMCampaign string `json:"utm_campaign"`
	ReferrerURL string `json:"referrer_url"`
}

// RequestMeta carries transport-level context the handler extracts for
// the lead record.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

type JobStatusResponse struct {
	JobID   string  `json:"job_id"`
	Status  string  `json:"status"`
	Message string  `json:"message,omitempty"`
	Result  *Result `json:"result,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// SubmitOutcome is either an inline result or a queued job, never both.
type SubmitOutcome struct {
	Result *Result
	JobID  string
}
