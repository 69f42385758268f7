package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"treasuryroi/internal/domain"
	"treasuryroi/internal/jobs"
	"treasuryroi/internal/llm"
	"treasuryroi/internal/modules/wizard"
	"treasuryroi/internal/roi"
)

// LeadStore is the slice of the lead repository the report flow needs.
type LeadStore interface {
	Create(ctx context.Context, l *domain.Lead) error
	SetReportHTML(ctx context.Context, id int64, html string) error
}

// SettingsReader resolves admin-editable options at submit time.
type SettingsReader interface {
	Get(ctx context.Context, key string) (*domain.Setting, error)
}

type Service struct {
	leads    LeadStore
	settings SettingsReader
	jobs     jobs.Store
	narrator llm.Narrator
	renderer *Renderer
	hub      *Hub
}

// NewService wires the submission flow. narrator may be nil, in which
// case every report is produced inline without a narrative.
func NewService(leads LeadStore, settings SettingsReader, jobStore jobs.Store, narrator llm.Narrator, hub *Hub) *Service {
	return &Service{
		leads:    leads,
		settings: settings,
		jobs:     jobStore,
		narrator: narrator,
		renderer: NewRenderer(),
		hub:      hub,
	}
}

// Submit is the authoritative entry point for a completed wizard form.
// Client-side validation is advisory only, everything is re-checked
// here. The outcome is either an inline result or a queued job id when
// narrative generation is on.
func (s *Service) Submit(ctx context.Context, req SubmitReportRequest, meta RequestMeta) (*SubmitOutcome, error) {
	if err := wizard.ValidateFormData(req.FormInputs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	inputs := roi.Inputs{
		HoursReconciliation:  req.HoursReconciliation,
		HoursCashPositioning: req.HoursCashPositioning,
		NumBanks:             req.NumBanks,
		FTEs:                 req.FTEs,
		Industry:             req.Industry,
	}
	set := roi.Calculate(inputs)
	rec := roi.Recommend(inputs)

	lead := &domain.Lead{
		Email:                  req.Email,
		CompanyName:            req.CompanyName,
		CompanySize:            req.CompanySize,
		Industry:               req.Industry,
		HoursReconciliation:    req.HoursReconciliation,
		HoursCashPositioning:   req.HoursCashPositioning,
		NumBanks:               req.NumBanks,
		FTEs:                   req.FTEs,
		PainPoints:             req.PainPoints,
		BusinessObjective:      req.BusinessObjective,
		ImplementationTimeline: req.ImplementationTimeline,
		BudgetRange:            req.BudgetRange,
		RecommendedCategory:    rec.Category,
		ROILow:                 set.Conservative.TotalAnnualBenefit,
		ROIBase:                set.Base.TotalAnnualBenefit,
		ROIHigh:                set.Optimistic.TotalAnnualBenefit,
		Status:                 domain.LeadNew,
		UTMSource:              req.UTMSource,
		UTMMedium:              req.UTMMedium,
		UTMCampaign:            req.UTMCampaign,
		ReferrerURL:            req.ReferrerURL,
		IPAddress:              meta.IPAddress,
		UserAgent:              meta.UserAgent,
		CreatedAt:              time.Now(),
		UpdatedAt:              time.Now(),
	}
	if err := s.leads.Create(ctx, lead); err != nil {
		return nil, err
	}

	result := FromScenarioSet(set, rec)

	if !s.narrativeEnabled(ctx) {
		html, err := s.renderer.Render(result, s.reportTitle(ctx))
		if err != nil {
			return nil, err
		}
		result.ReportHTML = html
		if err := s.leads.SetReportHTML(ctx, lead.ID, html); err != nil {
			log.Printf("report: failed to store report for lead %d: %v", lead.ID, err)
		}
		return &SubmitOutcome{Result: result}, nil
	}

	job := jobs.New()
	job.LeadID = lead.ID
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	go s.runJob(job, lead, result)

	return &SubmitOutcome{JobID: job.ID}, nil
}

// runJob produces the narrative-enriched report in the background. The
// request context is gone by now, so the job runs on its own context.
// The runner is the only writer for its job.
func (s *Service) runJob(job *jobs.Job, lead *domain.Lead, result *Result) {
	ctx := context.Background()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("report: job %s panicked: %v", job.ID, r)
			s.failJob(ctx, job, "internal error while generating the report")
		}
	}()

	s.progress(ctx, job, "Generating narrative")

	prompt := llm.BuildNarrativePrompt(lead, scenarioSetOf(result), result.Recommendation)
	narrative, err := s.narrator.GenerateNarrative(ctx, prompt)
	if err != nil {
		// The report is still worth having without the narrative.
		log.Printf("report: narrative for job %s skipped: %v", job.ID, err)
	} else {
		result.Narrative = narrative
	}

	s.progress(ctx, job, "Rendering report")

	html, err := s.renderer.Render(result, s.reportTitle(ctx))
	if err != nil {
		log.Printf("report: job %s render failed: %v", job.ID, err)
		s.failJob(ctx, job, "failed to render the report")
		return
	}
	result.ReportHTML = html

	if err := s.leads.SetReportHTML(ctx, lead.ID, html); err != nil {
		log.Printf("report: failed to store report for lead %d: %v", lead.ID, err)
	}

	data, err := json.Marshal(result)
	if err != nil {
		s.failJob(ctx, job, "failed to encode the report")
		return
	}

	job.Status = jobs.StatusCompleted
	job.Message = "Completed"
	job.ReportHTML = html
	job.ReportData = data
	if err := s.jobs.Update(ctx, job); err != nil {
		log.Printf("report: job %s completion update failed: %v", job.ID, err)
		return
	}

	s.notify(job)
}

// JobStatus returns the polling view of a job.
func (s *Service) JobStatus(ctx context.Context, jobID string) (*JobStatusResponse, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return toStatusResponse(job), nil
}

func toStatusResponse(job *jobs.Job) *JobStatusResponse {
	resp := &JobStatusResponse{
		JobID:   job.ID,
		Status:  string(job.Status),
		Message: job.Message,
		Error:   job.Error,
	}
	if job.Status == jobs.StatusCompleted && len(job.ReportData) > 0 {
		if res, err := Normalize(job.ReportData); err == nil {
			res.ReportHTML = job.ReportHTML
			resp.Result = res
		} else {
			log.Printf("report: stored payload for job %s is unreadable: %v", job.ID, err)
		}
	}
	return resp
}

func (s *Service) progress(ctx context.Context, job *jobs.Job, message string) {
	job.Status = jobs.StatusRunning
	job.Message = message
	if err := s.jobs.Update(ctx, job); err != nil {
		log.Printf("report: job %s progress update failed: %v", job.ID, err)
		return
	}
	s.notify(job)
}

func (s *Service) failJob(ctx context.Context, job *jobs.Job, message string) {
	job.Status = jobs.StatusError
	job.Message = message
	job.Error = message
	if err := s.jobs.Update(ctx, job); err != nil {
		log.Printf("report: job %s error update failed: %v", job.ID, err)
		return
	}
	s.notify(job)
}

func (s *Service) notify(job *jobs.Job) {
	if s.hub == nil || !s.hub.IsWatched(job.ID) {
		return
	}
	s.hub.SendToJob(job.ID, toStatusResponse(job))
}

func (s *Service) narrativeEnabled(ctx context.Context) bool {
	if s.narrator == nil {
		return false
	}
	if s.settings != nil {
		if setting, err := s.settings.Get(ctx, domain.SettingNarrativeOn); err == nil && setting.Value == "false" {
			return false
		}
	}
	return true
}

func (s *Service) reportTitle(ctx context.Context) string {
	if s.settings != nil {
		if setting, err := s.settings.Get(ctx, domain.SettingReportTitle); err == nil && setting.Value != "" {
			return setting.Value
		}
	}
	return ""
}

func scenarioSetOf(res *Result) roi.ScenarioSet {
	return roi.ScenarioSet{
		Conservative: toScenario(res.Scenarios.Conservative),
		Base:         toScenario(res.Scenarios.Base),
		Optimistic:   toScenario(res.Scenarios.Optimistic),
	}
}

func toScenario(p ScenarioPayload) roi.Scenario {
	return roi.Scenario{
		LaborSavings:       float64(p.LaborSavings),
		FeeSavings:         float64(p.FeeSavings),
		ErrorReduction:     float64(p.ErrorReduction),
		TotalAnnualBenefit: float64(p.TotalAnnualBenefit),
	}
}
