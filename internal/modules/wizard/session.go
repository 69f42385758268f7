package wizard

import (
	"strconv"
	"strings"
)

// Config fixes the step layout of one wizard.
type Config struct {
	TotalSteps int
	StepFields map[int][]string
}

var defaultStepFields = map[int][]string{
	1: {FieldCompanyName, FieldCompanySize, FieldIndustry},
	2: {FieldHoursReconciliation, FieldHoursCashPositioning, FieldNumBanks, FieldFTEs},
	3: {FieldPainPoints},
	4: {FieldBusinessObjective, FieldImplementationTimeline, FieldBudgetRange},
	5: {FieldEmail},
}

// DefaultConfig is the five-step layout of the reference wizard.
func DefaultConfig() Config {
	fields := make(map[int][]string, len(defaultStepFields))
	for k, v := range defaultStepFields {
		fields[k] = append([]string(nil), v...)
	}
	return Config{TotalSteps: len(defaultStepFields), StepFields: fields}
}

// StepState is the progress-indicator state of one step.
type StepState string

const (
	StepCompleted StepState = "completed"
	StepActive    StepState = "active"
	StepUpcoming  StepState = "upcoming"
)

// Buttons is the navigation visibility derived from the current step.
type Buttons struct {
	ShowPrev   bool `json:"show_prev"`
	ShowNext   bool `json:"show_next"`
	ShowSubmit bool `json:"show_submit"`
}

// Session is the wizard controller for one open modal. Navigation is
// forward-gated and backward-free: Next validates the current step,
// Prev never does. A submitting session refuses all navigation until
// FinishSubmit is called.
type Session struct {
	cfg        Config
	current    int
	submitting bool
	form       Form
}

func NewSession(cfg Config) *Session {
	if cfg.TotalSteps < 1 {
		cfg = DefaultConfig()
	}
	return &Session{cfg: cfg, current: 1, form: Form{}}
}

func (s *Session) CurrentStep() int   { return s.current }
func (s *Session) TotalSteps() int    { return s.cfg.TotalSteps }
func (s *Session) IsSubmitting() bool { return s.submitting }
func (s *Session) Form() Form         { return s.form }

// Set records an answer for a field on any step.
func (s *Session) Set(field string, value any) {
	if s.submitting {
		return
	}
	s.form[field] = value
}

// Next advances to the following step iff the current step validates.
// At the last step, or while submitting, it is a no-op.
func (s *Session) Next() StepResult {
	if s.submitting {
		return StepResult{Valid: false, StepError: "A submission is already in progress"}
	}

	res := ValidateStep(s.cfg.StepFields[s.current], s.form)
	if !res.Valid {
		return res
	}

	if s.current < s.cfg.TotalSteps {
		s.current++
	}
	return res
}

// Prev retreats one step, clamped at 1. Never blocked by validation.
func (s *Session) Prev() {
	if s.submitting {
		return
	}
	if s.current > 1 {
		s.current--
	}
}

// SubmitFinal validates the last step and, on success, assembles the
// payload, runs the authoritative full-payload check and moves the
// session into the submitting state.
func (s *Session) SubmitFinal() (FormInputs, StepResult) {
	if s.submitting {
		return FormInputs{}, StepResult{Valid: false, StepError: "A submission is already in progress"}
	}
	if s.current != s.cfg.TotalSteps {
		return FormInputs{}, StepResult{Valid: false, StepError: "Complete all steps before submitting"}
	}

	res := ValidateStep(s.cfg.StepFields[s.current], s.form)
	if !res.Valid {
		return FormInputs{}, res
	}

	inputs := s.assemble()
	if err := ValidateFormData(inputs); err != nil {
		fe, ok := err.(FieldError)
		if !ok {
			fe = FieldError{Message: err.Error()}
		}
		return FormInputs{}, StepResult{
			Valid:       false,
			StepError:   "Submission failed validation",
			FieldErrors: []FieldError{fe},
		}
	}

	s.submitting = true
	return inputs, StepResult{Valid: true}
}

// FinishSubmit releases the busy guard once the submission (or its
// failure handling) is done.
func (s *Session) FinishSubmit() {
	s.submitting = false
}

// Close resets the session for the next open. Refused mid-submission.
func (s *Session) Close() bool {
	if s.submitting {
		return false
	}
	s.current = 1
	s.form = Form{}
	return true
}

// Progress reports the indicator state for every step.
func (s *Session) Progress() []StepState {
	out := make([]StepState, s.cfg.TotalSteps)
	for i := 1; i <= s.cfg.TotalSteps; i++ {
		switch {
		case i < s.current:
			out[i-1] = StepCompleted
		case i == s.current:
			out[i-1] = StepActive
		default:
			out[i-1] = StepUpcoming
		}
	}
	return out
}

// Buttons reports navigation visibility: Prev hidden on step 1, Next
// hidden on the last step, Submit shown only on the last step.
func (s *Session) Buttons() Buttons {
	return Buttons{
		ShowPrev:   s.current > 1,
		ShowNext:   s.current < s.cfg.TotalSteps,
		ShowSubmit: s.current == s.cfg.TotalSteps,
	}
}

func (s *Session) assemble() FormInputs {
	inputs := FormInputs{
		Email:                  asString(s.form[FieldEmail]),
		CompanyName:            asString(s.form[FieldCompanyName]),
		CompanySize:            asString(s.form[FieldCompanySize]),
		Industry:               asString(s.form[FieldIndustry]),
		HoursReconciliation:    asFloat(s.form[FieldHoursReconciliation]),
		HoursCashPositioning:   asFloat(s.form[FieldHoursCashPositioning]),
		NumBanks:               asFloat(s.form[FieldNumBanks]),
		FTEs:                   asFloat(s.form[FieldFTEs]),
		BusinessObjective:      asString(s.form[FieldBusinessObjective]),
		ImplementationTimeline: asString(s.form[FieldImplementationTimeline]),
		BudgetRange:            asString(s.form[FieldBudgetRange]),
	}
	if pp, ok := s.form[FieldPainPoints].([]string); ok {
		inputs.PainPoints = pp
	}
	return inputs
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
