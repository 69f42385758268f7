package wizard

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Field names used across the wizard, the submission payload and the
// admin lead record.
const (
	FieldEmail                  = "email"
	FieldCompanyName            = "company_name"
	FieldCompanySize            = "company_size"
	FieldIndustry               = "industry"
	FieldHoursReconciliation    = "hours_reconciliation"
	FieldHoursCashPositioning   = "hours_cash_positioning"
	FieldNumBanks               = "num_banks"
	FieldFTEs                   = "ftes"
	FieldPainPoints             = "pain_points"
	FieldBusinessObjective      = "business_objective"
	FieldImplementationTimeline = "implementation_timeline"
	FieldBudgetRange            = "budget_range"
)

type FieldKind int

const (
	KindText FieldKind = iota
	KindEmail
	KindNumber
	KindChoice      // radio group, presence check
	KindMultiChoice // checkbox group, at least one
)

// FieldRule declares how one field validates.
type FieldRule struct {
	Name     string
	Label    string
	Kind     FieldKind
	Required bool
	// Positive requires the numeric value to be > 0 on final submission.
	Positive bool
}

var fieldRules = map[string]FieldRule{
	FieldEmail:                  {Name: FieldEmail, Label: "Work email", Kind: KindEmail, Required: true},
	FieldCompanyName:            {Name: FieldCompanyName, Label: "Company name", Kind: KindText, Required: true},
	FieldCompanySize:            {Name: FieldCompanySize, Label: "Company size", Kind: KindChoice, Required: true},
	FieldIndustry:               {Name: FieldIndustry, Label: "Industry", Kind: KindChoice, Required: true},
	FieldHoursReconciliation:    {Name: FieldHoursReconciliation, Label: "Weekly reconciliation hours", Kind: KindNumber, Required: true, Positive: true},
	FieldHoursCashPositioning:   {Name: FieldHoursCashPositioning, Label: "Weekly cash positioning hours", Kind: KindNumber, Required: true, Positive: true},
	FieldNumBanks:               {Name: FieldNumBanks, Label: "Number of banks", Kind: KindNumber, Required: true, Positive: true},
	FieldFTEs:                   {Name: FieldFTEs, Label: "Treasury FTEs", Kind: KindNumber, Required: true, Positive: true},
	FieldPainPoints:             {Name: FieldPainPoints, Label: "Pain points", Kind: KindMultiChoice, Required: true},
	FieldBusinessObjective:      {Name: FieldBusinessObjective, Label: "Business objective", Kind: KindChoice},
	FieldImplementationTimeline: {Name: FieldImplementationTimeline, Label: "Implementation timeline", Kind: KindChoice},
	FieldBudgetRange:            {Name: FieldBudgetRange, Label: "Budget range", Kind: KindChoice},
}

// RuleFor returns the declared rule for a field.
func RuleFor(name string) (FieldRule, bool) {
	r, ok := fieldRules[name]
	return r, ok
}

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail rejects values without an @, without a dot in the
// domain, or containing whitespace.
func ValidateEmail(value string) bool {
	return emailRe.MatchString(strings.TrimSpace(value))
}

// ValidateRequired reports whether the value is present: non-empty
// after trim for scalars, at least one non-empty element for slices.
func ValidateRequired(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(v) != ""
	case []string:
		for _, s := range v {
			if strings.TrimSpace(s) != "" {
				return true
			}
		}
		return false
	case float64:
		// a numeric answer was given, even zero counts as present
		return !math.IsNaN(v)
	default:
		return false
	}
}

// ValidateCompanyName returns an empty string when valid, otherwise the
// problem. Length bounds 2..100, at least one letter.
func ValidateCompanyName(value string) string {
	v := strings.TrimSpace(value)
	if len(v) < 2 {
		return "Company name must be at least 2 characters"
	}
	if len(v) > 100 {
		return "Company name must be at most 100 characters"
	}
	for _, r := range v {
		if unicode.IsLetter(r) {
			return ""
		}
	}
	return "Company name must contain at least one letter"
}

// ValidateNumber returns an empty string when the value is a finite
// number or empty. Required-ness is checked separately.
func ValidateNumber(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "Enter a valid number"
		}
		return ""
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return ""
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return "Enter a valid number"
		}
		return ""
	default:
		return "Enter a valid number"
	}
}

// RequirePainPoints is true iff at least one pain point is selected.
func RequirePainPoints(values []string) bool {
	return ValidateRequired(values)
}

// FieldError is one field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// FieldResult is the outcome of validating a single field.
type FieldResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// ValidateField dispatches to the rule for the named field.
func ValidateField(name string, value any) FieldResult {
	rule, ok := fieldRules[name]
	if !ok {
		// unknown fields pass, the payload check catches structural drift
		return FieldResult{Valid: true}
	}

	if rule.Required && !ValidateRequired(value) {
		return FieldResult{Valid: false, Message: rule.Label + " is required"}
	}
	if !rule.Required && !ValidateRequired(value) {
		return FieldResult{Valid: true}
	}

	switch rule.Kind {
	case KindEmail:
		s, _ := value.(string)
		if !ValidateEmail(s) {
			return FieldResult{Valid: false, Message: "Enter a valid email address"}
		}
	case KindNumber:
		if msg := ValidateNumber(value); msg != "" {
			return FieldResult{Valid: false, Message: msg}
		}
	case KindText:
		if name == FieldCompanyName {
			s, _ := value.(string)
			if msg := ValidateCompanyName(s); msg != "" {
				return FieldResult{Valid: false, Message: msg}
			}
		}
	case KindMultiChoice:
		values, _ := value.([]string)
		if !RequirePainPoints(values) {
			return FieldResult{Valid: false, Message: rule.Label + ": select at least one option"}
		}
	}

	return FieldResult{Valid: true}
}

// StepResult aggregates all failing fields of a step. Every problem is
// reported at once, not just the first.
type StepResult struct {
	Valid       bool         `json:"valid"`
	StepError   string       `json:"step_error,omitempty"`
	FieldErrors []FieldError `json:"field_errors,omitempty"`
}

// ValidateStep runs field validation over the declared fields of a step.
func ValidateStep(fields []string, form Form) StepResult {
	res := StepResult{Valid: true}

	for _, name := range fields {
		fr := ValidateField(name, form[name])
		if !fr.Valid {
			res.Valid = false
			res.FieldErrors = append(res.FieldErrors, FieldError{Field: name, Message: fr.Message})
		}
	}

	if !res.Valid {
		res.StepError = fmt.Sprintf("Please fix %d field(s) before continuing", len(res.FieldErrors))
	}
	return res
}

// ValidateFormData re-validates the assembled submission against the
// union of all required fields. This is the authoritative pre-network
// check, independent of per-step gating: it also enforces the business
// rule that every numeric input is strictly positive.
func ValidateFormData(inputs FormInputs) error {
	form := inputs.ToForm()

	for _, rule := range orderedRules() {
		fr := ValidateField(rule.Name, form[rule.Name])
		if !fr.Valid {
			return FieldError{Field: rule.Name, Message: fr.Message}
		}
		if rule.Positive {
			if f, ok := form[rule.Name].(float64); ok && f <= 0 {
				return FieldError{Field: rule.Name, Message: rule.Label + " must be greater than zero"}
			}
		}
	}
	return nil
}

// orderedRules returns the required rules in step order so the first
// reported failure matches what the user saw in the wizard.
func orderedRules() []FieldRule {
	var out []FieldRule
	seen := make(map[string]bool)
	for step := 1; step <= len(defaultStepFields); step++ {
		for _, name := range defaultStepFields[step] {
			if seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, fieldRules[name])
		}
	}
	return out
}
