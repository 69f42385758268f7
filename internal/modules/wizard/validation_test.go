package wizard

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInputs() FormInputs {
	return FormInputs{
		Email:                "a@b.com",
		CompanyName:          "Acme",
		CompanySize:          "Medium (51-200)",
		Industry:             "Technology",
		HoursReconciliation:  10,
		HoursCashPositioning: 5,
		NumBanks:             3,
		FTEs:                 2,
		PainPoints:           []string{"manual_reconciliation"},
	}
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("user@example.com"))
	assert.False(t, ValidateEmail("not-an-email"))
	assert.False(t, ValidateEmail(""))
	assert.False(t, ValidateEmail("user@example"))
	assert.False(t, ValidateEmail("us er@example.com"))
	assert.False(t, ValidateEmail("@example.com"))
}

func TestValidateCompanyName(t *testing.T) {
	assert.NotEmpty(t, ValidateCompanyName("A"), "too short")
	assert.Empty(t, ValidateCompanyName("Acme Corp"))
	assert.NotEmpty(t, ValidateCompanyName("12345"), "no letters")
	assert.NotEmpty(t, ValidateCompanyName(string(make([]byte, 101))), "too long")
	assert.Empty(t, ValidateCompanyName("  Acme  "), "trimmed before length check")
}

func TestValidateRequired(t *testing.T) {
	assert.True(t, ValidateRequired("x"))
	assert.False(t, ValidateRequired("   "))
	assert.False(t, ValidateRequired(""))
	assert.True(t, ValidateRequired([]string{"a"}))
	assert.False(t, ValidateRequired([]string{"", "  "}))
	assert.False(t, ValidateRequired(nil))
	assert.True(t, ValidateRequired(0.0), "an answered number counts as present")
}

func TestValidateNumber(t *testing.T) {
	assert.Empty(t, ValidateNumber("42"))
	assert.Empty(t, ValidateNumber(3.5))
	assert.Empty(t, ValidateNumber(""), "empty is not a number error, required-ness is separate")
	assert.NotEmpty(t, ValidateNumber("abc"))
	assert.NotEmpty(t, ValidateNumber(math.NaN()))
	assert.NotEmpty(t, ValidateNumber(math.Inf(1)))
}

func TestRequirePainPoints(t *testing.T) {
	assert.True(t, RequirePainPoints([]string{"manual_reconciliation"}))
	assert.False(t, RequirePainPoints(nil))
	assert.False(t, RequirePainPoints([]string{}))
}

func TestValidateStep_ReportsAllFailures(t *testing.T) {
	form := Form{
		FieldCompanyName: "1", // too short and no letter
		FieldCompanySize: "",
		FieldIndustry:    "",
	}

	res := ValidateStep(defaultStepFields[1], form)

	require.False(t, res.Valid)
	assert.NotEmpty(t, res.StepError)
	assert.Len(t, res.FieldErrors, 3, "every failing field is reported, not just the first")
}

func TestValidateFormData_WellFormed(t *testing.T) {
	assert.NoError(t, ValidateFormData(validInputs()))
}

func TestValidateFormData_MissingFieldNamed(t *testing.T) {
	cases := []struct {
		field  string
		mutate func(*FormInputs)
	}{
		{FieldEmail, func(f *FormInputs) { f.Email = "" }},
		{FieldCompanyName, func(f *FormInputs) { f.CompanyName = "" }},
		{FieldCompanySize, func(f *FormInputs) { f.CompanySize = "" }},
		{FieldIndustry, func(f *FormInputs) { f.Industry = "" }},
		{FieldPainPoints, func(f *FormInputs) { f.PainPoints = nil }},
	}

	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			inputs := validInputs()
			tc.mutate(&inputs)

			err := ValidateFormData(inputs)
			require.Error(t, err)

			fe, ok := err.(FieldError)
			require.True(t, ok)
			assert.Equal(t, tc.field, fe.Field, "error names the offending field")
		})
	}
}

func TestValidateFormData_NumericsMustBePositive(t *testing.T) {
	inputs := validInputs()
	inputs.NumBanks = 0

	err := ValidateFormData(inputs)
	require.Error(t, err)

	fe, ok := err.(FieldError)
	require.True(t, ok)
	assert.Equal(t, FieldNumBanks, fe.Field)
}

func TestValidateFormData_BadEmail(t *testing.T) {
	inputs := validInputs()
	inputs.Email = "not-an-email"

	err := ValidateFormData(inputs)
	require.Error(t, err)
}
