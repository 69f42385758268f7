package roi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecommend_Tiers(t *testing.T) {
	cases := []struct {
		name string
		in   Inputs
		want string
	}{
		{"small team defaults to cash tools", Inputs{NumBanks: 1, FTEs: 0.5, HoursReconciliation: 3}, CategoryCashTools},
		{"mid profile picks tms lite", Inputs{NumBanks: 3, FTEs: 1, HoursReconciliation: 10, HoursCashPositioning: 5}, CategoryTMSLite},
		{"heavy manual hours alone reach tms lite", Inputs{NumBanks: 1, FTEs: 1, HoursReconciliation: 20}, CategoryTMSLite},
		{"multi-bank picks trms", Inputs{NumBanks: 7, FTEs: 2}, CategoryTRMS},
		{"large team picks enterprise", Inputs{NumBanks: 12, FTEs: 10}, CategoryEnterprise},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := Recommend(tc.in)
			assert.Equal(t, tc.want, rec.Category)
			assert.Equal(t, tc.want, rec.CategoryInfo.Key)
			assert.NotEmpty(t, rec.CategoryInfo.Label)
			assert.NotEmpty(t, rec.CategoryInfo.Description)
			assert.NotEmpty(t, rec.Reasoning)
		})
	}
}

func TestRecommend_Deterministic(t *testing.T) {
	in := Inputs{NumBanks: 3, FTEs: 2, HoursReconciliation: 10, HoursCashPositioning: 5}

	first := Recommend(in)
	second := Recommend(in)

	assert.Equal(t, first, second)
}

func TestRecommend_ConfidenceBounds(t *testing.T) {
	full := Recommend(Inputs{NumBanks: 3, FTEs: 2, HoursReconciliation: 10})
	empty := Recommend(Inputs{})

	assert.Greater(t, full.Confidence, empty.Confidence)
	assert.LessOrEqual(t, full.Confidence, 1.0)
	assert.GreaterOrEqual(t, empty.Confidence, 0.0)
}
