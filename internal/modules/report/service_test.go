package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"treasuryroi/internal/domain"
	"treasuryroi/internal/jobs"
	"treasuryroi/internal/modules/wizard"
)

type mockLeadStore struct {
	mock.Mock
}

func (m *mockLeadStore) Create(ctx context.Context, l *domain.Lead) error {
	args := m.Called(ctx, l)
	l.ID = 42
	return args.Error(0)
}

func (m *mockLeadStore) SetReportHTML(ctx context.Context, id int64, html string) error {
	args := m.Called(ctx, id, html)
	return args.Error(0)
}

type stubSettings struct {
	values map[string]string
}

func (s *stubSettings) Get(_ context.Context, key string) (*domain.Setting, error) {
	if v, ok := s.values[key]; ok {
		return &domain.Setting{Key: key, Value: v}, nil
	}
	return nil, errors.New("not found")
}

type stubNarrator struct {
	text string
	err  error
}

func (n *stubNarrator) GenerateNarrative(context.Context, string) (string, error) {
	return n.text, n.err
}

func (n *stubNarrator) TestConnection(context.Context) error { return nil }

func validRequest() SubmitReportRequest {
	return SubmitReportRequest{
		FormInputs: wizard.FormInputs{
			Email:                "a@b.com",
			CompanyName:          "Acme",
			CompanySize:          "Medium (51-200)",
			Industry:             "Technology",
			HoursReconciliation:  10,
			HoursCashPositioning: 5,
			NumBanks:             3,
			FTEs:                 2,
			PainPoints:           []string{"manual_reconciliation"},
		},
	}
}

func TestSubmit_InlineResultWithoutNarrator(t *testing.T) {
	leads := &mockLeadStore{}
	leads.On("Create", mock.Anything, mock.Anything).Return(nil)
	leads.On("SetReportHTML", mock.Anything, int64(42), mock.Anything).Return(nil)

	svc := NewService(leads, &stubSettings{}, jobs.NewMemoryStore(time.Minute), nil, nil)

	outcome, err := svc.Submit(context.Background(), validRequest(), RequestMeta{IPAddress: "127.0.0.1"})

	require.NoError(t, err)
	require.NotNil(t, outcome.Result)
	assert.Empty(t, outcome.JobID)
	assert.Greater(t, float64(outcome.Result.Scenarios.Base.TotalAnnualBenefit), 0.0)
	assert.NotEmpty(t, outcome.Result.Recommendation.CategoryInfo.Label)
	assert.NotEmpty(t, outcome.Result.ReportHTML)
	leads.AssertExpectations(t)
}

func TestSubmit_RejectsInvalidForm(t *testing.T) {
	leads := &mockLeadStore{}
	svc := NewService(leads, &stubSettings{}, jobs.NewMemoryStore(time.Minute), nil, nil)

	req := validRequest()
	req.Email = "not-an-email"

	_, err := svc.Submit(context.Background(), req, RequestMeta{})

	assert.ErrorIs(t, err, ErrValidation)
	var fe wizard.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, wizard.FieldEmail, fe.Field)
	leads.AssertNotCalled(t, "Create")
}

func TestSubmit_QueuesJobWhenNarratorEnabled(t *testing.T) {
	leads := &mockLeadStore{}
	leads.On("Create", mock.Anything, mock.Anything).Return(nil)
	leads.On("SetReportHTML", mock.Anything, int64(42), mock.Anything).Return(nil)

	store := jobs.NewMemoryStore(time.Minute)
	narrator := &stubNarrator{text: "## Summary\n\nGood case."}
	svc := NewService(leads, &stubSettings{}, store, narrator, NewHub())

	outcome, err := svc.Submit(context.Background(), validRequest(), RequestMeta{})

	require.NoError(t, err)
	assert.Nil(t, outcome.Result)
	require.NotEmpty(t, outcome.JobID)

	require.Eventually(t, func() bool {
		job, err := store.Get(context.Background(), outcome.JobID)
		return err == nil && job.Status.Terminal()
	}, 2*time.Second, 10*time.Millisecond)

	job, err := store.Get(context.Background(), outcome.JobID)
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusCompleted, job.Status)
	assert.Contains(t, job.ReportHTML, "Summary")

	status, err := svc.JobStatus(context.Background(), outcome.JobID)
	require.NoError(t, err)
	require.NotNil(t, status.Result)
	assert.Greater(t, float64(status.Result.Scenarios.Base.TotalAnnualBenefit), 0.0)
}

func TestSubmit_NarrativeFailureStillCompletes(t *testing.T) {
	leads := &mockLeadStore{}
	leads.On("Create", mock.Anything, mock.Anything).Return(nil)
	leads.On("SetReportHTML", mock.Anything, int64(42), mock.Anything).Return(nil)

	store := jobs.NewMemoryStore(time.Minute)
	svc := NewService(leads, &stubSettings{}, store, &stubNarrator{err: errors.New("status 429 rate limit")}, nil)

	outcome, err := svc.Submit(context.Background(), validRequest(), RequestMeta{})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		job, err := store.Get(context.Background(), outcome.JobID)
		return err == nil && job.Status.Terminal()
	}, 2*time.Second, 10*time.Millisecond)

	job, err := store.Get(context.Background(), outcome.JobID)
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusCompleted, job.Status, "report completes without narrative")
	assert.NotContains(t, job.ReportHTML, "roi-report__narrative")
}

func TestSubmit_SettingDisablesNarrative(t *testing.T) {
	leads := &mockLeadStore{}
	leads.On("Create", mock.Anything, mock.Anything).Return(nil)
	leads.On("SetReportHTML", mock.Anything, int64(42), mock.Anything).Return(nil)

	settings := &stubSettings{values: map[string]string{domain.SettingNarrativeOn: "false"}}
	svc := NewService(leads, settings, jobs.NewMemoryStore(time.Minute), &stubNarrator{text: "ignored"}, nil)

	outcome, err := svc.Submit(context.Background(), validRequest(), RequestMeta{})

	require.NoError(t, err)
	assert.NotNil(t, outcome.Result, "inline result when narratives are switched off")
	assert.Empty(t, outcome.JobID)
}

func TestJobStatus_NotFound(t *testing.T) {
	svc := NewService(&mockLeadStore{}, &stubSettings{}, jobs.NewMemoryStore(time.Minute), nil, nil)

	_, err := svc.JobStatus(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestSubmit_LeadRecordsComputedFields(t *testing.T) {
	leads := &mockLeadStore{}
	var captured *domain.Lead
	leads.On("Create", mock.Anything, mock.MatchedBy(func(l *domain.Lead) bool {
		captured = l
		return true
	})).Return(nil)
	leads.On("SetReportHTML", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := NewService(leads, &stubSettings{}, jobs.NewMemoryStore(time.Minute), nil, nil)

	_, err := svc.Submit(context.Background(), validRequest(), RequestMeta{IPAddress: "10.0.0.1", UserAgent: "ua"})

	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.Equal(t, domain.LeadNew, captured.Status)
	assert.NotEmpty(t, captured.RecommendedCategory)
	assert.Greater(t, captured.ROIBase, 0.0)
	assert.GreaterOrEqual(t, captured.ROIHigh, captured.ROIBase)
	assert.Equal(t, "10.0.0.1", captured.IPAddress)
}
