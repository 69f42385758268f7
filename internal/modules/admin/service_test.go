package admin

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"treasuryroi/internal/domain"
	"treasuryroi/internal/repository"
)

type mockLeadRepo struct {
	mock.Mock
}

func (m *mockLeadRepo) GetByID(ctx context.Context, id int64) (*domain.Lead, error) {
	args := m.Called(ctx, id)
	if l := args.Get(0); l != nil {
		return l.(*domain.Lead), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLeadRepo) List(ctx context.Context, f repository.LeadFilter, limit, offset int) ([]domain.Lead, int64, error) {
	args := m.Called(ctx, f, limit, offset)
	return args.Get(0).([]domain.Lead), args.Get(1).(int64), args.Error(2)
}

func (m *mockLeadRepo) UpdateStatus(ctx context.Context, id int64, status domain.LeadStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockLeadRepo) BulkUpdateStatus(ctx context.Context, ids []int64, status domain.LeadStatus) (int64, error) {
	args := m.Called(ctx, ids, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockLeadRepo) Delete(ctx context.Context, ids []int64) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockLeadRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockLeadRepo) CountByStatus(ctx context.Context) (map[domain.LeadStatus]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[domain.LeadStatus]int64), args.Error(1)
}

func (m *mockLeadRepo) CreatedPerDay(ctx context.Context, since time.Time) ([]repository.DayCount, error) {
	args := m.Called(ctx, since)
	return args.Get(0).([]repository.DayCount), args.Error(1)
}

func (m *mockLeadRepo) CategoryBreakdown(ctx context.Context) ([]repository.CategoryCount, error) {
	args := m.Called(ctx)
	return args.Get(0).([]repository.CategoryCount), args.Error(1)
}

func (m *mockLeadRepo) AverageROI(ctx context.Context) (*repository.ROIAverages, error) {
	args := m.Called(ctx)
	return args.Get(0).(*repository.ROIAverages), args.Error(1)
}

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUserRepo) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}

type mockSettingRepo struct {
	mock.Mock
}

func (m *mockSettingRepo) Get(ctx context.Context, key string) (*domain.Setting, error) {
	args := m.Called(ctx, key)
	if s := args.Get(0); s != nil {
		return s.(*domain.Setting), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSettingRepo) GetAll(ctx context.Context) ([]domain.Setting, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Setting), args.Error(1)
}

func (m *mockSettingRepo) Set(ctx context.Context, key, value string) error {
	return m.Called(ctx, key, value).Error(0)
}

func sampleLeads() []domain.Lead {
	return []domain.Lead{
		{
			ID:                  1,
			Email:               "a@b.com",
			CompanyName:         "Acme",
			PainPoints:          []string{"manual_reconciliation", "no_visibility"},
			RecommendedCategory: "tms_lite",
			ROIBase:             120000,
			Status:              domain.LeadNew,
			CreatedAt:           time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			ID:          2,
			Email:       "c@d.com",
			CompanyName: "Globex",
			Status:      domain.LeadContacted,
			CreatedAt:   time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC),
		},
	}
}

func TestListLeads_PaginationDefaults(t *testing.T) {
	leadRepo := &mockLeadRepo{}
	leadRepo.On("List", mock.Anything, mock.Anything, 20, 0).Return(sampleLeads(), int64(2), nil)

	svc := NewService(leadRepo, &mockUserRepo{}, &mockSettingRepo{}, nil)

	out, err := svc.ListLeads(context.Background(), ListLeadsQuery{})

	require.NoError(t, err)
	assert.Equal(t, 1, out.Page)
	assert.Equal(t, 20, out.Limit)
	assert.Equal(t, int64(2), out.Total)
	leadRepo.AssertExpectations(t)
}

func TestListLeads_StatusFilter(t *testing.T) {
	leadRepo := &mockLeadRepo{}
	leadRepo.On("List", mock.Anything, mock.MatchedBy(func(f repository.LeadFilter) bool {
		return f.Status != nil && *f.Status == domain.LeadNew
	}), 20, 0).Return(sampleLeads()[:1], int64(1), nil)

	svc := NewService(leadRepo, &mockUserRepo{}, &mockSettingRepo{}, nil)

	out, err := svc.ListLeads(context.Background(), ListLeadsQuery{Status: "new"})

	require.NoError(t, err)
	assert.Len(t, out.Leads, 1)
}

func TestListLeads_RejectsUnknownStatus(t *testing.T) {
	svc := NewService(&mockLeadRepo{}, &mockUserRepo{}, &mockSettingRepo{}, nil)

	_, err := svc.ListLeads(context.Background(), ListLeadsQuery{Status: "archived"})

	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateLeadStatus(t *testing.T) {
	leadRepo := &mockLeadRepo{}
	leadRepo.On("UpdateStatus", mock.Anything, int64(1), domain.LeadQualified).Return(nil)

	svc := NewService(leadRepo, &mockUserRepo{}, &mockSettingRepo{}, nil)

	require.NoError(t, svc.UpdateLeadStatus(context.Background(), 1, "qualified"))
	assert.ErrorIs(t, svc.UpdateLeadStatus(context.Background(), 1, "bogus"), ErrInvalidStatus)
	leadRepo.AssertExpectations(t)
}

func TestBulkUpdateStatus_Validation(t *testing.T) {
	svc := NewService(&mockLeadRepo{}, &mockUserRepo{}, &mockSettingRepo{}, nil)

	_, err := svc.BulkUpdateStatus(context.Background(), nil, "new")
	assert.ErrorIs(t, err, ErrNoIDs)

	_, err = svc.BulkUpdateStatus(context.Background(), []int64{1}, "bogus")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestExportCSV(t *testing.T) {
	leadRepo := &mockLeadRepo{}
	leadRepo.On("List", mock.Anything, mock.Anything, 0, 0).Return(sampleLeads(), int64(2), nil)

	svc := NewService(leadRepo, &mockUserRepo{}, &mockSettingRepo{}, nil)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(context.Background(), ListLeadsQuery{}, &buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus two leads")
	assert.Equal(t, "email", rows[0][2])
	assert.Equal(t, "a@b.com", rows[1][2])
	assert.Equal(t, "manual_reconciliation; no_visibility", rows[1][10])
	assert.Equal(t, "120000", rows[1][16])
}

func TestStats_AggregatesSources(t *testing.T) {
	leadRepo := &mockLeadRepo{}
	leadRepo.On("CountByStatus", mock.Anything).Return(map[domain.LeadStatus]int64{
		domain.LeadNew:       5,
		domain.LeadContacted: 3,
	}, nil)
	leadRepo.On("CreatedPerDay", mock.Anything, mock.Anything).Return([]repository.DayCount{{Day: "2026-08-30", Count: 2}}, nil)
	leadRepo.On("CategoryBreakdown", mock.Anything).Return([]repository.CategoryCount{{Category: "tms_lite", Count: 4}}, nil)
	leadRepo.On("AverageROI", mock.Anything).Return(&repository.ROIAverages{Low: 1, Base: 2, High: 3}, nil)

	svc := NewService(leadRepo, &mockUserRepo{}, &mockSettingRepo{}, nil)

	stats, err := svc.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(8), stats.TotalLeads)
	assert.Equal(t, int64(5), stats.ByStatus[domain.LeadNew])
	assert.Len(t, stats.PerDay, 1)
	assert.Equal(t, 2.0, stats.AverageROI.Base)
}

func TestUpdateSettings_RejectsUnknownKey(t *testing.T) {
	svc := NewService(&mockLeadRepo{}, &mockUserRepo{}, &mockSettingRepo{}, nil)

	err := svc.UpdateSettings(context.Background(), map[string]string{"secret_backdoor": "on"})

	assert.ErrorIs(t, err, ErrInvalidSettingKey)
}

func TestUpdateSettings_WritesAllowedKeys(t *testing.T) {
	settingRepo := &mockSettingRepo{}
	settingRepo.On("Set", mock.Anything, domain.SettingReportTitle, "Custom Title").Return(nil)

	svc := NewService(&mockLeadRepo{}, &mockUserRepo{}, settingRepo, nil)

	require.NoError(t, svc.UpdateSettings(context.Background(), map[string]string{
		domain.SettingReportTitle: "Custom Title",
	}))
	settingRepo.AssertExpectations(t)
}

func TestPurgeOldLeads_UsesRetentionSetting(t *testing.T) {
	leadRepo := &mockLeadRepo{}
	settingRepo := &mockSettingRepo{}
	settingRepo.On("Get", mock.Anything, domain.SettingRetentionDays).Return(&domain.Setting{Value: "30"}, nil)
	leadRepo.On("DeleteOlderThan", mock.Anything, mock.MatchedBy(func(cutoff time.Time) bool {
		expected := time.Now().AddDate(0, 0, -30)
		return cutoff.Sub(expected).Abs() < time.Minute
	})).Return(int64(7), nil)

	svc := NewService(leadRepo, &mockUserRepo{}, settingRepo, nil)

	purged, err := svc.PurgeOldLeads(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(7), purged)
}

func TestTestLLM_DisabledWithoutNarrator(t *testing.T) {
	svc := NewService(&mockLeadRepo{}, &mockUserRepo{}, &mockSettingRepo{}, nil)

	assert.ErrorIs(t, svc.TestLLM(context.Background()), ErrLLMDisabled)
}

func TestCreateUser_HashesPassword(t *testing.T) {
	userRepo := &mockUserRepo{}
	var captured *domain.User
	userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		captured = u
		return true
	})).Return(nil)

	svc := NewService(&mockLeadRepo{}, userRepo, &mockSettingRepo{}, nil)

	_, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Email:    "Admin@Example.com",
		Password: "s3cret-pass",
		Role:     "admin",
	})

	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.Equal(t, "admin@example.com", captured.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(captured.PasswordHash), []byte("s3cret-pass")))
}

func TestCreateUser_RejectsUnknownRole(t *testing.T) {
	svc := NewService(&mockLeadRepo{}, &mockUserRepo{}, &mockSettingRepo{}, nil)

	_, err := svc.CreateUser(context.Background(), CreateUserRequest{Email: "a@b.com", Password: "longenough", Role: "root"})

	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestCreateUser_DuplicateEmailPassesThrough(t *testing.T) {
	userRepo := &mockUserRepo{}
	userRepo.On("Create", mock.Anything, mock.Anything).Return(repository.ErrDuplicateEmail)

	svc := NewService(&mockLeadRepo{}, userRepo, &mockSettingRepo{}, nil)

	_, err := svc.CreateUser(context.Background(), CreateUserRequest{Email: "a@b.com", Password: "longenough", Role: "viewer"})

	assert.True(t, errors.Is(err, repository.ErrDuplicateEmail))
}
