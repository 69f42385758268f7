package admin

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"treasuryroi/internal/domain"
	"treasuryroi/internal/llm"
	"treasuryroi/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

const defaultRetentionDays = 365

type Service struct {
	leadRepo    LeadRepository
	userRepo    UserRepository
	settingRepo SettingRepository
	narrator    llm.Narrator
}

func NewService(leadRepo LeadRepository, userRepo UserRepository, settingRepo SettingRepository, narrator llm.Narrator) *Service {
	return &Service{
		leadRepo:    leadRepo,
		userRepo:    userRepo,
		settingRepo: settingRepo,
		narrator:    narrator,
	}
}

// -------------------- Leads --------------------

func (s *Service) ListLeads(ctx context.Context, q ListLeadsQuery) (*LeadListResponse, error) {
	page := q.Page
	if page <= 0 {
		page = 1
	}
	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	filter, err := buildFilter(q)
	if err != nil {
		return nil, err
	}

	leads, total, err := s.leadRepo.List(ctx, *filter, limit, offset)
	if err != nil {
		return nil, err
	}

	return &LeadListResponse{Leads: leads, Total: total, Page: page, Limit: limit}, nil
}

func (s *Service) GetLead(ctx context.Context, id int64) (*domain.Lead, error) {
	return s.leadRepo.GetByID(ctx, id)
}

func (s *Service) UpdateLeadStatus(ctx context.Context, id int64, status string) error {
	st := domain.LeadStatus(status)
	if !domain.ValidLeadStatus(st) {
		return ErrInvalidStatus
	}
	return s.leadRepo.UpdateStatus(ctx, id, st)
}

func (s *Service) BulkUpdateStatus(ctx context.Context, ids []int64, status string) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrNoIDs
	}
	st := domain.LeadStatus(status)
	if !domain.ValidLeadStatus(st) {
		return 0, ErrInvalidStatus
	}
	return s.leadRepo.BulkUpdateStatus(ctx, ids, st)
}

func (s *Service) DeleteLeads(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrNoIDs
	}
	return s.leadRepo.Delete(ctx, ids)
}

// PurgeOldLeads removes leads older than the configured retention
// window and returns the number removed.
func (s *Service) PurgeOldLeads(ctx context.Context) (int64, error) {
	days := defaultRetentionDays
	if setting, err := s.settingRepo.Get(ctx, domain.SettingRetentionDays); err == nil {
		if v, err := strconv.Atoi(setting.Value); err == nil && v > 0 {
			days = v
		}
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	return s.leadRepo.DeleteOlderThan(ctx, cutoff)
}

var csvHeader = []string{
	"id", "created_at", "email", "company_name", "company_size", "industry",
	"hours_reconciliation", "hours_cash_positioning", "num_banks", "ftes",
	"pain_points", "business_objective", "implementation_timeline", "budget_range",
	"recommended_category", "roi_low", "roi_base", "roi_high",
	"status", "utm_source", "utm_medium", "utm_campaign",
}

// ExportCSV streams every lead matching the filter, unpaginated.
func (s *Service) ExportCSV(ctx context.Context, q ListLeadsQuery, w io.Writer) error {
	filter, err := buildFilter(q)
	if err != nil {
		return err
	}

	leads, _, err := s.leadRepo.List(ctx, *filter, 0, 0)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, l := range leads {
		row := []string{
			strconv.FormatInt(l.ID, 10),
			l.CreatedAt.Format(time.RFC3339),
			l.Email,
			l.CompanyName,
			l.CompanySize,
			l.Industry,
			formatFloat(l.HoursReconciliation),
			formatFloat(l.HoursCashPositioning),
			formatFloat(l.NumBanks),
			formatFloat(l.FTEs),
			strings.Join(l.PainPoints, "; "),
			l.BusinessObjective,
			l.ImplementationTimeline,
			l.BudgetRange,
			l.RecommendedCategory,
			formatFloat(l.ROILow),
			formatFloat(l.ROIBase),
			formatFloat(l.ROIHigh),
			string(l.Status),
			l.UTMSource,
			l.UTMMedium,
			l.UTMCampaign,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func buildFilter(q ListLeadsQuery) (*repository.LeadFilter, error) {
	filter := repository.LeadFilter{
		Category: q.Category,
		Search:   strings.TrimSpace(q.Search),
	}
	if q.Status != "" {
		st := domain.LeadStatus(q.Status)
		if !domain.ValidLeadStatus(st) {
			return nil, ErrInvalidStatus
		}
		filter.Status = &st
	}
	if q.From != "" {
		t, err := time.Parse("2006-01-02", q.From)
		if err != nil {
			return nil, fmt.Errorf("bad from date: %w", err)
		}
		filter.From = &t
	}
	if q.To != "" {
		t, err := time.Parse("2006-01-02", q.To)
		if err != nil {
			return nil, fmt.Errorf("bad to date: %w", err)
		}
		filter.To = &t
	}
	return &filter, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// -------------------- Analytics --------------------

func (s *Service) Stats(ctx context.Context) (*StatsResponse, error) {
	byStatus, err := s.leadRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, n := range byStatus {
		total += n
	}

	perDay, err := s.leadRepo.CreatedPerDay(ctx, time.Now().AddDate(0, 0, -30))
	if err != nil {
		return nil, err
	}

	categories, err := s.leadRepo.CategoryBreakdown(ctx)
	if err != nil {
		return nil, err
	}

	avg, err := s.leadRepo.AverageROI(ctx)
	if err != nil {
		return nil, err
	}

	return &StatsResponse{
		TotalLeads: total,
		ByStatus:   byStatus,
		PerDay:     perDay,
		Categories: categories,
		AverageROI: avg,
	}, nil
}

// -------------------- Settings --------------------

var editableSettings = map[string]bool{
	domain.SettingLLMModel:        true,
	domain.SettingReportTitle:     true,
	domain.SettingNarrativeOn:     true,
	domain.SettingRetentionDays:   true,
	domain.SettingCompanyContact:  true,
	domain.SettingDefaultCurrency: true,
}

func (s *Service) GetSettings(ctx context.Context) (map[string]string, error) {
	all, err := s.settingRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(all))
	for _, setting := range all {
		out[setting.Key] = setting.Value
	}
	return out, nil
}

func (s *Service) UpdateSettings(ctx context.Context, values map[string]string) error {
	for key := range values {
		if !editableSettings[key] {
			return fmt.Errorf("%w: %s", ErrInvalidSettingKey, key)
		}
	}
	for key, value := range values {
		if err := s.settingRepo.Set(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

// TestLLM verifies the narrative backend is reachable with the
// configured credentials.
func (s *Service) TestLLM(ctx context.Context) error {
	if s.narrator == nil {
		return ErrLLMDisabled
	}
	return s.narrator.TestConnection(ctx)
}

// -------------------- Users --------------------

func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (*domain.User, error) {
	role := domain.Role(req.Role)
	if !domain.ValidRole(role) {
		return nil, ErrInvalidRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.userRepo.List(ctx)
}
