package repository

import (
	"context"
	"time"

	"treasuryroi/internal/domain"
	"treasuryroi/internal/pkg/utils"

	"gorm.io/gorm"
)

type LeadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

type leadModel struct {
	ID int64 `gorm:"column:id;primaryKey"`

	Email       string `gorm:"column:email;index"`
	CompanyName string `gorm:"column:company_name"`
	CompanySize string `gorm:"column:company_size"`
	Industry    string `gorm:"column:industry"`

	HoursReconciliation  float64 `gorm:"column:hours_reconciliation"`
	HoursCashPositioning float64 `gorm:"column:hours_cash_positioning"`
	NumBanks             float64 `gorm:"column:num_banks"`
	FTEs                 float64 `gorm:"column:ftes"`
	PainPoints           string  `gorm:"column:pain_points;type:text"`

	BusinessObjective      *string `gorm:"column:business_objective"`
	ImplementationTimeline *string `gorm:"column:implementation_timeline"`
	BudgetRange            *string `gorm:"column:budget_range"`

	RecommendedCategory string  `gorm:"column:recommended_category;index"`
	ROILow              float64 `gorm:"column:roi_low"`
	ROIBase             float64 `gorm:"column:roi_base"`
	ROIHigh             float64 `gorm:"column:roi_high"`
	ReportHTML          *string `gorm:"column:report_html;type:text"`

	Status string `gorm:"column:status;index"`

	UTMSource   *string `gorm:"column:utm_source"`
	UTMMedium   *string `gorm:"column:utm_medium"`
	UTMCampaign *string `gorm:"column:utm_campaign"`
	ReferrerURL *string `gorm:"column:referrer_url"`
	IPAddress   *string `gorm:"column:ip_address"`
	UserAgent   *string `gorm:"column:user_agent"`

	CreatedAt time.Time `gorm:"column:created_at;index"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (leadModel) TableName() string { return "leads" }

func toDomainLead(m leadModel) *domain.Lead {
	return &domain.Lead{
		ID:                     m.ID,
		Email:                  m.Email,
		CompanyName:            m.CompanyName,
		CompanySize:            m.CompanySize,
		Industry:               m.Industry,
		HoursReconciliation:    m.HoursReconciliation,
		HoursCashPositioning:   m.HoursCashPositioning,
		NumBanks:               m.NumBanks,
		FTEs:                   m.FTEs,
		PainPoints:             utils.StringToList(m.PainPoints),
		BusinessObjective:      deref(m.BusinessObjective),
		ImplementationTimeline: deref(m.ImplementationTimeline),
		BudgetRange:            deref(m.BudgetRange),
		RecommendedCategory:    m.RecommendedCategory,
		ROILow:                 m.ROILow,
		ROIBase:                m.ROIBase,
		ROIHigh:                m.ROIHigh,
		ReportHTML:             deref(m.ReportHTML),
		Status:                 domain.LeadStatus(m.Status),
		UTMSource:              deref(m.UTMSource),
		UTMMedium:              deref(m.UTMMedium),
		UTMCampaign:            deref(m.UTMCampaign),
		ReferrerURL:            deref(m.ReferrerURL),
		IPAddress:              deref(m.IPAddress),
		UserAgent:              deref(m.UserAgent),
		CreatedAt:              m.CreatedAt,
		UpdatedAt:              m.UpdatedAt,
	}
}

func toLeadModel(l *domain.Lead) leadModel {
	return leadModel{
		ID:                     l.ID,
		Email:                  l.Email,
		CompanyName:            l.CompanyName,
		CompanySize:            l.CompanySize,
		Industry:               l.Industry,
		HoursReconciliation:    l.HoursReconciliation,
		HoursCashPositioning:   l.HoursCashPositioning,
		NumBanks:               l.NumBanks,
		FTEs:                   l.FTEs,
		PainPoints:             utils.ListToString(l.PainPoints),
		BusinessObjective:      ref(l.BusinessObjective),
		ImplementationTimeline: ref(l.ImplementationTimeline),
		BudgetRange:            ref(l.BudgetRange),
		RecommendedCategory:    l.RecommendedCategory,
		ROILow:                 l.ROILow,
		ROIBase:                l.ROIBase,
		ROIHigh:                l.ROIHigh,
		ReportHTML:             ref(l.ReportHTML),
		Status:                 string(l.Status),
		UTMSource:              ref(l.UTMSource),
		UTMMedium:              ref(l.UTMMedium),
		UTMCampaign:            ref(l.UTMCampaign),
		ReferrerURL:            ref(l.ReferrerURL),
		IPAddress:              ref(l.IPAddress),
		UserAgent:              ref(l.UserAgent),
		CreatedAt:              l.CreatedAt,
		UpdatedAt:              l.UpdatedAt,
	}
}

func (r *LeadRepository) Create(ctx context.Context, l *domain.Lead) error {
	m := toLeadModel(l)
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*l = *toDomainLead(m)
	return nil
}

func (r *LeadRepository) GetByID(ctx context.Context, id int64) (*domain.Lead, error) {
	var m leadModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainLead(m), nil
}

// SetReportHTML attaches the generated report to an existing lead.
func (r *LeadRepository) SetReportHTML(ctx context.Context, id int64, html string) error {
	return r.db.WithContext(ctx).
		Model(&leadModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"report_html": html, "updated_at": time.Now()}).Error
}

// LeadFilter narrows List and the CSV export.
type LeadFilter struct {
	Status   *domain.LeadStatus
	Category string
	Search   string // matches email or company name
	From     *time.Time
	To       *time.Time
}

// List returns a filtered page of leads plus the unpaginated total.
// A limit <= 0 means no limit (used by the CSV export).
func (r *LeadRepository) List(ctx context.Context, f LeadFilter, limit, offset int) ([]domain.Lead, int64, error) {
	q := r.db.WithContext(ctx).Model(&leadModel{})

	if f.Status != nil {
		q = q.Where("status = ?", string(*f.Status))
	}
	if f.Category != "" {
		q = q.Where("recommended_category = ?", f.Category)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("email LIKE ? OR company_name LIKE ?", like, like)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q = q.Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	var models []leadModel
	if err := q.Find(&models).Error; err != nil {
		return nil, 0, err
	}

	out := make([]domain.Lead, 0, len(models))
	for _, m := range models {
		out = append(out, *toDomainLead(m))
	}
	return out, total, nil
}

func (r *LeadRepository) UpdateStatus(ctx context.Context, id int64, status domain.LeadStatus) error {
	tx := r.db.WithContext(ctx).
		Model(&leadModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": string(status), "updated_at": time.Now()})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// BulkUpdateStatus returns how many leads were touched.
func (r *LeadRepository) BulkUpdateStatus(ctx context.Context, ids []int64, status domain.LeadStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx := r.db.WithContext(ctx).
		Model(&leadModel{}).
		Where("id IN ?", ids).
		Updates(map[string]any{"status": string(status), "updated_at": time.Now()})
	return tx.RowsAffected, tx.Error
}

// Delete removes leads by id and returns the count removed.
func (r *LeadRepository) Delete(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&leadModel{})
	return tx.RowsAffected, tx.Error
}

// DeleteOlderThan supports the retention sweep.
func (r *LeadRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tx := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&leadModel{})
	return tx.RowsAffected, tx.Error
}

// -------------------- analytics --------------------

func (r *LeadRepository) CountByStatus(ctx context.Context) (map[domain.LeadStatus]int64, error) {
	rows := []struct {
		Status string
		Count  int64
	}{}
	err := r.db.WithContext(ctx).
		Model(&leadModel{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[domain.LeadStatus]int64, len(rows))
	for _, row := range rows {
		out[domain.LeadStatus(row.Status)] = row.Count
	}
	return out, nil
}

type DayCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// CreatedPerDay feeds the submissions-over-time chart.
func (r *LeadRepository) CreatedPerDay(ctx context.Context, since time.Time) ([]DayCount, error) {
	var rows []DayCount
	err := r.db.WithContext(ctx).
		Model(&leadModel{}).
		Select("DATE(created_at) as day, COUNT(*) as count").
		Where("created_at >= ?", since).
		Group("DATE(created_at)").
		Order("day ASC").
		Scan(&rows).Error
	return rows, err
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

func (r *LeadRepository) CategoryBreakdown(ctx context.Context) ([]CategoryCount, error) {
	var rows []CategoryCount
	err := r.db.WithContext(ctx).
		Model(&leadModel{}).
		Select("recommended_category as category, COUNT(*) as count").
		Group("recommended_category").
		Order("count DESC").
		Scan(&rows).Error
	return rows, err
}

type ROIAverages struct {
	Low  float64 `json:"low"`
	Base float64 `json:"base"`
	High float64 `json:"high"`
}

func (r *LeadRepository) AverageROI(ctx context.Context) (*ROIAverages, error) {
	var row struct {
		Low  *float64
		Base *float64
		High *float64
	}
	err := r.db.WithContext(ctx).
		Model(&leadModel{}).
		Select("AVG(roi_low) as low, AVG(roi_base) as base, AVG(roi_high) as high").
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	out := &ROIAverages{}
	if row.Low != nil {
		out.Low = *row.Low
	}
	if row.Base != nil {
		out.Base = *row.Base
	}
	if row.High != nil {
		out.High = *row.High
	}
	return out, nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func ref(s string) *string {
	if s == "" {
		return nil
	}
	v := s
	return &v
}
