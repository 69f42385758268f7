package admin

import (
	"context"
	"time"

	"treasuryroi/internal/domain"
	"treasuryroi/internal/repository"
)

type LeadRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Lead, error)
	List(ctx context.Context, f repository.LeadFilter, limit, offset int) ([]domain.Lead, int64, error)
	UpdateStatus(ctx context.Context, id int64, status domain.LeadStatus) error
	BulkUpdateStatus(ctx context.Context, ids []int64, status domain.LeadStatus) (int64, error)
	Delete(ctx context.Context, ids []int64) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	CountByStatus(ctx context.Context) (map[domain.LeadStatus]int64, error)
	CreatedPerDay(ctx context.Context, since time.Time) ([]repository.DayCount, error)
	CategoryBreakdown(ctx context.Context) ([]repository.CategoryCount, error)
	AverageROI(ctx context.Context) (*repository.ROIAverages, error)
}

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	List(ctx context.Context) ([]domain.User, error)
}

type SettingRepository interface {
	Get(ctx context.Context, key string) (*domain.Setting, error)
	GetAll(ctx context.Context) ([]domain.Setting, error)
	Set(ctx context.Context, key, value string) error
}
