package admin

import (
	"treasuryroi/internal/domain"
	"treasuryroi/internal/repository"
)

type ListLeadsQuery struct {
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
	Status   string `form:"status"`
	Category string `form:"category"`
	Search   string `form:"search"`
	From     string `form:"from"` // YYYY-MM-DD
	To       string `form:"to"`   // YYYY-MM-DD, exclusive
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type BulkStatusRequest struct {
	IDs    []int64 `json:"ids" validate:"required,min=1"`
	Status string  `json:"status" validate:"required"`
}

type DeleteLeadsRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1"`
}

type UpdateSettingsRequest struct {
	Settings map[string]string `json:"settings" validate:"required,min=1"`
}

type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required"`
}

type LeadListResponse struct {
	Leads []domain.Lead `json:"leads"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

type StatsResponse struct {
	TotalLeads int64                       `json:"total_leads"`
	ByStatus   map[domain.LeadStatus]int64 `json:"by_status"`
	PerDay     []repository.DayCount       `json:"per_day"`
	Categories []repository.CategoryCount  `json:"categories"`
	AverageROI *repository.ROIAverages     `json:"average_roi"`
}
