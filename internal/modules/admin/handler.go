package admin

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"treasuryroi/internal/pkg/response"
	"treasuryroi/internal/pkg/validator"
	"treasuryroi/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the dashboard API under a JWT-protected
// group. Mutating endpoints additionally require the admin role via
// middleware on the parent group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	adminGroup := rg.Group("/admin")
	{
		adminGroup.GET("/leads", h.ListLeads)
		adminGroup.GET("/leads/export", h.ExportLeads)
		adminGroup.GET("/leads/:id", h.GetLead)
		adminGroup.PATCH("/leads/:id/status", h.UpdateLeadStatus)
		adminGroup.POST("/leads/bulk-status", h.BulkUpdateStatus)
		adminGroup.DELETE("/leads", h.DeleteLeads)
		adminGroup.POST("/leads/purge", h.PurgeOldLeads)

		adminGroup.GET("/stats", h.GetStats)

		adminGroup.GET("/settings", h.GetSettings)
		adminGroup.PUT("/settings", h.UpdateSettings)
		adminGroup.POST("/llm/test", h.TestLLM)

		adminGroup.GET("/users", h.ListUsers)
		adminGroup.POST("/users", h.CreateUser)
	}
}

func (h *Handler) ListLeads(c *gin.Context) {
	var q ListLeadsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters")
		return
	}

	out, err := h.service.ListLeads(c.Request.Context(), q)
	if err != nil {
		if errors.Is(err, ErrInvalidStatus) {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown lead status filter")
			return
		}
		log.Printf("admin: list leads failed: %v", err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list leads")
		return
	}

	response.Success(c, http.StatusOK, out)
}

func (h *Handler) ExportLeads(c *gin.Context) {
	var q ListLeadsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters")
		return
	}

	filename := fmt.Sprintf("leads-%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := h.service.ExportCSV(c.Request.Context(), q, c.Writer); err != nil {
		log.Printf("admin: csv export failed: %v", err)
		// Headers are already out, nothing better to do than abort.
		c.Abort()
	}
}

func (h *Handler) GetLead(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid lead id")
		return
	}

	lead, err := h.service.GetLead(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Error(c, http.StatusNotFound, "LEAD_NOT_FOUND", "Lead not found")
			return
		}
		log.Printf("admin: get lead failed: %v", err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load lead")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"lead": lead})
}

func (h *Handler) UpdateLeadStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid lead id")
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", details)
		return
	}

	if err := h.service.UpdateLeadStatus(c.Request.Context(), id, req.Status); err != nil {
		switch {
		case errors.Is(err, ErrInvalidStatus):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown lead status")
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.Error(c, http.StatusNotFound, "LEAD_NOT_FOUND", "Lead not found")
		default:
			log.Printf("admin: status update failed: %v", err)
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update status")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"id": id, "status": req.Status})
}

func (h *Handler) BulkUpdateStatus(c *gin.Context) {
	var req BulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", details)
		return
	}

	updated, err := h.service.BulkUpdateStatus(c.Request.Context(), req.IDs, req.Status)
	if err != nil {
		if errors.Is(err, ErrInvalidStatus) || errors.Is(err, ErrNoIDs) {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		log.Printf("admin: bulk status update failed: %v", err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update statuses")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"updated": updated})
}

func (h *Handler) DeleteLeads(c *gin.Context) {
	var req DeleteLeadsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", details)
		return
	}

	deleted, err := h.service.DeleteLeads(c.Request.Context(), req.IDs)
	if err != nil {
		log.Printf("admin: delete leads failed: %v", err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete leads")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": deleted})
}

func (h *Handler) PurgeOldLeads(c *gin.Context) {
	purged, err := h.service.PurgeOldLeads(c.Request.Context())
	if err != nil {
		log.Printf("admin: purge failed: %v", err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to purge leads")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"purged": purged})
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		log.Printf("admin: stats failed: %v", err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load stats")
		return
	}
	response.Success(c, http.StatusOK, stats)
}

func (h *Handler) GetSettings(c *gin.Context) {
	settings, err := h.service.GetSettings(c.Request.Context())
	if err != nil {
		log.Printf("admin: get settings failed: %v", err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load settings")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"settings": settings})
}

func (h *Handler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", details)
		return
	}

	if err := h.service.UpdateSettings(c.Request.Context(), req.Settings); err != nil {
		if errors.Is(err, ErrInvalidSettingKey) {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		log.Printf("admin: settings update failed: %v", err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save settings")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"saved": len(req.Settings)})
}

func (h *Handler) TestLLM(c *gin.Context) {
	if err := h.service.TestLLM(c.Request.Context()); err != nil {
		if errors.Is(err, ErrLLMDisabled) {
			response.Error(c, http.StatusConflict, "LLM_DISABLED", "No API key is configured")
			return
		}
		response.Error(c, http.StatusBadGateway, "LLM_ERROR", err.Error())
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		log.Printf("admin: list users failed: %v", err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list users")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"users": users})
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", details)
		return
	}

	user, err := h.service.CreateUser(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRole):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown role")
		case errors.Is(err, repository.ErrDuplicateEmail):
			response.Error(c, http.StatusConflict, "EMAIL_TAKEN", "A user with this email already exists")
		default:
			log.Printf("admin: create user failed: %v", err)
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create user")
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"user": user})
}
