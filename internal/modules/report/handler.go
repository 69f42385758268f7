package report

import (
	"errors"
	"log"
	"net/http"

	"treasuryroi/internal/modules/wizard"
	"treasuryroi/internal/pkg/response"
	"treasuryroi/internal/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the public submission surface under
// /api/v1.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/reports", h.SubmitReport)
	rg.GET("/reports/jobs/:id", h.GetJobStatus)
}

// RegisterWebSocket registers the live-progress endpoint on the root
// engine; it sits outside the JSON API group.
func (h *Handler) RegisterWebSocket(r *gin.Engine) {
	r.GET("/ws/jobs/:id", h.WatchJob)
}

func (h *Handler) SubmitReport(c *gin.Context) {
	var req SubmitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	if details := validator.Validate(req); details != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", details)
		return
	}

	meta := RequestMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}

	outcome, err := h.service.Submit(c.Request.Context(), req, meta)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			details := map[string]string{}
			var fe wizard.FieldError
			if errors.As(err, &fe) {
				details[fe.Field] = fe.Message
			}
			response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", details)
			return
		}
		log.Printf("report: submission failed: %v", err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process the submission")
		return
	}

	if outcome.JobID != "" {
		response.Success(c, http.StatusAccepted, gin.H{"job_id": outcome.JobID})
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": outcome.Result})
}

func (h *Handler) GetJobStatus(c *gin.Context) {
	status, err := h.service.JobStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			response.Error(c, http.StatusNotFound, "JOB_NOT_FOUND", "Unknown or expired job")
			return
		}
		log.Printf("report: job status lookup failed: %v", err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to read job status")
		return
	}
	response.Success(c, http.StatusOK, status)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WatchJob streams status updates for one job until the socket closes.
func (h *Handler) WatchJob(c *gin.Context) {
	jobID := c.Param("id")

	status, err := h.service.JobStatus(c.Request.Context(), jobID)
	if err != nil {
		response.Error(c, http.StatusNotFound, "JOB_NOT_FOUND", "Unknown or expired job")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("report: websocket upgrade failed: %v", err)
		return
	}

	h.service.hub.Register(jobID, conn)
	_ = conn.WriteJSON(status)

	// Drain client frames so pings and close frames are processed.
	go func() {
		defer h.service.hub.Unregister(jobID, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
