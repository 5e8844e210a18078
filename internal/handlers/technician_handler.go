package handlers

import (
	"net/http"

	"aquaserve-backend/internal/models"
	"aquaserve-backend/internal/services"

	"github.com/gin-gonic/gin"
)

// TechnicianHandler handles the technician-facing workflow endpoints
type TechnicianHandler struct {
	service *services.WorkflowService
}

// NewTechnicianHandler creates a new TechnicianHandler
func NewTechnicianHandler(service *services.WorkflowService) *TechnicianHandler {
	return &TechnicianHandler{service: service}
}

// StartWork opens a work session on an assigned request
// @Summary Start work
// @Tags Technician
// @Produce json
// @Param id path string true "Request ID"
// @Success 201 {object} models.WorkLog
// @Router /api/v1/technician/requests/{id}/start [post]
func (h *TechnicianHandler) StartWork(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	technicianID, ok := currentUserID(c)
	if !ok {
		return
	}

	workLog, err := h.service.StartWork(c.Request.Context(), technicianID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, workLog)
}

// StopWork closes the open work session
// @Summary Stop work
// @Tags Technician
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param request body map[string]string false "Notes"
// @Success 200 {object} models.WorkLog
// @Router /api/v1/technician/requests/{id}/stop [post]
func (h *TechnicianHandler) StopWork(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	technicianID, ok := currentUserID(c)
	if !ok {
		return
	}

	var body struct {
		Notes string `json:"notes"`
	}
	_ = c.ShouldBindJSON(&body)

	workLog, err := h.service.StopWork(c.Request.Context(), technicianID, id, body.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, workLog)
}

// AddUsedProducts records consumed inventory for a completed request
// @Summary Record used products
// @Tags Technician
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param request body map[string]interface{} true "Product entries"
// @Success 201 {array} models.ServiceUsedProduct
// @Router /api/v1/technician/requests/{id}/used-products [post]
func (h *TechnicianHandler) AddUsedProducts(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	technicianID, ok := currentUserID(c)
	if !ok {
		return
	}

	var body struct {
		Items []services.UsedProductInput `json:"items" binding:"required,dive"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows, err := h.service.AddUsedProducts(c.Request.Context(), id, technicianID, body.Items)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rows)
}

// AddWorkMedia attaches a photo or document to a request
// @Summary Attach work media
// @Tags Technician
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param request body map[string]string true "Media details"
// @Success 201 {object} models.WorkMedia
// @Router /api/v1/technician/requests/{id}/media [post]
func (h *TechnicianHandler) AddWorkMedia(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	technicianID, ok := currentUserID(c)
	if !ok {
		return
	}

	var body struct {
		MediaType   string `json:"mediaType" binding:"required"`
		URL         string `json:"url" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	media, err := h.service.AddWorkMedia(c.Request.Context(), id, technicianID, body.MediaType, body.URL, body.Description)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, media)
}

// MyAssignments lists the caller's assigned requests
// @Summary My assignments
// @Tags Technician
// @Produce json
// @Param status query string false "Status filter"
// @Param limit query int false "Limit" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/technician/assignments [get]
func (h *TechnicianHandler) MyAssignments(c *gin.Context) {
	technicianID, ok := currentUserID(c)
	if !ok {
		return
	}

	limit, offset := pagination(c)
	requests, total, err := h.service.GetMyAssignments(c.Request.Context(), technicianID, c.Query("status"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":   requests,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// TaskHistory lists the caller's completed requests
// @Summary My task history
// @Tags Technician
// @Produce json
// @Param limit query int false "Limit" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/technician/task-history [get]
func (h *TechnicianHandler) TaskHistory(c *gin.Context) {
	technicianID, ok := currentUserID(c)
	if !ok {
		return
	}

	limit, offset := pagination(c)
	requests, total, err := h.service.GetMyAssignments(c.Request.Context(), technicianID, string(models.StatusCompleted), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":   requests,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// MyStats summarizes the caller's assignments and logged work time
// @Summary My stats
// @Tags Technician
// @Produce json
// @Success 200 {object} services.TechnicianStats
// @Router /api/v1/technician/stats [get]
func (h *TechnicianHandler) MyStats(c *gin.Context) {
	technicianID, ok := currentUserID(c)
	if !ok {
		return
	}

	stats, err := h.service.GetMyStats(c.Request.Context(), technicianID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetWorkLogs lists work sessions for a request
// @Summary Get work logs
// @Tags Technician
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {array} models.WorkLog
// @Router /api/v1/requests/{id}/work-logs [get]
func (h *TechnicianHandler) GetWorkLogs(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	logs, err := h.service.GetWorkLogs(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, logs)
}
