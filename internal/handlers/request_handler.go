package handlers

import (
	"net/http"

	"aquaserve-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestHandler handles HTTP requests for the service request lifecycle
type RequestHandler struct {
	service *services.RequestService
}

// NewRequestHandler creates a new RequestHandler
func NewRequestHandler(service *services.RequestService) *RequestHandler {
	return &RequestHandler{service: service}
}

// CreateRequest creates a new service request
// @Summary Create service request
// @Tags Requests
// @Accept json
// @Produce json
// @Param request body services.CreateRequestInput true "Create Request"
// @Success 201 {object} models.ServiceRequest
// @Router /api/v1/requests [post]
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input services.CreateRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, err := h.service.CreateRequest(c.Request.Context(), actorID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, request)
}

// GetRequest retrieves a service request by ID
// @Summary Get service request
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} models.ServiceRequest
// @Router /api/v1/requests/{id} [get]
func (h *RequestHandler) GetRequest(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	request, err := h.service.GetRequest(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// ListRequests lists requests visible to the caller
// @Summary List service requests
// @Tags Requests
// @Produce json
// @Param status query string false "Status filter"
// @Param limit query int false "Limit" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/requests [get]
func (h *RequestHandler) ListRequests(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}

	limit, offset := pagination(c)
	requests, total, err := h.service.ListRequests(c.Request.Context(), actorID, c.Query("status"), limit, offset)
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

// SalesApprove records the sales sign-off on a pending request
// @Summary Sales-approve request
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param request body map[string]string false "Comments"
// @Success 200 {object} models.ServiceRequest
// @Router /api/v1/requests/{id}/sales-approve [post]
func (h *RequestHandler) SalesApprove(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}

	var body struct {
		Comments string `json:"comments"`
	}
	_ = c.ShouldBindJSON(&body)

	request, err := h.service.SalesApprove(c.Request.Context(), id, actorID, body.Comments)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// ServiceApprove approves a pending request
// @Summary Approve request
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param request body map[string]string false "Comments"
// @Success 200 {object} models.ServiceRequest
// @Router /api/v1/requests/{id}/approve [post]
func (h *RequestHandler) ServiceApprove(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}

	var body struct {
		Comments string `json:"comments"`
	}
	_ = c.ShouldBindJSON(&body)

	request, err := h.service.ServiceApprove(c.Request.Context(), id, actorID, body.Comments)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// RejectRequest rejects a pending request
// @Summary Reject request
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param request body map[string]string true "Comments"
// @Success 200 {object} models.ServiceRequest
// @Router /api/v1/requests/{id}/reject [post]
func (h *RequestHandler) RejectRequest(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}

	var body struct {
		Comments string `json:"comments" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "comments are required for rejection"})
		return
	}

	request, err := h.service.RejectRequest(c.Request.Context(), id, actorID, body.Comments)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// AutoAssign assigns the least loaded technician in the request's region
// @Summary Auto-assign technician
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} models.ServiceRequest
// @Router /api/v1/requests/{id}/auto-assign [post]
func (h *RequestHandler) AutoAssign(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}

	request, err := h.service.AutoAssignTechnician(c.Request.Context(), id, actorID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// ManualAssign assigns a chosen technician to an approved request
// @Summary Assign technician
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param request body map[string]string true "Technician ID"
// @Success 200 {object} models.ServiceRequest
// @Router /api/v1/requests/{id}/assign [post]
func (h *RequestHandler) ManualAssign(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}

	var body struct {
		TechnicianID uuid.UUID `json:"technicianId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "technicianId is required"})
		return
	}

	request, err := h.service.ManualAssignTechnician(c.Request.Context(), id, body.TechnicianID, actorID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// Reassign changes the assignee of a not-yet-started request
// @Summary Reassign technician
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param request body map[string]string true "New technician and reason"
// @Success 200 {object} models.ServiceRequest
// @Router /api/v1/requests/{id}/reassign [post]
func (h *RequestHandler) Reassign(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}

	var body struct {
		TechnicianID uuid.UUID `json:"technicianId" binding:"required"`
		Reason       string    `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "technicianId and reason are required"})
		return
	}

	request, err := h.service.ReassignTechnician(c.Request.Context(), id, body.TechnicianID, actorID, body.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// Acknowledge confirms completed work and closes the request
// @Summary Acknowledge completion
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param request body map[string]string false "Comments"
// @Success 200 {object} models.ServiceRequest
// @Router /api/v1/requests/{id}/acknowledge [post]
func (h *RequestHandler) Acknowledge(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}

	var body struct {
		Comments string `json:"comments"`
	}
	_ = c.ShouldBindJSON(&body)

	request, err := h.service.AcknowledgeCompletion(c.Request.Context(), id, actorID, body.Comments)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// GetApprovalHistory retrieves the approval trail for a request
// @Summary Get approval history
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {array} models.ApprovalHistory
// @Router /api/v1/requests/{id}/approval-history [get]
func (h *RequestHandler) GetApprovalHistory(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	history, err := h.service.GetApprovalHistory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}

// GetReassignmentHistory retrieves the reassignment trail for a request
// @Summary Get reassignment history
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {array} models.ReassignmentHistory
// @Router /api/v1/requests/{id}/reassignment-history [get]
func (h *RequestHandler) GetReassignmentHistory(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	history, err := h.service.GetReassignmentHistory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}

// GetUsedProducts retrieves the used-product rows for a request
// @Summary Get used products
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {array} models.ServiceUsedProduct
// @Router /api/v1/requests/{id}/used-products [get]
func (h *RequestHandler) GetUsedProducts(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	rows, err := h.service.GetUsedProducts(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rows)
}

// GetCustomerServiceHistory lists past requests for a request's customer
// @Summary Get customer service history
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Param limit query int false "Limit" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/requests/{id}/customer-history [get]
func (h *RequestHandler) GetCustomerServiceHistory(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	limit, offset := pagination(c)
	requests, total, err := h.service.GetCustomerServiceHistory(c.Request.Context(), id, limit, offset)
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

// ListTechnicianWorkloads lists active technicians with assignment counts
// @Summary List technician workloads
// @Tags Requests
// @Produce json
// @Param regionId query string false "Region ID"
// @Success 200 {array} services.TechnicianWorkload
// @Router /api/v1/technicians/workload [get]
func (h *RequestHandler) ListTechnicianWorkloads(c *gin.Context) {
	var regionID *uuid.UUID
	if raw := c.Query("regionId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid regionId"})
			return
		}
		regionID = &id
	}

	workloads, err := h.service.ListTechnicianWorkloads(c.Request.Context(), regionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, workloads)
}

// GetDashboardStats returns request counts scoped to the caller
// @Summary Dashboard stats
// @Tags Dashboard
// @Produce json
// @Success 200 {object} services.DashboardStats
// @Router /api/v1/dashboard/stats [get]
func (h *RequestHandler) GetDashboardStats(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}

	stats, err := h.service.GetDashboardStats(c.Request.Context(), actorID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
