package handlers

import (
	"net/http"

	"aquaserve-backend/internal/models"
	"aquaserve-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserHandler handles auth and staff management endpoints
type UserHandler struct {
	auth        *services.AuthService
	users       *services.UserService
	permissions *services.PermissionService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(auth *services.AuthService, users *services.UserService, permissions *services.PermissionService) *UserHandler {
	return &UserHandler{auth: auth, users: users, permissions: permissions}
}

// Login authenticates and issues a token
// @Summary Login
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body map[string]string true "Credentials"
// @Success 200 {object} services.LoginResult
// @Router /api/v1/auth/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var body struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.auth.Login(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CreateUser creates a staff account
// @Summary Create user
// @Tags Users
// @Accept json
// @Produce json
// @Param request body services.CreateUserInput true "New user"
// @Success 201 {object} models.User
// @Router /api/v1/users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input services.CreateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), actorID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// GetUser retrieves a user by ID
// @Summary Get user
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Router /api/v1/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// SetUserStatus activates or deactivates an account
// @Summary Set user status
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body map[string]string true "Status"
// @Success 200 {object} models.User
// @Router /api/v1/users/{id}/status [put]
func (h *UserHandler) SetUserStatus(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}

	var body struct {
		Status models.UserStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	user, err := h.users.SetUserStatus(c.Request.Context(), actorID, id, body.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListTechnicians lists technicians, optionally by region and status
// @Summary List technicians
// @Tags Users
// @Produce json
// @Param regionId query string false "Region ID"
// @Param status query string false "Account status" default(ACTIVE)
// @Success 200 {array} models.User
// @Router /api/v1/technicians [get]
func (h *UserHandler) ListTechnicians(c *gin.Context) {
	var regionID *uuid.UUID
	if s := c.Query("regionId"); s != "" {
		parsed, err := uuid.Parse(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid regionId"})
			return
		}
		regionID = &parsed
	}

	status := models.UserStatus(c.DefaultQuery("status", string(models.UserActive)))

	technicians, err := h.users.ListTechnicians(c.Request.Context(), regionID, status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, technicians)
}

// GetUserPermissions returns the permission breakdown for a user
// @Summary Get user permissions
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} services.UserPermissions
// @Router /api/v1/users/{id}/permissions [get]
func (h *UserHandler) GetUserPermissions(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	perms, err := h.permissions.GetUserPermissions(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, perms)
}

// UpdateUserPermissions replaces a user's per-user permission overrides
// @Summary Update user permissions
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body map[string]interface{} true "Overrides"
// @Success 200 {object} services.UserPermissions
// @Router /api/v1/users/{id}/permissions [put]
func (h *UserHandler) UpdateUserPermissions(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}

	var body struct {
		PermissionsAdded   []string `json:"permissionsAdded"`
		PermissionsRemoved []string `json:"permissionsRemoved"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	perms, err := h.permissions.UpdateUserPermissions(c.Request.Context(), actorID, id, body.PermissionsAdded, body.PermissionsRemoved)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, perms)
}
