package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/crescendo-labs/music-school-api/internal/models"
	"github.com/crescendo-labs/music-school-api/internal/service"
	appErrors "github.com/crescendo-labs/music-school-api/pkg/errors"
	"github.com/crescendo-labs/music-school-api/pkg/response"
)

// UserHandler exposes user registration, administration and role probes.
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler constructs UserHandler.
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Register godoc
// @Summary Register a user identity, idempotent on email
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body service.RegisterUserRequest true "User"
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Router /users [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req service.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid user payload"))
		return
	}
	user, created, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if created {
		response.Created(c, user)
		return
	}
	response.JSON(c, http.StatusOK, user, nil, map[string]interface{}{"alreadyRegistered": true})
}

// List godoc
// @Summary List users
// @Tags Users
// @Produce json
// @Param search query string false "Search by name or email"
// @Param role query string false "Filter by role"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	var filter models.UserFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	if role := c.Query("role"); role != "" {
		r := models.UserRole(role)
		filter.Role = &r
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	users, pagination, err := h.users.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, pagination)
}

// Delete godoc
// @Summary Delete a user
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 204
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.users.Delete(c.Request.Context(), c.Param("id"), claims.Email, requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// IsAdmin reports whether the token holder is an admin.
// @Summary Probe admin membership for the caller's own email
// @Tags Users
// @Produce json
// @Param email path string true "Email"
// @Success 200 {object} response.Envelope
// @Router /users/admin/{email} [get]
func (h *UserHandler) IsAdmin(c *gin.Context) {
	h.roleProbe(c, models.RoleAdmin, "admin")
}

// IsInstructor reports whether the token holder is an instructor.
// @Summary Probe instructor membership for the caller's own email
// @Tags Users
// @Produce json
// @Param email path string true "Email"
// @Success 200 {object} response.Envelope
// @Router /users/instructor/{email} [get]
func (h *UserHandler) IsInstructor(c *gin.Context) {
	h.roleProbe(c, models.RoleInstructor, "instructor")
}

// IsStudent reports whether the token holder is a student.
// @Summary Probe student membership for the caller's own email
// @Tags Users
// @Produce json
// @Param email path string true "Email"
// @Success 200 {object} response.Envelope
// @Router /users/student/{email} [get]
func (h *UserHandler) IsStudent(c *gin.Context) {
	h.roleProbe(c, models.RoleStudent, "student")
}

// roleProbe answers a membership question about a single email. A caller
// asking about any email other than their own gets a plain negative, never
// an error and never a lookup.
func (h *UserHandler) roleProbe(c *gin.Context, role models.UserRole, key string) {
	claims := claimsFromContext(c)
	email := strings.ToLower(strings.TrimSpace(c.Param("email")))
	if claims == nil || !strings.EqualFold(claims.Email, email) {
		response.JSON(c, http.StatusOK, gin.H{key: false}, nil)
		return
	}
	has, err := h.users.HasRole(c.Request.Context(), email, role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{key: has}, nil)
}

// PromoteAdmin godoc
// @Summary Grant the admin role to a user
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Router /users/admin/{id} [patch]
func (h *UserHandler) PromoteAdmin(c *gin.Context) {
	h.setRole(c, models.RoleAdmin)
}

// PromoteInstructor godoc
// @Summary Grant the instructor role to a user
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Router /users/instructor/{id} [patch]
func (h *UserHandler) PromoteInstructor(c *gin.Context) {
	h.setRole(c, models.RoleInstructor)
}

func (h *UserHandler) setRole(c *gin.Context, role models.UserRole) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	user, err := h.users.SetRole(c.Request.Context(), c.Param("id"), role, claims.Email, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}
