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

// ClassHandler exposes the class catalog and its administration.
type ClassHandler struct {
	classes *service.ClassService
	users   *service.UserService
}

// NewClassHandler constructs ClassHandler.
func NewClassHandler(classes *service.ClassService, users *service.UserService) *ClassHandler {
	return &ClassHandler{classes: classes, users: users}
}

// ListApproved godoc
// @Summary List approved classes visible to everyone
// @Tags Classes
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /all-approved-classes [get]
func (h *ClassHandler) ListApproved(c *gin.Context) {
	classes, err := h.classes.ListApproved(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}

// ListAll godoc
// @Summary List every class regardless of approval state
// @Tags Classes
// @Produce json
// @Param status query string false "Filter by status"
// @Param search query string false "Search by name or instructor"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /all-classes [get]
func (h *ClassHandler) ListAll(c *gin.Context) {
	var filter models.ClassFilter
	filter.Status = models.ClassStatus(c.Query("status"))
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	classes, pagination, err := h.classes.ListAll(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, pagination)
}

// MyClasses godoc
// @Summary List classes taught by the calling instructor
// @Tags Classes
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /my-classes [get]
func (h *ClassHandler) MyClasses(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if email := c.Query("email"); email != "" && !strings.EqualFold(email, claims.Email) {
		response.Error(c, appErrors.ErrForbidden)
		return
	}
	classes, err := h.classes.ListByInstructor(c.Request.Context(), claims.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}

// Add godoc
// @Summary Submit a new class for approval
// @Tags Classes
// @Accept json
// @Produce json
// @Param payload body service.AddClassRequest true "Class"
// @Success 201 {object} response.Envelope
// @Router /add-a-class [post]
func (h *ClassHandler) Add(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.AddClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid class payload"))
		return
	}
	instructor, err := h.users.Profile(c.Request.Context(), claims.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	class, err := h.classes.Add(c.Request.Context(), req, instructor.FullName, instructor.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// ApprovalAction godoc
// @Summary Approve or deny a submitted class
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param action query string true "approved or denied"
// @Success 200 {object} response.Envelope
// @Router /approval-action/{id} [patch]
func (h *ClassHandler) ApprovalAction(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	req := service.ApprovalRequest{Action: c.Query("action")}
	if c.Request.ContentLength > 0 {
		var body struct {
			Feedback *string `json:"feedback"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid approval payload"))
			return
		}
		req.Feedback = body.Feedback
	}
	class, err := h.classes.ApprovalAction(c.Request.Context(), c.Param("id"), req, claims.Email, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Delete godoc
// @Summary Remove a class from the catalog
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 204
// @Router /all-classes/{id} [delete]
func (h *ClassHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.classes.Delete(c.Request.Context(), c.Param("id"), claims.Email, requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Instructors godoc
// @Summary List instructors with their approved classes
// @Tags Classes
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /instructors [get]
func (h *ClassHandler) Instructors(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("limit", "6"))
	instructors, pagination, err := h.classes.Instructors(c.Request.Context(), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, instructors, pagination)
}

// AllInstructors godoc
// @Summary List every instructor without pagination
// @Tags Classes
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /all-instructors [get]
func (h *ClassHandler) AllInstructors(c *gin.Context) {
	instructors, _, err := h.classes.Instructors(c.Request.Context(), 1, 0)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, instructors, nil)
}
