package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crescendo-labs/music-school-api/internal/service"
	appErrors "github.com/crescendo-labs/music-school-api/pkg/errors"
	"github.com/crescendo-labs/music-school-api/pkg/response"
)

// EnrollmentHandler exposes the selection and payment lifecycle.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// ownEmail resolves the email the request is allowed to read. The email query
// parameter, when present, must match the token identity.
func ownEmail(c *gin.Context) (string, error) {
	claims := claimsFromContext(c)
	if claims == nil {
		return "", appErrors.ErrUnauthorized
	}
	if email := c.Query("email"); email != "" && !strings.EqualFold(email, claims.Email) {
		return "", appErrors.ErrForbidden
	}
	return claims.Email, nil
}

// ListSelections godoc
// @Summary List the caller's pending class selections
// @Tags Enrollments
// @Produce json
// @Param email query string false "Must match the token identity"
// @Success 200 {object} response.Envelope
// @Router /selected-classes [get]
func (h *EnrollmentHandler) ListSelections(c *gin.Context) {
	email, err := ownEmail(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	selections, err := h.enrollments.Selections(c.Request.Context(), email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, selections, nil)
}

// CreateSelection godoc
// @Summary Select a class, idempotent per (class, student)
// @Tags Enrollments
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Router /selected-classes/{id} [post]
func (h *EnrollmentHandler) CreateSelection(c *gin.Context) {
	email, err := ownEmail(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	selection, created, err := h.enrollments.CreateSelection(c.Request.Context(), c.Param("id"), email)
	if err != nil {
		response.Error(c, err)
		return
	}
	if created {
		response.Created(c, selection)
		return
	}
	response.JSON(c, http.StatusOK, selection, nil, map[string]interface{}{"alreadySelected": true})
}

// RemoveSelection godoc
// @Summary Drop a pending selection owned by the caller
// @Tags Enrollments
// @Produce json
// @Param id path string true "Selection ID"
// @Success 204
// @Router /selected-classes/{id} [delete]
func (h *EnrollmentHandler) RemoveSelection(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.enrollments.RemoveSelection(c.Request.Context(), c.Param("id"), claims.Email); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CreatePaymentIntent godoc
// @Summary Create a payment intent and return its client secret
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body service.CreateIntentRequest true "Amount in minor units"
// @Success 200 {object} response.Envelope
// @Router /create-payment-intent [post]
func (h *EnrollmentHandler) CreatePaymentIntent(c *gin.Context) {
	var req service.CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payment intent payload"))
		return
	}
	intent, err := h.enrollments.CreatePaymentIntent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"clientSecret": intent.ClientSecret}, nil)
}

// ConfirmPayment godoc
// @Summary Record a confirmed payment and enroll the selection
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Selection ID"
// @Param payload body service.ConfirmPaymentRequest true "Gateway transaction reference"
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Router /payment-transaction/{id} [post]
func (h *EnrollmentHandler) ConfirmPayment(c *gin.Context) {
	var req service.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payment payload"))
		return
	}
	paid, recorded, err := h.enrollments.ConfirmPayment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if recorded {
		response.Created(c, paid)
		return
	}
	response.JSON(c, http.StatusOK, paid, nil, map[string]interface{}{"alreadyEnrolled": true})
}

// PaymentHistory godoc
// @Summary List the caller's payments, newest first
// @Tags Payments
// @Produce json
// @Param email query string false "Must match the token identity"
// @Success 200 {object} response.Envelope
// @Router /payment-history [get]
func (h *EnrollmentHandler) PaymentHistory(c *gin.Context) {
	email, err := ownEmail(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	payments, err := h.enrollments.PaymentHistory(c.Request.Context(), email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, nil)
}

// ExportPaymentHistory godoc
// @Summary Download the caller's payment history as CSV
// @Tags Payments
// @Produce text/csv
// @Param email query string false "Must match the token identity"
// @Success 200 {file} file
// @Router /payment-history/export [get]
func (h *EnrollmentHandler) ExportPaymentHistory(c *gin.Context) {
	email, err := ownEmail(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	data, err := h.enrollments.ExportPaymentHistory(c.Request.Context(), email)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("payment-history-%s.csv", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", data)
}

// PaymentReceipt godoc
// @Summary Download a PDF receipt for one of the caller's payments
// @Tags Payments
// @Produce application/pdf
// @Param id path string true "Payment ID"
// @Success 200 {file} file
// @Router /payment-receipt/{id} [get]
func (h *EnrollmentHandler) PaymentReceipt(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	data, err := h.enrollments.Receipt(c.Request.Context(), c.Param("id"), claims.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "receipt-"+c.Param("id")+".pdf"))
	c.Data(http.StatusOK, "application/pdf", data)
}

// EnrolledClasses godoc
// @Summary List the caller's enrolled classes
// @Tags Enrollments
// @Produce json
// @Param email query string false "Must match the token identity"
// @Success 200 {object} response.Envelope
// @Router /enrolled-classes [get]
func (h *EnrollmentHandler) EnrolledClasses(c *gin.Context) {
	email, err := ownEmail(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	classes, err := h.enrollments.EnrolledClasses(c.Request.Context(), email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}
