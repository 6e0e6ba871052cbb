package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/crescendo-labs/music-school-api/internal/models"
	"github.com/crescendo-labs/music-school-api/internal/service"
	appErrors "github.com/crescendo-labs/music-school-api/pkg/errors"
	"github.com/crescendo-labs/music-school-api/pkg/response"
)

// AuthHandler exposes token issuance.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// IssueToken godoc
// @Summary Issue an access token for an email identity
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.TokenRequest true "Identity"
// @Success 200 {object} response.Envelope
// @Router /jwt [post]
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req models.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid token payload"))
		return
	}
	token, err := h.auth.IssueToken(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, token, nil)
}
