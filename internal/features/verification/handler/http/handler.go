package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"daily-claim-backend/internal/common/errors"
	"daily-claim-backend/internal/features/verification/models"
	"daily-claim-backend/internal/features/verification/service"
)

type Handler struct {
	service service.Service
}

func NewHandler(service service.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	claims := router.Group("/claims")
	{
		claims.POST("/verify", h.VerifyClaim)
	}
}

// @Summary Verify claim transaction
// @Description Binds a submitted claim transaction to its correlation reference and reports its on-chain state. Advisory only.
// @Tags claims
// @Accept json
// @Produce json
// @Param request body models.VerifyRequest true "Submitted claim"
// @Success 200 {object} models.VerifyResponse
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 503 {object} models.ErrorResponse "Store unavailable"
// @Router /claims/verify [post]
func (h *Handler) VerifyClaim(c *gin.Context) {
	var req models.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errors.Wrap(err, errors.ErrCodeBadRequest, "Invalid request body"))
		return
	}

	resp, err := h.service.Verify(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
