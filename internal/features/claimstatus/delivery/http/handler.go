package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"daily-claim-backend/internal/features/claimstatus/service"
)

type Handler struct {
	service service.StatusService
}

func NewHandler(service service.StatusService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/claim-status/:address", h.GetClaimStatus)
}

// @Summary Claim status
// @Description Reads the on-chain cooldown for an address and reports whether it can claim now
// @Tags claims
// @Produce json
// @Param address path string true "Wallet address (0x-prefixed, checksummed or single-case)"
// @Success 200 {object} models.ClaimStatus
// @Failure 400 {object} models.ErrorResponse "Invalid address"
// @Failure 500 {object} models.ErrorResponse "No endpoint could answer"
// @Router /claim-status/{address} [get]
func (h *Handler) GetClaimStatus(c *gin.Context) {
	status, err := h.service.GetStatus(c.Request.Context(), c.Param("address"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, status)
}
