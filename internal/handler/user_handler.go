package handler

import (
	"net/http"
	"strconv"

	"royaltriangle/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type UserHandler struct {
	triangles TriangleService
	wallet    WalletService
}

func NewUserHandler(triangles TriangleService, wallet WalletService) *UserHandler {
	return &UserHandler{triangles: triangles, wallet: wallet}
}

type PayoutRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// Position reports the caller's latest triangle and how full it is.
func (h *UserHandler) Position(c *gin.Context) {
	report, err := h.triangles.PositionReport(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *UserHandler) Triangle(c *gin.Context) {
	snap, err := h.triangles.Snapshot(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *UserHandler) Wallet(c *gin.Context) {
	report, err := h.wallet.Wallet(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *UserHandler) RequestPayout(c *gin.Context) {
	var req PayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	tx, err := h.wallet.RequestPayout(c.Request.Context(), middleware.GetUserID(c), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "transaction": tx})
}

func (h *UserHandler) Transactions(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	list, err := h.wallet.Transactions(c.Request.Context(), middleware.GetUserID(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": list})
}

func (h *UserHandler) Referrals(c *gin.Context) {
	report, err := h.wallet.Referrals(c.Request.Context(), middleware.GetUserID(c), pageQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
