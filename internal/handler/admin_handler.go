package handler

import (
	"net/http"
	"strconv"
	"strings"

	"royaltriangle/internal/repository"
	"royaltriangle/internal/service"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	admin      AdminService
	settlement SettlementService
	triangles  TriangleService
	settings   SettingsService
	audit      AuditRecorder
}

func NewAdminHandler(admin AdminService, settlement SettlementService, triangles TriangleService, settings SettingsService, audit AuditRecorder) *AdminHandler {
	return &AdminHandler{admin: admin, settlement: settlement, triangles: triangles, settings: settings, audit: audit}
}

type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type UserActionRequest struct {
	Action string `json:"action" binding:"required"`
}

func (h *AdminHandler) Overview(c *gin.Context) {
	ov, err := h.admin.Overview(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ov)
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, err := h.admin.ListUsers(c.Request.Context(), repository.UserFilter{
		Search: c.Query("search"),
		Plan:   c.Query("plan"),
		Status: c.Query("status"),
		Page:   pageQuery(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// UpdateUser applies suspend, activate or delete to a user.
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req UserActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	action := strings.ToLower(strings.TrimSpace(req.Action))
	u, err := h.admin.ApplyUserAction(c.Request.Context(), id, action)
	if err != nil {
		respondError(c, err)
		return
	}
	recordAudit(c, h.audit, "user."+action, "user", strconv.FormatUint(uint64(id), 10), nil)
	c.JSON(http.StatusOK, u)
}

func (h *AdminHandler) ListTransactions(c *gin.Context) {
	userID, ok := userIDQuery(c, "userId")
	if !ok {
		return
	}
	page, err := h.admin.ListTransactions(c.Request.Context(), repository.TransactionFilter{
		Type:   c.Query("type"),
		Status: c.Query("status"),
		UserID: userID,
		Page:   pageQuery(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// UpdateTransaction moves a transaction to a new status and applies the
// balance side effect on first completion.
func (h *AdminHandler) UpdateTransaction(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	tx, err := h.settlement.UpdateStatus(c.Request.Context(), id, status)
	if err != nil {
		respondError(c, err)
		return
	}
	recordAudit(c, h.audit, "transaction.status", "transaction", strconv.FormatUint(uint64(id), 10),
		map[string]interface{}{"status": status, "type": tx.Type, "amount": tx.Amount.String()})
	c.JSON(http.StatusOK, tx)
}

func (h *AdminHandler) ListTriangles(c *gin.Context) {
	p := pageQuery(c)
	list, total, err := h.triangles.List(c.Request.Context(), repository.TriangleFilter{
		Status:   strings.ToUpper(c.Query("status")),
		PlanType: c.Query("planType"),
		Page:     p,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if list == nil {
		list = []repository.TriangleFill{}
	}
	c.JSON(http.StatusOK, gin.H{"triangles": list, "total": total, "page": p.Page, "limit": p.Limit})
}

func (h *AdminHandler) UpdateTriangle(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	tri, err := h.triangles.Advance(c.Request.Context(), id, status)
	if err != nil {
		respondError(c, err)
		return
	}
	recordAudit(c, h.audit, "triangle.status", "triangle", strconv.FormatUint(uint64(id), 10),
		map[string]interface{}{"status": status})
	c.JSON(http.StatusOK, tri)
}

func (h *AdminHandler) GetConfig(c *gin.Context) {
	cur, err := h.settings.Current(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cur)
}

func (h *AdminHandler) UpdateConfig(c *gin.Context) {
	var req service.SettingsUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	cur, err := h.settings.Update(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	recordAudit(c, h.audit, "config.update", "system_settings", "", map[string]interface{}{
		"depositWallet":        cur.DepositWallet,
		"depositCoin":          cur.DepositCoin,
		"depositNetwork":       cur.DepositNetwork,
		"referralBonusPercent": cur.ReferralBonusPercent.String(),
	})
	c.JSON(http.StatusOK, cur)
}

func (h *AdminHandler) Plans(c *gin.Context) {
	plans, err := h.admin.Plans(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}
