package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"royaltriangle/internal/middleware"
	"royaltriangle/internal/models"
	"royaltriangle/internal/repository"
	"royaltriangle/internal/service"
	"royaltriangle/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (*service.Registration, error)
	Login(ctx context.Context, username, password string) (*service.LoginResult, error)
}

type SettlementService interface {
	UpdateStatus(ctx context.Context, id uint, status string) (*models.Transaction, error)
}

type TriangleService interface {
	PositionReport(ctx context.Context, userID uint) (*service.PositionReport, error)
	Snapshot(ctx context.Context, userID uint) (*service.Snapshot, error)
	List(ctx context.Context, f repository.TriangleFilter) ([]repository.TriangleFill, int64, error)
	Advance(ctx context.Context, id uint, target string) (*models.Triangle, error)
}

type WalletService interface {
	Wallet(ctx context.Context, userID uint) (*service.WalletReport, error)
	RequestPayout(ctx context.Context, userID uint, amount decimal.Decimal) (*models.Transaction, error)
	Transactions(ctx context.Context, userID uint, limit int) ([]models.Transaction, error)
	Referrals(ctx context.Context, userID uint, p repository.Page) (*service.ReferralReport, error)
}

type AdminService interface {
	ListUsers(ctx context.Context, f repository.UserFilter) (*service.UserPage, error)
	ApplyUserAction(ctx context.Context, id uint, action string) (*models.User, error)
	ListTransactions(ctx context.Context, f repository.TransactionFilter) (*service.TransactionPage, error)
	Overview(ctx context.Context) (*service.Overview, error)
	Plans(ctx context.Context) ([]models.Plan, error)
}

type SettingsService interface {
	Current(ctx context.Context) (service.RuntimeSettings, error)
	Update(ctx context.Context, in service.SettingsUpdate) (service.RuntimeSettings, error)
}

type NotificationService interface {
	List(ctx context.Context, userID uint, p repository.Page) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, id uint) error
}

type AuditRecorder interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

var (
	badRequest = []error{
		service.ErrUserExists,
		service.ErrInvalidPlan,
		service.ErrPlanNotFound,
		service.ErrInvalidWalletAddress,
		service.ErrInvalidStatus,
		service.ErrInvalidAction,
		service.ErrInvalidAmount,
		service.ErrInsufficientBalance,
		service.ErrInvalidTransition,
		service.ErrInvalidSettings,
	}
	unauthorized = []error{
		service.ErrInvalidCredentials,
		service.ErrAccountLocked,
		service.ErrAccountDisabled,
	}
	notFound = []error{
		service.ErrUserNotFound,
		service.ErrTransactionNotFound,
		service.ErrTriangleNotFound,
		service.ErrNotificationNotFound,
		service.ErrNoPosition,
	}
)

func matches(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// respondError maps service errors to status codes. Unknown errors are logged
// and answered with a generic 500.
func respondError(c *gin.Context, err error) {
	var status int
	switch {
	case matches(err, badRequest):
		status = http.StatusBadRequest
	case matches(err, unauthorized):
		status = http.StatusUnauthorized
	case matches(err, notFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrConcurrentUpdate):
		status = http.StatusConflict
	case errors.Is(err, service.ErrDepositNotConfigured):
		status = http.StatusServiceUnavailable
	default:
		logger.Logger().Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// userIDQuery parses an optional numeric query parameter; zero means absent.
func userIDQuery(c *gin.Context, name string) (uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

func pageQuery(c *gin.Context) repository.Page {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	return repository.Page{Page: page, Limit: limit}.Normalize()
}

// recordAudit stores an audit entry for the current principal. Failures are
// logged and never fail the request.
func recordAudit(c *gin.Context, audit AuditRecorder, action, resource, resourceID string, meta map[string]interface{}) {
	if audit == nil {
		return
	}
	entry := &models.AuditLog{
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	}
	if id := middleware.GetUserID(c); id != 0 {
		entry.UserID = &id
	}
	if meta != nil {
		if b, err := json.Marshal(meta); err == nil {
			entry.Metadata = string(b)
		}
	}
	if err := audit.Create(c.Request.Context(), entry); err != nil {
		logger.Logger().Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}
