package handler

import (
	"net/http"
	"testing"

	"royaltriangle/internal/auth"
	"royaltriangle/internal/middleware"
	"royaltriangle/internal/models"
	"royaltriangle/internal/repository"
	"royaltriangle/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func userRouter(tri *mockTriangles, wallet *mockWallet, notes *mockNotifications) *gin.Engine {
	h := NewUserHandler(tri, wallet)
	n := NewNotificationHandler(notes)
	r := gin.New()
	api := r.Group("/api", middleware.SessionRequired(fixedAuthenticator{p: &auth.Principal{ID: 7, Username: "alice"}}))
	api.GET("/user/position", h.Position)
	api.GET("/user/wallet", h.Wallet)
	api.POST("/user/payouts", h.RequestPayout)
	api.GET("/user/referrals", h.Referrals)
	api.GET("/transactions", h.Transactions)
	api.GET("/triangle", h.Triangle)
	api.GET("/notifications", n.List)
	api.PATCH("/notifications/:id/read", n.MarkRead)
	return r
}

func TestPosition(t *testing.T) {
	tri := &mockTriangles{}
	tri.On("PositionReport", mock.Anything, uint(7)).Return(&service.PositionReport{PositionKey: "3", Completion: 20}, nil).Once()
	tri.On("PositionReport", mock.Anything, uint(7)).Return(nil, service.ErrNoPosition).Once()
	r := userRouter(tri, &mockWallet{}, &mockNotifications{})

	w := do(r, http.MethodGet, "/api/user/position", "")
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, "3", out["positionKey"])
	assert.Equal(t, float64(20), out["completion"])

	w = do(r, http.MethodGet, "/api/user/position", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User has not joined any triangle yet", decode(t, w)["error"])
}

func TestTriangleSnapshot(t *testing.T) {
	tri := &mockTriangles{}
	tri.On("Snapshot", mock.Anything, uint(7)).Return(&service.Snapshot{TriangleID: 4, PlanType: "King", Status: "OPEN"}, nil)
	w := do(userRouter(tri, &mockWallet{}, &mockNotifications{}), http.MethodGet, "/api/triangle", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(4), decode(t, w)["triangleId"])
}

func TestWallet(t *testing.T) {
	wallet := &mockWallet{}
	wallet.On("Wallet", mock.Anything, uint(7)).Return(&service.WalletReport{Balance: decimal.RequireFromString("12.5")}, nil)
	w := do(userRouter(&mockTriangles{}, wallet, &mockNotifications{}), http.MethodGet, "/api/user/wallet", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 12.5, decode(t, w)["balance"])
}

func TestRequestPayout(t *testing.T) {
	wallet := &mockWallet{}
	wallet.On("RequestPayout", mock.Anything, uint(7), mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.RequireFromString("25.5"))
	})).Return(&models.Transaction{ID: 11, Type: "PAYOUT", Status: "PENDING"}, nil)
	wallet.On("RequestPayout", mock.Anything, uint(7), mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.NewFromInt(1000))
	})).Return(nil, service.ErrInsufficientBalance)
	r := userRouter(&mockTriangles{}, wallet, &mockNotifications{})

	w := do(r, http.MethodPost, "/api/user/payouts", `{"amount":"25.5"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	tx := decode(t, w)["transaction"].(map[string]interface{})
	assert.Equal(t, "PENDING", tx["status"])

	w = do(r, http.MethodPost, "/api/user/payouts", `{"amount":1000}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "insufficient balance", decode(t, w)["error"])

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/user/payouts", `{"amount":"lots"}`).Code)
}

func TestTransactions(t *testing.T) {
	wallet := &mockWallet{}
	wallet.On("Transactions", mock.Anything, uint(7), 0).Return([]models.Transaction{{ID: 1, CreatedAt: fixedTime}}, nil)
	wallet.On("Transactions", mock.Anything, uint(7), 5).Return([]models.Transaction{}, nil)
	r := userRouter(&mockTriangles{}, wallet, &mockNotifications{})

	w := do(r, http.MethodGet, "/api/transactions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["transactions"], 1)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/transactions?limit=5", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/transactions?limit=many", "").Code)
	wallet.AssertExpectations(t)
}

func TestReferrals(t *testing.T) {
	wallet := &mockWallet{}
	wallet.On("Referrals", mock.Anything, uint(7), repository.Page{Page: 1, Limit: 20}).
		Return(&service.ReferralReport{ReferralCode: "ALICE_1", Referrals: []service.Downline{}}, nil)
	w := do(userRouter(&mockTriangles{}, wallet, &mockNotifications{}), http.MethodGet, "/api/user/referrals", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ALICE_1", decode(t, w)["referralCode"])
}

func TestNotifications(t *testing.T) {
	notes := &mockNotifications{}
	notes.On("List", mock.Anything, uint(7), repository.Page{Page: 1, Limit: 20}).Return([]models.Notification{{ID: 2}}, nil)
	notes.On("MarkRead", mock.Anything, uint(7), uint(2)).Return(nil)
	notes.On("MarkRead", mock.Anything, uint(7), uint(3)).Return(service.ErrNotificationNotFound)
	r := userRouter(&mockTriangles{}, &mockWallet{}, notes)

	w := do(r, http.MethodGet, "/api/notifications", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["notifications"], 1)

	w = do(r, http.MethodPatch, "/api/notifications/2/read", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPatch, "/api/notifications/3/read", "").Code)
}
