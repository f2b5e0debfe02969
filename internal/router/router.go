package router

import (
	"net/http"

	"royaltriangle/config"
	"royaltriangle/internal/auth"
	"royaltriangle/internal/database"
	"royaltriangle/internal/handler"
	"royaltriangle/internal/middleware"
	"royaltriangle/internal/repository"
	"royaltriangle/internal/service"
	"royaltriangle/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// limiter picks the redis counter when a client is available and the
// in-memory window otherwise.
func limiter(rdb *redis.Client, prefix string, rl config.RateLimitConfig) middleware.Limiter {
	if rdb != nil {
		return middleware.NewRedisRateLimiter(rdb, prefix, rl.Requests, rl.Window)
	}
	return middleware.NewInMemoryRateLimiter(rl.Requests, rl.Window)
}

// Setup wires repositories, services and handlers into a gin engine. rdb may
// be nil.
func Setup(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*gin.Engine, error) {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	corsCfg := cors.DefaultConfig()
	if len(cfg.Server.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.Server.AllowedOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsCfg.AllowCredentials = true
	r.Use(cors.New(corsCfg))
	r.Use(middleware.RateLimit(limiter(rdb, "rl:global", cfg.Security.RateLimit)))

	// Repositories
	repos := service.NewRepos(db)
	uow := service.NewUnitOfWork(db)
	settingRepo := repository.NewSettingRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	reporting, placeholder, err := database.NewReportingDB(db, cfg.Database.Driver)
	if err != nil {
		return nil, err
	}
	overviewRepo := repository.NewOverviewRepository(reporting, placeholder)

	tokens, err := auth.NewTokenManager(&cfg.Session)
	if err != nil {
		return nil, err
	}
	authn := auth.NewAuthenticator(tokens, repos.Users, cfg.Session.CookieName)
	hub := ws.NewHub()

	// Services
	settingsSvc := service.NewSettingsService(settingRepo, cfg.Deposit, cfg.Referral)
	notifSvc := service.NewNotificationService(notificationRepo, hub)
	authSvc := service.NewAuthService(repos, uow, settingsSvc, tokens, cfg.Security.BcryptCost)
	settlementSvc := service.NewSettlementService(uow, settingsSvc, notifSvc)
	triangleSvc := service.NewTriangleService(repos, uow, notifSvc)
	walletSvc := service.NewWalletService(repos, uow, notifSvc)
	adminSvc := service.NewAdminService(repos, overviewRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, handler.CookieConfig{Name: authn.CookieName(), Secure: cfg.Session.Secure})
	userHandler := handler.NewUserHandler(triangleSvc, walletSvc)
	adminHandler := handler.NewAdminHandler(adminSvc, settlementSvc, triangleSvc, settingsSvc, auditRepo)
	notificationHandler := handler.NewNotificationHandler(notifSvc)

	sessionMw := middleware.SessionRequired(authn)
	authLimit := middleware.RateLimit(limiter(rdb, "rl:auth", cfg.Security.AuthLimit))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "wsClients": hub.ClientCount()})
	})
	r.GET("/ws/notifications", ws.ServeNotifications(authn, hub, cfg.Server.AllowedOrigins))

	api := r.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authLimit, authHandler.Register)
			authGroup.POST("/login", authLimit, authHandler.Login)
			authGroup.POST("/logout", authHandler.Logout)
			authGroup.GET("/session", sessionMw, authHandler.Session)
		}

		user := api.Group("/user")
		user.Use(sessionMw)
		{
			user.GET("/position", userHandler.Position)
			user.GET("/wallet", userHandler.Wallet)
			user.POST("/payouts", userHandler.RequestPayout)
			user.GET("/referrals", userHandler.Referrals)
		}
		api.GET("/transactions", sessionMw, userHandler.Transactions)
		api.GET("/triangle", sessionMw, userHandler.Triangle)

		notifications := api.Group("/notifications")
		notifications.Use(sessionMw)
		{
			notifications.GET("", notificationHandler.List)
			notifications.PATCH("/:id/read", notificationHandler.MarkRead)
		}

		admin := api.Group("/admin")
		admin.Use(sessionMw, middleware.AdminRequired())
		{
			admin.GET("/overview", adminHandler.Overview)
			admin.GET("/users", adminHandler.ListUsers)
			admin.PATCH("/users/:id", adminHandler.UpdateUser)
			admin.GET("/transactions", adminHandler.ListTransactions)
			admin.PATCH("/transactions/:id", adminHandler.UpdateTransaction)
			admin.GET("/triangles", adminHandler.ListTriangles)
			admin.PATCH("/triangles/:id", adminHandler.UpdateTriangle)
			admin.GET("/config", adminHandler.GetConfig)
			admin.PATCH("/config", adminHandler.UpdateConfig)
			admin.GET("/plans", adminHandler.Plans)
		}
	}
	return r, nil
}
