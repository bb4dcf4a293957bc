package router

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/KHMER0/sale-system/config"
	"github.com/KHMER0/sale-system/internal/api/handler"
	"github.com/KHMER0/sale-system/internal/api/middleware"
	"github.com/KHMER0/sale-system/internal/model"
)

// Setup 初始化並回傳 Gin 路由引擎
// limiter 為 nil 時停用限流
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	auth middleware.Authenticator,
	limiter middleware.RateLimiter,
	logger *zap.Logger,
) *gin.Engine {
	r := gin.New()

	// ── 全域中介層 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// ── 健康檢查 ──
	r.GET("/health", h.Health.Check)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 認證模組（無需認證）
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", middleware.RateLimit(limiter, "login", cfg.Auth.LoginLimit, logger), h.Auth.Login)
			authGroup.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要認證的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(auth))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)

			// 使用者模組：細部權限在 Service 層判斷
			users := authorized.Group("/users")
			{
				users.GET("", h.User.ListUsers)
				users.POST("", middleware.RoleAuth(model.RoleAdministrator, model.RoleSystemAdmin), h.User.CreateUser)
				users.GET("/:id", h.User.GetUser)
				users.PUT("/:id", h.User.UpdateUser)
				users.DELETE("/:id", middleware.RoleAuth(model.RoleAdministrator, model.RoleSystemAdmin), h.User.DeleteUser)
			}

			// 客戶模組
			customers := authorized.Group("/customers")
			{
				customers.GET("", h.Customer.ListCustomers)
				customers.GET("/:id", h.Customer.GetCustomer)
				customers.POST("", h.Customer.CreateCustomer)
				customers.PUT("/:id", h.Customer.UpdateCustomer)
				customers.DELETE("/:id", h.Customer.DeleteCustomer)
			}

			// 訂單模組
			orders := authorized.Group("/orders")
			{
				orders.GET("", h.Order.ListOrders)
				orders.GET("/:id", h.Order.GetOrder)
				orders.POST("", h.Order.CreateOrder)
				orders.PUT("/:id", h.Order.UpdateOrder)
				orders.DELETE("/:id", h.Order.DeleteOrder)
			}

			// 報價單模組
			quotes := authorized.Group("/quotes")
			{
				quotes.GET("", h.Quote.ListQuotes)
				quotes.GET("/convertible", h.Quote.ListConvertible)
				quotes.GET("/:id", h.Quote.GetQuote)
				quotes.POST("", h.Quote.CreateQuote)
				quotes.PUT("/:id", h.Quote.UpdateQuote)
				quotes.DELETE("/:id", h.Quote.DeleteQuote)
				quotes.POST("/:id/convert", h.Quote.ConvertQuote)
			}

			// 銷售分析
			analytics := authorized.Group("/analytics")
			{
				analytics.GET("/summary", h.Analytics.Summary)
				analytics.GET("/customers", h.Analytics.CustomerScoring)
			}

			// 聊天助理
			chatbot := authorized.Group("/chatbot")
			{
				chatbot.POST("/messages", middleware.RateLimit(limiter, "chatbot", cfg.Chatbot.RateLimit, logger), h.Chatbot.SendMessage)
				chatbot.GET("/history", h.Chatbot.History)
				chatbot.DELETE("/history", h.Chatbot.Reset)
			}

			// 匯出模組
			authorized.GET("/export/:entity", h.Export.Export)
		}
	}

	return r
}
