package router

import (
	"github.com/cafe-next/internal/config"
	publichandlers "github.com/cafe-next/internal/http/handlers/public"
	"github.com/cafe-next/internal/logger"
	"github.com/cafe-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 会话身份
		session := apiV1.Group("/session")
		{
			session.GET("", publicHandler.GetSession)
			session.POST("/guest", publicHandler.StartGuestSession)
			session.POST("/login", publicHandler.SessionLogin)
			session.POST("/logout", publicHandler.SessionLogout)
		}

		// 购物车（单设备会话，身份由中间件写入）
		cart := apiV1.Group("/cart")
		cart.Use(SessionIdentityMiddleware(c.IdentityProvider))
		{
			cart.GET("", publicHandler.GetCart)
			cart.POST("/items", publicHandler.AddCartItem)
			cart.POST("/items/:product_id/increment", publicHandler.IncrementCartItem)
			cart.POST("/items/:product_id/decrement", publicHandler.DecrementCartItem)
			cart.DELETE("/items/:product_id", publicHandler.DeleteCartItem)
			cart.POST("/clear", publicHandler.ClearCart)
			cart.PUT("/fulfillment", publicHandler.SetFulfillment)
			cart.POST("/promo", publicHandler.ApplyPromo)
			cart.DELETE("/promo", publicHandler.RemovePromo)
			cart.POST("/reward", publicHandler.ApplyReward)
			cart.DELETE("/reward", publicHandler.RemoveReward)
		}

		// 积分奖励目录
		loyalty := apiV1.Group("/loyalty")
		loyalty.Use(SessionIdentityMiddleware(c.IdentityProvider))
		{
			loyalty.GET("/rewards", publicHandler.GetRewards)
		}

		// 结账
		checkout := apiV1.Group("/checkout")
		checkout.Use(SessionIdentityMiddleware(c.IdentityProvider))
		{
			checkout.POST("/preview", publicHandler.PreviewCheckout)
			checkout.POST("/confirm-paid", publicHandler.ConfirmCheckoutPaid)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
