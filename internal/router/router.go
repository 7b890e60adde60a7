package router

import (
	"github.com/CalistoMango/TheShipyard-sub001/internal/config"
	"github.com/CalistoMango/TheShipyard-sub001/internal/handler"
	"github.com/CalistoMango/TheShipyard-sub001/internal/logic"
	"github.com/CalistoMango/TheShipyard-sub001/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services 路由依赖的业务逻辑
type Services struct {
	Claims  *logic.ClaimLogic
	Funding *logic.FundingLogic
	Reports *logic.ReportLogic
	Health  handler.HealthChecker
}

func Setup(cfg *config.Config, services Services) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(gin.Recovery())
	r.Use(middleware.RequestId())
	r.Use(middleware.AccessLog())
	r.Use(corsMiddleware(cfg.Auth.CallerHeader))
	r.Use(middleware.CallerIdentity(cfg.Auth.CallerHeader))

	// 健康检查与指标
	r.GET("/health", handler.NewHealthHandler(services.Health).Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limiter := middleware.NewRateLimiterFromConfig(cfg.RateLimit)

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 领取相关路由
		claimHandler := handler.NewClaimHandler(services.Claims)
		claims := v1.Group("/projects/:id/claims")
		{
			claims.POST("/refund-signature", middleware.RateLimit(limiter), claimHandler.RefundSignature)
			claims.POST("/reward-signature", middleware.RateLimit(limiter), claimHandler.RewardSignature)
			claims.POST("/refund-record", claimHandler.RefundRecord)
			claims.POST("/reward-record", claimHandler.RewardRecord)
		}

		// 出资相关路由
		fundingHandler := handler.NewFundingHandler(services.Funding)
		v1.POST("/projects/:id/fundings", fundingHandler.RecordFunding)

		// 用户相关路由
		v1.GET("/users/:user_id/claims", middleware.RequireSelfOrAdmin(cfg.Auth, "user_id"), claimHandler.GetUserClaims)

		// 管理员路由
		adminHandler := handler.NewAdminHandler(services.Reports)
		admin := v1.Group("/admin", middleware.RequireAdmin(cfg.Auth))
		{
			admin.POST("/reports/:id/approve", adminHandler.ApproveReport)
			admin.POST("/builds/:id/approve", adminHandler.ApproveBuild)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware(callerHeader string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, "+middleware.RequestIdHeader+", "+callerHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
