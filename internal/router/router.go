package router

import (
	"fmt"
	"strings"

	"github.com/loyalty-next/internal/cache"
	"github.com/loyalty-next/internal/config"
	publichandlers "github.com/loyalty-next/internal/http/handlers/public"
	staffhandlers "github.com/loyalty-next/internal/http/handlers/staff"
	"github.com/loyalty-next/internal/logger"
	"github.com/loyalty-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按公开/员工分组）
	publicHandler := publichandlers.New(c)
	staffHandler := staffhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "ly"
	}
	redisClient := cache.Client()
	redeemRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:redeem", redisPrefix),
		WindowSeconds: cfg.Security.APIRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.APIRateLimit.MaxRequests,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/offers", publicHandler.ListOffers)
			public.GET("/offers/:id", publicHandler.GetOffer)
		}

		// 会员认证
		apiV1.POST("/auth/register", publicHandler.RegisterMember)

		// 支付网关回调（共享密钥头鉴权）
		apiV1.POST("/payments/confirmations", publicHandler.PaymentConfirmation)

		// 会员接口（需鉴权）
		member := apiV1.Group("/member")
		member.Use(MemberJWTAuthMiddleware(cfg.MemberJWT.SecretKey, c.MemberRepo))
		{
			member.GET("/me", publicHandler.GetMemberProfile)
			member.GET("/vouchers", publicHandler.ListMemberVouchers)
			member.POST("/vouchers/purchase", publicHandler.PurchaseWithPoints)
			member.GET("/points", publicHandler.ListMemberPoints)
		}

		// 员工接口（逐次 PIN 认证）
		staff := apiV1.Group("/staff")
		{
			staff.POST("/redemptions", RateLimitMiddleware(redisClient, redeemRule, KeyByIPAndJSONField("employee_id")), staffHandler.Redeem)
			staff.POST("/redemptions/validate", staffHandler.Validate)
			staff.GET("/redemption-logs", staffHandler.ListRedemptionLogs)
			staff.POST("/offers", staffHandler.CreateOffer)
		}
	}

	return r
}
