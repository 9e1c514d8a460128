package router

import (
	"fmt"
	"strings"

	"github.com/buildhub-next/internal/cache"
	"github.com/buildhub-next/internal/config"
	"github.com/buildhub-next/internal/constants"
	apihandlers "github.com/buildhub-next/internal/http/handlers/api"
	"github.com/buildhub-next/internal/logger"
	"github.com/buildhub-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	handler := apihandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	redisClient := cache.Client()
	orderRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:order", redisPrefix),
		WindowSeconds: cfg.Security.OrderRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.OrderRateLimit.MaxRequests,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组（所有业务接口都要求操作者身份）
	apiV1 := r.Group("/api/v1")
	apiV1.Use(ActorMiddleware(c.ProfileRepo))
	{
		// 建材目录
		apiV1.GET("/materials", handler.ListMaterials)
		apiV1.GET("/materials/:id", handler.GetMaterial)
		apiV1.POST("/materials", handler.CreateMaterial)
		apiV1.PUT("/materials/:id", handler.UpdateMaterial)
		apiV1.POST("/materials/:id/restock", handler.RestockMaterial)
		apiV1.POST("/materials/:id/deactivate", handler.DeactivateMaterial)
		apiV1.DELETE("/materials/:id", handler.DeleteMaterial)

		// 订单
		apiV1.POST("/orders", RateLimitMiddleware(redisClient, orderRule, KeyByActor), handler.PlaceOrder)
		apiV1.GET("/orders", handler.ListOrders)
		apiV1.GET("/orders/:id", handler.GetOrder)
		apiV1.POST("/orders/:id/confirm", handler.ConfirmOrder)
		apiV1.POST("/orders/:id/cancel", handler.CancelOrder)

		// 配送
		apiV1.GET("/deliveries", handler.ListDeliveries)
		apiV1.GET("/deliveries/:id", handler.GetDelivery)
		apiV1.POST("/deliveries/:id/dispatch", handler.DispatchDelivery)
		apiV1.POST("/deliveries/:id/deliver", handler.CompleteDelivery)
		apiV1.POST("/deliveries/:id/notes", handler.AppendDeliveryNote)

		// 档案
		apiV1.POST("/profiles", handler.CreateProfile)
		apiV1.GET("/profiles", handler.ListProfiles)
		apiV1.GET("/profiles/:id", handler.GetProfile)
		apiV1.PUT("/profiles/:id", handler.UpdateProfile)
		apiV1.POST("/profiles/:id/activate", handler.ActivateProfile)
		apiV1.POST("/profiles/:id/deactivate", handler.DeactivateProfile)
		apiV1.POST("/suppliers/:id/verify", handler.VerifySupplier)

		// 站内通知
		apiV1.GET("/notifications", handler.ListNotifications)
		apiV1.POST("/notifications/:id/read", handler.MarkNotificationRead)
		apiV1.GET("/notifications/email-failures", handler.ListEmailFailures)

		// 报表
		apiV1.GET("/reports/engineer", handler.EngineerReport)
		apiV1.GET("/reports/supplier", handler.SupplierReport)
		apiV1.GET("/reports/agent", handler.AgentReport)
	}

	return r
}
