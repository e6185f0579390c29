package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sicet/backend/config"
	"sicet/backend/internal/api/handler"
	"sicet/backend/internal/api/middleware"
	"sicet/backend/pkg/jwt"
	"sicet/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证，登录接口带速率限制）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(rdb, 10, time.Minute), h.Auth.Login)
			auth.POST("/register", middleware.RateLimit(rdb, 5, time.Minute), h.Auth.Register)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 用户模块（仅管理员）
			users := authorized.Group("/users", middleware.RoleAuth("admin"))
			{
				users.GET("", h.User.List)
				users.GET("/:id", h.User.Get)
				users.PUT("/:id", h.User.Update)
				users.PUT("/:id/role", h.User.AssignRole)
				users.DELETE("/:id", h.User.Delete)
			}

			// 设备（检查点）模块
			devices := authorized.Group("/devices")
			{
				devices.GET("", h.Device.List)
				devices.GET("/:id", h.Device.Get)
				devices.POST("", middleware.RoleAuth("admin"), h.Device.Create)
				devices.PUT("/:id", middleware.RoleAuth("admin"), h.Device.Update)
				devices.DELETE("/:id", middleware.RoleAuth("admin"), h.Device.Delete)
			}

			// KPI（检查项）模块
			kpis := authorized.Group("/kpis")
			{
				kpis.GET("", h.Kpi.List)
				kpis.GET("/:id", h.Kpi.Get)
				kpis.POST("", middleware.RoleAuth("admin"), h.Kpi.Create)
				kpis.PUT("/:id", middleware.RoleAuth("admin"), h.Kpi.Update)
				kpis.DELETE("/:id", middleware.RoleAuth("admin"), h.Kpi.Delete)
			}

			// 检查清单模块
			todolists := authorized.Group("/todolists")
			{
				todolists.GET("", h.Todolist.List)
				todolists.GET("/:id", h.Todolist.Get)
				todolists.POST("/schedule", middleware.RoleAuth("admin"), h.Todolist.Schedule)
				todolists.POST("/:id/tasks/:taskId/complete", h.Todolist.CompleteTask)
			}

			// 告警模块
			alerts := authorized.Group("/alerts", middleware.RoleAuth("admin"))
			{
				alerts.GET("", h.Alert.List)
				alerts.GET("/:id", h.Alert.Get)
				alerts.POST("", h.Alert.Create)
				alerts.PUT("/:id", h.Alert.Update)
				alerts.DELETE("/:id", h.Alert.Delete)
				alerts.POST("/scan", h.Alert.TriggerScan)
			}

			// 矩阵视图与导出模块
			matrix := authorized.Group("/matrix")
			{
				matrix.GET("", h.Matrix.Get)
				matrix.GET("/export/xlsx", h.Matrix.ExportXLSX)
				matrix.GET("/export/csv", h.Matrix.ExportCSV)
			}
		}
	}

	return r
}
