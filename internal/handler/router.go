package handler

import (
	"quill-ai-go/internal/middleware"
	"quill-ai-go/internal/repository"
	"quill-ai-go/internal/service"
	"quill-ai-go/pkg/token"

	"github.com/gin-gonic/gin"
)

// Services 汇总注册路由所需的依赖。Blacklist 可以为 nil。
type Services struct {
	JWT       *token.JWTManager
	Blacklist repository.TokenBlacklistRepository
	User      service.UserService
	AI        service.AIService
	Blog      service.BlogService
	Usage     service.UsageService
}

// NewRouter 创建 gin 引擎并注册全部路由。
func NewRouter(s Services) *gin.Engine {
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(), gin.Recovery())
	Register(r, s)
	return r
}

// Register 把路由挂到已有的引擎上。
func Register(r *gin.Engine, s Services) {
	authRequired := middleware.AuthMiddleware(s.JWT, s.User, s.Blacklist)

	userHandler := NewUserHandler(s.User)
	authHandler := NewAuthHandler(s.User)
	blogHandler := NewBlogHandler(s.Blog)
	usageHandler := NewUsageHandler(s.Usage, s.AI)
	adminHandler := NewAdminHandler(s.Usage)

	apiV1 := r.Group("/api/v1")
	{
		apiV1.POST("/auth/refreshToken", authHandler.RefreshToken)

		users := apiV1.Group("/users")
		{
			// 无需认证的路由
			users.POST("/register", userHandler.Register)
			users.POST("/login", userHandler.Login)

			authed := users.Group("/")
			authed.Use(authRequired)
			{
				authed.GET("/me", userHandler.GetProfile)
				authed.POST("/logout", userHandler.Logout)
			}
		}
	}

	ai := r.Group("/ai")
	ai.Use(authRequired)
	{
		blog := ai.Group("/blog")
		{
			blog.POST("/generate-draft/", blogHandler.GenerateDraft)
			blog.POST("/improve-content/", blogHandler.ImproveContent)
			blog.POST("/generate-title/", blogHandler.GenerateTitle)
			blog.POST("/seo-optimize/", blogHandler.OptimizeSEO)
			blog.POST("/analyze-tone/", blogHandler.AnalyzeTone)
			blog.POST("/generate-tags/", blogHandler.GenerateTags)
		}

		ai.GET("/usage/", usageHandler.GetUsage)
		ai.GET("/usage/search", usageHandler.SearchHistory)
		ai.GET("/usage/export", usageHandler.Export)
		ai.GET("/models/", usageHandler.ListModels)

		// 管理员路由，需要同时通过认证和管理员授权
		admin := ai.Group("/")
		admin.Use(middleware.AdminAuthMiddleware())
		{
			admin.GET("/analytics/", adminHandler.GetAnalytics)
			admin.PUT("/admin/quotas/:userId", adminHandler.UpdateQuota)
		}
	}
}
