package app

import (
	"sat_practice_backend/docs"
	"sat_practice_backend/internal/config"
	"sat_practice_backend/internal/middleware"
	"sat_practice_backend/internal/model"
	"sat_practice_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, s *services, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	router.Use(middleware.ConfigMiddleware(cfg))

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
	}

	// 2. 需要登录的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware())
	{
		a.registerStudentRoutes(authGroup, c)
	}

	// 3. 管理员相关接口
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.RoleMiddleware(s.sessions, model.Admin))
	{
		a.registerAdminRoutes(admin, c)
	}
}

func (a *App) registerStudentRoutes(group *gin.RouterGroup, c *controllers) {
	mistakes := group.Group("/mistakes")
	{
		mistakes.GET("", c.mistake.ListMistakes)
		mistakes.GET("/summary", c.mistake.GetSummary)
		mistakes.POST("/submissions", c.mistake.RecordSubmission)
		mistakes.PATCH("/:questionId", c.mistake.ReviewMistake)
	}

	practice := group.Group("/practice-sessions")
	{
		practice.POST("", c.practice.CreateSession)
		practice.POST("/from-view", c.practice.CreateSessionFromView)
		practice.GET("/:attemptId", c.practice.GetSession)
		practice.POST("/:attemptId/consume", c.practice.ConsumeSession)
	}
}

func (a *App) registerAdminRoutes(group *gin.RouterGroup, c *controllers) {
	remedial := group.Group("/remedial")
	{
		remedial.GET("/students", c.assignment.ListStudents)
		remedial.POST("/draft", c.assignment.StartDraft)
		remedial.GET("/draft", c.assignment.GetDraft)
		remedial.DELETE("/draft", c.assignment.DiscardDraft)
		remedial.POST("/draft/students", c.assignment.SelectStudents)
		remedial.GET("/draft/pool", c.assignment.GetPool)
		remedial.POST("/draft/back", c.assignment.Back)
		remedial.POST("/draft/finalize", c.assignment.Finalize)
	}
}
