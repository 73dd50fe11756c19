package app

import (
	"eduflow_backend/docs"
	"eduflow_backend/internal/config"
	"eduflow_backend/internal/middleware"
	"eduflow_backend/internal/model"
	"eduflow_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	a.registerPublicRoutes(router, c)

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		a.registerStudentRoutes(authGroup, c)
		a.registerInstructorRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/auth/register", c.auth.Register)
		public.POST("/auth/login", c.auth.Login)

		// 课程目录对游客开放
		public.GET("/courses", c.course.List)
		public.GET("/courses/featured", c.course.ListFeatured)
		public.GET("/courses/:id", c.course.GetDetail)
		public.GET("/courses/:id/quizzes", c.course.ListQuizzes)
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.auth.GetProfile)
	rg.PUT("/profile", c.auth.UpdateProfile)
	rg.GET("/dashboard", c.dashboard.StudentDashboard)

	// 报名与学习进度
	rg.POST("/courses/:id/enroll", c.enrollment.Enroll)
	rg.GET("/enrollments", c.enrollment.ListMine)
	rg.GET("/courses/:id/enrollment", c.enrollment.Get)
	rg.POST("/courses/:id/lessons/:lessonId/complete", c.enrollment.CompleteLesson)

	// 测验
	rg.GET("/quizzes/:id", c.quiz.Get)
	rg.POST("/quizzes/:id/submit", c.quiz.Submit)
	rg.GET("/quizzes/:id/attempts", c.quiz.ListAttempts)

	// 证书
	rg.GET("/certificates", c.enrollment.ListCertificates)
	rg.GET("/courses/:id/certificate", c.enrollment.GetCertificate)
	rg.POST("/courses/:id/certificate/reissue", c.enrollment.ReissueCertificate)
}

func (a *App) registerInstructorRoutes(rg *gin.RouterGroup, c *controllers) {
	instructor := rg.Group("/instructor")
	instructor.Use(middleware.RoleMiddleware(model.Instructor))
	{
		instructor.GET("/dashboard", c.dashboard.InstructorDashboard)

		instructor.GET("/courses", c.course.ListMine)
		instructor.POST("/courses", c.course.Create)
		instructor.PUT("/courses/:id", c.course.Update)
		instructor.DELETE("/courses/:id", c.course.Delete)

		instructor.POST("/courses/:id/lessons", c.course.CreateLesson)
		instructor.PUT("/lessons/:lessonId", c.course.UpdateLesson)
		instructor.DELETE("/lessons/:lessonId", c.course.DeleteLesson)

		instructor.POST("/courses/:id/quizzes", c.quiz.CreateQuiz)
		instructor.DELETE("/quizzes/:quizId", c.quiz.DeleteQuiz)
		instructor.POST("/quizzes/:quizId/questions", c.quiz.AddQuestion)
		instructor.PUT("/questions/:questionId", c.quiz.UpdateQuestion)
		instructor.DELETE("/questions/:questionId", c.quiz.DeleteQuestion)
	}
}
