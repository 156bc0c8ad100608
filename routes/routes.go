package routes

import (
	"RemindlyGo/config"
	"RemindlyGo/controllers"
	"RemindlyGo/middleware"
	"RemindlyGo/services"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, mailer services.Mailer) {
	store := services.NewGormStore(config.DB)
	cooldowns := services.NewRedisCooldownStore(config.RedisClient)

	scheduler := services.NewReminderScheduler(store)
	guard := services.NewRescheduleGuard(store, store, scheduler, mailer)
	notifier := services.NewCompletionNotifier(store, mailer)
	dispatcher := services.NewActionDispatcher(store, store, guard, notifier, mailer)
	sweeper := services.NewSweeper(store, store, cooldowns, mailer)

	taskController := controllers.NewTaskController(store, store, scheduler, guard, notifier)
	emailController := controllers.NewEmailController(store, dispatcher)
	sweepController := controllers.NewSweepController(sweeper)
	authController := controllers.AuthController{}

	// 需要认证的路由
	private := r.Group("/api/v1")
	private.Use(middleware.AuthMiddleware()) // 应用认证中间件
	{
		private.GET("/tasks", taskController.ListTasks)
		private.POST("/tasks", taskController.CreateTask)
		private.PATCH("/tasks/:id/due-date", taskController.UpdateDueDate)
		private.POST("/tasks/:id/completion", taskController.ToggleCompletion)
		private.GET("/tasks/:id/actions", taskController.GetTaskActions)
	}

	// 内部路由组（仅限服务器内部调用）
	internal := r.Group("/internal")
	internal.Use(middleware.InternalAuthMiddleware())
	{
		internal.POST("/email/inbound", emailController.HandleInbound)
		internal.POST("/sweep", sweepController.TriggerSweep)
		internal.POST("/auth/token", authController.IssueToken)
	}

	// 测试路由
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
}
