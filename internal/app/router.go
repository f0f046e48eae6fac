package app

import (
	"learning_portal/docs"
	"learning_portal/internal/middleware"
	"learning_portal/internal/model"
	"learning_portal/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, s *services) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要设备登录的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(s.auth))
	{
		// 学生/通用 授权接口
		a.registerStudentRoutes(authGroup, c)

		// 教师相关接口
		a.registerTeacherRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/login", c.auth.Login)
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.POST("/logout", c.auth.Logout)
	rg.GET("/profile", c.auth.GetProfile)
	rg.GET("/dashboard", c.dashboard.GetDashboard)

	// 课程
	rg.GET("/courses", c.course.ListCourses)
	rg.GET("/courses/my", c.course.MyCourses)
	rg.GET("/courses/:id", c.course.GetCourse)
	rg.POST("/courses/:id/enroll", c.course.Enroll)
	rg.GET("/courses/:id/syllabus", c.course.Syllabus)

	// 视频播放与进度
	rg.POST("/playback", c.playback.StartPlayback)
	rg.POST("/playback/:sid/report", c.playback.Report)
	rg.POST("/playback/:sid/play", c.playback.Play)
	rg.POST("/playback/:sid/pause", c.playback.Pause)
	rg.POST("/playback/:sid/end", c.playback.End)
	rg.DELETE("/playback/:sid", c.playback.StopPlayback)

	// 考试
	rg.GET("/exams", c.exam.ListExams)
	rg.POST("/exams/:id/attempts", c.exam.StartAttempt)
	rg.GET("/attempts/:id", c.exam.GetAttempt)
	rg.PUT("/attempts/:id/answers", c.exam.SaveAnswer)
	rg.POST("/attempts/:id/submit", c.exam.SubmitAttempt)

	// 自定义练习
	rg.GET("/practice-tests/defaults", c.practice.Defaults)
	rg.POST("/practice-tests/validate", c.practice.Validate)
	rg.POST("/practice-tests/difficulty", c.practice.Difficulty)
	rg.POST("/practice-tests", c.practice.Create)

	// 作业
	rg.GET("/homework", c.homework.ListHomework)
	rg.GET("/homework/:id", c.homework.GetHomework)
	rg.POST("/homework/:id/submit", c.homework.SubmitHomework)

	// 答疑
	rg.GET("/doubts", c.doubt.ListDoubts)
	rg.POST("/doubts", c.doubt.CreateDoubt)
	rg.POST("/doubts/:id/open", c.doubt.OpenDoubt)
	rg.GET("/doubts/:id/messages", c.doubt.GetMessages)
	rg.POST("/doubts/:id/messages", c.doubt.SendMessage)
	rg.POST("/doubts/:id/close", c.doubt.CloseDoubt)
	rg.PATCH("/doubts/:id/status", c.doubt.UpdateStatus)
	rg.GET("/doubts/:id/ws", c.doubt.HandleWS)

	// 考勤与请假
	rg.GET("/attendance", c.attendance.GetAttendance)
	rg.GET("/leaves", c.attendance.ListLeaves)
	rg.POST("/leaves", c.attendance.ApplyLeave)
	rg.DELETE("/leaves/:id", c.attendance.CancelLeave)

	// 通知
	rg.GET("/notifications", c.notification.ListNotifications)
	rg.GET("/notifications/settings", c.notification.GetSettings)
	rg.PATCH("/notifications/settings", c.notification.UpdateSettings)
	rg.POST("/notifications/read-all", c.notification.MarkAllRead)
	rg.PATCH("/notifications/:id/read", c.notification.MarkRead)
	rg.DELETE("/notifications/:id", c.notification.DeleteNotification)
}

func (a *App) registerTeacherRoutes(rg *gin.RouterGroup, c *controllers) {
	teacher := rg.Group("")
	teacher.Use(middleware.RoleMiddleware(model.Teacher))
	{
		// 作业管理
		teacher.POST("/homework", c.homework.CreateHomework)
		teacher.PUT("/homework/:id", c.homework.UpdateHomework)
		teacher.POST("/homework/:id/publish", c.homework.PublishHomework)
		teacher.POST("/homework/:id/close", c.homework.CloseHomework)
		teacher.DELETE("/homework/:id", c.homework.DeleteHomework)
		teacher.GET("/homework/:id/submissions", c.homework.ListSubmissions)
		teacher.PUT("/homework/:id/submissions/:sid/grade", c.homework.GradeSubmission)

		// 点名与请假审批
		teacher.POST("/attendance", c.attendance.MarkAttendance)
		teacher.PATCH("/leaves/:id", c.attendance.ReviewLeave)
	}
}
