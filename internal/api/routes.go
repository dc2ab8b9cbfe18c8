package api

import (
	"github.com/gin-gonic/gin"

	"github.com/phmhse/csmstrack/internal/metrics"
	"github.com/phmhse/csmstrack/internal/models"
)

// registerRoutes sets up every API route on the gin router.
func (s *server) registerRoutes(router *gin.Engine) {
	router.GET("/healthz", s.handleHealth)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("/api")

	projects := api.Group("/projects")
	projects.GET("", s.handleProjectList)
	projects.POST("", s.handleProjectCreate)
	projects.GET("/:id", s.handleProjectDetail)
	projects.PUT("/:id", updateRecord[models.Project](s))
	projects.DELETE("/:id", s.handleProjectDelete)
	projects.GET("/:id/tasks", s.handleProjectTasks)
	projects.GET("/:id/docs", s.handleDocList)
	projects.POST("/:id/docs", s.handleDocUpload)

	tasks := api.Group("/tasks")
	tasks.GET("", s.handleTaskList)
	tasks.GET("/:id", s.handleTaskGet)
	tasks.PUT("/:id", updateRecord[models.Task](s))
	tasks.PUT("/:id/score", s.handleTaskScore)
	tasks.POST("/:id/attachments", s.handleTaskAttachment)

	schedules := api.Group("/schedules")
	schedules.GET("", s.handleScheduleList)
	schedules.POST("", createRecord[models.Schedule](s))
	schedules.GET("/:id", s.handleScheduleGet)
	schedules.PUT("/:id", updateRecord[models.Schedule](s))
	schedules.DELETE("/:id", deleteRecord[models.Schedule](s))
	schedules.POST("/:id/done", s.handleScheduleDone)

	comments := api.Group("/comments")
	comments.GET("", s.handleCommentList)
	comments.POST("", createRecord[models.Comment](s))
	comments.GET("/:id", getRecord[models.Comment](s))
	comments.PUT("/:id", updateRecord[models.Comment](s))
	comments.DELETE("/:id", deleteRecord[models.Comment](s))
	comments.POST("/:id/like", s.handleCommentLike)
	comments.POST("/:id/replies", s.handleCommentReply)

	pb := api.Group("/csms-pb")
	pb.GET("", s.handlePBList)
	pb.POST("", createRecord[models.CsmsPB](s))
	pb.GET("/statistics", s.handlePBStatistics)
	pb.GET("/:id", getRecord[models.CsmsPB](s))
	pb.PUT("/:id", updateRecord[models.CsmsPB](s))
	pb.DELETE("/:id", deleteRecord[models.CsmsPB](s))
	pb.POST("/:id/attachments", s.handlePBAttachment)

	api.DELETE("/docs/:id", s.handleDocDelete)

	api.GET("/reports", s.handleReport)
	api.GET("/reminders/preview", s.handleReminderPreview)
	api.POST("/reminders/run", s.handleReminderRun)
	api.GET("/statistics", s.handleStatistics)
	api.GET("/logs", s.handleLogs)
}
