package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dayflow/backend/internal/handler"
	"dayflow/backend/internal/middleware"
	"dayflow/backend/internal/service"
)

func New(
	authService *service.AuthService,
	authHandler *handler.AuthHandler,
	taskHandler *handler.TaskHandler,
	settingsHandler *handler.SettingsHandler,
	scheduleHandler *handler.ScheduleHandler,
	calendarHandler *handler.CalendarHandler,
	corsOrigins []string,
) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	tasks := api.Group("/tasks")
	tasks.Use(middleware.Auth(authService))
	tasks.POST("", taskHandler.Create)
	tasks.GET("", taskHandler.List)
	tasks.GET("/:id", taskHandler.Get)
	tasks.PUT("/:id", taskHandler.Update)
	tasks.POST("/:id/complete", taskHandler.Complete)
	tasks.DELETE("/:id", taskHandler.Delete)

	schedule := api.Group("/schedule")
	schedule.Use(middleware.Auth(authService))
	schedule.GET("/settings", settingsHandler.Get)
	schedule.PUT("/settings", settingsHandler.Update)
	schedule.POST("/run", scheduleHandler.Run)
	schedule.GET("/report", scheduleHandler.Report)

	calendar := api.Group("/calendar")
	calendar.Use(middleware.Auth(authService))
	calendar.POST("/events", calendarHandler.Create)
	calendar.GET("/events", calendarHandler.List)
	calendar.DELETE("/events/:id", calendarHandler.Delete)

	return engine
}
