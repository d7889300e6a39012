package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clinic-scheduling-server/internal/config"
	"clinic-scheduling-server/internal/handlers"
	"clinic-scheduling-server/internal/middleware"
	"clinic-scheduling-server/internal/models"
	"clinic-scheduling-server/internal/scheduling"
)

// SetupRoutes registers the API on router.
func SetupRoutes(router *gin.Engine, svc *scheduling.Service, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(svc, cfg)
	doctorHandler := handlers.NewDoctorHandler(svc)
	appointmentHandler := handlers.NewAppointmentHandler(svc)
	historyHandler := handlers.NewHistoryHandler(svc)

	staffOnly := middleware.RoleAuthMiddleware(models.RoleOrganization)

	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}
	}

	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg))
	{
		private.POST("/auth/logout", authHandler.Logout)
		private.GET("/auth/profile", authHandler.GetProfile)
		private.PUT("/users/:id/profile", authHandler.UpdateProfile)

		doctorRoutes := private.Group("/doctors")
		{
			doctorRoutes.GET("", doctorHandler.GetDoctors)
			doctorRoutes.GET("/:id/appointments", appointmentHandler.GetDoctorAppointments)
			doctorRoutes.POST("", staffOnly, doctorHandler.CreateDoctor)
			doctorRoutes.PUT("/:id", staffOnly, doctorHandler.UpdateDoctor)
			doctorRoutes.DELETE("/:id", staffOnly, doctorHandler.DeleteDoctor)
		}

		appointmentRoutes := private.Group("/appointments")
		{
			appointmentRoutes.POST("", middleware.RoleAuthMiddleware(models.RoleOrganization, models.RolePatient), appointmentHandler.CreateAppointment)
			appointmentRoutes.GET("/:id", appointmentHandler.GetAppointmentByID)
			appointmentRoutes.POST("/:id/complete", middleware.RoleAuthMiddleware(models.RoleDoctor), appointmentHandler.CompleteAppointment)
			appointmentRoutes.POST("/:id/cancel", appointmentHandler.CancelAppointment)
		}

		private.GET("/organizations/:id/appointments", staffOnly, appointmentHandler.GetOrganizationAppointments)
		private.GET("/patients/:id/appointments", appointmentHandler.GetPatientAppointments)
		private.GET("/patient-history", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleOrganization), historyHandler.SearchPatientHistory)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
