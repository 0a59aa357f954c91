package endpoint

import (
	"fmt"
	"net/http"

	_ "github.com/ariebrainware/dentplanner-api/docs"
	"github.com/ariebrainware/dentplanner-api/middleware"
	"github.com/ariebrainware/dentplanner-api/model"
	"github.com/ariebrainware/dentplanner-api/util"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// SetupRouter builds the HTTP engine with every /api route.
//
// @title                       DentPlanner API
// @version                     1.0
// @description                 Scheduling backend for dental clinics.
// @BasePath                    /api
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func SetupRouter(db *gorm.DB, services *middleware.Services) *gin.Engine {
	if err := util.RegisterValidators(); err != nil {
		util.Logger().Error().Err(err).Msg("failed to register validators")
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Recovery())

	var origins []string
	rl := middleware.RateLimitConfig{}
	uploads := "uploads"
	appName := "DentPlanner"
	if services != nil {
		rl.Redis = services.Redis
		if cfg := services.Config; cfg != nil {
			origins = cfg.CORSOrigins
			rl.Limit = cfg.LoginRateLimit
			rl.Window = cfg.LoginRateWindow
			if cfg.UploadDir != "" {
				uploads = cfg.UploadDir
			}
			if cfg.AppName != "" {
				appName = cfg.AppName
			}
		}
	}
	router.Use(middleware.CORSMiddleware(origins))
	router.Use(middleware.DatabaseMiddleware(db))
	router.Use(middleware.ServicesMiddleware(services))
	router.Use(middleware.EndpointCallLogger())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Welcome to %s!", appName)})
	})
	router.GET("/api-docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api")
	api.Static("/uploads", uploads)

	auth := api.Group("/auth")
	{
		limited := auth.Group("", middleware.RateLimiter(rl))
		limited.POST("/login", Login)
		limited.POST("/reset-password", ResetPassword)

		authed := auth.Group("", middleware.ValidateLoginToken())
		authed.POST("/logout", Logout)
		authed.GET("/validate", ValidateToken)
		authed.POST("/change-password/:id", ChangePassword)
	}

	// Links in reminder emails and the WhatsApp webhook carry no token.
	api.GET("/appointments/confirm/:id", ConfirmAppointment)
	api.GET("/appointments/cancel/:id", CancelAppointment)
	api.GET("/appointments/reschedule/:id", RescheduleAppointment)
	api.GET("/whatsapp/webhook", VerifyWhatsAppWebhook)
	api.POST("/whatsapp/webhook", ReceiveWhatsAppWebhook)
	api.POST("/support", CreateSupportRequest)

	protected := api.Group("", middleware.ValidateLoginToken())
	admin := middleware.RequireRole(model.RoleAdmin)

	users := protected.Group("/users")
	{
		users.GET("", ListUsers)
		users.GET("/:id", GetUser)
		users.POST("", admin, CreateUser)
		users.PUT("/:id", admin, UpdateUser)
		users.PATCH("/:id", admin, PatchUser)
		users.DELETE("/:id", admin, DeleteUser)
	}

	roles := protected.Group("/roles", admin)
	{
		roles.GET("", ListRoles)
		roles.GET("/:id", GetRole)
		roles.POST("", CreateRole)
		roles.PUT("/:id", UpdateRole)
		roles.DELETE("/:id", DeleteRole)
	}

	patients := protected.Group("/patients")
	{
		patients.GET("", ListPatients)
		patients.GET("/dentist/:dentist_id", ListPatientsByDentist)
		patients.GET("/:id", GetPatient)
		patients.POST("", CreatePatient)
		patients.PUT("/:id", UpdatePatient)
		patients.PATCH("/:id", PatchPatient)
		patients.DELETE("/:id", DeletePatient)
	}

	appointments := protected.Group("/appointments")
	{
		appointments.GET("", ListAppointments)
		appointments.GET("/dentist/:dentist_id", ListAppointmentsByDentist)
		appointments.GET("/patient/:patient_id", ListAppointmentsByPatient)
		appointments.GET("/patient/:patient_id/confirmed", ListConfirmedVisits)
		appointments.GET("/:id", GetAppointment)
		appointments.POST("", CreateAppointment)
		appointments.PUT("/:id", UpdateAppointment)
		appointments.PATCH("/:id", PatchAppointment)
		appointments.DELETE("/:id", DeleteAppointment)
	}

	reasons := protected.Group("/reasons")
	{
		reasons.GET("", ListReasons)
		reasons.GET("/:id", GetReason)
		reasons.POST("", CreateReason)
		reasons.PUT("/:id", UpdateReason)
		reasons.DELETE("/:id", DeleteReason)
	}

	odontograms := protected.Group("/odontograms")
	{
		odontograms.GET("", ListOdontograms)
		odontograms.GET("/patient/:patient_id", ListPatientOdontograms)
		odontograms.GET("/:id", GetOdontogram)
		odontograms.POST("", CreateOdontogram)
		odontograms.PUT("/:id", UpdateOdontogram)
		odontograms.DELETE("/:id", DeleteOdontogram)
	}

	teeth := protected.Group("/teeth")
	{
		teeth.GET("", ListTeeth)
		teeth.GET("/:id", GetTooth)
		teeth.POST("", CreateTooth)
		teeth.PUT("/:id", UpdateTooth)
		teeth.PATCH("/:id", PatchTooth)
		teeth.DELETE("/:id", DeleteTooth)
	}

	history := protected.Group("/medical-history")
	{
		history.GET("", ListMedicalHistories)
		history.GET("/patient/:patient_id", ListPatientMedicalHistories)
		history.GET("/:id", GetMedicalHistory)
		history.POST("", CreateMedicalHistory)
		history.PUT("/:id", UpdateMedicalHistory)
		history.DELETE("/:id", DeleteMedicalHistory)
	}

	clinic := protected.Group("/clinic-info")
	{
		clinic.GET("", ListClinicInfo)
		clinic.GET("/:id", GetClinicInfo)
		clinic.POST("", admin, CreateClinicInfo)
		clinic.PUT("/:id", admin, UpdateClinicInfo)
		clinic.PATCH("/:id", admin, PatchClinicInfo)
		clinic.DELETE("/:id", admin, DeleteClinicInfo)
	}

	reminders := protected.Group("/reminders")
	{
		reminders.GET("", ListReminders)
		reminders.GET("/:id", GetReminder)
		reminders.POST("", CreateReminder)
		reminders.PUT("/:id", UpdateReminder)
		reminders.DELETE("/:id", DeleteReminder)
	}

	configs := protected.Group("/reminder-configurations")
	{
		configs.GET("", ListReminderConfigurations)
		configs.GET("/:id", GetReminderConfiguration)
		configs.POST("", CreateReminderConfiguration)
		configs.PUT("/:id", UpdateReminderConfiguration)
		configs.DELETE("/:id", DeleteReminderConfiguration)
	}

	protected.GET("/support", ListSupportRequests)
	protected.GET("/support/:id", GetSupportRequest)
	protected.POST("/whatsapp/send", SendWhatsAppReminder)

	return router
}
