package routes

import (
	"lunchdesk-backend/config"
	"lunchdesk-backend/controllers"
	"lunchdesk-backend/models"
	"lunchdesk-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups the controllers that depend on services.
type Handlers struct {
	Accounts     *controllers.AccountController
	Reservations *controllers.ReservationController
}

func SetupRouter(settings *config.Settings, h Handlers) *gin.Engine {
	r := gin.Default()

	allowed := make(map[string]bool, len(settings.CORSOrigins))
	for _, o := range settings.CORSOrigins {
		allowed[o] = true
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     settings.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) bool {
			return allowed[origin]
		},
	}))

	r.Use(config.PerformanceLogger())

	auth := r.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)

		auth.Use(utils.AuthMiddleware())
		auth.GET("/me", controllers.Me)
	}

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware())
	{
		// Lunch card routes
		accounts := api.Group("/accounts")
		{
			accounts.POST("", h.Accounts.CreateAccount)
			accounts.GET("", h.Accounts.SearchAccounts)
			accounts.GET("/:id", h.Accounts.GetAccount)
		}

		// Reservation routes
		reservations := api.Group("/reservations")
		{
			reservations.POST("", h.Reservations.CreateReservation)
			reservations.POST("/preview", h.Reservations.PreviewReservation)
			reservations.POST("/:id/status", h.Reservations.UpdateReservationStatus)
		}

		batches := api.Group("/batches")
		{
			batches.POST("", h.Reservations.OpenBatch)
			batches.POST("/execute", h.Reservations.ExecuteBatch)
		}

		// Manager only
		prices := api.Group("/prices", utils.RequireRole(models.RoleManager))
		{
			prices.POST("", controllers.CreatePrice)
			prices.GET("", controllers.GetPrices)
			prices.PUT("/:id", controllers.UpdatePrice)
			prices.DELETE("/:id", controllers.DeletePrice)
		}

		templates := api.Group("/templates", utils.RequireRole(models.RoleManager))
		{
			templates.POST("", controllers.CreateTemplate)
			templates.GET("", controllers.GetTemplates)
			templates.PUT("/:id", controllers.UpdateTemplate)
			templates.DELETE("/:id", controllers.DeleteTemplate)
		}

		//Reports routes
		reportController := controllers.ReportController{}
		api.GET("/reports", reportController.GetSalesReport)

		// Dashboard routes
		api.GET("/dashboard", controllers.GetDashboardOverview)
	}

	return r
}
