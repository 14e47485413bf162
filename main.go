package main

import (
	"fmt"
	"log"

	"lunchdesk-backend/config"
	"lunchdesk-backend/controllers"
	"lunchdesk-backend/routes"
	"lunchdesk-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/twilio/twilio-go"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	settings, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if err := config.ConnectDB(settings); err != nil {
		log.Fatal(err)
	}
	if err := config.Migrate(config.DB); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	var sender services.MessageCreator
	if settings.TwilioEnabled() {
		client := twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: settings.TwilioAccountSID,
			Password: settings.TwilioAuthToken,
		})
		sender = client.Api
	} else {
		log.Println("Twilio not configured, notifications will only be logged")
	}
	notifier := services.NewNotificationService(config.DB, sender,
		settings.TwilioPhoneNumber, settings.TwilioWhatsAppNumber, settings.NotifyTo)

	contacts := services.NewContactDirectory(config.DB)
	booking := services.NewBookingService(
		config.DB,
		services.NewValidator(settings.Location, settings.MaxUnitsPerDay),
		services.NewDeductionEngine(config.DB, settings.DeductRetries),
		contacts,
		services.NewPriceBook(config.DB),
		notifier,
		settings.BatchTokenTTL,
	)

	renewals := services.NewRenewalService(config.DB, notifier, settings.RenewalLimit)
	if err := renewals.StartScheduler(settings.RenewalSchedule); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer renewals.Stop()

	r := routes.SetupRouter(settings, routes.Handlers{
		Accounts: &controllers.AccountController{
			DB:       config.DB,
			Lookup:   services.NewBalanceLookup(config.DB),
			Contacts: contacts,
		},
		Reservations: &controllers.ReservationController{Booking: booking},
	})
	printRoutes(r)
	if err := r.Run(":" + settings.Port); err != nil {
		log.Fatal(err)
	}
}

func printRoutes(r *gin.Engine) {
	routes := r.Routes()
	for _, route := range routes {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
