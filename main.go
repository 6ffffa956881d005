package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"clan-review-system/handlers"
	"clan-review-system/middleware"
	"clan-review-system/models"
	"clan-review-system/services"
	"clan-review-system/utils"
	"clan-review-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 32 * 1024 * 1024, // screenshots top out well below this
	})

	// 🔐 GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-User-ID, X-Clan-Roles, X-Service-Token",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Clan{},
		&models.GameAccount{},
		&models.CorrectionRule{},
		&models.CalendarEvent{},
		&models.Submission{},
		&models.StagedChestEntry{},
		&models.StagedMemberEntry{},
		&models.StagedEventEntry{},
		&models.ChestEntry{},
		&models.MemberSnapshot{},
		&models.EventResult{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	reviewService := services.NewReviewService(db)

	// --- CONFIGURE profile-service details for the roster sync worker ---
	profileServiceURL := os.Getenv("PROFILE_SYNC_URL")
	if profileServiceURL == "" {
		log.Fatal("PROFILE_SYNC_URL environment variable not set")
	}
	serviceToken := os.Getenv("CLAN_SERVICE_TOKEN")
	if serviceToken == "" {
		log.Fatal("CLAN_SERVICE_TOKEN environment variable not set")
	}
	// --- END CONFIG ---

	rosterWorker := workers.NewRosterSyncWorker(db, profileServiceURL, "/api/v1/public/rosters", serviceToken)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rosterWorker.Start(ctx)
	reviewService.StartRematchScheduler()

	handlers.SetupReviewRoutes(app, reviewService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Roster Sync Worker running")
	log.Println("✅ Rematch scheduler running (every 15m)")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
