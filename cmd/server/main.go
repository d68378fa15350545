package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/jackc/pgx/v5/stdlib"

	"booking-service/internal/api"
	"booking-service/internal/events"
	"booking-service/internal/repository"
	"booking-service/internal/service"
	"booking-service/internal/tracing"
	"booking-service/internal/video"
	_ "booking-service/migrations"
)

func main() {
	if err := godotenv.Load(".env.dev"); err != nil {
		fmt.Println("No .env.dev file found, reading from environment variables provided by Docker")
	}

	api.SetupGlobalHandler("booking-service")

	shutdownTracer, err := tracing.InitTracerProvider("booking-service")
	if err != nil {
		log.Fatalf("Failed to initialize OpenTelemetry: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		}
	}()

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		handleMigrations()
		return
	}

	db := connectDB()
	defer db.Close()

	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://localhost:4222"
	}
	eventPublisher, err := events.NewNatsPublisher(natsURL)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	log.Println("Successfully connected to NATS.")

	sessionRepo := repository.NewPostgresSessionRepository(db)
	provisioner := video.NewStaticProvisioner()
	bookingService := service.NewBookingService(sessionRepo, provisioner, eventPublisher)

	sessionHandler := api.NewSessionHandler(bookingService)

	app := fiber.New()
	app.Use(otelfiber.Middleware())
	app.Use(api.PrometheusMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": "booking-service"})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/v1")

	v1.Get("/creators/:id/schedule", sessionHandler.GetCreatorSchedule)

	sessionsRoutes := v1.Group("/sessions")
	sessionsRoutes.Use(api.AuthMiddleware())
	sessionsRoutes.Post("/", sessionHandler.BookSession)
	sessionsRoutes.Get("/", sessionHandler.ListMySessions)
	sessionsRoutes.Get("/upcoming", sessionHandler.ListUpcomingSessions)
	sessionsRoutes.Get("/:id", sessionHandler.GetSession)
	sessionsRoutes.Patch("/:id/status", sessionHandler.UpdateSessionStatus)
	sessionsRoutes.Post("/:id/cancel", sessionHandler.CancelSession)
	sessionsRoutes.Patch("/:id/notes", sessionHandler.AnnotateSession)

	// Scheduler-driven transitions, not end-user facing.
	sessionsRoutes.Post("/:id/start", api.InternalAuthMiddleware(), sessionHandler.StartSession)
	sessionsRoutes.Post("/:id/complete", api.InternalAuthMiddleware(), sessionHandler.CompleteSession)

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8002"
	}

	log.Printf("Listening booking-service on port %s", port)
	log.Fatal(app.Listen(":" + port))
}

func connectDB() *sqlx.DB {
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbName := os.Getenv("DB_NAME")

	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		dbUser, dbPassword, dbHost, dbPort, dbName,
	)

	db, err := sqlx.Connect("pgx", dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Successfully connected to the database.")
	return db
}

func handleMigrations() {
	fmt.Println("Running database migrations...")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbName := os.Getenv("DB_NAME")

	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		dbUser, dbPassword, dbHost, dbPort, dbName,
	)

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		log.Fatalf("failed to connect to database for migration: %v", err)
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("failed to set goose dialect: %v", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		log.Fatalf("goose: failed to run migrations: %v", err)
	}

	fmt.Println("Migrations applied successfully!")
}
