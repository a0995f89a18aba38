package main // Entry point package

import (
	"context" // Context for startup database calls
	"log"     // Logging library
	"time"    // Timeouts for startup calls

	"github.com/joho/godotenv"                      // Loads .env files into the environment
	"github.com/labstack/echo/v4"                   // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // Echo's built-in request middleware

	"github.com/iliyamo/harvest-reservation/internal/config"     // Internal config loader
	"github.com/iliyamo/harvest-reservation/internal/database"   // MySQL connection and schema
	"github.com/iliyamo/harvest-reservation/internal/handler"    // HTTP handlers
	"github.com/iliyamo/harvest-reservation/internal/middleware" // Rate limiting middleware
	"github.com/iliyamo/harvest-reservation/internal/queue"      // RabbitMQ publisher and consumer
	"github.com/iliyamo/harvest-reservation/internal/repository" // SQL repositories
	"github.com/iliyamo/harvest-reservation/internal/router"     // Route registration
	"github.com/iliyamo/harvest-reservation/internal/service"    // Booking workflow
)

func main() {
	// Load a .env file when present so local development does not need
	// exported variables.  Missing files are fine; containers set real env.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	// Open the MySQL pool and make sure the schema exists before serving.
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("schema: %v", err)
	}
	if cfg.SeedDemo {
		if err := database.SeedDemoData(ctx, db); err != nil {
			log.Fatalf("seed: %v", err)
		}
	}

	// Repositories over the shared pool.
	harvests := repository.NewHarvestRepo(db)
	reservations := repository.NewReservationRepo(db)

	// Booking workflow with the RabbitMQ publisher attached.  Events are
	// best-effort; a broker outage never fails a booking.
	svc := service.NewReservationService(db, harvests, reservations, queue.NewPublisher())

	harvestHandler := handler.NewHarvestHandler(harvests, svc.Availability())
	reservationHandler := handler.NewReservationHandler(svc)
	adminHandler := handler.NewAdminHandler(svc, harvests)

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Use(echomw.Logger())  // Request logging
	e.Use(echomw.Recover()) // Recover from handler panics

	// Redis backs both the token-bucket rate limiter and the public
	// catalog response cache.
	rdb := config.NewRedisClient()
	rlCfg := config.LoadRateLimitConfig()
	if rlCfg.Enabled {
		e.Use(middleware.NewTokenBucket(rlCfg, rdb))
	}
	cacheCfg := config.LoadCacheConfig()

	router.RegisterRoutes(e) // Health check
	router.RegisterPublic(e, harvestHandler, middleware.NewRedisCache(cacheCfg, rdb))
	router.RegisterReservations(e, reservationHandler, cfg.JWTSecret)
	router.RegisterAdmin(e, adminHandler, cfg.JWTSecret)

	// Consume reservation events into the rotating audit log.
	go queue.StartReservationConsumer()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
