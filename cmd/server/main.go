package main // Entry point package

import (
	"context" // context for the sweeper lifetime
	"log"     // Logging library
	"time"    // durations for reminder tuning

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/swahilipot/room-booking/internal/config"     // environment config loader
	"github.com/swahilipot/room-booking/internal/database"   // MySQL connection helper
	"github.com/swahilipot/room-booking/internal/handler"    // HTTP handlers
	"github.com/swahilipot/room-booking/internal/middleware" // rate limiting and response cache
	"github.com/swahilipot/room-booking/internal/queue"      // notification consumer
	"github.com/swahilipot/room-booking/internal/reminder"   // pre-start reminder sweeper
	"github.com/swahilipot/room-booking/internal/repository" // DB repositories
	"github.com/swahilipot/room-booking/internal/router"     // route registration
	"github.com/swahilipot/room-booking/internal/scheduler"  // booking scheduler service
	queue_publisher "github.com/swahilipot/room-booking/internal/service" // RabbitMQ publisher
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	rooms := repository.NewRoomRepo(db)
	bookings := repository.NewBookingRepo(db)

	publisher := queue_publisher.NewPublisher(cfg.RabbitURL)
	sched := scheduler.NewService(bookings, rooms, publisher)

	// Background reminder sweep: one reminder per confirmed booking,
	// emitted inside the lead window before its start time.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	sweeper := reminder.NewSweeper(bookings, publisher, nil, time.Duration(cfg.ReminderLeadMin)*time.Minute)
	go sweeper.Run(sweepCtx, time.Duration(cfg.ReminderSweepMin)*time.Minute)

	// Background consumer appends notification events to logs/notifications.log.
	go func() {
		if err := queue.StartNotificationConsumer(); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	e := echo.New() // Create Echo instance

	// Redis-backed rate limiting and response caching degrade to no-ops
	// when Redis is unreachable.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and caching disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	router.RegisterRoutes(e) // health check
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterRooms(e, handler.NewRoomHandler(rooms), cfg.JWTSecret)
	router.RegisterUsers(e, handler.NewUserHandler(users), cfg.JWTSecret)
	router.RegisterBookings(e, handler.NewBookingHandler(sched), cfg.JWTSecret)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
