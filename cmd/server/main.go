package main // Entry point package

import (
	"log"  // Logging library
	"time" // Durations for the cart hold window

	"github.com/joho/godotenv"    // Loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/gearup/rental/internal/config"     // Internal config loader
	"github.com/gearup/rental/internal/database"   // MySQL connector
	"github.com/gearup/rental/internal/handler"    // HTTP handlers
	"github.com/gearup/rental/internal/middleware" // Cache and rate limit middleware
	"github.com/gearup/rental/internal/queue"      // RabbitMQ publisher and consumer
	"github.com/gearup/rental/internal/repository" // Data access layer
	"github.com/gearup/rental/internal/router"     // Route registration
	"github.com/gearup/rental/internal/service"    // Business rules
)

func main() {
	// Load .env when present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the response cache and rate limiter.  A nil client
	// disables both instead of failing startup.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; cache and rate limiting disabled")
	}

	// Repositories own the transactions and the row locking.
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	equipmentRepo := repository.NewEquipmentRepo(db)
	cartRepo := repository.NewCartRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	paymentRepo := repository.NewPaymentRepo(db)

	// The broker publisher is fire-and-forget; a broken broker only
	// costs notifications, never bookings.
	notifier := queue.NewPublisher()

	cartTTL := time.Duration(cfg.CartTTLMin) * time.Minute
	cartSvc := service.NewCartService(cartRepo, cartTTL)
	bookingSvc := service.NewBookingService(cartRepo, bookingRepo, notifier, cartTTL)
	paymentSvc := service.NewPaymentService(paymentRepo, notifier, cartTTL)

	authH := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
	cartH := handler.NewCartHandler(cartSvc)
	bookingH := handler.NewBookingHandler(bookingSvc)
	paymentH := handler.NewPaymentHandler(paymentSvc)
	listingH := handler.NewListingHandler(equipmentRepo)
	publicH := &handler.PublicHandler{Listings: equipmentRepo}

	e := echo.New() // Create Echo instance

	// Public browse gets the Redis response cache and a token bucket
	// rate limiter; both turn into no-ops when Redis is down.
	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	rateMW := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	router.RegisterRoutes(e) // Health check
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, publicH, rateMW, cacheMW)
	router.RegisterCustomer(e, cartH, bookingH, cfg.JWTSecret)
	router.RegisterRenter(e, listingH, bookingH, cfg.JWTSecret)
	router.RegisterPayments(e, paymentH)

	// Consume payment and completion events into the notification log.
	// The consumer reconnects on its own; it never takes the API down.
	go func() {
		if err := queue.StartNotificationConsumer(); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
