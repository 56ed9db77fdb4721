package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/ecostep/backend/docs"
	"github.com/ecostep/backend/internal/config"
	"github.com/ecostep/backend/internal/database"
	"github.com/ecostep/backend/internal/handlers"
	"github.com/ecostep/backend/internal/ledger"
	mW "github.com/ecostep/backend/internal/middleware"
	"github.com/ecostep/backend/internal/notify"
	"github.com/ecostep/backend/internal/services"
)

// @title EcoStep Carbon Tracker API
// @version 1.0
// @description API for carbon-footprint tracking and alerting
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	// Initialize config
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.expiry_hours", "JWT_EXPIRY_HOURS")
	viper.BindEnv("argon2.time", "ARGON2_TIME")
	viper.BindEnv("argon2.memory", "ARGON2_MEMORY")
	viper.BindEnv("argon2.threads", "ARGON2_THREADS")
	viper.BindEnv("argon2.key_length", "ARGON2_KEY_LENGTH")
	viper.BindEnv("argon2.salt_length", "ARGON2_SALT_LENGTH")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	// Initialize Swagger docs
	docs.SwaggerInfo.Title = "EcoStep Carbon Tracker API"
	docs.SwaggerInfo.Description = "API for carbon-footprint tracking and alerting"
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.Host = "localhost:8080"
	docs.SwaggerInfo.BasePath = "/api/v1"
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	// Initialize services
	db := database.InitDatabase()
	defer db.Close()

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Notification sink: fire-and-forget, never on the record critical path
	notifyCfg := config.LoadNotifyConfig()
	var sink ledger.Sink
	if notifyCfg.Driver == "kafka" {
		kafkaSink := notify.NewKafkaSink(notify.KafkaConfig{
			Brokers: notifyCfg.Brokers,
			Topic:   notifyCfg.Topic,
		})
		defer kafkaSink.Close()
		sink = kafkaSink
		log.Printf("Notifications publishing to Kafka topic %s", notifyCfg.Topic)
	} else {
		sink = notify.NewLogSink()
	}

	ledgerCfg := config.LoadLedgerConfig()
	ledgers := ledger.NewRegistry(
		ledger.WithSink(sink),
		ledger.WithRetention(ledgerCfg.LogRetention),
	)

	authService := services.NewAuthService(db, redisClient)
	footprintService := services.NewFootprintService(db, ledgers)
	estimatorService := services.NewEstimatorService()
	activityHandler := handlers.NewActivityHandler(estimatorService, footprintService)
	voiceService := services.NewVoiceLoggingService(estimatorService)
	defer voiceService.Close()
	shareService := services.NewShareService(redisClient, ledgers, config.LoadShareConfig())
	shareHandler := handlers.NewShareHandler(shareService)

	// Initialize auth middleware with Redis
	mW.InitAuthMiddleware(redisClient)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Access-Control-Allow-Origin"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"),
	))

	// Static file server for category icons
	r.Handle("/static/category-icons/*", http.StripPrefix("/static/category-icons/",
		mW.StaticFileServer("./static/category-icons")))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints (no auth required)
		r.Post("/auth/register", authService.Register)
		r.Post("/auth/login", authService.Login)
		r.Post("/auth/logout", authService.Logout)
		r.Get("/activities/transport-modes", activityHandler.GetTransportModes)
		r.Post("/share/resolve", shareHandler.ResolveShare)

		// Protected endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			r.Get("/auth/account", authService.GetUserAccount)

			// Footprint ledger
			r.Post("/activities", footprintService.RecordActivity)
			r.Post("/activities/transport", activityHandler.LogTransport)
			r.Post("/activities/food", activityHandler.LogFood)
			r.Post("/activities/energy", activityHandler.LogEnergy)
			r.Post("/activities/voice-transcribe", voiceService.TranscribeActivity)

			r.Get("/footprint/dashboard", footprintService.GetDashboard)
			r.Get("/footprint/history", footprintService.GetHistory)
			r.Get("/footprint/alerts", footprintService.GetAlerts)
			r.Get("/footprint/rewards", footprintService.GetRewards)

			// Onboarding snapshot
			r.Post("/footprint/initial", footprintService.SaveInitialFootprint)
			r.Get("/footprint/initial/status", footprintService.InitialFootprintStatus)

			// Dashboard sharing
			r.Post("/share/generate", shareHandler.GenerateShare)
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
