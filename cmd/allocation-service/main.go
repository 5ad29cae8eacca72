package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/medflow/pos-allocation/internal/allocation/consumers"
	"github.com/medflow/pos-allocation/internal/allocation/handler"
	"github.com/medflow/pos-allocation/internal/allocation/orders"
	"github.com/medflow/pos-allocation/internal/allocation/repository"
	"github.com/medflow/pos-allocation/internal/allocation/service"
	"github.com/medflow/pos-allocation/pkg/config"
	"github.com/medflow/pos-allocation/pkg/database"
	"github.com/medflow/pos-allocation/pkg/httputil"
	"github.com/medflow/pos-allocation/pkg/logger"
	"github.com/medflow/pos-allocation/pkg/messaging"
	"github.com/medflow/pos-allocation/pkg/token"
)

const serviceName = "allocation-service"

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(serviceName, cfg.Server.Environment)
	log.Info().Msg("starting Allocation Service")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	if err := rmq.DeclareDeadLetterQueue(serviceName); err != nil {
		log.Fatal().Err(err).Msg("failed to declare dead letter queue")
	}

	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangePOSEvents, serviceName, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	// Initialize repositories
	quantRepo := repository.NewQuantRepository(db)
	lotRepo := repository.NewLotRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	configRepo := repository.NewConfigRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	// Initialize services
	presence := service.NewPresenceChecker(quantRepo)
	planner := service.NewPlanner(quantRepo, catalogRepo, lotRepo, sessionRepo, configRepo, log)
	assembler := orders.NewAssembler(planner, orders.NewForwarder(publisher, log), log)

	// Initialize handlers
	stockHandler := handler.NewStockHandler(presence, planner, log)
	orderHandler := handler.NewOrderHandler(assembler, log)

	// Start session event consumer
	sessionConsumer, err := consumers.NewSessionEventConsumer(rmq, sessionRepo, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create session event consumer")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := sessionConsumer.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start session event consumer")
	}

	tokens := token.NewManager(&cfg.JWT)

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(middleware.Timeout(30 * time.Second))

	// CORS for the POS front ends
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  serviceName,
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httputil.Authenticate(tokens))
		handler.Mount(r, stockHandler, orderHandler)
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Cancel context to stop consumers
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
