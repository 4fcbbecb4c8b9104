package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/medflow/clinic-backend/internal/auth"
	authhandler "github.com/medflow/clinic-backend/internal/auth/handler"
	"github.com/medflow/clinic-backend/internal/auth/jwt"
	authservice "github.com/medflow/clinic-backend/internal/auth/service"
	"github.com/medflow/clinic-backend/internal/clinic/consumers"
	"github.com/medflow/clinic-backend/internal/clinic/domain"
	"github.com/medflow/clinic-backend/internal/clinic/events"
	"github.com/medflow/clinic-backend/internal/clinic/handler"
	"github.com/medflow/clinic-backend/internal/clinic/repository"
	"github.com/medflow/clinic-backend/internal/clinic/service"
	"github.com/medflow/clinic-backend/pkg/config"
	"github.com/medflow/clinic-backend/pkg/database"
	"github.com/medflow/clinic-backend/pkg/httputil"
	"github.com/medflow/clinic-backend/pkg/logger"
	"github.com/medflow/clinic-backend/pkg/messaging"
)

func main() {
	migrate := flag.Bool("migrate", false, "apply the schema and exit")
	flag.Parse()

	cfg, err := config.LoadWithValidation("clinic-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("clinic-service", cfg.Server.Environment)
	log.Info().Msg("starting Clinic Service")

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if *migrate {
		if err := db.Migrate(context.Background(), repository.Migrations()); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate")
		}
		return
	}

	policy, err := domain.NewTransitionPolicy(cfg.Inventory.StatusTransitions)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid inventory.status_transitions")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// a nil publisher drops events
	var (
		publisher *events.ClinicEventPublisher
		rmq       *messaging.RabbitMQ
	)
	if cfg.RabbitMQ.Enabled {
		rmq, err = messaging.New(&cfg.RabbitMQ, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rmq.Close()

		publisher, err = events.NewClinicEventPublisher(rmq, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
	}

	billingService := service.NewBillingService(db, cfg.Billing.TransactionTimeout, publisher, log)
	inventoryService := service.NewInventoryService(db, policy, publisher, log)
	bufferService := service.NewBufferService(db, publisher, log)
	stockService := service.NewStockService(db, log)
	patientService := service.NewPatientService(db, log)
	chargeService := service.NewChargeService(db, log)

	jwtManager := jwt.NewManager(&cfg.JWT)
	authHandler := authhandler.NewAuthHandler(authservice.NewAuthService(db, jwtManager, log))

	if rmq != nil {
		bufferConsumer, err := consumers.NewBufferConsumer(rmq, bufferService, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create buffer consumer")
		}
		if err := bufferConsumer.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to start buffer consumer")
		}
	}

	var scheduler *service.ExpiryScheduler
	if cfg.Inventory.ExpirySweepInterval > 0 {
		scheduler = service.NewExpiryScheduler(inventoryService, cfg.Inventory.ExpirySweepInterval, log)
		scheduler.Start(ctx)
	}

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := map[string]interface{}{
			"status":   "healthy",
			"service":  "clinic-service",
			"database": db.Health(r.Context()),
		}
		if rmq != nil {
			health["rabbitmq"] = rmq.Health()
		}
		httputil.JSON(w, http.StatusOK, health)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", authHandler.PublicRoutes)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(jwtManager))

			r.Get("/me", authHandler.Me)
			handler.NewBillingHandler(billingService, cfg.Billing.ClinicName, log).Mount(r)
			handler.NewInventoryHandler(inventoryService, bufferService, log).Mount(r)
			handler.NewStockHandler(stockService, log).Mount(r)
			handler.NewPatientHandler(patientService, log).Mount(r)
			handler.NewChargeHandler(chargeService, log).Mount(r)
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	if scheduler != nil {
		scheduler.Stop()
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
