// server runs the HTTP API: auth, notes, workouts, and the websocket
// collaboration endpoint.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"senya-web-backend/internal/config"
	"senya-web-backend/internal/db"
	"senya-web-backend/internal/health"
	identityhandler "senya-web-backend/internal/identity/handler"
	identityservice "senya-web-backend/internal/identity/service"
	"senya-web-backend/internal/logging"
	attemptrepo "senya-web-backend/internal/loginattempt/repository"
	notehandler "senya-web-backend/internal/note/handler"
	noterepo "senya-web-backend/internal/note/repository"
	"senya-web-backend/internal/security"
	"senya-web-backend/internal/server"
	"senya-web-backend/internal/telemetry"
	"senya-web-backend/internal/telemetry/otel"
	"senya-web-backend/internal/telemetry/producer"
	userrepo "senya-web-backend/internal/user/repository"
	workouthandler "senya-web-backend/internal/workout/handler"
	workoutrepo "senya-web-backend/internal/workout/repository"
	"senya-web-backend/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "senya-web-backend", cfg.OTLPInsecure)
	if err != nil {
		logger.Fatal("otel", zap.Error(err))
	}
	providers.SetGlobal()

	kafkaProducer, err := producer.NewKafkaProducer(cfg.TelemetryKafkaBrokersList(), cfg.TelemetryKafkaTopic)
	if err != nil {
		logger.Fatal("kafka producer", zap.Error(err))
	}
	if kafkaProducer != nil {
		defer func() { _ = kafkaProducer.Close() }()
	}

	tokens := security.NewTokenProvider([]byte(cfg.JWTSecret), cfg.AccessTTL(), cfg.RefreshTTL())
	hasher := security.NewHasher(cfg.BcryptCost)

	users := userrepo.NewPostgresRepository(database)
	attempts := attemptrepo.NewPostgresRepository(database)
	notes := noterepo.NewPostgresRepository(database)
	workouts := workoutrepo.NewPostgresRepository(database)

	auth := identityservice.NewAuthService(users, notes, attempts, hasher, tokens)

	registry := ws.NewRegistry(logger)
	gateway := ws.NewGateway(registry, tokens, logger)

	deps := server.Deps{
		Config: cfg,
		Log:    logger,
		Auth:   auth,
		AuthHTTP: identityhandler.NewAuthHandler(auth, identityhandler.CookieConfig{
			Secure:     cfg.CookieSecure,
			SameSite:   cfg.SameSite(),
			RefreshTTL: cfg.RefreshTTL(),
		}, logger),
		Notes:    notehandler.NewNoteHandler(notes, logger),
		Collab:   notehandler.NewCollabHandler(registry, logger),
		Workouts: workouthandler.NewWorkoutHandler(workouts, logger),
		Health:   health.NewHandler(database),
		Gateway:  gateway,
		Tracer:   providers.TracerProvider.Tracer("senya-web-backend/server"),
	}
	if kafkaProducer != nil {
		deps.Producer = kafkaProducer
	}

	srv := server.New(deps)
	if err := srv.Run(ctx); err != nil {
		logger.Fatal("server", zap.Error(err))
	}

	// Let in-flight async telemetry emits finish before tearing down providers.
	time.Sleep(telemetry.ShutdownDrainDuration)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := providers.Shutdown(shutdownCtx); err != nil {
		logger.Warn("otel shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}
