package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ukydev/safe-route/internal/auth"
	"github.com/ukydev/safe-route/internal/config"
	"github.com/ukydev/safe-route/internal/db"
	"github.com/ukydev/safe-route/internal/handlers"
	"github.com/ukydev/safe-route/internal/middleware"
	"github.com/ukydev/safe-route/internal/scoring"
	"github.com/ukydev/safe-route/internal/tracing"
)

func main() {
	hashSecret := flag.String("hash-secret", "", "print the bcrypt hash of a client secret and exit")
	seed := flag.Bool("seed", false, "copy ACCIDENT_CSV into the configured store before serving")
	flag.Parse()

	cfg := config.LoadRisk()
	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(config.ParseLevel(cfg.LogLevel))

	shutdownTracer, err := tracing.InitTracer(tracing.Config{
		ServiceName:    "riskd",
		Environment:    cfg.Environment,
		JaegerEndpoint: cfg.JaegerEndpoint,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize the tracer")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(ctx); err != nil {
			log.WithError(err).Warn("Tracer shutdown failed")
		}
	}()

	authService := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)
	if *hashSecret != "" {
		hash, err := authService.HashSecret(*hashSecret)
		if err != nil {
			log.WithError(err).Fatal("Failed to hash secret")
		}
		fmt.Println(hash)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to open accident store")
	}
	defer closeStore()

	if *seed {
		writer, ok := store.(db.AccidentWriter)
		if !ok {
			log.WithField("source", cfg.AccidentSource).Fatal("Accident source cannot be seeded")
		}
		n, err := db.Seed(ctx, &db.CSVStore{Path: cfg.AccidentCSV}, writer)
		if err != nil {
			log.WithError(err).Fatal("Failed to seed accident store")
		}
		log.WithField("accidents", n).Info("Seeded accident store")
	}

	scorer := scoring.NewService(store, scoring.Options{
		Neighbors:     cfg.Neighbors,
		MajorSeverity: cfg.MajorSeverity,
		MaxSeverity:   cfg.MaxSeverity,
	})
	if err := scorer.Reload(ctx); err != nil {
		// Serve anyway: the data endpoints answer 500 until data is available.
		log.WithError(err).Error("Failed to load accident data")
	}

	var authMW *middleware.AuthMiddleware
	if cfg.AuthRequired {
		if cfg.ClientSecretHash == "" {
			log.Fatal("AUTH_REQUIRED is set but CLIENT_SECRET_HASH is empty")
		}
		authService.RegisterClient(cfg.ClientID, cfg.ClientSecretHash)
		authMW = middleware.NewAuthMiddleware(authService)
	}

	logger := log.WithField("service", "riskd")
	router := handlers.NewRiskRouter(
		handlers.NewRiskHandler(scorer),
		handlers.NewTokenHandler(authService),
		authMW,
		logger,
	)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           otelhttp.NewHandler(router, "riskd"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.WithFields(log.Fields{
		"addr":          cfg.Addr,
		"source":        cfg.AccidentSource,
		"auth_required": cfg.AuthRequired,
	}).Info("Starting riskd")

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Could not start server")
		}
	case sig := <-shutdown:
		log.WithField("signal", sig.String()).Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Graceful shutdown did not complete")
			server.Close()
		}
	}
}

// openStore returns the configured accident store and a func that releases it.
func openStore(ctx context.Context, cfg config.Risk) (db.AccidentStore, func(), error) {
	switch cfg.AccidentSource {
	case config.SourceCSV:
		return &db.CSVStore{Path: cfg.AccidentCSV}, func() {}, nil
	case config.SourceSQLite:
		store, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	case config.SourceMongo:
		client, err := db.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		return db.NewMongoAccidentStore(client, cfg.MongoDB), func() { client.Disconnect(context.Background()) }, nil
	default:
		return nil, nil, fmt.Errorf("unknown ACCIDENT_SOURCE %q", cfg.AccidentSource)
	}
}
