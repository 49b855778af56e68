package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ukydev/safe-route/internal/config"
	"github.com/ukydev/safe-route/internal/geocode"
	"github.com/ukydev/safe-route/internal/handlers"
	"github.com/ukydev/safe-route/internal/heatmap"
	"github.com/ukydev/safe-route/internal/httpclient"
	"github.com/ukydev/safe-route/internal/mapview"
	"github.com/ukydev/safe-route/internal/orchestrator"
	"github.com/ukydev/safe-route/internal/risk"
	"github.com/ukydev/safe-route/internal/routing"
	"github.com/ukydev/safe-route/internal/statusfeed"
	"github.com/ukydev/safe-route/internal/tracing"
)

func main() {
	cfg := config.LoadFrontend()
	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(config.ParseLevel(cfg.LogLevel))

	shutdownTracer, err := tracing.InitTracer(tracing.Config{
		ServiceName:    "saferoute",
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

	client := httpclient.New(cfg.HTTPClientTimeout)
	geocoder := geocode.NewCached(geocode.NewClient(cfg.GeocodeURL, cfg.GeocodeUserAgent, client), cfg.GeocodeCacheTTL)
	engine := routing.NewOSRM(cfg.RoutingURL, cfg.RoutingProfile, client)
	riskClient := risk.NewClient(cfg.RiskBackendURL, cfg.RiskAPIToken, client)

	board := mapview.NewBoard()
	hub := statusfeed.NewHub()
	statusfeed.Attach(board, hub)
	if cfg.MQTTBroker != "" {
		pub, err := statusfeed.NewMQTTPublisher(cfg.MQTTBroker, cfg.MQTTTopic, "saferoute-"+uuid.NewString()[:8])
		if err != nil {
			log.WithError(err).Warn("MQTT status feed disabled")
		} else {
			defer pub.Close()
			statusfeed.Attach(board, pub)
		}
	}

	orch := orchestrator.New(orchestrator.Config{
		Geocoder: geocoder,
		Engine:   engine,
		Scorer:   riskClient,
		Surface:  board,
		Panel:    board,
		Timeout:  cfg.PipelineTimeout,
	})
	heat := heatmap.NewManager(riskClient, board, board)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		loadCtx, cancel := context.WithTimeout(ctx, cfg.HTTPClientTimeout)
		defer cancel()
		if err := heat.Load(loadCtx); err != nil {
			log.WithError(err).Warn("Accident heatmap unavailable")
		}
	}()

	logger := log.WithField("service", "saferoute")
	router := handlers.NewFrontendRouter(
		handlers.NewRouteHandler(orch, heat, board),
		hub,
		handlers.RateLimit{Max: cfg.RateLimitMax, WindowSeconds: cfg.RateLimitWindow},
		logger,
	)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           otelhttp.NewHandler(router, "saferoute"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.WithFields(log.Fields{
		"addr":     cfg.Addr,
		"geocoder": cfg.GeocodeURL,
		"routing":  cfg.RoutingURL,
		"risk":     cfg.RiskBackendURL,
		"timeout":  cfg.PipelineTimeout,
	}).Info("Starting saferoute")

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
