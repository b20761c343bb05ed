package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sikndrR/fitnessApp/internal/api"
	"github.com/sikndrR/fitnessApp/internal/auth"
	"github.com/sikndrR/fitnessApp/internal/config"
	"github.com/sikndrR/fitnessApp/internal/domain"
	"github.com/sikndrR/fitnessApp/internal/feed"
	"github.com/sikndrR/fitnessApp/internal/persistence/backend"
	httptransport "github.com/sikndrR/fitnessApp/internal/transport/http"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := backend.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open %s store: %v", cfg.StoreBackend, err)
	}
	defer closeStore()

	var publisher domain.Publisher = feed.NoopPublisher{}
	if cfg.EventsEnabled {
		producer := feed.NewKafkaProducer(cfg.KafkaBrokers)
		defer producer.Close()
		publisher = feed.NewPublisher(producer, cfg.EventsTopic)
	}

	ledger := domain.NewLedger(store, domain.WithPublisher(publisher))
	handler := api.NewHandler(ledger, api.WithStoreTimeout(cfg.StoreTimeout))

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	authMiddleware := auth.NewMiddleware(cfg.Auth(), auth.SkipPaths("/healthz", "/metrics"))
	accessLog := log.New(log.Writer(), "[http] ", log.LstdFlags)

	server := httptransport.NewServer(httptransport.DefaultServerConfig(cfg.HTTPAddress),
		httptransport.Chain(mux,
			httptransport.RequestID(),
			httptransport.Logger(accessLog),
			httptransport.CORS(cfg.CORSOrigin),
			authMiddleware.Wrap,
		))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("ledger api listening on %s (store=%s, events=%t)", cfg.HTTPAddress, cfg.StoreBackend, cfg.EventsEnabled)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
