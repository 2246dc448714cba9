package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"mealdesk/internal/api"
	"mealdesk/internal/auth"
	"mealdesk/internal/config"
	"mealdesk/internal/database"
	"mealdesk/internal/events"
	"mealdesk/internal/live"
	"mealdesk/internal/monitoring"
	"mealdesk/internal/panel"
	"mealdesk/internal/seed"
	"mealdesk/internal/store"
)

var (
	port        = flag.Int("port", 0, "API server port (overrides config)")
	metricsPort = flag.Int("metrics-port", 0, "Metrics server port (overrides config)")
	configFile  = flag.String("config", "configs/config.yaml", "Path to configuration file")
)

// backend is the active store together with its credential side
type backend interface {
	store.Store
	store.CredentialStore
}

func main() {
	flag.Parse()

	// Initialize context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *metricsPort != 0 {
		cfg.Metrics.Port = *metricsPort
	}
	gin.SetMode(cfg.Server.GinMode)

	// Initialize store
	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	// Initialize notifiers
	monitor := monitoring.NewMonitor()
	monitor.RecordMetric("store_driver", cfg.Store.Driver)
	hub := live.NewHub(nil)
	notifiers := events.Fanout{hub}
	if cfg.Events.AMQPURL != "" {
		publisher, err := events.Dial(cfg.Events.AMQPURL, cfg.Events.Exchange, cfg.Events.PublishTimeout)
		if err != nil {
			log.Fatalf("Failed to connect to broker: %v", err)
		}
		defer publisher.Close()
		notifiers = append(notifiers, publisher)
		log.Printf("Publishing events to exchange %s", cfg.Events.Exchange)
	}

	// Initialize panel state
	desk := panel.New(st,
		panel.WithNotifier(notifiers),
		panel.WithObserver(monitor),
		panel.WithOffices(cfg.Offices),
	)
	if err := desk.Load(ctx); err != nil {
		log.Fatalf("Failed to load panel state: %v", err)
	}
	authService := auth.NewService(st, desk, cfg.Auth.Secret, cfg.Auth.TokenTTL, nil)

	if cfg.Store.Seed {
		err := seed.Run(ctx, desk, authService, log.Default())
		if err != nil {
			log.Printf("Seeding failed: %v", err)
		}
		monitor.RecordSeed(err)
	}

	// Initialize API server
	srv := api.NewServer(api.Options{
		Panel:       desk,
		Auth:        authService,
		Hub:         hub,
		Monitor:     monitor,
		AuthEnabled: cfg.Auth.Enabled,
		AccessLog:   true,
	})

	// Start metrics server
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsServer = newMetricsServer(cfg.Metrics, monitor)
		go func() {
			log.Printf("Starting metrics server on port %d", cfg.Metrics.Port)
			if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
				log.Printf("Metrics server error: %v", err)
			}
		}()
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down servers...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		hub.Close()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("API server shutdown error: %v", err)
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				log.Printf("Metrics server shutdown error: %v", err)
			}
		}

		cancel() // Cancel main context
	}()

	// Start server
	log.Printf("Starting API server on port %d (store: %s)", cfg.Server.Port, cfg.Store.Driver)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("API server error: %v", err)
	}
}

func openStore(ctx context.Context, cfg config.StoreConfig) (backend, error) {
	if cfg.Driver == config.DriverFile {
		return store.OpenFile(cfg.URL, nil)
	}
	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return store.NewSQLStore(db), nil
}

func newMetricsServer(cfg config.MetricsConfig, monitor *monitoring.Monitor) *http.Server {
	metricsRouter := gin.New()
	metricsRouter.Use(gin.Recovery())
	metricsRouter.GET(cfg.Path, gin.WrapH(monitor.Handler()))

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: metricsRouter,
	}
}
