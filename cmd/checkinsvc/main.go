package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	config "github.com/avvvet/checkin-services/configs"
	"github.com/avvvet/checkin-services/internal/checkinsvc/auth"
	"github.com/avvvet/checkin-services/internal/checkinsvc/broker"
	svcconfig "github.com/avvvet/checkin-services/internal/checkinsvc/config"
	handlers "github.com/avvvet/checkin-services/internal/checkinsvc/handlers"
	"github.com/avvvet/checkin-services/internal/checkinsvc/service"
	"github.com/avvvet/checkin-services/internal/checkinsvc/store"
	nats "github.com/avvvet/checkin-services/internal/nats"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "checkin"

var instanceId string

func init() {
	config.LoadEnv(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service")
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
}

func main() {
	cfg := svcconfig.Load()

	if cfg.JWTSecret == svcconfig.DefaultJWTSecret {
		log.Warn("JWT_SECRET is not set, tokens are signed with the default secret")
	}
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		log.Warn("ADMIN_EMAIL or ADMIN_PASSWORD is not set, every login will be rejected")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	checkinStore, err := store.Open(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.Backend, err)
	}
	defer checkinStore.Close()
	log.Infof("%s store ready", cfg.Backend)

	// events are optional, the API works without NATS
	var events service.EventPublisher
	if cfg.NatsURL != "" {
		n, err := nats.Connect(cfg.NatsURL, cfg.NatsToken, SERVICE_NAME+"-"+instanceId)
		if err != nil {
			log.Errorf("Error: unable to connect to NATS server %v, events disabled", err)
		} else {
			defer n.Close()
			log.Infof("NATS connection established successfully %s", n.Url)
			events = broker.NewBroker(n.Conn, cfg.NatsTopic, instanceId)
		}
	}

	checkinService := service.NewCheckinService(checkinStore, events, cfg.StoreTimeout)

	var probe auth.Pinger
	if cfg.ProbeBackendLogin {
		probe = checkinService
	}
	authService := service.NewAuthService(
		auth.NewCredentialVerifier(cfg.AdminEmail, cfg.AdminPassword, probe),
		auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL),
	)

	// Setup router
	r := chi.NewRouter()
	c := config.CORS()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(c.Handler)

	// Init handlers and routes
	h := handlers.NewHandler(checkinService, authService, cfg.Backend, cfg.RateLimit)
	h.SetRoutes(r)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	// Wait for interrupt signal to gracefully shutdown the server
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
