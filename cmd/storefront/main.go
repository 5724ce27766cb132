package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/storefront/gateway"
	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/discovery"
	"github.com/example/storefront/pkg/events"
	"github.com/example/storefront/pkg/grpc"
	"github.com/example/storefront/pkg/logger"
	"github.com/example/storefront/pkg/metrics"
	"github.com/example/storefront/pkg/repository"
	"github.com/example/storefront/pkg/session"
	"github.com/example/storefront/pkg/shop"
	"github.com/example/storefront/pkg/storage"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting storefront",
		zap.String("name", cfg.Server.Name),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("sessions", cfg.Session.Store))

	store, audit, err := openStore(cfg, log)
	if err != nil {
		log.Fatal("Failed to open store", zap.Error(err))
	}

	sessions, closeSessions := openSessions(cfg, log)

	m := metrics.New()
	hub := gateway.NewHub(cfg.Gateway.AllowedOrigins, log.Named("live-orders"))

	sinks := []events.Sink{hub}
	if audit != nil {
		sinks = append(sinks, events.NewAuditSink(audit, cfg.Server.Name))
	}
	dispatcher, err := events.NewDispatcher(log.Named("events"), sinks...)
	if err != nil {
		log.Fatal("Failed to start event dispatcher", zap.Error(err))
	}

	auth := shop.NewAuthService(store, sessions, m, log.Named("auth"))
	catalog := shop.NewCatalogService(store, dispatcher, log.Named("catalog"))
	orders := shop.NewOrderService(store, store, dispatcher, m, log.Named("orders"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := auth.EnsureAdmin(ctx, cfg.Admin); err != nil {
		log.Error("Failed to bootstrap admin account", zap.Error(err))
	}
	cancel()

	checks := map[string]gateway.HealthCheck{
		"store":    store.Ping,
		"sessions": sessions.Ping,
	}
	opts := gateway.Options{
		Auth:    auth,
		Catalog: catalog,
		Orders:  orders,
		Metrics: m,
		Hub:     hub,
		Checks:  checks,
	}
	if audit != nil {
		opts.Audit = audit
	}
	if cfg.Minio.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		images, err := storage.NewImageStore(ctx, &cfg.Minio, log.Named("images"))
		cancel()
		if err != nil {
			log.Warn("Image storage unavailable, uploads disabled", zap.Error(err))
		} else {
			opts.Images = images
		}
	}

	gw := gateway.NewGateway(cfg, log, opts)
	gw.SetupRoutes()

	serverErr := make(chan error, 2)
	go func() {
		if err := gw.Start(); err != nil {
			serverErr <- err
		}
	}()

	var healthServer *grpc.HealthServer
	if cfg.GRPC.Port > 0 {
		grpcChecks := make(map[string]grpc.Check, len(checks))
		for name, check := range checks {
			grpcChecks[name] = grpc.Check(check)
		}
		healthServer = grpc.NewHealthServer(cfg.Server.Name, grpcChecks, 10*time.Second, log.Named("grpc"))
		go func() {
			if err := healthServer.Start(cfg.GRPC.Port); err != nil {
				serverErr <- err
			}
		}()
	}

	// Register in etcd
	var (
		sd       *discovery.ServiceDiscovery
		instance = &discovery.ServiceInstance{Name: cfg.Server.Name, Host: cfg.Server.Host, Port: cfg.Gateway.Port}
	)
	regCtx, stopKeepAlive := context.WithCancel(context.Background())
	defer stopKeepAlive()
	if cfg.Etcd.Enabled() {
		sd, err = discovery.NewServiceDiscovery(&cfg.Etcd, log.Named("discovery"))
		if err != nil {
			log.Warn("Failed to connect to etcd, continuing without service discovery", zap.Error(err))
		} else if err := sd.Register(regCtx, instance); err != nil {
			log.Warn("Failed to register service", zap.Error(err))
		} else {
			log.Info("Service registered in etcd", zap.String("address", instance.Addr()))
		}
	}

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info("Received shutdown signal")
	case err := <-serverErr:
		log.Error("Server error", zap.Error(err))
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Gateway.ShutdownTimeout)
	defer cancelShutdown()

	if sd != nil {
		if err := sd.Deregister(shutdownCtx, instance); err != nil {
			log.Error("Failed to deregister service", zap.Error(err))
		}
		stopKeepAlive()
		sd.Close()
	}

	if err := gw.Shutdown(shutdownCtx); err != nil {
		log.Error("Gateway shutdown failed", zap.Error(err))
	}
	if healthServer != nil {
		healthServer.Stop()
	}

	// drain pending events before the audit store goes away
	dispatcher.Stop()

	closeSessions()
	if err := store.Close(shutdownCtx); err != nil {
		log.Error("Failed to close store", zap.Error(err))
	}
	if audit != nil && repository.Store(audit) != store {
		if err := audit.Close(shutdownCtx); err != nil {
			log.Error("Failed to close audit store", zap.Error(err))
		}
	}

	log.Info("Storefront stopped")
}

// openStore builds the configured backend. The audit log always lives in
// MongoDB; with the mysql driver it is connected separately and is optional.
func openStore(cfg *config.Config, log *zap.Logger) (repository.Store, *repository.MongoRepository, error) {
	switch cfg.Storage.Driver {
	case config.DriverMongoDB:
		mongoRepo, err := repository.NewMongoRepository(&cfg.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		log.Info("MongoDB connected", zap.String("database", cfg.MongoDB.Database))
		return mongoRepo, mongoRepo, nil

	case config.DriverMySQL:
		gormRepo, err := repository.NewMySQLRepository(&cfg.MySQL)
		if err != nil {
			return nil, nil, err
		}
		log.Info("MySQL connected", zap.String("database", cfg.MySQL.Database))

		mongoRepo, err := repository.NewMongoRepository(&cfg.MongoDB)
		if err != nil {
			log.Warn("MongoDB unavailable, audit log disabled", zap.Error(err))
			return gormRepo, nil, nil
		}
		return gormRepo, mongoRepo, nil

	default:
		log.Warn("Using in-memory storage, data will not survive a restart")
		return repository.NewMemoryRepository(), nil, nil
	}
}

func openSessions(cfg *config.Config, log *zap.Logger) (session.Store, func()) {
	if cfg.Session.Store == config.SessionStoreMemory {
		return session.NewMemoryStore(cfg.Session.TTL), func() {}
	}

	redisRepo := repository.NewRedisRepository(&cfg.Redis)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisRepo.Ping(ctx); err != nil {
		log.Warn("Redis connection failed", zap.Error(err))
	} else {
		log.Info("Redis connected successfully")
	}

	store := session.NewRedisStore(redisRepo, cfg.Session.KeyPrefix, cfg.Session.TTL)
	return store, func() {
		if err := redisRepo.Close(); err != nil {
			log.Error("Failed to close Redis", zap.Error(err))
		}
	}
}
