package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"eato/internal/blob"
	"eato/internal/config"
	"eato/internal/db"
	"eato/internal/httpserver"
	"eato/internal/metrics"
	menurepo "eato/internal/repository/menu"
	orderrepo "eato/internal/repository/order"
	"eato/internal/repository/orderline"
	sessionrepo "eato/internal/repository/session"
	userrepo "eato/internal/repository/user"
	authsvc "eato/internal/service/auth"
	cartsvc "eato/internal/service/cart"
	menusvc "eato/internal/service/menu"
	"eato/internal/telemetry"
)

const serviceVersion = "0.1.0"

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	shutdownTracing, err := telemetry.InitTracerProvider(ctx, cfg.OTLPEndpoint, "eato-api", serviceVersion)
	if err != nil {
		logger.Fatalf("init tracing: %v", err)
	}

	// Each cart pass can hold CartConcurrency connections at once; leave room for other requests.
	dbpool, err := db.Connect(ctx, cfg.DBConnString, cfg.CartConcurrency*2)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	var presigner menusvc.Presigner
	if cfg.MenuImages.Bucket != "" {
		s3p, err := blob.NewS3Presigner(ctx, blob.Config{
			Bucket:          cfg.MenuImages.Bucket,
			Region:          cfg.MenuImages.Region,
			Endpoint:        cfg.MenuImages.Endpoint,
			PathStyle:       cfg.MenuImages.PathStyle,
			AccessKeyID:     cfg.MenuImages.AccessKeyID,
			SecretAccessKey: cfg.MenuImages.SecretAccessKey,
			Expiry:          cfg.MenuImages.URLTTL,
		})
		if err != nil {
			logger.Fatalf("init menu image store: %v", err)
		}
		presigner = s3p
		logger.Printf("menu images signed from bucket %s", cfg.MenuImages.Bucket)
	}

	registry := metrics.NewRegistry()
	cartMetrics := metrics.NewCart(registry)

	authService := authsvc.New(userrepo.NewPostgres(dbpool, logger), sessionrepo.NewPostgres(dbpool), cfg.SessionTTL, logger)
	menuService := menusvc.New(menurepo.NewPostgres(dbpool, logger), presigner, logger)
	cartService := cartsvc.New(cartsvc.Backend{
		Lines:    orderline.NewPostgres(dbpool, logger),
		Orders:   orderrepo.NewPostgres(dbpool, logger),
		Identity: authsvc.ContextIdentity{},
	}, menuService, logger, cartsvc.Options{
		MaxConcurrency: cfg.CartConcurrency,
		Metrics:        cartMetrics,
	})

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		AuthSvc:        authService,
		MenuSvc:        menuService,
		CartSvc:        cartService,
		Metrics:        metrics.Handler(registry),
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.Printf("flush traces: %v", err)
	}
}
