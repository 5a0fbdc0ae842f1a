package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"plate-auction/internal/auth"
	"plate-auction/internal/config"
	apphttp "plate-auction/internal/http"
	"plate-auction/internal/repository/sqlstore"
	"plate-auction/internal/service"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	configureLogger(logger, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlstore.Open(sqlstore.Options{
		Driver:     cfg.Database.Driver,
		Path:       cfg.Database.Path,
		DSN:        cfg.Database.DSN,
		MaxRetries: cfg.Database.MaxRetries,
		Logger:     logger.WithField("component", "store"),
	})
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer store.Close()

	if err := store.Init(ctx); err != nil {
		logger.Fatalf("init schema: %v", err)
	}

	issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.TokenTTL())
	if err != nil {
		logger.Fatalf("token issuer: %v", err)
	}

	serviceLogger := logger.WithField("component", "service")
	userService := service.NewUserService(store, issuer, nil, serviceLogger)
	plateService := service.NewPlateService(store, nil, serviceLogger)
	bidService := service.NewBidService(store, nil, serviceLogger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), apphttp.RequestLogger(logger.WithField("component", "http")))
	handler := apphttp.NewHandler(userService, plateService, bidService, logger)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"addr":   cfg.Server.Addr,
			"driver": cfg.Database.Driver,
		}).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func configureLogger(logger *logrus.Logger, cfg config.Config) {
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
}
