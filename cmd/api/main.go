package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"polar-billing-bridge/internal/client"
	"polar-billing-bridge/internal/config"
	"polar-billing-bridge/internal/repository"
	"polar-billing-bridge/internal/server"
	"polar-billing-bridge/internal/service"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	setupLogger(&cfg.Log)

	db := client.InitMysqlClient(cfg.DatabaseURL)
	polarClient := client.NewPolarClient(&cfg.Polar)

	txRepo := repository.NewTransactionRepository(db)
	businessRepo := repository.NewBusinessRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)
	redirectRepo := repository.NewRedirectRepository(db)

	billingService := service.NewBillingService(
		polarClient, cfg.Polar.SuccessURL,
		txRepo,
		businessRepo,
		redirectRepo,
	)
	webhookService := service.NewWebhookService(
		txRepo,
		businessRepo,
		webhookEventRepo,
	)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	// Init HTTP server
	srv := server.NewServer(billingService, webhookService, cfg.Auth.JWTSecret)

	logrus.Info("Starting HTTP server on ", serverAddr)
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			logrus.Fatal("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	logrus.Info("Signal received, starting graceful shutdown...")

	_, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(); err != nil {
		logrus.Fatal("HTTP server shutdown error")
	}
}

func setupLogger(logCfg *config.Log) {
	level, err := logrus.ParseLevel(logCfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if logCfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}
