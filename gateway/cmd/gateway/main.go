package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/raceparts/raceparts/gateway/internal/config"
	"github.com/raceparts/raceparts/gateway/internal/httpserver"
	"github.com/raceparts/raceparts/pkg/logging"
	loggingmw "github.com/raceparts/raceparts/pkg/middleware/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel).With("service", "gateway")

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Use(loggingmw.RequestLogger(logger))

	if err := httpserver.Register(e, &httpserver.Deps{
		AuthURL:        cfg.AuthURL,
		ProductURL:     cfg.ProductURL,
		CartURL:        cfg.CartURL,
		PaymentURL:     cfg.PaymentURL,
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	}); err != nil {
		log.Fatal(err)
	}

	go func() {
		if err := e.Start(cfg.ListenAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
}
