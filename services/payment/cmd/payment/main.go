package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/raceparts/raceparts/pkg/db"
	"github.com/raceparts/raceparts/pkg/events"
	"github.com/raceparts/raceparts/pkg/logging"
	loggingmw "github.com/raceparts/raceparts/pkg/middleware/logging"
	"github.com/raceparts/raceparts/services/payment/internal/config"
	"github.com/raceparts/raceparts/services/payment/internal/httpserver"
	"github.com/raceparts/raceparts/services/payment/internal/models"
	"github.com/raceparts/raceparts/services/payment/internal/repo"
	"github.com/raceparts/raceparts/services/payment/internal/service"
	"github.com/raceparts/raceparts/services/payment/internal/stripeclient"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel).With("service", "payment")

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	if err := gdb.AutoMigrate(&models.Order{}, &models.OrderItem{}); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, "order_events")
	}
	defer publisher.Close()

	orderRepo := &repo.GormRepo{DB: gdb}
	handler := &httpserver.PaymentHTTP{
		Checkout:      &service.CheckoutService{DB: gdb, Client: stripeclient.New(cfg.Stripe.SecretKey)},
		Committer:     &service.Committer{DB: gdb, Publisher: publisher},
		Orders:        &service.OrderService{Repo: orderRepo},
		WebhookSecret: cfg.Stripe.WebhookSecret,
	}

	httpserver.Register(e, &httpserver.Deps{PaymentHandler: handler})

	go func() {
		addr := fmt.Sprintf(":%d", cfg.ServerPort)
		logger.Info("starting payment service", "addr", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo shutdown", "error", err)
	}

	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
