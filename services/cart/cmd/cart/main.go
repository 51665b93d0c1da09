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
	"github.com/raceparts/raceparts/pkg/logging"
	loggingmw "github.com/raceparts/raceparts/pkg/middleware/logging"
	"github.com/raceparts/raceparts/services/cart/internal/config"
	"github.com/raceparts/raceparts/services/cart/internal/httpserver"
	"github.com/raceparts/raceparts/services/cart/internal/models"
	"github.com/raceparts/raceparts/services/cart/internal/repo"
	"github.com/raceparts/raceparts/services/cart/internal/service"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel).With("service", "cart")

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
	if err := gdb.AutoMigrate(&models.CartItem{}); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}

	cartRepo := &repo.GormRepo{DB: gdb}
	cartService := &service.CartService{Repo: cartRepo}
	cartHandler := &httpserver.CartHTTP{Svc: cartService}

	httpserver.Register(e, &httpserver.Deps{CartHandler: cartHandler})

	go func() {
		addr := fmt.Sprintf(":%d", cfg.ServerPort)
		logger.Info("starting cart service", "addr", addr)
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
