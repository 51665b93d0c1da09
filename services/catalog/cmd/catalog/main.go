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
	"github.com/raceparts/raceparts/services/catalog/internal/cache"
	"github.com/raceparts/raceparts/services/catalog/internal/config"
	"github.com/raceparts/raceparts/services/catalog/internal/httpserver"
	"github.com/raceparts/raceparts/services/catalog/internal/models"
	"github.com/raceparts/raceparts/services/catalog/internal/repo"
	"github.com/raceparts/raceparts/services/catalog/internal/search"
	"github.com/raceparts/raceparts/services/catalog/internal/service"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel).With("service", "catalog")

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
	if err := gdb.AutoMigrate(&models.Category{}, &models.Product{}); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}

	svc := &service.CatalogService{
		Repo:      &repo.GormRepo{DB: gdb},
		Publisher: events.Nop{},
	}

	// Search, cache and kafka are optional; the catalog degrades to plain
	// SQL when they are not configured.
	if cfg.ESURL != "" {
		searcher, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		svc.Search = searcher
	}
	if cfg.RedisAddr != "" {
		productCache, err := cache.New(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Fatalf("redis init error: %v", err)
		}
		defer productCache.Close()
		svc.Cache = productCache
	}
	if len(cfg.KafkaBrokers) > 0 {
		publisher := events.NewKafkaPublisher(cfg.KafkaBrokers, "product_events")
		defer publisher.Close()
		svc.Publisher = publisher
	}

	httpserver.Register(e, &httpserver.Deps{
		CatalogHandler: &httpserver.CatalogHTTP{Svc: svc},
	})

	go func() {
		addr := fmt.Sprintf(":%d", cfg.ServerPort)
		logger.Info("starting catalog service", "addr", addr)
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
