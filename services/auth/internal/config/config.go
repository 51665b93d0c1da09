package config

import (
	"log"

	"github.com/raceparts/raceparts/pkg/config"
)

type ServiceConfig struct {
	config.Config
}

func Load() ServiceConfig {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("parse env: %v", err)
	}

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")

	return ServiceConfig{Config: cfg}
}
