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
	config.MustNonEmpty(cfg.Stripe.SecretKey, "STRIPE_SECRET_KEY")
	config.MustNonEmpty(cfg.Stripe.WebhookSecret, "STRIPE_WEBHOOK_SECRET")

	return ServiceConfig{Config: cfg}
}
