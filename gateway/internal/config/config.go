package config

import (
	"log"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	pkgconfig "github.com/raceparts/raceparts/pkg/config"
)

type Config struct {
	ListenAddr     string   `env:"GATEWAY_ADDR" envDefault:":8080"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`
	AuthURL        string   `env:"AUTH_URL"`
	ProductURL     string   `env:"PRODUCT_URL"`
	CartURL        string   `env:"CART_URL"`
	PaymentURL     string   `env:"PAYMENT_URL"`
	JWTSecret      []byte   `env:"JWT_SECRET"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("parse env: %v", err)
	}

	pkgconfig.MustURL(cfg.AuthURL, "AUTH_URL")
	pkgconfig.MustURL(cfg.ProductURL, "PRODUCT_URL")
	pkgconfig.MustURL(cfg.CartURL, "CART_URL")
	pkgconfig.MustURL(cfg.PaymentURL, "PAYMENT_URL")
	pkgconfig.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")

	return cfg
}
