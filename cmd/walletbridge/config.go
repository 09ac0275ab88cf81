package main

import (
	"errors"
	"os"
)

// config holds the server configuration, read from the environment.
type config struct {
	ListenAddr     string
	DatabaseURL    string
	RedisURL       string
	SigningKeyFile string
}

func loadConfig() (config, error) {
	cfg := config{
		ListenAddr:     getenv("WALLETBRIDGE_ADDR", ":9000"),
		DatabaseURL:    os.Getenv("WALLETBRIDGE_DATABASE_URL"),
		RedisURL:       os.Getenv("WALLETBRIDGE_REDIS_URL"),
		SigningKeyFile: os.Getenv("WALLETBRIDGE_SIGNING_KEY"),
	}
	return cfg, cfg.validate()
}

func (c config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("WALLETBRIDGE_DATABASE_URL is required")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
