// Package config loads the gateway's startup configuration: a .env file if
// present, environment variables, and command-line flag overrides, in that
// order of increasing precedence.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the gateway needs to start serving.
type Config struct {
	ClientID     string
	ClientSecret string
	Port         int
	Debug        bool
}

// Load reads .env (if present), then the environment, then flags, and
// validates that the required Twitch credentials were supplied.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		ClientID:     os.Getenv("TWITCH_CLIENT_ID"),
		ClientSecret: os.Getenv("TWITCH_CLIENT_SECRET"),
		Port:         8080,
	}

	if p := os.Getenv("PORT"); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			cfg.Port = v
		}
	}
	cfg.Debug = os.Getenv("DEBUG") == "true"

	flag.StringVar(&cfg.ClientID, "client-id", cfg.ClientID, "Twitch application client id")
	flag.StringVar(&cfg.ClientSecret, "client-secret", cfg.ClientSecret, "Twitch application client secret")
	flag.IntVar(&cfg.Port, "port", cfg.Port, "HTTP listen port")
	flag.BoolVar(&cfg.Debug, "debug", cfg.Debug, "enable verbose logging")
	flag.Parse()

	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("TWITCH_CLIENT_ID and TWITCH_CLIENT_SECRET are required (flags or env)")
	}

	return cfg, nil
}
