package config

import (
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
)

func init() {
	_ = godotenv.Load()
}

type HTTPConfig struct {
	DefaultTimeout   time.Duration `env:"HTTP_DEFAULT_TIMEOUT" envDefault:"30s"`
	DiscourseTimeout time.Duration `env:"HTTP_DISCOURSE_TIMEOUT" envDefault:"30s"`
	RPCTimeout       time.Duration `env:"HTTP_RPC_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout  time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

var HTTP = loadHTTPConfig()

func loadHTTPConfig() HTTPConfig {
	cfg := HTTPConfig{
		DefaultTimeout:   30 * time.Second,
		DiscourseTimeout: 30 * time.Second,
		RPCTimeout:       15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}

	if v := os.Getenv("HTTP_DEFAULT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.DefaultTimeout = d
		}
	}

	if v := os.Getenv("HTTP_DISCOURSE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.DiscourseTimeout = d
		}
	}

	if v := os.Getenv("HTTP_RPC_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RPCTimeout = d
		}
	}

	if v := os.Getenv("HTTP_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ShutdownTimeout = d
		}
	}

	return cfg
}

func DefaultClient() *http.Client {
	return &http.Client{
		Timeout: HTTP.DefaultTimeout,
	}
}

func DiscourseClient() *http.Client {
	return &http.Client{
		Timeout: HTTP.DiscourseTimeout,
	}
}

func RPCClient() *http.Client {
	return &http.Client{
		Timeout: HTTP.RPCTimeout,
	}
}
