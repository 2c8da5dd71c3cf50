package config

import (
	"os"
	"time"
)

type LinkingConfig struct {
	NonceTTL          time.Duration `env:"LINK_NONCE_TTL" envDefault:"10m"`
	SweepInterval     time.Duration `env:"LINK_SWEEP_INTERVAL" envDefault:"5m"`
	MaxAssertionAge   time.Duration `env:"NEAR_MAX_ASSERTION_AGE" envDefault:"10m"`
	ExpectedRecipient string        `env:"NEAR_EXPECTED_RECIPIENT"`
	RPCURL            string        `env:"NEAR_RPC_URL"`
}

var Linking = loadLinkingConfig()

func loadLinkingConfig() LinkingConfig {
	cfg := LinkingConfig{
		NonceTTL:        10 * time.Minute,
		SweepInterval:   5 * time.Minute,
		MaxAssertionAge: 10 * time.Minute,
	}

	if v := os.Getenv("LINK_NONCE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.NonceTTL = d
		}
	}

	if v := os.Getenv("LINK_SWEEP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.SweepInterval = d
		}
	}

	if v := os.Getenv("NEAR_MAX_ASSERTION_AGE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.MaxAssertionAge = d
		}
	}

	cfg.ExpectedRecipient = os.Getenv("NEAR_EXPECTED_RECIPIENT")
	cfg.RPCURL = os.Getenv("NEAR_RPC_URL")

	return cfg
}
