// Package config reads the environment of the theme binaries.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Timeouts of an HTTP server and its shutdown.
type Timeouts struct {
	ReadHeader time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"5s"`
	Read       time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	Write      time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	Idle       time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	Shutdown   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	Hook       time.Duration `env:"HOOK_TIMEOUT" envDefault:"5s"`
}

type Rabbit struct {
	Url    string `env:"RABBIT_URL"`
	VHost  string `env:"RABBIT_HOST"`
	Prefix string `env:"RABBIT_PREFIX" envDefault:"theme"`
}

func (r Rabbit) Enabled() bool {
	return r.Url != ""
}

type Redis struct {
	Addr     string `env:"REDIS_URL"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

func (r Redis) Enabled() bool {
	return r.Addr != ""
}

// Devshop configures the dev commerce backend.
type Devshop struct {
	ListenAddress string `env:"LISTEN_ADDRESS" envDefault:":8080"`
	DebugAddress  string `env:"DEBUG_ADDRESS" envDefault:":8081"`
	LogMode       string `env:"LOG_MODE" envDefault:"production"`
	// Catalog is a JSON file of variants; empty serves the sample catalog.
	Catalog string        `env:"CATALOG_FILE"`
	CartTTL time.Duration `env:"CART_TTL" envDefault:"336h"`
	Redis   Redis
	Timeouts
}

// Preview configures the page preview CLI.
type Preview struct {
	LogMode string `env:"LOG_MODE" envDefault:"development"`
	CartURL string `env:"CART_URL"`
	// StateDir keeps wishlist and preferences between runs when set.
	// Redis takes precedence over it.
	StateDir      string        `env:"STATE_DIR"`
	Profile       string        `env:"STATE_PROFILE" envDefault:"default"`
	MoneyFormat   string        `env:"MONEY_FORMAT"`
	MoneySymbol   string        `env:"MONEY_SYMBOL" envDefault:"$"`
	FreeShipping  int           `env:"FREE_SHIPPING_THRESHOLD" envDefault:"5000"`
	ThresholdText string        `env:"FREE_SHIPPING_MESSAGE"`
	RequestTime   time.Duration `env:"CART_TIMEOUT" envDefault:"10s"`
	Rabbit        Rabbit
	Redis         Redis
}

var ErrInvalid = errors.New("invalid configuration")

func LoadDevshop() (*Devshop, error) {
	cfg := &Devshop{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("load devshop config: %w", err)
	}
	if cfg.CartTTL <= 0 {
		return nil, fmt.Errorf("%w: CART_TTL must be positive", ErrInvalid)
	}
	if cfg.ListenAddress == "" {
		return nil, fmt.Errorf("%w: LISTEN_ADDRESS is empty", ErrInvalid)
	}
	return cfg, nil
}

func LoadPreview() (*Preview, error) {
	cfg := &Preview{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("load preview config: %w", err)
	}
	if cfg.FreeShipping < 0 {
		return nil, fmt.Errorf("%w: FREE_SHIPPING_THRESHOLD is negative", ErrInvalid)
	}
	return cfg, nil
}
