package main

import (
	"fmt"
	"strings"

	"github.com/dmitrymomot/billingkit/pkg/subscription"
)

// Storage drivers.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Billing providers.
const (
	ProviderStripe = "stripe"
	ProviderPaddle = "paddle"
)

type appConfig struct {
	Env            string `env:"APP_ENV" envDefault:"development"`
	Name           string `env:"APP_NAME" envDefault:"billingd"`
	Store          string `env:"STORE_DRIVER" envDefault:"postgres"`
	Provider       string `env:"BILLING_PROVIDER" envDefault:"stripe"`
	ReturnURL      string `env:"BILLING_RETURN_URL" envDefault:"http://localhost:3000/dashboard/subscription"`
	StrictPrices   bool   `env:"BILLING_STRICT_PRICES" envDefault:"false"`
	DefaultCountry string `env:"CALENDAR_DEFAULT_COUNTRY" envDefault:"US"`
	Prefetch       bool   `env:"CALENDAR_PREFETCH" envDefault:"true"`
}

// priceConfig maps paid tiers to provider price ids.
type priceConfig struct {
	Basic    string `env:"PRICE_BASIC"`
	Standard string `env:"PRICE_STANDARD"`
	Premium  string `env:"PRICE_PREMIUM"`
}

func (p priceConfig) table() (*subscription.PriceTable, error) {
	return subscription.NewPriceTable(map[subscription.Tier]string{
		subscription.TierBasic:    p.Basic,
		subscription.TierStandard: p.Standard,
		subscription.TierPremium:  p.Premium,
	})
}

func (c appConfig) validate() error {
	switch strings.ToLower(c.Store) {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store)
	}
	switch strings.ToLower(c.Provider) {
	case ProviderStripe, ProviderPaddle:
	default:
		return fmt.Errorf("unknown BILLING_PROVIDER %q", c.Provider)
	}
	return nil
}
