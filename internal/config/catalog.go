package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// PricePoint is one purchasable tier in the product catalog. Amounts are in
// the gateway account's major currency unit (Naira, not kobo).
type PricePoint struct {
	Code   string `mapstructure:"code"`
	Label  string `mapstructure:"label"`
	Amount int64  `mapstructure:"amount"`
	Mode   string `mapstructure:"mode"`
}

type Catalog struct {
	Currency    string       `mapstructure:"currency"`
	PricePoints []PricePoint `mapstructure:"pricePoints"`
}

func DefaultCatalog() Catalog {
	return Catalog{
		Currency: "NGN",
		PricePoints: []PricePoint{
			{Code: "self_service", Label: "Self service material access", Amount: 7500, Mode: "self_service"},
			{Code: "full_service", Label: "Full service project writing", Amount: 15000, Mode: "full_service"},
		},
	}
}

// CatalogHolder serves the current catalog and hot-reloads it when the
// config file changes on disk.
type CatalogHolder struct {
	current atomic.Value // holds Catalog
}

func NewCatalogHolder() (*CatalogHolder, error) {
	v := viper.New()

	v.SetConfigName("catalog")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/projectnest/config")
	v.AddConfigPath("/etc/projectnest")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PROJECTNEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultCatalog()
		v.SetDefault("catalog.currency", defaults.Currency)
		v.SetDefault("catalog.pricePoints", defaults.PricePoints)
	}

	var cfg Catalog
	if err := v.UnmarshalKey("catalog", &cfg); err != nil {
		return nil, err
	}
	if err := validateCatalog(cfg); err != nil {
		return nil, err
	}

	holder := &CatalogHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated Catalog
		if err := v.UnmarshalKey("catalog", &updated); err != nil {
			log.Printf("[catalog] reload failed: %v", err)
			return
		}
		if err := validateCatalog(updated); err != nil {
			log.Printf("[catalog] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[catalog] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticCatalogHolder returns a holder pinned to the given catalog.
// Used by tests and tools that must not touch the filesystem.
func NewStaticCatalogHolder(cfg Catalog) *CatalogHolder {
	holder := &CatalogHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *CatalogHolder) Get() Catalog {
	return h.current.Load().(Catalog)
}

// FindByAmount returns the price point matching the verified amount exactly.
func (c Catalog) FindByAmount(amount int64) (PricePoint, bool) {
	for _, pp := range c.PricePoints {
		if pp.Amount == amount {
			return pp, true
		}
	}
	return PricePoint{}, false
}

// FindByCode returns the price point with the given code.
func (c Catalog) FindByCode(code string) (PricePoint, bool) {
	code = strings.TrimSpace(code)
	for _, pp := range c.PricePoints {
		if pp.Code == code {
			return pp, true
		}
	}
	return PricePoint{}, false
}

func validateCatalog(cfg Catalog) error {
	if strings.TrimSpace(cfg.Currency) == "" {
		return errors.New("catalog.currency cannot be empty")
	}
	if len(cfg.PricePoints) == 0 {
		return errors.New("catalog.pricePoints cannot be empty")
	}
	for _, pp := range cfg.PricePoints {
		if strings.TrimSpace(pp.Code) == "" {
			return errors.New("catalog price point code cannot be empty")
		}
		if pp.Amount <= 0 {
			return errors.New("catalog price point amount must be positive")
		}
	}
	return nil
}
