package registry

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/daoledger/src/logger"
	"github.com/username/daoledger/src/models"
	"github.com/username/daoledger/src/utils"
)

// WalletEntity is one row of the wallet registry: a raw address grouped
// under an organizational category with a display name. Several addresses
// may share one category (a working group and its sub-safes).
type WalletEntity struct {
	Address  string
	Category string
	Name     string
	Type     string
}

// PricePoint holds the reporting-currency prices for one calendar date.
type PricePoint struct {
	ENS decimal.Decimal
	ETH decimal.Decimal
}

// Registry bundles the three read-only reference tables every pipeline
// stage receives explicitly: address classification, hand-curated per-hash
// counterparty overrides, and daily asset prices.
type Registry struct {
	Wallets   map[string]WalletEntity // keyed by raw address
	Overrides map[string]string       // tx hash -> authoritative counterparty

	prices        map[string]PricePoint // keyed by YYYY-MM-DD
	priceDates    []time.Time           // ascending
	categories    map[string]bool
	overrideNames map[string]bool
	swapWallets   map[string]bool
}

// New returns an empty registry. Load populates one from the reference
// files; tests build small ones directly through the Add methods.
func New() *Registry {
	return &Registry{
		Wallets:       make(map[string]WalletEntity),
		Overrides:     make(map[string]string),
		prices:        make(map[string]PricePoint),
		categories:    make(map[string]bool),
		overrideNames: make(map[string]bool),
		swapWallets:   make(map[string]bool),
	}
}

// AddWallet registers one wallet entity.
func (r *Registry) AddWallet(w WalletEntity) {
	if w.Name == "" {
		w.Name = w.Category
	}
	r.Wallets[w.Address] = w
	r.categories[w.Category] = true
	if w.Type == "Swap" {
		r.swapWallets[w.Name] = true
	}
}

// AddOverride registers one curated hash -> counterparty entry.
func (r *Registry) AddOverride(hash, name string) {
	r.Overrides[hash] = name
	r.overrideNames[name] = true
}

// AddPrice registers the price pair for one calendar date.
func (r *Registry) AddPrice(date time.Time, p PricePoint) {
	key := date.Format(utils.DateLayout)
	if _, exists := r.prices[key]; !exists {
		r.priceDates = append(r.priceDates, utils.DateOnly(date))
		sort.Slice(r.priceDates, func(i, j int) bool { return r.priceDates[i].Before(r.priceDates[j]) })
	}
	r.prices[key] = p
}

// Load reads the three registry files. Called once at startup, after config.
func Load(walletsPath, overridesPath, pricesPath string) (*Registry, error) {
	r := New()

	if err := r.loadWallets(walletsPath); err != nil {
		return nil, err
	}
	if err := r.loadOverrides(overridesPath); err != nil {
		return nil, err
	}
	if err := r.loadPrices(pricesPath); err != nil {
		return nil, err
	}

	logger.L.Info("Reference registries loaded",
		"wallets", len(r.Wallets),
		"overrides", len(r.Overrides),
		"priceDates", len(r.prices))
	return r, nil
}

// loadWallets reads Name,Type,Address,Alias rows. The alias column is
// optional; when present it becomes the display name, otherwise the
// category doubles as the name.
func (r *Registry) loadWallets(path string) error {
	records, err := readRegistryFile(path)
	if err != nil {
		return fmt.Errorf("loading wallet registry: %w", err)
	}
	for _, rec := range records {
		if len(rec) < 3 {
			continue
		}
		w := WalletEntity{
			Category: strings.TrimSpace(rec[0]),
			Type:     strings.TrimSpace(rec[1]),
			Address:  strings.TrimSpace(rec[2]),
		}
		if len(rec) > 3 && strings.TrimSpace(rec[3]) != "" {
			w.Name = strings.TrimSpace(rec[3])
		}
		r.AddWallet(w)
	}
	return nil
}

// loadOverrides reads Counterparty,TxHash rows.
func (r *Registry) loadOverrides(path string) error {
	records, err := readRegistryFile(path)
	if err != nil {
		return fmt.Errorf("loading transaction overrides: %w", err)
	}
	for _, rec := range records {
		if len(rec) < 2 {
			continue
		}
		r.AddOverride(strings.TrimSpace(rec[1]), strings.TrimSpace(rec[0]))
	}
	return nil
}

// loadPrices reads Date,ENS,ETH rows.
func (r *Registry) loadPrices(path string) error {
	records, err := readRegistryFile(path)
	if err != nil {
		return fmt.Errorf("loading asset prices: %w", err)
	}
	for _, rec := range records {
		if len(rec) < 3 {
			continue
		}
		date, err := utils.ParseDate(rec[0])
		if err != nil {
			logger.L.Warn("Skipping price row with invalid date", "date", rec[0])
			continue
		}
		ens, err1 := decimal.NewFromString(strings.TrimSpace(rec[1]))
		eth, err2 := decimal.NewFromString(strings.TrimSpace(rec[2]))
		if err1 != nil || err2 != nil {
			logger.L.Warn("Skipping price row with invalid amounts", "date", rec[0])
			continue
		}
		r.AddPrice(date, PricePoint{ENS: ens, ETH: eth})
	}
	return nil
}

// Classify resolves a raw address to its (category, name) pair. Unresolved
// addresses classify to themselves.
func (r *Registry) Classify(address string) (category, name string) {
	if w, ok := r.Wallets[address]; ok {
		return w.Category, w.Name
	}
	return address, address
}

// KnownCategory reports whether a classified category belongs to a registry
// entity or is an override-table counterparty. Both sides must be known for
// a transfer to count as acquainted.
func (r *Registry) KnownCategory(category string) bool {
	return r.categories[category] || r.overrideNames[category]
}

// SwapWallet reports whether a display name belongs to a swap-type wallet;
// the consolidator drops transfers touching those.
func (r *Registry) SwapWallet(name string) bool {
	return r.swapWallets[name]
}

// Price returns the price pair recorded for a calendar date.
func (r *Registry) Price(date time.Time) (PricePoint, bool) {
	p, ok := r.prices[date.Format(utils.DateLayout)]
	return p, ok
}

// PriceFor returns the price of one asset on a date, or zero when the date
// has no entry. A missing date deliberately zeroes the derived USD value
// instead of failing the row.
func (r *Registry) PriceFor(symbol string, date time.Time) decimal.Decimal {
	p, ok := r.Price(date)
	if !ok {
		return decimal.Zero
	}
	switch symbol {
	case models.SymbolENS:
		return p.ENS
	case models.SymbolETH:
		return p.ETH
	}
	return decimal.Zero
}

// LatestPriceDateOnOrBefore returns the newest priced date not after
// target. When every priced date is later, the earliest one is used so a
// quarter that predates the table still resolves.
func (r *Registry) LatestPriceDateOnOrBefore(target time.Time) (time.Time, bool) {
	var closest time.Time
	found := false
	for _, d := range r.priceDates {
		if d.After(target) {
			break
		}
		closest = d
		found = true
	}
	if !found && len(r.priceDates) > 0 {
		return r.priceDates[0], true
	}
	return closest, found
}

func readRegistryFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return records, nil
}
