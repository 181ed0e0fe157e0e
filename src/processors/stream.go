package processors

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/daoledger/src/models"
	"github.com/username/daoledger/src/utils"
)

// Daily USDC stipends per service provider. The yearly total is
// 3,609,863.01 across all providers in a leap year.
var providerStipends = map[string]decimal.Decimal{
	"ETHLimo":       decimal.RequireFromString("1369.8625"),
	"Namehash":      decimal.RequireFromString("1643.835"),
	"Resolverworks": decimal.RequireFromString("1917.8075"),
	"Blockful":      decimal.RequireFromString("821.9175"),
	"Unruggable":    decimal.RequireFromString("1095.89"),
	"Wildcard":      decimal.RequireFromString("547.945"),
	"EFP":           decimal.RequireFromString("1369.8625"),
	"Namespace":     decimal.RequireFromString("547.945"),
	"Unicorn":       decimal.RequireFromString("547.945"),
}

// streamStart is the first day of the service provider program.
var streamStart = utils.Date(2024, time.January, 1)

// StreamGenerator synthesizes the daily off-chain-equivalent stipend rows
// for the Service Providers ledger, in the canonical schema. Values are
// negative: every row is a payment out of the program wallet.
type StreamGenerator struct{}

func NewStreamGenerator() *StreamGenerator { return &StreamGenerator{} }

// Extend generates one row per provider per day from the day after the
// last recorded date (or the program start) through today, to be appended
// to the existing ledger.
func (g *StreamGenerator) Extend(existing []models.CanonicalTransfer, today time.Time) []models.CanonicalTransfer {
	start := streamStart
	for _, t := range existing {
		next := t.Date.AddDate(0, 0, 1)
		if next.After(start) {
			start = next
		}
	}
	today = utils.DateOnly(today)

	providers := make([]string, 0, len(providerStipends))
	for name := range providerStipends {
		providers = append(providers, name)
	}
	sort.Strings(providers)

	var rows []models.CanonicalTransfer
	for day := start; !day.After(today); day = day.AddDate(0, 0, 1) {
		for _, provider := range providers {
			amount := models.MoneyFromDecimal(providerStipends[provider].Neg())
			rows = append(rows, models.CanonicalTransfer{
				Hash:       models.HashStream,
				Date:       day,
				From:       EntityServiceProviders,
				To:         provider,
				Value:      amount,
				USDValue:   amount,
				Symbol:     models.SymbolUSDC,
				Acquainted: true,
			})
		}
	}
	return rows
}

// GroupByQuarter aggregates stream rows the way the quarterly ledgers do,
// keyed on the raw From/To names since stream rows carry no categories.
func (g *StreamGenerator) GroupByQuarter(rows []models.CanonicalTransfer) []models.QuarterlyFlow {
	type streamKey struct {
		Quarter string
		From    string
		To      string
		Symbol  string
	}
	sums := make(map[streamKey][2]decimal.Decimal)
	var keys []streamKey
	for _, t := range rows {
		key := streamKey{Quarter: AddQuarter(t.Date), From: t.From, To: t.To, Symbol: t.Symbol}
		sum, seen := sums[key]
		if !seen {
			keys = append(keys, key)
		}
		sum[0] = t.Value.AccumulateInto(sum[0])
		sum[1] = t.USDValue.AccumulateInto(sum[1])
		sums[key] = sum
	}

	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Quarter != b.Quarter {
			return a.Quarter < b.Quarter
		}
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.Symbol < b.Symbol
	})

	flows := make([]models.QuarterlyFlow, 0, len(keys))
	for _, key := range keys {
		sum := sums[key]
		flows = append(flows, models.QuarterlyFlow{
			Quarter:      key.Quarter,
			FromCategory: key.From,
			ToCategory:   key.To,
			Symbol:       key.Symbol,
			Value:        models.MoneyFromDecimal(sum[0]),
			USDValue:     models.MoneyFromDecimal(sum[1]),
		})
	}
	return flows
}
