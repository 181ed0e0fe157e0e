package processors

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/username/daoledger/src/models"
	"github.com/username/daoledger/src/registry"
	"github.com/username/daoledger/src/utils"
)

// Entity renames applied to carryforward rows. Community WG was dissolved
// after a single funded quarter; its balance carries under the successor
// steward group.
const (
	EntityCommunityWG = "Community WG"
	EntityCommunitySG = "Community SG"
)

// BalanceEngine computes the two independent quarter-boundary views: the
// cumulative "Unspent" rows attached to the quarterly ledger, and the
// Interquarter net-balance snapshots the consolidation pass injects.
type BalanceEngine struct {
	reg *registry.Registry

	// Resolved price dates per quarter label; every wallet asks for the
	// same handful of quarter ends.
	priceDates *cache.Cache
}

func NewBalanceEngine(reg *registry.Registry) *BalanceEngine {
	return &BalanceEngine{
		reg:        reg,
		priceDates: cache.New(cache.NoExpiration, cache.NoExpiration),
	}
}

// AddUnspentBalances emits one "<quarter> Unspent" row per asset per
// quarter, accumulating the net flow quarter over quarter. USDC balances
// are their own USD value; other assets are priced at the latest recorded
// price date not after the quarter's end.
func (e *BalanceEngine) AddUnspentBalances(flows []models.QuarterlyFlow, wallet string) []models.QuarterlyFlow {
	quarters := uniqueQuarters(flows)
	symbols := uniqueSymbols(flows)

	cumulative := make(map[string]decimal.Decimal, len(symbols))
	for _, s := range symbols {
		cumulative[s] = decimal.Zero
	}

	target := wallet
	if wallet == EntityCommunityWG {
		target = EntityCommunitySG
	}

	var unspent []models.QuarterlyFlow
	for _, quarter := range quarters {
		for _, symbol := range symbols {
			sum := cumulative[symbol]
			for _, f := range flows {
				if f.Quarter == quarter && f.Symbol == symbol {
					sum = f.Value.AccumulateInto(sum)
				}
			}
			cumulative[symbol] = sum

			var usd decimal.Decimal
			if symbol == models.SymbolUSDC {
				usd = sum
			} else {
				priceDate, ok := e.unspentPriceDate(quarter)
				if !ok {
					continue
				}
				usd = sum.Mul(e.reg.PriceFor(symbol, priceDate))
			}

			unspent = append(unspent, models.QuarterlyFlow{
				Quarter:      quarter + " Unspent",
				FromCategory: wallet,
				ToCategory:   target,
				Symbol:       symbol,
				Value:        models.MoneyFromDecimal(sum),
				USDValue:     models.MoneyFromDecimal(usd),
			})
		}
	}
	return unspent
}

// InterquarterBalances computes, for each quarter-end date present in the
// wallet's history, the net accumulated position per asset over all
// transfers up to and including that date. Only nonzero positions produce
// a row; the rows carry the Interquarter hash marker and the wallet in
// every identity field.
func (e *BalanceEngine) InterquarterBalances(transfers []models.CanonicalTransfer, wallet string) []models.CanonicalTransfer {
	var quarterEnds []time.Time
	seenEnd := make(map[time.Time]bool)
	for _, t := range transfers {
		end := QuarterEndDate(t.Date)
		if !seenEnd[end] {
			seenEnd[end] = true
			quarterEnds = append(quarterEnds, end)
		}
	}

	var balances []models.CanonicalTransfer
	for _, end := range quarterEnds {
		var symbols []string
		seenSym := make(map[string]bool)
		for _, t := range transfers {
			if t.Date.After(end) || seenSym[t.Symbol] {
				continue
			}
			seenSym[t.Symbol] = true
			symbols = append(symbols, t.Symbol)
		}

		for _, symbol := range symbols {
			net, netUSD := decimal.Zero, decimal.Zero
			for _, t := range transfers {
				if t.Date.After(end) || t.Symbol != symbol {
					continue
				}
				// Outbound rows are already negative, so both sides add.
				if t.FromCategory == wallet {
					net = t.Value.AccumulateInto(net)
					netUSD = t.USDValue.AccumulateInto(netUSD)
				}
				if t.ToCategory == wallet {
					net = t.Value.AccumulateInto(net)
					netUSD = t.USDValue.AccumulateInto(netUSD)
				}
			}
			if net.IsZero() {
				continue
			}
			balances = append(balances, models.CanonicalTransfer{
				Hash:         models.HashInterquarter,
				Date:         end,
				From:         wallet,
				FromName:     wallet,
				FromCategory: wallet,
				To:           wallet,
				ToName:       wallet,
				ToCategory:   wallet,
				Value:        models.MoneyFromDecimal(net),
				USDValue:     models.MoneyFromDecimal(netUSD),
				Symbol:       symbol,
				Acquainted:   true,
			})
		}
	}
	return balances
}

// unspentPriceDate resolves the price-table date for a quarter's closing
// balance: the newest priced date on or before the calendar quarter end.
// Unlike bucketing, the calendar end is used here even for 2022 Q1.
func (e *BalanceEngine) unspentPriceDate(quarter string) (time.Time, bool) {
	if cached, ok := e.priceDates.Get(quarter); ok {
		d := cached.(time.Time)
		return d, !d.IsZero()
	}

	end, ok := calendarQuarterEnd(quarter)
	if !ok {
		return time.Time{}, false
	}
	date, ok := e.reg.LatestPriceDateOnOrBefore(end)
	if !ok {
		e.priceDates.Set(quarter, time.Time{}, cache.NoExpiration)
		return time.Time{}, false
	}
	e.priceDates.Set(quarter, date, cache.NoExpiration)
	return date, true
}

// calendarQuarterEnd parses a "<year> Q<n>" label into the standard last
// day of that quarter.
func calendarQuarterEnd(quarter string) (time.Time, bool) {
	fields := strings.Fields(quarter)
	if len(fields) < 2 || len(fields[1]) != 2 {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(fields[0])
	if err != nil {
		return time.Time{}, false
	}
	switch fields[1] {
	case "Q1":
		return utils.Date(year, time.March, 31), true
	case "Q2":
		return utils.Date(year, time.June, 30), true
	case "Q3":
		return utils.Date(year, time.September, 30), true
	case "Q4":
		return utils.Date(year, time.December, 31), true
	}
	return time.Time{}, false
}

func uniqueQuarters(flows []models.QuarterlyFlow) []string {
	seen := make(map[string]bool)
	var quarters []string
	for _, f := range flows {
		if !seen[f.Quarter] {
			seen[f.Quarter] = true
			quarters = append(quarters, f.Quarter)
		}
	}
	sort.Strings(quarters)
	return quarters
}

func uniqueSymbols(flows []models.QuarterlyFlow) []string {
	seen := make(map[string]bool)
	var symbols []string
	for _, f := range flows {
		if !seen[f.Symbol] {
			seen[f.Symbol] = true
			symbols = append(symbols, f.Symbol)
		}
	}
	return symbols
}
