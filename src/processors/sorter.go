package processors

import (
	"sort"
	"strings"

	"github.com/username/daoledger/src/models"
)

// QuarterlySorter orders each quarter's buckets for presentation: largest
// inflows first, then outflows from most negative up. Unspent buckets keep
// their generated order.
type QuarterlySorter struct{}

func NewQuarterlySorter() *QuarterlySorter { return &QuarterlySorter{} }

// Sort expects flows already ordered by quarter label and re-orders the
// rows within every non-Unspent quarter.
func (s *QuarterlySorter) Sort(flows []models.QuarterlyFlow, wallet string) []models.QuarterlyFlow {
	sorted := make([]models.QuarterlyFlow, 0, len(flows))
	for _, quarter := range uniqueQuarters(flows) {
		var bucket []models.QuarterlyFlow
		for _, f := range flows {
			if f.Quarter == quarter {
				bucket = append(bucket, f)
			}
		}
		if strings.Contains(quarter, "Unspent") {
			sorted = append(sorted, bucket...)
			continue
		}

		var incoming, outgoing []models.QuarterlyFlow
		for _, f := range bucket {
			if f.FromCategory == wallet {
				outgoing = append(outgoing, f)
			} else {
				incoming = append(incoming, f)
			}
		}
		sort.SliceStable(incoming, func(i, j int) bool {
			return usdBefore(incoming[i].USDValue, incoming[j].USDValue, true)
		})
		sort.SliceStable(outgoing, func(i, j int) bool {
			return usdBefore(outgoing[i].USDValue, outgoing[j].USDValue, false)
		})
		sorted = append(sorted, incoming...)
		sorted = append(sorted, outgoing...)
	}
	return sorted
}

// usdBefore orders a ahead of b, descending or ascending; missing USD
// values sort after every present one in either direction.
func usdBefore(a, b models.Money, descending bool) bool {
	if !a.Valid {
		return false
	}
	if !b.Valid {
		return true
	}
	if descending {
		return a.Decimal.GreaterThan(b.Decimal)
	}
	return a.Decimal.LessThan(b.Decimal)
}
