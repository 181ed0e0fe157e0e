package processors

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/username/daoledger/src/models"
)

// usdcTestValue flags known test artifacts: exactly 1 USDC sent to verify
// an address before a real payment.
var usdcTestValue = decimal.NewFromInt(1)

// TransferMerger unions the normalized token and internal streams for one
// wallet and discards noise. Pure filter; no aggregation.
type TransferMerger struct{}

func NewTransferMerger() *TransferMerger { return &TransferMerger{} }

// Merge concatenates both streams, orders them by date and drops
// zero-value rows, 1-USDC test transfers and self-transfers. Rows whose
// value failed to parse are kept; they are excluded later by the sums
// themselves, not here.
func (m *TransferMerger) Merge(token, internal []models.CanonicalTransfer) []models.CanonicalTransfer {
	merged := make([]models.CanonicalTransfer, 0, len(token)+len(internal))
	merged = append(merged, token...)
	merged = append(merged, internal...)

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date.Before(merged[j].Date)
	})

	kept := merged[:0]
	for _, t := range merged {
		if t.Value.IsZero() {
			continue
		}
		if t.Symbol == models.SymbolUSDC && t.Value.Valid && t.Value.Decimal.Equal(usdcTestValue) {
			continue
		}
		if t.From == t.To {
			continue
		}
		kept = append(kept, t)
	}
	return kept
}
