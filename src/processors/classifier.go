package processors

import (
	"github.com/username/daoledger/src/models"
	"github.com/username/daoledger/src/registry"
)

// WalletClassifier resolves raw addresses to registry entities, applies
// the hand-curated per-hash counterparty overrides, recomputes the
// acquainted flag and settles the sign convention. The wallet whose ledger
// is being built is a genuine per-call parameter: the override rule and
// the sign flip both depend on it.
type WalletClassifier struct {
	reg *registry.Registry
}

func NewWalletClassifier(reg *registry.Registry) *WalletClassifier {
	return &WalletClassifier{reg: reg}
}

// Classify enriches every transfer in place and returns the slice.
func (c *WalletClassifier) Classify(transfers []models.CanonicalTransfer, wallet string) []models.CanonicalTransfer {
	for i := range transfers {
		c.classifyOne(&transfers[i], wallet)
	}
	return transfers
}

func (c *WalletClassifier) classifyOne(t *models.CanonicalTransfer, wallet string) {
	t.FromCategory, t.FromName = c.reg.Classify(t.From)
	t.ToCategory, t.ToName = c.reg.Classify(t.To)

	// Override table: when this wallet is the classified sender, the
	// curated entry names the true recipient; otherwise it names the true
	// sender. The rule is asymmetric on purpose, the same hash reads
	// differently depending on whose ledger is being built.
	if name, ok := c.reg.Overrides[t.Hash]; ok {
		if t.FromCategory == wallet {
			t.ToCategory = name
		} else {
			t.FromCategory = name
		}
	}

	// Unresolved addresses classified to themselves pick up the override
	// category as their display name.
	if t.FromName == t.From {
		t.FromName = t.FromCategory
	}
	if t.ToName == t.To {
		t.ToName = t.ToCategory
	}

	t.Acquainted = c.reg.KnownCategory(t.FromCategory) && c.reg.KnownCategory(t.ToCategory)

	// The extractor reports ERC-20 values unsigned. A ledger records its
	// own wallet's perspective, so outbound USDC/ENS and transfers that
	// were originally WETH negate here; internal ETH rows arrive already
	// signed and keep their sign.
	if t.FromCategory == wallet &&
		(t.Symbol == models.SymbolUSDC || t.Symbol == models.SymbolENS || t.OriginalWETH) {
		t.Value = t.Value.Neg()
		t.USDValue = t.USDValue.Neg()
	}
}
