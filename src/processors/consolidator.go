package processors

import (
	"fmt"
	"sort"

	"github.com/username/daoledger/src/models"
	"github.com/username/daoledger/src/registry"
)

// Top-level entities, in presentation order. The consolidated ledger
// interleaves each entity's quarter checkpoint, inflows and outflows as
// one block before moving to the next entity.
const (
	EntityENSMultisig      = "ENS Multisig"
	EntityRootMultisig     = "Root Multisig"
	EntityDAOWallet        = "DAO Wallet"
	EntityEcosystem        = "Ecosystem"
	EntityPublicGoods      = "Public Goods"
	EntityMetagov          = "Metagov"
	EntityServiceProviders = "Service Providers"

	EntityEndowment     = "Endowment"
	EntityEndowmentFees = "Endowment Fees"
)

var topLevelEntities = []string{
	EntityENSMultisig,
	EntityRootMultisig,
	EntityDAOWallet,
	EntityEcosystem,
	EntityPublicGoods,
	EntityMetagov,
	EntityCommunityWG,
	EntityServiceProviders,
}

// paymentAccounts orders DAO Wallet outflows by recipient working group.
var paymentAccounts = []string{
	EntityEcosystem,
	EntityPublicGoods,
	EntityMetagov,
	EntityCommunityWG,
	EntityServiceProviders,
}

// denylistedSenders are timelock, disperser and one-off counterparties
// whose outgoing rows duplicate flows already represented elsewhere.
var denylistedSenders = map[string]bool{
	"Token Timelock":   true,
	"slobo.eth":        true,
	"capitulation.eth": true,
	"Disperse.app":     true,
	"ETHGlobal":        true,
}

// WalletLedger is one wallet's classified transfer sequence, named after
// the ledger file it was read from.
type WalletLedger struct {
	Wallet    string
	Transfers []models.CanonicalTransfer
}

// LedgerConsolidator merges every wallet's ledger into the single
// cross-entity ledger the visualization consumes. Direction is
// reconstructed from sort position downstream, so values are stored
// absolute here.
type LedgerConsolidator struct {
	reg      *registry.Registry
	balances *BalanceEngine
}

func NewLedgerConsolidator(reg *registry.Registry, balances *BalanceEngine) *LedgerConsolidator {
	return &LedgerConsolidator{reg: reg, balances: balances}
}

// Consolidate merges, filters, deduplicates, checkpoints and orders all
// ledgers into the final presentation sequence.
func (c *LedgerConsolidator) Consolidate(ledgers []WalletLedger) []models.CanonicalTransfer {
	combined := c.combine(ledgers)
	rows := c.filterAndDedupe(combined)
	rows = append(rows, c.placeholderCheckpoints(rows, walletNames(ledgers))...)
	c.sortForPresentation(rows)
	relabelPlaceholders(rows)
	return rows
}

// combine joins each wallet's transfers (bridge-contract rows removed)
// with its Interquarter snapshots, computed from the signed values before
// any absolute-value normalization.
func (c *LedgerConsolidator) combine(ledgers []WalletLedger) []models.CanonicalTransfer {
	var combined []models.CanonicalTransfer
	for _, l := range ledgers {
		kept := make([]models.CanonicalTransfer, 0, len(l.Transfers))
		for _, t := range l.Transfers {
			if t.FromCategory == CategoryWETHContract || t.ToCategory == CategoryWETHContract {
				continue
			}
			kept = append(kept, t)
		}
		combined = append(combined, kept...)
		combined = append(combined, c.balances.InterquarterBalances(kept, l.Wallet)...)
	}
	return combined
}

func (c *LedgerConsolidator) filterAndDedupe(combined []models.CanonicalTransfer) []models.CanonicalTransfer {
	seen := make(map[string]bool)
	var rows []models.CanonicalTransfer
	for _, t := range combined {
		t.Value = t.Value.Abs()
		t.USDValue = t.USDValue.Abs()

		if !t.Acquainted {
			continue
		}
		if c.reg.SwapWallet(t.FromName) || c.reg.SwapWallet(t.ToName) {
			continue
		}
		// Endowment internals stay out of the picture; only its fee
		// sub-account flows are treasury-relevant.
		if (t.FromName == EntityEndowment || t.ToName == EntityEndowment) &&
			t.FromCategory != EntityEndowmentFees && t.ToCategory != EntityEndowmentFees {
			continue
		}
		if denylistedSenders[t.FromName] {
			continue
		}

		// Both wallets of one on-chain transfer carry the same leg; keep
		// the first copy. Synthetic rows are exempt.
		if t.Hash != models.HashInterquarter && t.Hash != models.HashStream {
			key := fmt.Sprintf("%s|%s|%s|%s", t.Hash, t.From, t.To, t.Value.String())
			if seen[key] {
				continue
			}
			seen[key] = true
		}

		t.Quarter = AddQuarter(t.Date)
		rows = append(rows, t)
	}
	return rows
}

// placeholderCheckpoints guarantees every wallet one terminal marker per
// quarter it has Interquarter rows in, anchored to that quarter's last
// snapshot date. DAO Wallet's marker carries value 1 so it renders even
// when every real flow is filtered out.
func (c *LedgerConsolidator) placeholderCheckpoints(rows []models.CanonicalTransfer, wallets []string) []models.CanonicalTransfer {
	var checkpoints []models.CanonicalTransfer
	for _, quarter := range uniqueRowQuarters(rows) {
		for _, wallet := range wallets {
			var last *models.CanonicalTransfer
			for i := range rows {
				t := &rows[i]
				if t.Quarter == quarter && t.Hash == models.HashInterquarter &&
					t.FromCategory == wallet && t.ToCategory == wallet {
					last = t
				}
			}
			if last == nil {
				continue
			}

			amount := models.MoneyFromInt(0)
			if wallet == EntityDAOWallet {
				amount = models.MoneyFromInt(1)
			}
			checkpoints = append(checkpoints, models.CanonicalTransfer{
				Hash:         models.HashInterquarter,
				Date:         last.Date,
				From:         models.Placeholder,
				FromName:     wallet,
				FromCategory: models.Placeholder,
				To:           models.Placeholder,
				ToName:       models.Placeholder,
				ToCategory:   models.Placeholder,
				Value:        amount,
				USDValue:     amount,
				Symbol:       models.Placeholder,
				Acquainted:   true,
				Quarter:      last.Quarter,
			})
		}
	}
	return checkpoints
}

// sortForPresentation applies the total ordering: quarter label, fixed
// entity priority, USD value descending, date.
func (c *LedgerConsolidator) sortForPresentation(rows []models.CanonicalTransfer) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Quarter != b.Quarter {
			return a.Quarter < b.Quarter
		}
		pa, pb := presentationPriority(a), presentationPriority(b)
		if pa != pb {
			return pa < pb
		}
		if !a.USDValue.Equal(b.USDValue) {
			return usdBefore(a.USDValue, b.USDValue, true)
		}
		return a.Date.Before(b.Date)
	})
}

// presentationPriority ranks a row within its quarter. Priorities are
// spaced so each top-level entity's Interquarter checkpoint precedes its
// inflows, which precede its outflows; placeholder markers slot between
// DAO Wallet's checkpoint and its inflows. Values are doubled to keep the
// placeholder's half-step an integer.
func presentationPriority(t models.CanonicalTransfer) int {
	from, to := t.FromName, t.ToName

	if t.Hash == models.HashInterquarter {
		if to == models.Placeholder {
			return 15
		}
		for i, entity := range topLevelEntities {
			if from == entity || to == entity {
				return 2 + i*6
			}
		}
		return 50
	}

	switch {
	case to == EntityENSMultisig:
		return 4
	case from == EntityENSMultisig:
		return 6
	case to == EntityRootMultisig:
		return 10
	case from == EntityRootMultisig:
		return 12
	case to == EntityDAOWallet:
		return 16
	case from == EntityDAOWallet:
		for i, account := range paymentAccounts {
			if to == account {
				return 22 + i*6
			}
		}
		return 18
	case from == EntityEcosystem:
		return 24
	case from == EntityPublicGoods:
		return 30
	case from == EntityMetagov:
		return 36
	case from == EntityCommunityWG:
		return 42
	case from == EntityServiceProviders:
		return 48
	}
	return 50
}

// relabelPlaceholders repurposes each sorted placeholder as a labeled
// wallet-identity marker: the hash column takes the wallet name and the
// name column takes the sentinel.
func relabelPlaceholders(rows []models.CanonicalTransfer) {
	for i := range rows {
		if rows[i].Hash == models.HashInterquarter && rows[i].ToName == models.Placeholder {
			rows[i].Hash = rows[i].FromName
			rows[i].FromName = rows[i].From
		}
	}
}

func walletNames(ledgers []WalletLedger) []string {
	names := make([]string, 0, len(ledgers))
	for _, l := range ledgers {
		names = append(names, l.Wallet)
	}
	sort.Strings(names)
	return names
}

func uniqueRowQuarters(rows []models.CanonicalTransfer) []string {
	seen := make(map[string]bool)
	var quarters []string
	for _, t := range rows {
		if !seen[t.Quarter] {
			seen[t.Quarter] = true
			quarters = append(quarters, t.Quarter)
		}
	}
	return quarters
}
