package services

import (
	"errors"
	"time"

	"github.com/username/daoledger/src/models"
)

var (
	// ErrWalletFailed wraps a single wallet's pipeline failure; the run
	// continues with the remaining wallets.
	ErrWalletFailed = errors.New("wallet processing failed")
	// ErrNoLedgers is returned when consolidation finds nothing to merge.
	ErrNoLedgers = errors.New("no local ledgers found")
)

// LedgerService drives the reconciliation pipeline: per-wallet
// normalization through quarterly reporting, stream generation, and the
// cross-wallet consolidation pass.
type LedgerService interface {
	// ProcessAllWallets runs the per-wallet pipeline for every $-prefixed
	// wallet folder under the raw export directory. A wallet that fails
	// is logged and skipped; it never aborts the others.
	ProcessAllWallets() error

	// ExtendServiceProviderStreams appends the synthetic daily stipend
	// rows through today and rewrites the stream ledger files.
	ExtendServiceProviderStreams(today time.Time) error

	// Consolidate merges every local ledger into the global one, writes
	// the consolidated CSV and persists the rows.
	Consolidate() ([]models.CanonicalTransfer, error)

	// ConsolidatedLedger returns the current consolidated rows, cached;
	// falls back to the database when no consolidation ran this process.
	ConsolidatedLedger() ([]models.CanonicalTransfer, error)

	// Quarters lists the reportable quarter labels in the consolidated
	// ledger, oldest first.
	Quarters() ([]string, error)
}
