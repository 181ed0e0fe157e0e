package models

import "time"

// Asset symbols retained from the raw exports. WETH is remapped to ETH
// during parsing so quarterly sums combine, with OriginalWETH recording
// the pre-remap form.
const (
	SymbolUSDC = "USDC"
	SymbolETH  = "ETH"
	SymbolENS  = "ENS"
	SymbolWETH = "WETH"
)

// Special transaction-hash markers. Interquarter tags synthetic
// quarter-boundary balance rows, Stream tags generated recurring payment
// rows. Neither participates in deduplication.
const (
	HashInterquarter = "Interquarter"
	HashStream       = "Stream"
)

// Placeholder is the sentinel written into the identity fields of the
// per-wallet checkpoint rows the consolidator appends to every quarter.
const Placeholder = "Plchld"

// CanonicalTransfer is the single schema every raw export row is
// normalized into. Sign convention: positive = inbound to the wallet whose
// ledger the row belongs to, negative = outbound. The classifier fills the
// name/category fields and may flip the sign; nothing else mutates a
// transfer once parsed.
type CanonicalTransfer struct {
	Hash         string    `json:"tx_hash"`
	Date         time.Time `json:"date"`
	From         string    `json:"from"`
	FromName     string    `json:"from_name"`
	FromCategory string    `json:"from_category"`
	To           string    `json:"to"`
	ToName       string    `json:"to_name"`
	ToCategory   string    `json:"to_category"`
	Value        Money     `json:"value"`
	USDValue     Money     `json:"usd_value"`
	Symbol       string    `json:"symbol"`
	OriginalWETH bool      `json:"-"`
	Acquainted   bool      `json:"acquainted"`

	// Quarter is set on consolidated ledger rows only.
	Quarter string `json:"quarter,omitempty"`
}

// QuarterlyFlow is one aggregated (quarter, counterparty pair, asset)
// bucket, or a synthetic "<quarter> Unspent" carryforward row.
type QuarterlyFlow struct {
	Quarter      string `json:"quarter"`
	FromCategory string `json:"from"`
	ToCategory   string `json:"to"`
	Value        Money  `json:"value"`
	USDValue     Money  `json:"usd_value"`
	Symbol       string `json:"symbol"`
}
