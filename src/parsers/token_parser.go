package parsers

import (
	"io"
	"time"

	"github.com/username/daoledger/src/logger"
	"github.com/username/daoledger/src/models"
	"github.com/username/daoledger/src/registry"
	"github.com/username/daoledger/src/utils"
)

// Raw export column names, as produced by the chain data extractor.
const (
	colTxHash      = "Transaction Hash"
	colDateTime    = "DateTime (UTC)"
	colFrom        = "From"
	colTo          = "To"
	colTokenValue  = "TokenValue"
	colUSDDayOfTx  = "USDValueDayOfTx"
	colTokenSymbol = "TokenSymbol"
)

// allowedSymbols is the fixed allow-list of ERC-20 assets the ledger
// tracks. DAI has no relevant transfers in the covered period and USDCx
// streams are already represented through USDC.
var allowedSymbols = map[string]bool{
	models.SymbolWETH: true,
	models.SymbolUSDC: true,
	models.SymbolENS:  true,
}

// TokenParser normalizes ERC-20 transfer exports.
type TokenParser struct {
	reg *registry.Registry
}

func NewTokenParser(reg *registry.Registry) *TokenParser {
	return &TokenParser{reg: reg}
}

func (p *TokenParser) Parse(file io.Reader) ([]models.CanonicalTransfer, error) {
	columns, records, err := readExport(file)
	if err != nil {
		return nil, err
	}

	var transfers []models.CanonicalTransfer
	for _, record := range records {
		symbol := cell(record, columns, colTokenSymbol)
		if !allowedSymbols[symbol] {
			continue
		}

		date, err := utils.ParseDate(cell(record, columns, colDateTime))
		if err != nil {
			logger.L.Warn("Skipping token row with invalid date", "date", cell(record, columns, colDateTime))
			continue
		}

		// WETH folds into ETH so quarterly sums combine; OriginalWETH keeps
		// the pre-remap form for the later sign-assignment rule.
		originalWETH := symbol == models.SymbolWETH
		if originalWETH {
			symbol = models.SymbolETH
		}

		value := models.ParseMoney(cell(record, columns, colTokenValue))
		usd := models.ParseMoney(cell(record, columns, colUSDDayOfTx))
		if !usd.Valid {
			usd = p.fallbackUSD(symbol, value, date)
		}

		transfers = append(transfers, models.CanonicalTransfer{
			Hash:         cell(record, columns, colTxHash),
			Date:         date,
			From:         cell(record, columns, colFrom),
			To:           cell(record, columns, colTo),
			Value:        value,
			USDValue:     usd,
			Symbol:       symbol,
			OriginalWETH: originalWETH,
		})
	}

	return transfers, nil
}

// fallbackUSD resolves the USD equivalent when the export carries no
// day-of-transfer value (multisends in particular). USDC is the reporting
// stable token, so its value stands in directly; ETH and ENS price via the
// asset price table, where a missing date yields price zero rather than a
// failed row.
func (p *TokenParser) fallbackUSD(symbol string, value models.Money, date time.Time) models.Money {
	switch symbol {
	case models.SymbolUSDC:
		return value
	case models.SymbolETH, models.SymbolENS:
		return value.Mul(p.reg.PriceFor(symbol, date))
	}
	return models.Money{}
}
