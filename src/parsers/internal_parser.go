package parsers

import (
	"io"

	"github.com/username/daoledger/src/logger"
	"github.com/username/daoledger/src/models"
	"github.com/username/daoledger/src/utils"
)

// Internal-transfer export column names.
const (
	colTxTo      = "TxTo"
	colValueIn   = "Value_IN(ETH)"
	colValueOut  = "Value_OUT(ETH)"
	colHistPrice = "Historical $Price/Eth"
	colStatus    = "Status"
)

// InternalParser normalizes internal ETH movement exports. Each row
// carries separate inbound and outbound columns; the signed value is
// derived from whichever side is nonzero.
type InternalParser struct{}

func NewInternalParser() *InternalParser {
	return &InternalParser{}
}

func (p *InternalParser) Parse(file io.Reader) ([]models.CanonicalTransfer, error) {
	columns, records, err := readExport(file)
	if err != nil {
		return nil, err
	}

	var transfers []models.CanonicalTransfer
	for _, record := range records {
		// Status 1 marks a failed execution.
		if cell(record, columns, colStatus) == "1" {
			continue
		}

		date, err := utils.ParseDate(cell(record, columns, colDateTime))
		if err != nil {
			logger.L.Warn("Skipping internal row with invalid date", "date", cell(record, columns, colDateTime))
			continue
		}

		in := models.ParseMoney(cell(record, columns, colValueIn))
		out := models.ParseMoney(cell(record, columns, colValueOut))
		value := signedInternalValue(in, out)

		price := models.ParseMoney(cell(record, columns, colHistPrice))
		usd := models.Money{}
		if price.Valid {
			usd = value.Mul(price.Decimal)
		}

		transfers = append(transfers, models.CanonicalTransfer{
			Hash:     cell(record, columns, colTxHash),
			Date:     date,
			From:     cell(record, columns, colFrom),
			To:       cell(record, columns, colTxTo),
			Value:    value,
			USDValue: usd,
			Symbol:   models.SymbolETH,
		})
	}

	return transfers, nil
}

// signedInternalValue resolves the signed transfer value from the paired
// inbound/outbound columns: inbound when the outbound side is zero,
// negated outbound when the inbound side is zero. A row with both sides
// nonzero is malformed source data; max(in, -out) is kept as the
// tie-break so such rows keep producing the same output they always have.
func signedInternalValue(in, out models.Money) models.Money {
	switch {
	case out.IsZero():
		return in
	case in.IsZero():
		return out.Neg()
	case in.Valid && out.Valid:
		negOut := out.Neg()
		if in.Decimal.GreaterThan(negOut.Decimal) {
			return in
		}
		return negOut
	default:
		// One side unparsable and the other nonzero: value is unknowable.
		return models.Money{}
	}
}
