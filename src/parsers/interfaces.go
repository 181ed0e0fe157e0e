package parsers

import (
	"io"

	"github.com/username/daoledger/src/models"
)

// Parser normalizes one kind of raw export into the canonical transfer
// schema. Classification and sign resolution happen later; parsers only
// produce date, addresses, signed native value and the USD equivalent.
type Parser interface {
	Parse(file io.Reader) ([]models.CanonicalTransfer, error)
}
