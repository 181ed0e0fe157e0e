package database

import (
	"fmt"

	"github.com/username/daoledger/src/models"
	"github.com/username/daoledger/src/utils"
)

// ReplaceConsolidated swaps the stored consolidated ledger for the given
// rows in one transaction, preserving presentation order.
func ReplaceConsolidated(rows []models.CanonicalTransfer) error {
	tx, err := DB.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM consolidated_ledger`); err != nil {
		return fmt.Errorf("clearing consolidated ledger: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO consolidated_ledger (
			position, tx_hash, date,
			from_addr, from_name, from_category,
			to_addr, to_name, to_category,
			value, usd_value, symbol, acquainted, quarter
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range rows {
		acquainted := 0
		if t.Acquainted {
			acquainted = 1
		}
		if _, err := stmt.Exec(
			i, t.Hash, t.Date.Format(utils.DateLayout),
			t.From, t.FromName, t.FromCategory,
			t.To, t.ToName, t.ToCategory,
			t.Value, t.USDValue, t.Symbol, acquainted, t.Quarter,
		); err != nil {
			return fmt.Errorf("inserting consolidated row %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// LoadConsolidated reads the stored consolidated ledger back in
// presentation order.
func LoadConsolidated() ([]models.CanonicalTransfer, error) {
	query := `
		SELECT tx_hash, date,
		       from_addr, from_name, from_category,
		       to_addr, to_name, to_category,
		       value, usd_value, symbol, acquainted, quarter
		FROM consolidated_ledger ORDER BY position`
	result, err := DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("querying consolidated ledger: %w", err)
	}
	defer result.Close()

	var rows []models.CanonicalTransfer
	for result.Next() {
		var t models.CanonicalTransfer
		var date string
		var acquainted int
		if err := result.Scan(
			&t.Hash, &date,
			&t.From, &t.FromName, &t.FromCategory,
			&t.To, &t.ToName, &t.ToCategory,
			&t.Value, &t.USDValue, &t.Symbol, &acquainted, &t.Quarter,
		); err != nil {
			return nil, fmt.Errorf("scanning consolidated row: %w", err)
		}
		parsed, err := utils.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("invalid stored date %q: %w", date, err)
		}
		t.Date = parsed
		t.Acquainted = acquainted == 1
		rows = append(rows, t)
	}
	return rows, result.Err()
}
