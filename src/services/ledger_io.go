package services

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/username/daoledger/src/models"
	"github.com/username/daoledger/src/utils"
)

// Ledger file column names. These match the raw-export vocabulary the
// visualization layer already reads, so the files stay drop-in
// compatible.
var (
	localLedgerHeader = []string{
		"Transaction Hash", "Date", "From", "From_name", "From_category",
		"To", "To_name", "To_category", "Value", "DOT_USD", "Symbol", "Acquainted?",
	}
	quarterlyHeader    = []string{"Quarter", "From_category", "To_category", "Symbol", "Value", "DOT_USD"}
	streamLedgerHeader = []string{"Transaction Hash", "Date", "From", "To", "Value", "DOT_USD", "Symbol", "Acquainted?"}
	streamQuarterlyHdr = []string{"Quarter", "From", "To", "Symbol", "Value", "DOT_USD"}
)

func acquaintedFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func writeLocalLedger(path string, transfers []models.CanonicalTransfer) error {
	rows := make([][]string, 0, len(transfers))
	for _, t := range transfers {
		rows = append(rows, []string{
			t.Hash, t.Date.Format(utils.DateLayout),
			t.From, t.FromName, t.FromCategory,
			t.To, t.ToName, t.ToCategory,
			t.Value.String(), t.USDValue.String(), t.Symbol, acquaintedFlag(t.Acquainted),
		})
	}
	return utils.WriteCSV(path, localLedgerHeader, rows)
}

func writeQuarterlyLedger(path string, flows []models.QuarterlyFlow, header []string) error {
	rows := make([][]string, 0, len(flows))
	for _, f := range flows {
		rows = append(rows, []string{
			f.Quarter, f.FromCategory, f.ToCategory, f.Symbol,
			f.Value.String(), f.USDValue.String(),
		})
	}
	return utils.WriteCSV(path, header, rows)
}

func writeConsolidatedLedger(path string, transfers []models.CanonicalTransfer) error {
	header := append(append([]string{}, localLedgerHeader...), "Quarter")
	rows := make([][]string, 0, len(transfers))
	for _, t := range transfers {
		rows = append(rows, []string{
			t.Hash, t.Date.Format(utils.DateLayout),
			t.From, t.FromName, t.FromCategory,
			t.To, t.ToName, t.ToCategory,
			t.Value.String(), t.USDValue.String(), t.Symbol, acquaintedFlag(t.Acquainted),
			t.Quarter,
		})
	}
	return utils.WriteCSV(path, header, rows)
}

func writeStreamLedger(path string, transfers []models.CanonicalTransfer) error {
	rows := make([][]string, 0, len(transfers))
	for _, t := range transfers {
		rows = append(rows, []string{
			t.Hash, t.Date.Format(utils.DateLayout), t.From, t.To,
			t.Value.String(), t.USDValue.String(), t.Symbol, acquaintedFlag(t.Acquainted),
		})
	}
	return utils.WriteCSV(path, streamLedgerHeader, rows)
}

// readLedgerFile reads any ledger CSV by column name. hasCategories
// reports whether the file carries the classified category columns;
// stream-generated ledgers do not, and consolidation skips them.
func readLedgerFile(path string) (transfers []models.CanonicalTransfer, hasCategories bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read ledger header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	_, hasFrom := columns["From_category"]
	_, hasTo := columns["To_category"]
	hasCategories = hasFrom && hasTo

	records, err := reader.ReadAll()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read ledger records: %w", err)
	}

	get := func(record []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	for _, record := range records {
		date, err := utils.ParseDate(get(record, "Date"))
		if err != nil {
			continue
		}
		transfers = append(transfers, models.CanonicalTransfer{
			Hash:         get(record, "Transaction Hash"),
			Date:         date,
			From:         get(record, "From"),
			FromName:     get(record, "From_name"),
			FromCategory: get(record, "From_category"),
			To:           get(record, "To"),
			ToName:       get(record, "To_name"),
			ToCategory:   get(record, "To_category"),
			Value:        models.ParseMoney(get(record, "Value")),
			USDValue:     models.ParseMoney(get(record, "DOT_USD")),
			Symbol:       get(record, "Symbol"),
			Acquainted:   get(record, "Acquainted?") == "1",
			Quarter:      get(record, "Quarter"),
		})
	}
	return transfers, hasCategories, nil
}
