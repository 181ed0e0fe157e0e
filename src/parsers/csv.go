package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// readExport reads a raw export file and maps its header columns to
// indices. Etherscan-style exports vary in trailing columns, so rows are
// addressed by column name rather than position.
func readExport(file io.Reader) (map[string]int, [][]string, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read all CSV records: %w", err)
	}
	return columns, records, nil
}

// cell returns the named column of a record, or "" when the export lacks
// the column or the row is short.
func cell(record []string, columns map[string]int, name string) string {
	idx, ok := columns[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
