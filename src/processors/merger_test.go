package processors

import (
	"testing"
	"time"

	"github.com/username/daoledger/src/models"
	"github.com/username/daoledger/src/utils"
)

func transfer(hash string, date time.Time, from, to, value, symbol string) models.CanonicalTransfer {
	return models.CanonicalTransfer{
		Hash:     hash,
		Date:     date,
		From:     from,
		To:       to,
		Value:    models.ParseMoney(value),
		USDValue: models.ParseMoney(value),
		Symbol:   symbol,
	}
}

func TestMerger_OrdersByDate(t *testing.T) {
	token := []models.CanonicalTransfer{
		transfer("0xb", utils.Date(2023, time.May, 2), "0x1", "0x2", "10", models.SymbolUSDC),
	}
	internal := []models.CanonicalTransfer{
		transfer("0xa", utils.Date(2023, time.May, 1), "0x1", "0x2", "2", models.SymbolETH),
	}

	merged := NewTransferMerger().Merge(token, internal)
	if len(merged) != 2 {
		t.Fatalf("expected 2 transfers, got %d", len(merged))
	}
	if merged[0].Hash != "0xa" || merged[1].Hash != "0xb" {
		t.Errorf("expected date order 0xa,0xb; got %s,%s", merged[0].Hash, merged[1].Hash)
	}
}

func TestMerger_DropsNoise(t *testing.T) {
	day := utils.Date(2023, time.May, 1)
	token := []models.CanonicalTransfer{
		transfer("0xzero", day, "0x1", "0x2", "0", models.SymbolUSDC),
		transfer("0xtest", day, "0x1", "0x2", "1", models.SymbolUSDC),
		transfer("0xself", day, "0x1", "0x1", "50", models.SymbolUSDC),
		transfer("0xkeep", day, "0x1", "0x2", "50", models.SymbolUSDC),
		// 1 ETH is a real transfer; only the USDC test value is noise.
		transfer("0xeth", day, "0x1", "0x2", "1", models.SymbolETH),
	}

	merged := NewTransferMerger().Merge(token, nil)
	if len(merged) != 2 {
		t.Fatalf("expected 2 surviving transfers, got %d", len(merged))
	}
	if merged[0].Hash != "0xkeep" || merged[1].Hash != "0xeth" {
		t.Errorf("unexpected survivors: %s,%s", merged[0].Hash, merged[1].Hash)
	}
}

func TestMerger_KeepsNullValueRows(t *testing.T) {
	day := utils.Date(2023, time.May, 1)
	token := []models.CanonicalTransfer{
		transfer("0xnull", day, "0x1", "0x2", "not-a-number", models.SymbolUSDC),
	}

	merged := NewTransferMerger().Merge(token, nil)
	if len(merged) != 1 {
		t.Fatalf("expected null-value row kept, got %d transfers", len(merged))
	}
	if merged[0].Value.Valid {
		t.Error("expected value to remain null")
	}
}
