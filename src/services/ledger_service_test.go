package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/username/daoledger/src/config"
	"github.com/username/daoledger/src/models"
	"github.com/username/daoledger/src/registry"
	"github.com/username/daoledger/src/utils"
)

func setupPipelineDirs(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	config.Cfg = &config.AppConfig{
		RawTxDir:            filepath.Join(dir, "raw_txs"),
		LocalLedgersDir:     filepath.Join(dir, "local_ledgers"),
		QuarterlyLedgersDir: filepath.Join(dir, "quarterly_ledgers"),
		ConsolidatedPath:    filepath.Join(dir, "d_ledgers.csv"),
	}
	if err := os.MkdirAll(config.Cfg.RawTxDir, 0755); err != nil {
		t.Fatal(err)
	}
}

func writeExport(t *testing.T, folder, name, content string) {
	t.Helper()
	if err := os.MkdirAll(folder, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(folder, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func pipelineRegistry() *registry.Registry {
	reg := registry.New()
	reg.AddWallet(registry.WalletEntity{Address: "0xeco", Category: "Ecosystem", Name: "Ecosystem"})
	reg.AddWallet(registry.WalletEntity{Address: "0xdao", Category: "DAO Wallet", Name: "DAO Wallet"})
	reg.AddPrice(utils.Date(2023, time.March, 31), registry.PricePoint{
		ENS: decimal.NewFromInt(10),
		ETH: decimal.NewFromInt(1500),
	})
	return reg
}

func newTestService() LedgerService {
	return NewLedgerService(pipelineRegistry(), cache.New(DefaultCacheExpiration, CacheCleanupInterval))
}

func TestProcessAllWallets_EndToEnd(t *testing.T) {
	setupPipelineDirs(t)

	folder := filepath.Join(config.Cfg.RawTxDir, "$Ecosystem")
	writeExport(t, folder, "token.csv",
		"Transaction Hash,DateTime (UTC),From,To,TokenValue,USDValueDayOfTx,TokenSymbol\n"+
			"0xa,2023-02-01 10:00:00,0xdao,0xeco,1000,1000,USDC\n"+
			"0xb,2023-02-15 10:00:00,0xeco,0xp,200,200,USDC\n")
	writeExport(t, folder, "internal.csv",
		"Transaction Hash,DateTime (UTC),From,TxTo,Value_IN(ETH),Value_OUT(ETH),Historical $Price/Eth,Status\n"+
			"0xc,2023-02-20 10:00:00,0xdao,0xeco,2,0,1500,\n")
	// Folders without the $ prefix are not wallet exports.
	writeExport(t, filepath.Join(config.Cfg.RawTxDir, "notes"), "token.csv", "Transaction Hash\n")

	svc := newTestService()
	if err := svc.ProcessAllWallets(); err != nil {
		t.Fatalf("ProcessAllWallets: %v", err)
	}

	local := filepath.Join(config.Cfg.LocalLedgersDir, "Ecosystem.csv")
	transfers, hasCategories, err := readLedgerFile(local)
	if err != nil {
		t.Fatalf("reading local ledger: %v", err)
	}
	if !hasCategories {
		t.Error("local ledger missing category columns")
	}
	if len(transfers) != 3 {
		t.Fatalf("expected 3 transfers, got %d", len(transfers))
	}
	for _, tr := range transfers {
		if tr.Hash == "0xa" && (!tr.Acquainted || tr.FromCategory != "DAO Wallet") {
			t.Errorf("classification not applied: %+v", tr)
		}
	}

	quarterly := filepath.Join(config.Cfg.QuarterlyLedgersDir, "Ecosystem_q.csv")
	if _, err := os.Stat(quarterly); err != nil {
		t.Errorf("quarterly ledger not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(config.Cfg.LocalLedgersDir, "notes.csv")); err == nil {
		t.Error("non-wallet folder should be ignored")
	}
}

func TestProcessAllWallets_BadWalletDoesNotAbort(t *testing.T) {
	setupPipelineDirs(t)

	// $Broken has no export files at all; $Good is complete.
	if err := os.MkdirAll(filepath.Join(config.Cfg.RawTxDir, "$Broken"), 0755); err != nil {
		t.Fatal(err)
	}
	good := filepath.Join(config.Cfg.RawTxDir, "$Good")
	writeExport(t, good, "token.csv",
		"Transaction Hash,DateTime (UTC),From,To,TokenValue,USDValueDayOfTx,TokenSymbol\n"+
			"0xa,2023-02-01 10:00:00,0xdao,0xeco,1000,1000,USDC\n")
	writeExport(t, good, "internal.csv",
		"Transaction Hash,DateTime (UTC),From,TxTo,Value_IN(ETH),Value_OUT(ETH),Historical $Price/Eth,Status\n")

	if err := newTestService().ProcessAllWallets(); err != nil {
		t.Fatalf("a failed wallet must not abort the batch: %v", err)
	}
	if _, err := os.Stat(filepath.Join(config.Cfg.LocalLedgersDir, "Good.csv")); err != nil {
		t.Errorf("surviving wallet not processed: %v", err)
	}
}

func TestExtendServiceProviderStreams(t *testing.T) {
	setupPipelineDirs(t)

	svc := newTestService()
	if err := svc.ExtendServiceProviderStreams(utils.Date(2024, time.January, 3)); err != nil {
		t.Fatalf("ExtendServiceProviderStreams: %v", err)
	}

	path := filepath.Join(config.Cfg.LocalLedgersDir, "Service Providers.csv")
	transfers, hasCategories, err := readLedgerFile(path)
	if err != nil {
		t.Fatalf("reading stream ledger: %v", err)
	}
	if hasCategories {
		t.Error("stream ledger should use the category-free schema")
	}
	// Nine providers, three days.
	if len(transfers) != 27 {
		t.Fatalf("expected 27 rows, got %d", len(transfers))
	}

	// A second run a day later appends exactly one more day.
	if err := svc.ExtendServiceProviderStreams(utils.Date(2024, time.January, 4)); err != nil {
		t.Fatalf("second extension: %v", err)
	}
	transfers, _, err = readLedgerFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(transfers) != 36 {
		t.Fatalf("expected 36 rows after extension, got %d", len(transfers))
	}

	if _, err := os.Stat(filepath.Join(config.Cfg.QuarterlyLedgersDir, "Service Providers_q.csv")); err != nil {
		t.Errorf("stream quarterly ledger not written: %v", err)
	}
}

func TestQuarters_FromCachedLedger(t *testing.T) {
	reportCache := cache.New(DefaultCacheExpiration, CacheCleanupInterval)
	svc := NewLedgerService(pipelineRegistry(), reportCache)

	reportCache.Set(ckConsolidatedLedger, []models.CanonicalTransfer{
		{Quarter: "2023 Q1"},
		{Quarter: "2022 Q2"},
		{Quarter: "2022 Q2"},
		{Quarter: "2022 Q1"}, // predates the reportable range
	}, cache.NoExpiration)

	quarters, err := svc.Quarters()
	if err != nil {
		t.Fatalf("Quarters: %v", err)
	}
	want := []string{"2022 Q2", "2023 Q1"}
	if len(quarters) != len(want) {
		t.Fatalf("quarters: %v", quarters)
	}
	for i := range want {
		if quarters[i] != want[i] {
			t.Errorf("quarters[%d] = %s, want %s", i, quarters[i], want[i])
		}
	}
}
