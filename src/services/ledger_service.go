package services

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/daoledger/src/config"
	"github.com/username/daoledger/src/database"
	"github.com/username/daoledger/src/logger"
	"github.com/username/daoledger/src/models"
	"github.com/username/daoledger/src/parsers"
	"github.com/username/daoledger/src/processors"
	"github.com/username/daoledger/src/registry"
)

const (
	ckConsolidatedLedger = "res_consolidated_ledger"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

// streamWallet names the ledger the recurring payment generator owns.
const streamWallet = processors.EntityServiceProviders

type ledgerServiceImpl struct {
	reg          *registry.Registry
	merger       *processors.TransferMerger
	classifier   *processors.WalletClassifier
	aggregator   *processors.QuarterAggregator
	balances     *processors.BalanceEngine
	sorter       *processors.QuarterlySorter
	consolidator *processors.LedgerConsolidator
	streams      *processors.StreamGenerator
	reportCache  *cache.Cache
}

func NewLedgerService(reg *registry.Registry, reportCache *cache.Cache) LedgerService {
	balances := processors.NewBalanceEngine(reg)
	return &ledgerServiceImpl{
		reg:          reg,
		merger:       processors.NewTransferMerger(),
		classifier:   processors.NewWalletClassifier(reg),
		aggregator:   processors.NewQuarterAggregator(),
		balances:     balances,
		sorter:       processors.NewQuarterlySorter(),
		consolidator: processors.NewLedgerConsolidator(reg, balances),
		streams:      processors.NewStreamGenerator(),
		reportCache:  reportCache,
	}
}

func (s *ledgerServiceImpl) ProcessAllWallets() error {
	entries, err := os.ReadDir(config.Cfg.RawTxDir)
	if err != nil {
		return fmt.Errorf("reading raw export directory %s: %w", config.Cfg.RawTxDir, err)
	}

	processed := 0
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "$") {
			continue
		}
		wallet := strings.TrimPrefix(entry.Name(), "$")
		folder := filepath.Join(config.Cfg.RawTxDir, entry.Name())

		if err := s.processWallet(wallet, folder); err != nil {
			// One wallet's bad input must not take the batch down.
			logger.L.Error("Wallet pipeline failed, continuing with remaining wallets",
				"wallet", wallet, "error", fmt.Errorf("%w: %v", ErrWalletFailed, err))
			continue
		}
		processed++
	}

	logger.L.Info("Per-wallet processing finished", "processed", processed)
	return nil
}

// processWallet runs one wallet end to end: parse both exports, merge,
// classify, write the local ledger, then aggregate and write the
// quarterly ledger.
func (s *ledgerServiceImpl) processWallet(wallet, folder string) error {
	startTime := time.Now()

	token, err := s.parseExport(parsers.KindToken, filepath.Join(folder, "token.csv"))
	if err != nil {
		return err
	}
	internal, err := s.parseExport(parsers.KindInternal, filepath.Join(folder, "internal.csv"))
	if err != nil {
		return err
	}

	merged := s.merger.Merge(token, internal)
	named := s.classifier.Classify(merged, wallet)

	localPath := filepath.Join(config.Cfg.LocalLedgersDir, wallet+".csv")
	if err := writeLocalLedger(localPath, named); err != nil {
		return err
	}

	flows := s.aggregator.Group(named)
	flows = append(flows, s.balances.AddUnspentBalances(flows, wallet)...)
	sort.SliceStable(flows, func(i, j int) bool { return flows[i].Quarter < flows[j].Quarter })
	final := s.sorter.Sort(flows, wallet)

	quarterlyPath := filepath.Join(config.Cfg.QuarterlyLedgersDir, wallet+"_q.csv")
	if err := writeQuarterlyLedger(quarterlyPath, final, quarterlyHeader); err != nil {
		return err
	}

	logger.L.Info("Wallet processed",
		"wallet", wallet,
		"transfers", len(named),
		"quarterlyRows", len(final),
		"durationMs", time.Since(startTime).Milliseconds())
	return nil
}

func (s *ledgerServiceImpl) parseExport(kind, path string) ([]models.CanonicalTransfer, error) {
	parser, err := parsers.GetParser(kind, s.reg)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s export: %w", kind, err)
	}
	defer f.Close()

	transfers, err := parser.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s export %s: %w", kind, path, err)
	}
	return transfers, nil
}

func (s *ledgerServiceImpl) ExtendServiceProviderStreams(today time.Time) error {
	path := filepath.Join(config.Cfg.LocalLedgersDir, streamWallet+".csv")

	var existing []models.CanonicalTransfer
	if _, err := os.Stat(path); err == nil {
		existing, _, err = readLedgerFile(path)
		if err != nil {
			return fmt.Errorf("reading stream ledger: %w", err)
		}
		// Older stream files predate the symbol column.
		for i := range existing {
			existing[i].Symbol = models.SymbolUSDC
		}
	}

	generated := s.streams.Extend(existing, today)
	all := append(existing, generated...)

	if err := writeStreamLedger(path, all); err != nil {
		return err
	}
	quarterlyPath := filepath.Join(config.Cfg.QuarterlyLedgersDir, streamWallet+"_q.csv")
	if err := writeQuarterlyLedger(quarterlyPath, s.streams.GroupByQuarter(all), streamQuarterlyHdr); err != nil {
		return err
	}

	logger.L.Info("Service provider streams extended", "newRows", len(generated), "totalRows", len(all))
	return nil
}

func (s *ledgerServiceImpl) Consolidate() ([]models.CanonicalTransfer, error) {
	matches, err := filepath.Glob(filepath.Join(config.Cfg.LocalLedgersDir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("listing local ledgers: %w", err)
	}
	sort.Strings(matches)

	var ledgers []processors.WalletLedger
	for _, path := range matches {
		transfers, hasCategories, err := readLedgerFile(path)
		if err != nil {
			logger.L.Error("Skipping unreadable local ledger", "path", path, "error", err)
			continue
		}
		if !hasCategories {
			// Stream-schema ledgers have no classified categories and are
			// consolidated through their owning wallet's rows instead.
			logger.L.Debug("Skipping ledger without category columns", "path", path)
			continue
		}
		wallet := strings.TrimSuffix(filepath.Base(path), ".csv")
		ledgers = append(ledgers, processors.WalletLedger{Wallet: wallet, Transfers: transfers})
	}
	if len(ledgers) == 0 {
		return nil, ErrNoLedgers
	}

	rows := s.consolidator.Consolidate(ledgers)

	if err := writeConsolidatedLedger(config.Cfg.ConsolidatedPath, rows); err != nil {
		return nil, err
	}
	if err := database.ReplaceConsolidated(rows); err != nil {
		return nil, fmt.Errorf("persisting consolidated ledger: %w", err)
	}
	s.reportCache.Set(ckConsolidatedLedger, rows, cache.NoExpiration)

	logger.L.Info("Consolidation finished", "wallets", len(ledgers), "rows", len(rows))
	return rows, nil
}

func (s *ledgerServiceImpl) ConsolidatedLedger() ([]models.CanonicalTransfer, error) {
	if cached, ok := s.reportCache.Get(ckConsolidatedLedger); ok {
		return cached.([]models.CanonicalTransfer), nil
	}
	rows, err := database.LoadConsolidated()
	if err != nil {
		return nil, err
	}
	s.reportCache.Set(ckConsolidatedLedger, rows, cache.NoExpiration)
	return rows, nil
}

func (s *ledgerServiceImpl) Quarters() ([]string, error) {
	rows, err := s.ConsolidatedLedger()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var quarters []string
	for _, t := range rows {
		if t.Quarter == "" || seen[t.Quarter] {
			continue
		}
		seen[t.Quarter] = true
		if reportableQuarter(t.Quarter) {
			quarters = append(quarters, t.Quarter)
		}
	}
	sort.Strings(quarters)
	return quarters, nil
}

// reportableQuarter hides quarters before the DAO's first funded one;
// 2022 Q1 predates any working group activity.
func reportableQuarter(quarter string) bool {
	fields := strings.Fields(quarter)
	if len(fields) < 2 {
		return false
	}
	year, err := strconv.Atoi(fields[0])
	if err != nil {
		return false
	}
	q, err := strconv.Atoi(strings.TrimPrefix(fields[1], "Q"))
	if err != nil {
		return false
	}
	return year > 2022 || (year == 2022 && q >= 2)
}
