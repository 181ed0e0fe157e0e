package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port     string
	LogLevel string

	// Pipeline directories. Raw exports live in one folder per wallet
	// ($<Name> naming convention); each run rewrites the ledger outputs.
	RawTxDir            string
	LocalLedgersDir     string
	QuarterlyLedgersDir string
	ConsolidatedPath    string

	// Reference registry files.
	WalletRegistryPath string
	TxOverridesPath    string
	AssetPricesPath    string

	DatabasePath string
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	Cfg = &AppConfig{
		Port:                getEnv("PORT", "8080"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		RawTxDir:            getEnv("RAW_TX_DIR", "raw_txs"),
		LocalLedgersDir:     getEnv("LOCAL_LEDGERS_DIR", "local_ledgers"),
		QuarterlyLedgersDir: getEnv("QUARTERLY_LEDGERS_DIR", "quarterly_ledgers"),
		ConsolidatedPath:    getEnv("CONSOLIDATED_LEDGER_PATH", "d_ledgers.csv"),
		WalletRegistryPath:  getEnv("WALLET_REGISTRY_PATH", "data/wallets.csv"),
		TxOverridesPath:     getEnv("TX_OVERRIDES_PATH", "data/overrides.csv"),
		AssetPricesPath:     getEnv("ASSET_PRICES_PATH", "data/prices.csv"),
		DatabasePath:        getEnv("DATABASE_PATH", "./daoledger.db"),
	}

	log.Printf("Configuration loaded. RawTxDir: %s, DatabasePath: %s, Port: %s",
		Cfg.RawTxDir, Cfg.DatabasePath, Cfg.Port)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	log.Printf("Environment variable %s not set or empty, using fallback: %s", key, fallback)
	return fallback
}
