package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/daoledger/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Checking database migrations", "databasePath", databasePath)
	} else {
		stdlog.Println("Checking database migrations for:", databasePath)
	}

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS consolidated_ledger (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		position INTEGER NOT NULL,
		tx_hash TEXT NOT NULL,
		date TEXT NOT NULL,
		from_addr TEXT NOT NULL,
		from_name TEXT NOT NULL,
		from_category TEXT NOT NULL,
		to_addr TEXT NOT NULL,
		to_name TEXT NOT NULL,
		to_category TEXT NOT NULL,
		value REAL,
		usd_value REAL,
		symbol TEXT NOT NULL,
		acquainted INTEGER NOT NULL DEFAULT 0,
		quarter TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_consolidated_quarter ON consolidated_ledger(quarter);
	CREATE INDEX IF NOT EXISTS idx_consolidated_position ON consolidated_ledger(position);
	`
	if _, err := DB.Exec(createTableStatement); err != nil {
		stdlog.Fatalf("failed to create database tables: %v", err)
	}
}
